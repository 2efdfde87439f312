// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package netutil provides small helpers for reserving local network
// resources needed by the drawtext ZMQ sockets.
package netutil

import (
	"fmt"
	"net"
)

// FreeLoopbackPort asks the kernel for an unused TCP port on 127.0.0.1
// and returns it immediately closed, so the caller can hand it to an
// external process. exclude is checked so the returned port never
// collides with one already reserved in the same config-load pass.
func FreeLoopbackPort(exclude ...int) (int, error) {
	for attempt := 0; attempt < 8; attempt++ {
		port, err := probePort()
		if err != nil {
			return 0, err
		}
		if !contains(exclude, port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("netutil: could not find a free loopback port distinct from %v", exclude)
}

func probePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("netutil: reserve loopback port: %w", err)
	}
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("netutil: unexpected listener address type %T", l.Addr())
	}
	return addr.Port, nil
}

func contains(ports []int, port int) bool {
	for _, p := range ports {
		if p == port {
			return true
		}
	}
	return false
}
