// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command probe runs the read-only playlist pre-flight check: load one
// broadcast day's playlist and report every invariant playlist.Validate
// can catch (missing sources, negative durations) before airtime.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/halvar-dev/playout/internal/config"
	plog "github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/playlist"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	day := flag.String("date", "", "broadcast day to validate, YYYY-MM-DD (default: today)")
	flag.Parse()

	plog.Configure(plog.Config{Level: "info", Service: "playout-probe"})
	logger := plog.WithComponent("probe")

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		logger.Fatal().Err(err).Str("event", "config_invalid").Msg("failed to load configuration")
	}

	target := time.Now()
	if *day != "" {
		target, err = time.Parse("2006-01-02", *day)
		if err != nil {
			logger.Fatal().Err(err).Str("date", *day).Msg("invalid -date, expected YYYY-MM-DD")
		}
	}

	path, err := playlist.ResolvePath(cfg.Playlist.Path, target)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "playlist_missing").Msg("could not resolve playlist path")
	}

	list, err := playlist.Load(path, cfg.Playlist.DayStartSec)
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Str("event", "playlist_missing").Msg("failed to load playlist")
	}

	errs := playlist.Validate(list)
	if len(errs) == 0 {
		fmt.Printf("OK: %s (%d clips) has no pre-flight issues\n", path, len(list.Program))
		return
	}

	fmt.Printf("FAIL: %s has %d issue(s):\n", path, len(errs))
	for _, e := range errs {
		fmt.Printf("  - %v\n", e)
	}
	os.Exit(1)
}
