// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package clock implements the wall-clock and delta arithmetic the
// scheduler uses to decide whether playout is in sync with the
// configured broadcast day.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecondsPerDay is the length of a broadcast day when no explicit
// playlist length is configured.
const SecondsPerDay = 86400.0

// DummyLen bounds the length of a single synthetic filler clip.
const DummyLen = 60.0

// Unit identifies which stage of the pipeline a Media node belongs to.
// It governs which filters the compiler applies.
type Unit string

const (
	// Decoder nodes are ordinary scheduled source clips.
	Decoder Unit = "decoder"
	// Ingest nodes come from a live input feed spliced in on demand.
	Ingest Unit = "ingest"
	// Encoder nodes represent the output stage; only drawtext applies.
	Encoder Unit = "encoder"
)

// TimeToSec parses an "HH:MM:SS" or "HH:MM:SS.ms" clock string into
// seconds. The result is not wrapped into a single day, so "24:00:00"
// yields 86400 (as used for a full-day playlist length). An empty
// string yields 0.
func TimeToSec(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("clock: invalid time string %q, want HH:MM:SS", value)
	}

	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("clock: invalid hours in %q: %w", value, err)
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, fmt.Errorf("clock: invalid minutes in %q: %w", value, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("clock: invalid seconds in %q: %w", value, err)
	}

	total := hours*3600 + minutes*60 + seconds
	return total, nil
}

// nowFn is overridden in tests to make GetSec deterministic.
var nowFn = time.Now

// GetSec returns the current seconds-of-day in the local timezone,
// wrapped into [0, 86400).
func GetSec() float64 {
	now := nowFn().Local()
	sec := float64(now.Hour())*3600 + float64(now.Minute())*60 + float64(now.Second()) + float64(now.Nanosecond())/1e9
	return sec
}

// SyncConfig carries the fields GetDelta and CheckSync need; it is kept
// narrow so clock does not depend on internal/config.
type SyncConfig struct {
	// DayStartSec is the configured start-of-day offset in seconds.
	DayStartSec float64
	// LengthSec is the configured broadcast day length in seconds, or
	// SecondsPerDay when the playlist has no fixed length.
	LengthSec float64
	// StopThreshold is the slack, in seconds, within which playout is
	// considered in sync.
	StopThreshold float64
}

// GetDelta reports how far the clip that began at beginSec is ahead of
// or behind the current wall-clock time, and how many seconds remain in
// the broadcast day. delta is corrected for day-length wraparound so
// that |delta| stays at or below half the day length whenever possible.
func GetDelta(cfg SyncConfig, beginSec float64) (delta, totalDelta float64) {
	length := cfg.LengthSec
	if length <= 0 {
		length = SecondsPerDay
	}

	sec := GetSec()
	delta = sec - beginSec

	if delta > length/2 {
		delta -= length
	} else if delta < -length/2 {
		delta += length
	}

	totalDelta = length - (sec - cfg.DayStartSec)
	if sec < cfg.DayStartSec {
		totalDelta = length - (sec + SecondsPerDay - cfg.DayStartSec)
	}

	return delta, totalDelta
}

// CheckSync reports whether delta is within the configured stop
// threshold, i.e. whether the playing clip is considered in sync.
func CheckSync(delta float64, cfg SyncConfig) bool {
	d := delta
	if d < 0 {
		d = -d
	}
	return d <= cfg.StopThreshold
}
