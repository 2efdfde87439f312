// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

// Sentinel errors callers can branch on, matching the taxonomy entries
// a config-invalid condition maps to.
var (
	// ErrConfigMissing is returned when no config file could be found
	// at any of the resolution-order candidates.
	ErrConfigMissing = errors.New("config: no configuration file found")

	// ErrUnsupportedFormat is returned when the resolved path's
	// extension isn't .yml/.yaml.
	ErrUnsupportedFormat = errors.New("config: unsupported configuration format")

	// ErrInvalidOutputMode is returned when out.mode isn't one of the
	// known output destinations.
	ErrInvalidOutputMode = errors.New("config: invalid out.mode")

	// ErrAudioTracksInvalid is returned when processing.audio_tracks < 1.
	ErrAudioTracksInvalid = errors.New("config: processing.audio_tracks must be >= 1")
)
