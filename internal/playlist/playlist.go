// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playlist loads, validates, and fingerprints the JSON program
// list for one broadcast day.
package playlist

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/media"
	"github.com/halvar-dev/playout/internal/platform/paths"
)

// entry is the on-disk shape of one program item, per spec §6.
type entry struct {
	In           float64 `json:"in"`
	Out          float64 `json:"out"`
	Duration     float64 `json:"duration"`
	Source       string  `json:"source"`
	Category     string  `json:"category"`
	Audio        string  `json:"audio,omitempty"`
	CustomFilter string  `json:"custom_filter,omitempty"`
}

// document is the on-disk shape of one broadcast day's playlist file.
type document struct {
	Channel string  `json:"channel"`
	Date    string  `json:"date"`
	Program []entry `json:"program"`
}

// JsonPlaylist is an ordered sequence of Media for one broadcast day,
// plus the bookkeeping the scheduler needs to detect and react to
// hot-reloads.
type JsonPlaylist struct {
	Channel string
	Date    string

	SourcePath string
	ModFingerprint string

	StartSec float64

	Program []media.Media
}

// Load reads the playlist file at path, converts it into Media values,
// and assigns each one its begin time by accumulating (out-seek) from
// startSec. Each load is tagged with a fresh correlation ID for log
// correlation, mirroring the teacher's per-request ID convention.
func Load(path string, startSec float64) (JsonPlaylist, error) {
	correlationID := uuid.NewString()
	logger := log.WithComponent("playlist")

	info, err := os.Stat(path)
	if err != nil {
		return JsonPlaylist{}, fmt.Errorf("playlist: stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is resolved via paths.ValidatePlaylistPath
	if err != nil {
		return JsonPlaylist{}, fmt.Errorf("playlist: read %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return JsonPlaylist{}, fmt.Errorf("playlist: parse %s: %w", path, err)
	}

	list := JsonPlaylist{
		Channel:        doc.Channel,
		Date:           doc.Date,
		SourcePath:     path,
		ModFingerprint: fingerprint(info),
		StartSec:       startSec,
		Program:        make([]media.Media, len(doc.Program)),
	}

	begin := startSec
	for i, e := range doc.Program {
		m := media.New(i, e.Source)
		m.Seek = e.In
		m.Out = e.Out
		m.Duration = e.Duration
		m.Category = e.Category
		m.AudioPath = e.Audio
		m.AudioIsRemote = looksRemote(e.Audio)
		m.CustomFilter = e.CustomFilter

		b := begin
		m.Begin = &b

		list.Program[i] = m
		begin += e.Out - e.In
	}

	logger.Info().
		Str("correlation_id", correlationID).
		Str("path", path).
		Int("clips", len(list.Program)).
		Msg("playlist loaded")

	return list, nil
}

// fingerprint derives a change-detection token from a file's modtime
// and size, matching spec §6's "mtime fingerprint" wording while being
// resilient to filesystems with coarse mtime resolution.
func fingerprint(info os.FileInfo) string {
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
}

// Changed reports whether the playlist file at list.SourcePath has a
// different fingerprint than the one recorded in list, without
// re-reading its contents.
func Changed(list JsonPlaylist) (bool, error) {
	info, err := os.Stat(list.SourcePath)
	if err != nil {
		return false, err
	}
	return fingerprint(info) != list.ModFingerprint, nil
}

// ResolvePath builds and validates the path of the playlist file for
// day under the configured storage root.
func ResolvePath(storageRoot string, day time.Time) (string, error) {
	rel := paths.DailyPlaylistRelPath(day)
	return paths.ValidatePlaylistPath(storageRoot, rel)
}

// Validate runs a read-only pre-flight sanity pass over list: every
// clip's source must exist (an empty source, which the scheduler fills
// with generated filler, is exempt), and durations must be non-negative. It never mutates list
// and is intended for an operator tool to run before airtime, not on
// the scheduler's hot path.
func Validate(list JsonPlaylist) []error {
	var errs []error
	for _, m := range list.Program {
		if m.Seek < 0 {
			errs = append(errs, fmt.Errorf("clip %d (%s): negative seek %v", m.Index, m.Source, m.Seek))
		}
		if m.Out < m.Seek {
			errs = append(errs, fmt.Errorf("clip %d (%s): out %v before seek %v", m.Index, m.Source, m.Out, m.Seek))
		}
		if m.Duration < 0 {
			errs = append(errs, fmt.Errorf("clip %d (%s): negative duration %v", m.Index, m.Source, m.Duration))
		}
		if m.Source != "" {
			if _, err := os.Stat(m.Source); err != nil {
				errs = append(errs, fmt.Errorf("clip %d: source not found: %s", m.Index, m.Source))
			}
		}
		if m.AudioPath != "" && !looksRemote(m.AudioPath) {
			if _, err := os.Stat(m.AudioPath); err != nil {
				errs = append(errs, fmt.Errorf("clip %d: audio source not found: %s", m.Index, m.AudioPath))
			}
		}
	}
	return errs
}

func looksRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
