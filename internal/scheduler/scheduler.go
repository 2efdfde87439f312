// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scheduler

import (
	"context"
	"time"

	"github.com/halvar-dev/playout/internal/clock"
	"github.com/halvar-dev/playout/internal/config"
	"github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/media"
	"github.com/halvar-dev/playout/internal/metrics"
	"github.com/halvar-dev/playout/internal/pipeline/fsm"
	"github.com/halvar-dev/playout/internal/playlist"
)

// CurrentProgram is a lazy sequence of Media: each call to Next yields
// the next scheduled clip, synthesizing filler as needed so the
// broadcast day is always covered. It holds the list and yields value
// copies of Media, never back-references, so there is no cycle between
// the scheduler and the clips it yields.
type CurrentProgram struct {
	cfg      config.PlayoutConfig
	mediaCfg media.Config

	nowFn  func() float64
	dateFn func() time.Time

	list    playlist.JsonPlaylist
	hasList bool

	node  media.Media
	state State
	index int

	machine *fsm.Machine[State, Event]
}

// Option customizes a CurrentProgram at construction, primarily for
// deterministic tests.
type Option func(*CurrentProgram)

// WithNowFn overrides the seconds-of-day clock.
func WithNowFn(fn func() float64) Option {
	return func(cp *CurrentProgram) { cp.nowFn = fn }
}

// WithDateFn overrides the wall-clock date used to resolve playlist
// files.
func WithDateFn(fn func() time.Time) Option {
	return func(cp *CurrentProgram) { cp.dateFn = fn }
}

// New constructs a CurrentProgram and performs the initial init-to-now
// walk described in spec §4.6.
func New(cfg config.PlayoutConfig, mediaCfg media.Config, opts ...Option) (*CurrentProgram, error) {
	m, err := newMachine()
	if err != nil {
		return nil, err
	}

	cp := &CurrentProgram{
		cfg:      cfg,
		mediaCfg: mediaCfg,
		nowFn:    clock.GetSec,
		dateFn:   time.Now,
		state:    StateInit,
		machine:  m,
	}
	for _, opt := range opts {
		opt(cp)
	}

	cp.loadForDate(cp.dateFn())
	cp.getInitClip(context.Background())

	return cp, nil
}

func (cp *CurrentProgram) syncConfig() clock.SyncConfig {
	return clock.SyncConfig{
		DayStartSec:   cp.cfg.Playlist.DayStartSec,
		LengthSec:     cp.cfg.Playlist.LengthSec,
		StopThreshold: cp.cfg.General.StopThreshold,
	}
}

// loadForDate resolves and loads the playlist file for day, replacing
// the in-memory list on success. A missing file is not an error here:
// it leaves hasList false, matching spec §7's PlaylistMissing recovery
// (insert filler, keep checking).
func (cp *CurrentProgram) loadForDate(day time.Time) {
	path, err := playlist.ResolvePath(cp.cfg.Playlist.Path, day)
	if err != nil {
		log.WithComponent("scheduler").Error().Err(err).Str("event", "playlist_missing").Msg("cannot resolve playlist path")
		cp.hasList = false
		return
	}

	list, err := playlist.Load(path, cp.cfg.Playlist.DayStartSec)
	if err != nil {
		log.WithComponent("scheduler").Warn().Err(err).Str("event", "playlist_missing").Str("path", path).Msg("playlist file not found")
		metrics.PlaylistReloadTotal.WithLabelValues("missing").Inc()
		cp.hasList = false
		return
	}

	cp.list = list
	cp.hasList = true
	cp.index = 0
}

// checkUpdate reloads the playlist if its file changed since it was
// last read, per spec §4.6's check-update algorithm. Index is clamped
// so a shorter reloaded list cannot be indexed out of range.
func (cp *CurrentProgram) checkUpdate() {
	if !cp.hasList {
		return
	}

	changed, err := playlist.Changed(cp.list)
	if err != nil {
		log.WithComponent("scheduler").Error().Err(err).Str("event", "playlist_missing").Msg("playlist file disappeared")
		cp.hasList = false
		cp.state = StateInit
		metrics.PlaylistReloadTotal.WithLabelValues("missing").Inc()
		return
	}
	if !changed {
		return
	}

	reloaded, err := playlist.Load(cp.list.SourcePath, cp.list.StartSec)
	if err != nil {
		// Re-reads are best-effort: keep the previous list on failure.
		log.WithComponent("scheduler").Warn().Err(err).Str("event", "playlist_reload_failed").Msg("keeping previous playlist")
		metrics.PlaylistReloadTotal.WithLabelValues("failure").Inc()
		return
	}

	if cp.index > len(reloaded.Program) {
		cp.index = len(reloaded.Program)
	}
	cp.list = reloaded
	metrics.PlaylistReloadTotal.WithLabelValues("success").Inc()
}

// isAd implements the original's is_ad lookup. When next is true it
// reports whether the clip at i+1 is an advertisement; otherwise
// whether the clip at i-1 is. Call sites for next_ad deliberately pass
// false here, matching an asymmetry present in the source this was
// ported from: both last_ad and next_ad end up computed from the
// "previous clip" direction. See spec's open question; not silently
// fixed.
func (cp *CurrentProgram) isAd(i int, next bool) bool {
	if next {
		return i+1 < len(cp.list.Program) && cp.list.Program[i+1].Category == media.AdvertisementCategory
	}
	return i > 0 && i < len(cp.list.Program) && cp.list.Program[i-1].Category == media.AdvertisementCategory
}

// Next yields the next scheduled Media. It never returns a zero Media
// during steady state: day-length coverage is always met, by filler if
// necessary.
func (cp *CurrentProgram) Next(ctx context.Context) media.Media {
	switch cp.state {
	case StateInit:
		return cp.nextFromInit(ctx)
	default:
		if cp.index < len(cp.list.Program) {
			return cp.nextAdvance(ctx)
		}
		return cp.nextEndOfList(ctx)
	}
}
