// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes prometheus counters and gauges for the
// playout engine's core scheduling and compiling loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClipsPlayed counts clips yielded by the scheduler that were
	// actually handed off for playback (process=true).
	ClipsPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playout_clips_played_total",
		Help: "Total number of scheduled clips yielded with process=true",
	}, []string{"category"})

	// ClipsSkipped counts clips the scheduler suppressed, keyed by the
	// reason it suppressed them (sync_lost, too_short).
	ClipsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playout_clips_skipped_total",
		Help: "Total number of scheduled clips suppressed before playback",
	}, []string{"reason"})

	// FillersInserted counts synthetic filler clips emitted to cover a
	// schedule gap.
	FillersInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playout_fillers_inserted_total",
		Help: "Total number of synthetic filler clips inserted",
	})

	// SyncLostTotal counts occurrences of |delta| exceeding stop_threshold.
	SyncLostTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playout_sync_lost_total",
		Help: "Total number of times playout fell out of sync with the schedule",
	})

	// PlaylistReloadTotal counts playlist hot-reloads, keyed by outcome.
	PlaylistReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playout_playlist_reload_total",
		Help: "Total number of playlist reload attempts",
	}, []string{"outcome"})

	// ConfigReloadTotal counts config-file hot-reloads, keyed by outcome.
	ConfigReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playout_config_reload_total",
		Help: "Total number of config file reload attempts",
	}, []string{"outcome"})

	// ProbeFailuresTotal counts failed MediaProbe invocations.
	ProbeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playout_probe_failures_total",
		Help: "Total number of MediaProbe invocations that failed or returned no usable stream data",
	})

	// SchedulerDelta observes the current schedule delta in seconds, so
	// operators can watch drift over time.
	SchedulerDelta = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playout_schedule_delta_seconds",
		Help: "Signed seconds by which playout is ahead (positive) or behind (negative) schedule",
	})
)
