// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scheduler

import (
	"context"
	"math"
	"time"

	"github.com/halvar-dev/playout/internal/clock"
	"github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/media"
	"github.com/halvar-dev/playout/internal/metrics"
)

// fire drives the bookkeeping state machine alongside the data-driven
// control flow below. A rejected transition only gets logged: the
// scheduler's actual state is decided by clip/time data the generic
// Guard/Action signature can't carry, so the machine here is a
// validator and an observability hook, not the source of truth.
func (cp *CurrentProgram) fire(event Event) {
	if _, err := cp.machine.Fire(context.Background(), event); err != nil {
		log.WithComponent("scheduler").Debug().Err(err).Str("transition_event", string(event)).Msg("unexpected state transition")
	}
}

func (cp *CurrentProgram) genSource(ctx context.Context, node media.Media) media.Media {
	media.GenSource(ctx, cp.mediaCfg, &node)
	return node
}

// resolveDayForOffset maps an absolute seconds-of-day offset (which may
// exceed one broadcast day) onto the calendar day whose playlist file
// should be loaded.
func (cp *CurrentProgram) resolveDayForOffset(offsetSec float64) time.Time {
	length := cp.cfg.Playlist.LengthSec
	if length <= 0 {
		length = clock.SecondsPerDay
	}
	days := int(math.Floor(offsetSec / length))
	return cp.dateFn().AddDate(0, 0, days)
}

func (cp *CurrentProgram) loadForOffset(offsetSec float64) {
	cp.loadForDate(cp.resolveDayForOffset(offsetSec))
}

func (cp *CurrentProgram) recordYield() {
	if cp.node.Process {
		metrics.ClipsPlayed.WithLabelValues(cp.node.Category).Inc()
	}
}

// getInitClip walks the loaded list, accumulating span start times,
// until it finds the clip whose span contains "now"; that clip is
// trimmed to start exactly there. If nothing matches, the scheduler
// stays in StateInit.
func (cp *CurrentProgram) getInitClip(ctx context.Context) {
	if !cp.hasList {
		return
	}

	length := cp.cfg.Playlist.LengthSec
	if length <= 0 {
		length = clock.SecondsPerDay
	}

	timeSec := cp.nowFn()
	if timeSec < cp.cfg.Playlist.DayStartSec {
		timeSec += length
	}

	acc := cp.cfg.Playlist.DayStartSec
	for i := range cp.list.Program {
		item := &cp.list.Program[i]
		span := item.Out - item.Seek

		if acc+span > timeSec {
			cp.index = i + 1
			item.Seek = timeSec - acc
			item.Cmd = media.SeekAndLength(item.Source, item.Seek, item.Out, item.Duration)
			cp.node = cp.handleListInit(ctx, *item)
			cp.state = StatePlaying
			cp.fire(EventClipMatched)
			return
		}
		acc += span
	}
}

// handleListInit trims out when the matched clip would overrun the
// remaining broadcast day, then runs gen_source on it.
func (cp *CurrentProgram) handleListInit(ctx context.Context, node media.Media) media.Media {
	_, totalDelta := clock.GetDelta(cp.syncConfig(), *node.Begin)

	out := node.Out
	if node.Out-node.Seek > totalDelta {
		out = totalDelta + node.Seek
	}
	node.Out = out
	node.Process = true

	return cp.genSource(ctx, node)
}

// nextFromInit implements the Init-state branch of Next: try to match
// the loaded list, then the next day's list, then fall back to
// synthetic filler so the caller always gets a clip.
func (cp *CurrentProgram) nextFromInit(ctx context.Context) media.Media {
	if cp.hasList {
		cp.getInitClip(ctx)
	}

	if cp.state == StateInit {
		cp.loadForOffset(cp.nowFn() + clock.DummyLen)
		if cp.hasList {
			cp.getInitClip(ctx)
		}
	}

	if cp.state == StateInit {
		now := cp.nowFn()
		filler := media.New(0, "")
		filler.Begin = &now
		filler.Duration = clock.DummyLen
		filler.Out = clock.DummyLen
		filler.Process = true
		cp.node = cp.genSource(ctx, filler)
		metrics.FillersInserted.Inc()
	}

	// next_ad is computed with the same "previous clip" lookup as
	// last_ad here, mirroring an asymmetry in the playlist.rs this was
	// ported from: see isAd's doc comment and the open question this
	// carries forward rather than silently fixes.
	cp.node.LastAd = cp.isAd(cp.index, false)
	cp.node.NextAd = cp.isAd(cp.index, false)

	cp.recordYield()
	return cp.node
}

// nextAdvance implements steady-state advance through the current
// list.
func (cp *CurrentProgram) nextAdvance(ctx context.Context) media.Media {
	cp.checkUpdate()
	if cp.index >= len(cp.list.Program) {
		return cp.nextEndOfList(ctx)
	}

	cp.getCurrentNode(ctx, cp.index)
	cp.node.LastAd = cp.isAd(cp.index, false)
	cp.node.NextAd = cp.isAd(cp.index, false)

	cp.index++
	cp.checkForNextPlaylist(false)

	if cp.state == StatePlaying {
		cp.fire(EventAdvance)
	}

	cp.recordYield()
	return cp.node
}

func (cp *CurrentProgram) getCurrentNode(ctx context.Context, index int) {
	cp.node = cp.timedSource(ctx, cp.list.Program[index], false)

	delta, _ := clock.GetDelta(cp.syncConfig(), *cp.node.Begin)
	metrics.SchedulerDelta.Set(delta)

	if !clock.CheckSync(delta, cp.syncConfig()) {
		cp.node.Cmd = nil
		metrics.SyncLostTotal.Inc()
		metrics.ClipsSkipped.WithLabelValues("sync_lost").Inc()
		log.WithComponent("scheduler").Warn().
			Float64("delta", delta).
			Str("event", "sync_lost").
			Msg("playout delta exceeds stop threshold, suppressing clip")
	}
}

// timedSource decides whether node plays as scheduled, is skipped, or
// is trimmed to the remaining day length, per spec §4.6's Advance
// algorithm.
func (cp *CurrentProgram) timedSource(ctx context.Context, node media.Media, last bool) media.Media {
	_, totalDelta := clock.GetDelta(cp.syncConfig(), *node.Begin)
	timeBounded := !cp.cfg.Playlist.Infinite

	switch {
	case (totalDelta > node.Out-node.Seek && !last) || !timeBounded:
		node.Process = true
		return cp.genSource(ctx, node)

	case totalDelta <= 0:
		log.WithComponent("scheduler").Info().
			Str("source", node.Source).
			Str("event", "sync_lost").
			Msg("begin is over play time, skipping clip")
		metrics.ClipsSkipped.WithLabelValues("too_short").Inc()
		node.Process = false
		return node

	case totalDelta < node.Duration-node.Seek || last:
		trimmed, ok := cp.handleListEnd(node, totalDelta)
		if !ok {
			trimmed.Process = false
			metrics.ClipsSkipped.WithLabelValues("too_short").Inc()
			return trimmed
		}
		trimmed.Process = true
		return cp.genSource(ctx, trimmed)

	default:
		node.Process = false
		return node
	}
}

// handleListEnd trims a clip's out point to the remaining broadcast
// day. ok is false when the trimmed clip would be under a second long,
// in which case it is skipped rather than played.
func (cp *CurrentProgram) handleListEnd(node media.Media, totalDelta float64) (media.Media, bool) {
	out := totalDelta
	if node.Seek > 0 {
		out = node.Seek + totalDelta
	}

	logger := log.WithComponent("scheduler")
	if out > node.Duration {
		out = node.Duration
	} else {
		logger.Warn().Float64("new_duration", totalDelta).Str("event", "short_playlist").Msg("clip length is not in time")
	}

	switch {
	case node.Duration > totalDelta && totalDelta > 1.0 && node.Duration-node.Seek >= totalDelta:
		node.Out = out
		return node, true
	case node.Duration > totalDelta && totalDelta < 1.0:
		logger.Warn().Str("source", node.Source).Msg("last clip less than 1 second long, skip")
		return node, false
	default:
		logger.Error().Float64("needed", totalDelta).Str("event", "short_playlist").Msg("playlist is not long enough")
		return node, true
	}
}

// checkForNextPlaylist pre-loads the next broadcast day's playlist mid
// list, if this clip's span would cross the configured day length.
func (cp *CurrentProgram) checkForNextPlaylist(last bool) {
	if cp.cfg.Playlist.Infinite {
		return
	}

	out := cp.node.Out
	if cp.node.Duration > cp.node.Out {
		out = cp.node.Duration
	}

	delta := 0.0
	if last {
		seek := cp.node.Seek
		if seek < 0 {
			seek = 0
		}
		d, _ := clock.GetDelta(cp.syncConfig(), *cp.node.Begin)
		delta = d + seek + cp.cfg.General.StopThreshold
	}

	nextStart := *cp.node.Begin - cp.cfg.Playlist.DayStartSec + out + delta
	if nextStart >= cp.cfg.Playlist.LengthSec {
		cp.loadForOffset(nextStart)
		cp.index = 0
	}
}

// nextEndOfList implements the end-of-list branch: fill a short day
// with synthetic filler (S6), or roll to the next day's playlist.
func (cp *CurrentProgram) nextEndOfList(ctx context.Context) media.Media {
	_, timeDiff := clock.GetDelta(cp.syncConfig(), cp.cfg.Playlist.DayStartSec)
	lastAd := cp.isAd(cp.index, false)

	if math.Abs(timeDiff) > cp.cfg.General.StopThreshold {
		wasFilling := cp.state == StateFilling

		now := cp.nowFn()
		filler := media.New(cp.index+1, "")
		filler.Begin = &now

		duration := math.Abs(timeDiff)
		if duration > clock.DummyLen {
			duration = clock.DummyLen
		}
		filler.Duration = duration
		filler.Out = duration
		filler.Process = true

		filler = cp.genSource(ctx, filler)
		filler.LastAd = lastAd
		filler.NextAd = cp.isAd(cp.index, false)

		cp.list.Program = append(cp.list.Program, filler)
		cp.index++ // one yield per filler instance; a short day may need several (spec: "can repeat")
		cp.node = filler
		cp.state = StateFilling

		if wasFilling {
			cp.fire(EventFillerRepeat)
		} else {
			cp.fire(EventListShort)
		}

		metrics.FillersInserted.Inc()
		cp.recordYield()
		return cp.node
	}

	nextBegin := *cp.node.Begin + cp.node.Out - cp.node.Seek
	cp.loadForOffset(nextBegin)
	cp.state = StateInit
	cp.fire(EventDayRolled)

	if !cp.hasList {
		return cp.nextFromInit(ctx)
	}

	cp.index = 0
	cp.getInitClip(ctx)
	if cp.state == StateInit {
		// Loaded list didn't contain "now" (e.g. it starts later in the
		// day); fall back to its first clip, matching the original's
		// unconditional roll onto nodes[0].
		cp.list.Program[0].Process = true
		cp.node = cp.genSource(ctx, cp.list.Program[0])
		cp.index = 1
		cp.state = StatePlaying
		cp.fire(EventClipMatched)
	}

	cp.node.LastAd = lastAd
	cp.node.NextAd = cp.isAd(0, false)
	cp.recordYield()
	return cp.node
}
