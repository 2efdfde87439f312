// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/halvar-dev/playout/internal/clock"
	"github.com/halvar-dev/playout/internal/config"
	"github.com/halvar-dev/playout/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freezeAt pins the real clock to the given time and returns the
// matching seconds-of-day figure, so a test's scheduler-level nowFn and
// the package-level clock.GetDelta agree exactly rather than by
// approximation.
func freezeAt(t *testing.T, hh, mm, ss int) (nowSec float64, day time.Time) {
	t.Helper()
	at := time.Date(2026, time.July, 31, hh, mm, ss, 0, time.Local)
	restore := clock.SetNowFuncForTest(func() time.Time { return at })
	t.Cleanup(restore)
	return clock.GetSec(), at
}

func writePlaylist(t *testing.T, storageRoot string, day time.Time, body string) {
	t.Helper()
	dir := filepath.Join(storageRoot, day.Format("2006"), day.Format("01"))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, day.Format("2006-01-02")+".json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func baseConfig(storageRoot string) config.PlayoutConfig {
	return config.PlayoutConfig{
		General:  config.GeneralConfig{StopThreshold: 11},
		Playlist: config.PlaylistConfig{Path: storageRoot, DayStartSec: 0, LengthSec: clock.SecondsPerDay},
	}
}

func testMediaConfig() media.Config {
	return media.Config{}
}

const threeClipPlaylist = `{
  "channel": "Test",
  "date": "2026-07-31",
  "program": [
    {"in": 0, "out": 20, "duration": 20, "source": "/media/a.mp4", "category": "movie"},
    {"in": 0, "out": 5, "duration": 5, "source": "/media/ad.mp4", "category": "advertisement"},
    {"in": 0, "out": 65, "duration": 65, "source": "/media/b.mp4", "category": "movie"}
  ]
}`

func TestNew_MatchesClipSpanningNow(t *testing.T) {
	root := t.TempDir()
	nowSec, day := freezeAt(t, 0, 0, 22)
	writePlaylist(t, root, day, threeClipPlaylist)

	cp, err := New(baseConfig(root), testMediaConfig(),
		WithNowFn(func() float64 { return nowSec }),
		WithDateFn(func() time.Time { return day }),
	)
	require.NoError(t, err)

	assert.Equal(t, StatePlaying, cp.state)
	assert.Equal(t, 2, cp.index) // matched clip 1 (the ad, index 1), cursor sits past it
	// The playlist's sources don't exist on disk, so gen_source swaps
	// Source for generated filler; Index still names the matched clip.
	assert.Equal(t, 1, cp.node.Index)
	assert.InDelta(t, 2.0, cp.node.Seek, 0.001) // 22s in, clip 2 starts at 20s
}

func TestNextAdvance_YieldsClipsInOrderWithPreservedAdBug(t *testing.T) {
	root := t.TempDir()
	nowSec, day := freezeAt(t, 0, 0, 0)
	writePlaylist(t, root, day, threeClipPlaylist)

	cp, err := New(baseConfig(root), testMediaConfig(),
		WithNowFn(func() float64 { return nowSec }),
		WithDateFn(func() time.Time { return day }),
	)
	require.NoError(t, err)
	require.Equal(t, StatePlaying, cp.state)
	// Sources don't exist on disk and are replaced by generated filler,
	// so clips are identified by their playlist Index.
	assert.Equal(t, 0, cp.node.Index) // a.mp4

	ctx := context.Background()

	second := cp.Next(ctx)
	assert.Equal(t, 1, second.Index) // ad.mp4
	// next_ad is computed with the same "previous clip" lookup as
	// last_ad: both look at index-1, so for the clip right after an
	// advertisement, NextAd reports true just like LastAd does, even
	// though the clip that actually follows (b.mp4) is not an ad.
	third := cp.Next(ctx)
	assert.Equal(t, 2, third.Index) // b.mp4
	assert.True(t, third.LastAd, "clip after an ad should see LastAd true")
	assert.Equal(t, third.LastAd, third.NextAd, "next_ad mirrors last_ad's previous-clip lookup, bug preserved")
}

func TestNextFromInit_NoListSynthesizesFiller(t *testing.T) {
	root := t.TempDir() // no playlist file written anywhere under here
	nowSec, day := freezeAt(t, 3, 0, 0)

	cp, err := New(baseConfig(root), testMediaConfig(),
		WithNowFn(func() float64 { return nowSec }),
		WithDateFn(func() time.Time { return day }),
	)
	require.NoError(t, err)
	assert.Equal(t, StateInit, cp.state)

	got := cp.Next(context.Background())
	assert.True(t, got.Process)
	assert.InDelta(t, clock.DummyLen, got.Duration, 0.001)
	require.NotEmpty(t, got.Cmd)
	assert.Equal(t, "-f", got.Cmd[0]) // generated color filler, no source file existed
}

func TestHandleListEnd_SkipsClipUnderOneSecond(t *testing.T) {
	root := t.TempDir()
	_, day := freezeAt(t, 0, 0, 0)
	cfg := baseConfig(root)
	cfg.Playlist.LengthSec = 100

	cp, err := New(cfg, testMediaConfig(),
		WithNowFn(func() float64 { return 0 }),
		WithDateFn(func() time.Time { return day }),
	)
	require.NoError(t, err)

	begin := 0.0
	node := media.New(0, "/media/short.mp4")
	node.Begin = &begin
	node.Seek = 0
	node.Duration = 10
	node.Out = 10

	// totalDelta < 1 second: the remaining broadcast day leaves less
	// than a second for this clip, so it must be skipped rather than
	// handed to ffmpeg with a near-zero duration.
	trimmed, ok := cp.handleListEnd(node, 0.5)
	assert.False(t, ok)
	assert.Equal(t, node.Source, trimmed.Source)
}

func TestHandleListEnd_TrimsClipToRemainingDay(t *testing.T) {
	root := t.TempDir()
	_, day := freezeAt(t, 0, 0, 0)
	cfg := baseConfig(root)

	cp, err := New(cfg, testMediaConfig(),
		WithNowFn(func() float64 { return 0 }),
		WithDateFn(func() time.Time { return day }),
	)
	require.NoError(t, err)

	begin := 0.0
	node := media.New(0, "/media/clip.mp4")
	node.Begin = &begin
	node.Seek = 0
	node.Duration = 20
	node.Out = 20

	trimmed, ok := cp.handleListEnd(node, 7.0)
	require.True(t, ok)
	assert.InDelta(t, 7.0, trimmed.Out, 0.001)
}

func TestNextEndOfList_ShortPlaylistFillsWithoutDuplicateYield(t *testing.T) {
	root := t.TempDir()
	// A day configured to run 60s, with only 30s of real program: the
	// scheduler must cover the remaining 30s with filler (spec scenario
	// S6), one yield per filler instance.
	nowSec, day := freezeAt(t, 0, 0, 15)
	cfg := baseConfig(root)
	cfg.Playlist.LengthSec = 60
	cfg.General.StopThreshold = 11

	short := `{
  "channel": "Test",
  "date": "2026-07-31",
  "program": [
    {"in": 0, "out": 30, "duration": 30, "source": "/media/only.mp4", "category": "movie"}
  ]
}`
	writePlaylist(t, root, day, short)

	cp, err := New(cfg, testMediaConfig(),
		WithNowFn(func() float64 { return nowSec }),
		WithDateFn(func() time.Time { return day }),
	)
	require.NoError(t, err)
	require.Equal(t, StatePlaying, cp.state)

	ctx := context.Background()
	listLenBefore := len(cp.list.Program)
	indexBefore := cp.index

	filler := cp.Next(ctx)
	assert.Equal(t, StateFilling, cp.state)
	assert.True(t, filler.Process)

	// Exactly one new entry was appended, and the cursor moved past it
	// so the same filler instance is not handed out again on the next
	// call.
	assert.Equal(t, listLenBefore+1, len(cp.list.Program))
	assert.Equal(t, indexBefore+1, cp.index)

	again := cp.Next(ctx)
	assert.NotEqual(t, filler.Index, again.Index, "second call must not re-yield the same filler instance")
}
