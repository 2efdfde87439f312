// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/halvar-dev/playout/internal/filter"
	"github.com/halvar-dev/playout/internal/metrics"
	"github.com/halvar-dev/playout/internal/probe"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Filter: filter.Config{Width: 1024, Height: 576, Aspect: 16.0 / 9.0, FPS: 25, AudioTracks: 1, Volume: 1.0},
	}
}

func TestGenSource_RegularFile(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("fake"), 0o644))

	node := New(0, clip)
	node.Out, node.Duration = 10, 10

	GenSource(context.Background(), testConfig(), &node)

	assert.Equal(t, []string{"-i", clip}, node.Cmd)
	assert.NotNil(t, node.Filter)
}

func TestGenSource_RegularFileWithSidecarAudio(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	audio := filepath.Join(dir, "clip.wav")
	require.NoError(t, os.WriteFile(clip, []byte("fake"), 0o644))
	require.NoError(t, os.WriteFile(audio, []byte("fake"), 0o644))

	node := New(0, clip)
	node.AudioPath = audio
	node.Seek, node.Out, node.Duration = 0, 10, 10

	GenSource(context.Background(), testConfig(), &node)

	assert.Equal(t, []string{"-i", clip, "-i", audio, "-t", "10"}, node.Cmd)
}

func TestGenSource_RemoteAudioPassthrough(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("fake"), 0o644))

	node := New(0, clip)
	node.AudioPath = "https://stream.example.com/audio"
	node.AudioIsRemote = true
	node.Seek, node.Out, node.Duration = 0, 10, 10

	GenSource(context.Background(), testConfig(), &node)

	assert.Equal(t, []string{"-i", clip, "-i", node.AudioPath, "-t", "10"}, node.Cmd)
}

func TestGenSource_MissingFileGeneratesColorFiller(t *testing.T) {
	node := New(0, "/no/such/clip.mp4")
	node.Seek, node.Out, node.Duration = 0, 8, 8

	GenSource(context.Background(), testConfig(), &node)

	require.Len(t, node.Cmd, 3)
	assert.Equal(t, "-f", node.Cmd[0])
	assert.Equal(t, "lavfi", node.Cmd[1])
	assert.Contains(t, node.Cmd[2], "color=c=black:s=1024x576:r=25")
	assert.Contains(t, node.Cmd[2], "d=8")
}

func TestGenSource_MissingFileUsesStillImageFiller(t *testing.T) {
	cfg := testConfig()
	cfg.FillerImg = "/assets/filler.png"

	node := New(0, "")
	node.Seek, node.Out, node.Duration = 0, 5, 5

	GenSource(context.Background(), cfg, &node)

	assert.Equal(t, []string{"-loop", "1", "-i", "/assets/filler.png", "-t", "5"}, node.Cmd)
	assert.Equal(t, "/assets/filler.png", node.Source)
}

func TestGenSource_ProbesRealSourceBeforeCompile(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("fake"), 0o644))

	cfg := testConfig()
	cfg.Prober = probe.NewProber("/nonexistent/ffprobe-binary-for-test")

	before := testutil.ToFloat64(metrics.ProbeFailuresTotal)

	node := New(0, clip)
	node.Out, node.Duration = 10, 10
	GenSource(context.Background(), cfg, &node)

	// No real ffprobe is available in this environment, so the probe
	// must fail; the point is that gen_source actually called it
	// (add_probe before add_filter) rather than leaving node.Probe
	// permanently nil.
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProbeFailuresTotal))
	assert.Nil(t, node.Probe)
	assert.NotNil(t, node.Filter)
}

func TestGenSource_SkipsProbeForGeneratedFiller(t *testing.T) {
	cfg := testConfig()
	cfg.Prober = probe.NewProber("/nonexistent/ffprobe-binary-for-test")

	before := testutil.ToFloat64(metrics.ProbeFailuresTotal)

	node := New(0, "/no/such/clip.mp4")
	node.Seek, node.Out, node.Duration = 0, 8, 8
	GenSource(context.Background(), cfg, &node)

	// The generated "color=..." lavfi source isn't a real file; probing
	// it would only ever fail, so gen_source must not even try.
	assert.Equal(t, before, testutil.ToFloat64(metrics.ProbeFailuresTotal))
	assert.Nil(t, node.Probe)
}

func TestSeekAndLength(t *testing.T) {
	assert.Equal(t, []string{"-i", "clip.mp4"}, SeekAndLength("clip.mp4", 0, 10, 10))
	assert.Equal(t, []string{"-ss", "2", "-i", "clip.mp4", "-t", "8"}, SeekAndLength("clip.mp4", 2, 10, 20))
	assert.Equal(t, []string{"-i", "clip.mp4", "-t", "9"}, SeekAndLength("clip.mp4", 0, 9, 20))
}
