// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
general:
  stop_threshold: 11
processing:
  width: 1024
  height: 576
  aspect: 1.777
  fps: 25
  audio_tracks: 1
playlist:
  path: /media/playlists
  day_start: "00:00:00"
  length: "24:00:00"
out:
  mode: desktop
  output_cmd: "-c:v libx264 -c:a aac -f mpegts pipe:1"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffplayout.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoader_Load_Minimal(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Playlist.DayStartSec)
	assert.Equal(t, 86400.0, cfg.Playlist.LengthSec)
	assert.Equal(t, []string{"-c:v", "libx264", "-c:a", "aac", "-f", "mpegts", "pipe:1"}, cfg.Out.OutputCmd)
}

func TestLoader_Load_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, minimalYAML+"\nbogus_section:\n  nope: true\n")

	_, err := NewLoader(path).Load()
	require.Error(t, err)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.yml")).Load()
	require.Error(t, err)
}

func TestLoader_Load_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ffplayout.conf")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	_, err := NewLoader(path).Load()
	require.Error(t, err)
}

func TestLoader_Load_NullModeOverridesOutputCmd(t *testing.T) {
	nullYAML := `
general:
  stop_threshold: 11
processing:
  width: 1024
  height: 576
  aspect: 1.777
  fps: 25
  audio_tracks: 1
playlist:
  path: /media/playlists
  day_start: "00:00:00"
  length: "24:00:00"
out:
  mode: "null"
`
	path := writeConfig(t, nullYAML)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"-f", "null", "-"}, cfg.Out.OutputCmd)
}

func TestLoader_Load_LogoSilencedWhenFileMissing(t *testing.T) {
	body := `
general:
  stop_threshold: 11
processing:
  width: 1024
  height: 576
  aspect: 1.777
  fps: 25
  audio_tracks: 1
  add_logo: true
  logo_path: /no/such/logo.png
playlist:
  path: /media/playlists
  day_start: "00:00:00"
  length: "24:00:00"
out:
  mode: desktop
`
	path := writeConfig(t, body)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.False(t, cfg.Processing.AddLogo)
}

func TestLoader_Load_TextWithoutFromFilenameReservesZMQPorts(t *testing.T) {
	body := `
general:
  stop_threshold: 11
processing:
  width: 1024
  height: 576
  aspect: 1.777
  fps: 25
  audio_tracks: 1
playlist:
  path: /media/playlists
  day_start: "00:00:00"
  length: "24:00:00"
text:
  add_text: true
  text_from_filename: false
out:
  mode: hls
`
	path := writeConfig(t, body)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.True(t, cfg.RPCServer.Enable)
	assert.NotEmpty(t, cfg.Text.ZMQStreamSocket)
	assert.NotEmpty(t, cfg.Text.ZMQServerSocket)
	assert.NotEqual(t, cfg.Text.ZMQStreamSocket, cfg.Text.ZMQServerSocket)
}

func TestValidate_RejectsZeroAudioTracks(t *testing.T) {
	cfg := PlayoutConfig{Out: OutConfig{Mode: OutputDesktop}}
	err := Validate(cfg)
	require.ErrorIs(t, err, ErrAudioTracksInvalid)
}

func TestValidate_RejectsUnknownOutputMode(t *testing.T) {
	cfg := PlayoutConfig{Processing: ProcessingConfig{AudioTracks: 1}, Out: OutConfig{Mode: "weird"}}
	err := Validate(cfg)
	require.ErrorIs(t, err, ErrInvalidOutputMode)
}

func TestHolder_ReloadKeepsPreviousOnFailure(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	loader := NewLoader(path)

	initial, err := loader.Load()
	require.NoError(t, err)

	holder := NewHolder(initial, loader, path)

	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))
	err = holder.Reload()
	require.Error(t, err)

	assert.Equal(t, initial.Playlist.Path, holder.Get().Playlist.Path)
}

func TestHolder_ReloadAppliesValidChange(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	loader := NewLoader(path)

	initial, err := loader.Load()
	require.NoError(t, err)
	holder := NewHolder(initial, loader, path)

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))
	require.NoError(t, holder.Reload())
	assert.Equal(t, "/media/playlists", holder.Get().Playlist.Path)
}
