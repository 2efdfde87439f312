// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/halvar-dev/playout/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "channel": "Test Channel",
  "date": "2026-07-31",
  "program": [
    {"in": 0, "out": 10, "duration": 10, "source": "/media/a.mp4", "category": "movie"},
    {"in": 0, "out": 5, "duration": 5, "source": "/media/ad.mp4", "category": "advertisement"},
    {"in": 0, "out": 20, "duration": 20, "source": "/media/b.mp4", "category": "movie"}
  ]
}`

func writeList(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "2026-07-31.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AssignsBeginTimes(t *testing.T) {
	path := writeList(t, sampleJSON)

	list, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, list.Program, 3)

	assert.Equal(t, 0.0, *list.Program[0].Begin)
	assert.Equal(t, 10.0, *list.Program[1].Begin)
	assert.Equal(t, 15.0, *list.Program[2].Begin)
}

func TestLoad_NonZeroStartSec(t *testing.T) {
	path := writeList(t, sampleJSON)

	list, err := Load(path, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *list.Program[0].Begin)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), 0)
	require.Error(t, err)
}

func TestChanged_DetectsModification(t *testing.T) {
	path := writeList(t, sampleJSON)

	list, err := Load(path, 0)
	require.NoError(t, err)

	changed, err := Changed(list)
	require.NoError(t, err)
	assert.False(t, changed)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON+"\n"), 0o644))

	changed, err = Changed(list)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestValidate_FlagsMissingSourceAndBadDurations(t *testing.T) {
	bad := media.New(0, "/no/such/clip.mp4")
	bad.Seek = -1
	bad.Out = 5
	bad.Duration = -1

	list := JsonPlaylist{Program: []media.Media{bad}}

	errs := Validate(list)
	assert.Len(t, errs, 3)
}

func TestValidate_RemoteAudioSkipsFileCheck(t *testing.T) {
	path := writeList(t, sampleJSON)
	list, err := Load(path, 0)
	require.NoError(t, err)

	list.Program[0].AudioPath = "https://stream.example.com/audio.aac"
	errs := Validate(list)
	for _, e := range errs {
		assert.NotContains(t, e.Error(), "audio source not found")
	}
}
