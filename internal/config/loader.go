// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/halvar-dev/playout/internal/clock"
	"github.com/halvar-dev/playout/internal/fsutil"
	"github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/netutil"
	"gopkg.in/yaml.v3"
)

// Loader resolves, parses, and validates the YAML configuration file.
type Loader struct {
	// ExplicitPath, when set, is tried first and exclusively; an error
	// reading it is fatal rather than falling through to the other
	// candidates.
	ExplicitPath string
}

// NewLoader returns a Loader that will try explicitPath first, if set.
func NewLoader(explicitPath string) *Loader {
	return &Loader{ExplicitPath: explicitPath}
}

// candidatePaths returns the resolution order from spec §6: explicit
// path, then ./assets/ffplayout.yml, then <exe-dir>/ffplayout.yml, then
// /etc/ffplayout/ffplayout.yml.
func (l *Loader) candidatePaths() []string {
	if l.ExplicitPath != "" {
		return []string{l.ExplicitPath}
	}

	paths := []string{filepath.Join("assets", "ffplayout.yml")}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "ffplayout.yml"))
	}
	paths = append(paths, filepath.Join("/etc", "ffplayout", "ffplayout.yml"))
	return paths
}

// Load resolves the config path, strictly parses it, fills in defaults
// for anything the file didn't set, derives runtime values, and
// validates the result. A missing or invalid config is fatal to the
// caller (ConfigInvalid in spec §7's taxonomy); Load itself only
// returns the error, leaving the exit decision to main.
func (l *Loader) Load() (PlayoutConfig, error) {
	path, data, err := l.readFirstExisting()
	if err != nil {
		return PlayoutConfig{}, err
	}

	file := defaults()
	if err := decodeStrict(data, &file); err != nil {
		return PlayoutConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := build(file)
	if err := cfg.resolveDerived(); err != nil {
		return PlayoutConfig{}, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return PlayoutConfig{}, fmt.Errorf("config: validate %s: %w", path, err)
	}

	log.WithComponent("config").Info().Str("path", path).Msg("configuration loaded")
	return cfg, nil
}

func (l *Loader) readFirstExisting() (string, []byte, error) {
	var lastErr error
	for _, path := range l.candidatePaths() {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yml" && ext != ".yaml" {
			lastErr = fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
			continue
		}

		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			lastErr = err
			continue
		}
		return path, data, nil
	}
	if lastErr == nil {
		lastErr = ErrConfigMissing
	}
	return "", nil, fmt.Errorf("%w: %w", ErrConfigMissing, lastErr)
}

// decodeStrict overlays data onto file with KnownFields(true), so a
// typo'd or removed key fails the load instead of being silently
// ignored.
func decodeStrict(data []byte, file *FileConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(file); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("strict parse: %w", err)
	}

	if err := dec.Decode(new(struct{})); err != io.EOF {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func build(f FileConfig) PlayoutConfig {
	cfg := PlayoutConfig{}

	cfg.General.StopThreshold = f.General.StopThreshold
	cfg.General.GenerateMode = f.General.GenerateMode

	cfg.RPCServer.Enable = f.RPCServer.Enable
	cfg.RPCServer.Address = f.RPCServer.Address

	cfg.Mail.Enable = f.Mail.Enable
	cfg.Mail.SMTPServer = f.Mail.SMTPServer
	cfg.Mail.Recipient = f.Mail.Recipient

	cfg.Logging.Level = f.Logging.Level

	cfg.Processing.Width = f.Processing.Width
	cfg.Processing.Height = f.Processing.Height
	cfg.Processing.Aspect = f.Processing.Aspect
	cfg.Processing.FPS = f.Processing.FPS
	cfg.Processing.AudioTracks = f.Processing.AudioTracks
	cfg.Processing.AddLogo = f.Processing.AddLogo
	cfg.Processing.LogoPath = f.Processing.LogoPath
	cfg.Processing.LogoOpacity = f.Processing.LogoOpacity
	cfg.Processing.LogoFilter = f.Processing.LogoFilter
	cfg.Processing.Volume = f.Processing.Volume
	cfg.Processing.AddLoudnorm = f.Processing.AddLoudnorm
	cfg.Processing.LoudnormIngest = f.Processing.LoudnormIngest
	cfg.Processing.LoudnormFilter = f.Processing.LoudnormFilter
	cfg.Processing.CustomFilter = f.Processing.CustomFilter
	cfg.Processing.FillerStillImage = f.Processing.FillerStillImage

	cfg.Ingest.Enable = f.Ingest.Enable
	cfg.Ingest.InputCmd = strings.Fields(f.Ingest.InputCmd)

	cfg.Playlist.Path = f.Playlist.Path
	cfg.Playlist.DayStart = f.Playlist.DayStart
	cfg.Playlist.Length = f.Playlist.Length
	cfg.Playlist.Infinite = f.Playlist.Infinite

	cfg.Storage.Path = f.Storage.Path

	cfg.Text.AddText = f.Text.AddText
	cfg.Text.FontFile = f.Text.FontFile
	cfg.Text.TextFromFilename = f.Text.TextFromFilename
	cfg.Text.Style = f.Text.Style

	cfg.Out.Mode = OutputMode(strings.ToLower(f.Out.Mode))
	cfg.Out.OutputCmd = strings.Fields(f.Out.OutputCmd)

	return cfg
}

// resolveDerived fills in the fields spec §3 says are computed rather
// than read verbatim: day_start/length in seconds, the logo-silencing
// invariant, the Null-mode output command, and the two ZMQ loopback
// ports reserved when runtime drawtext messaging is needed.
func (cfg *PlayoutConfig) resolveDerived() error {
	daySec, err := clock.TimeToSec(cfg.Playlist.DayStart)
	if err != nil {
		return fmt.Errorf("playlist.day_start: %w", err)
	}
	cfg.Playlist.DayStartSec = daySec

	if cfg.Playlist.Infinite || !strings.Contains(cfg.Playlist.Length, ":") {
		cfg.Playlist.LengthSec = clock.SecondsPerDay
	} else {
		lengthSec, err := clock.TimeToSec(cfg.Playlist.Length)
		if err != nil {
			return fmt.Errorf("playlist.length: %w", err)
		}
		cfg.Playlist.LengthSec = lengthSec
	}

	if cfg.Processing.AddLogo && fsutil.IsRegularFile(cfg.Processing.LogoPath) != nil {
		log.WithComponent("config").Warn().
			Str("logo_path", cfg.Processing.LogoPath).
			Msg("add_logo is set but logo file is missing, disabling overlay")
		cfg.Processing.AddLogo = false
	}

	if cfg.Out.Mode == OutputNull {
		cfg.Out.OutputCmd = []string{"-f", "null", "-"}
	}

	if cfg.Text.AddText && !cfg.Text.TextFromFilename {
		cfg.RPCServer.Enable = true

		streamPort, err := netutil.FreeLoopbackPort()
		if err != nil {
			return fmt.Errorf("reserve zmq stream port: %w", err)
		}
		serverPort, err := netutil.FreeLoopbackPort(streamPort)
		if err != nil {
			return fmt.Errorf("reserve zmq server port: %w", err)
		}

		cfg.Text.ZMQStreamSocket = fmt.Sprintf("127.0.0.1:%d", streamPort)
		cfg.Text.ZMQServerSocket = fmt.Sprintf("127.0.0.1:%d", serverPort)
	}

	return nil
}

// Validate checks the invariants spec §3 states explicitly.
func Validate(cfg PlayoutConfig) error {
	if cfg.Processing.AudioTracks < 1 {
		return ErrAudioTracksInvalid
	}

	switch cfg.Out.Mode {
	case OutputDesktop, OutputHLS, OutputNull, OutputStream:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutputMode, cfg.Out.Mode)
	}

	if cfg.Text.AddText && !cfg.Text.TextFromFilename {
		if !cfg.RPCServer.Enable {
			return fmt.Errorf("config: text.add_text without text_from_filename requires rpc_server.enable")
		}
		if cfg.Text.ZMQStreamSocket == "" || cfg.Text.ZMQServerSocket == "" {
			return fmt.Errorf("config: text.add_text without text_from_filename requires two reserved zmq sockets")
		}
		if cfg.Text.ZMQStreamSocket == cfg.Text.ZMQServerSocket {
			return fmt.Errorf("config: zmq stream and server sockets must be distinct")
		}
	}

	return nil
}
