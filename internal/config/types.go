// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates, and hot-reloads the process-wide
// PlayoutConfig from a YAML file on disk.
package config

import "github.com/halvar-dev/playout/internal/filter"

// OutputMode selects the destination the assembler's output tail targets.
type OutputMode string

const (
	OutputDesktop OutputMode = "desktop"
	OutputHLS     OutputMode = "hls"
	OutputNull    OutputMode = "null"
	OutputStream  OutputMode = "stream"
)

// GeneralConfig carries the global sync-tolerance and mode switches.
type GeneralConfig struct {
	StopThreshold float64
	GenerateMode  bool
}

// RPCServerConfig carries the operator-control-plane toggle. The RPC
// surface itself is out of scope; only the enable flag and the two
// reserved ZMQ loopback ports it gates are consumed by this package.
type RPCServerConfig struct {
	Enable  bool
	Address string
}

// MailConfig is carried for parity with the upstream process's
// operator-notification section; nothing in scope sends mail, so only
// the raw fields survive strict decode.
type MailConfig struct {
	Enable   bool
	SMTPServer string
	Recipient  string
}

// LoggingConfig mirrors the ambient logging section every section of
// this config carries, regardless of which feature areas are in scope.
type LoggingConfig struct {
	Level string
}

// ProcessingConfig is the decoder-side target video/audio shape and the
// optional overlay/normalization/custom-filter settings.
type ProcessingConfig struct {
	Width       int
	Height      int
	Aspect      float64
	FPS         float64
	AudioTracks int

	AddLogo     bool
	LogoPath    string
	LogoOpacity float64
	LogoFilter  string

	Volume         float64
	AddLoudnorm    bool
	LoudnormIngest bool
	LoudnormFilter string
	CustomFilter   string

	// FillerStillImage optionally names a static image used for
	// synthetic filler in place of the generated color/sine source.
	FillerStillImage string
}

// IngestConfig carries the live-input splice toggle and its parsed
// decoder command line.
type IngestConfig struct {
	Enable   bool
	InputCmd []string
}

// PlaylistConfig carries the on-disk playlist root and the broadcast
// day's start offset and length.
type PlaylistConfig struct {
	Path string

	DayStart    string
	DayStartSec float64

	Length    string
	LengthSec float64
	Infinite  bool
}

// StorageConfig names the root directory media sources are resolved
// under.
type StorageConfig struct {
	Path string
}

// TextConfig carries the drawtext overlay settings, including the
// derived ZMQ sockets reserved when runtime text messaging is enabled.
type TextConfig struct {
	AddText          bool
	FontFile         string
	TextFromFilename bool
	Style            string

	ZMQStreamSocket string
	ZMQServerSocket string
	NodePos         int
}

// OutConfig carries the output destination and its parsed tail command.
type OutConfig struct {
	Mode      OutputMode
	OutputCmd []string
}

// PlayoutConfig is the process-wide, immutable-after-construction
// configuration every core package reads from. It is never mutated in
// place; a reload constructs a new value and swaps it in atomically via
// Holder.
type PlayoutConfig struct {
	General    GeneralConfig
	RPCServer  RPCServerConfig
	Mail       MailConfig
	Logging    LoggingConfig
	Processing ProcessingConfig
	Ingest     IngestConfig
	Playlist   PlaylistConfig
	Storage    StorageConfig
	Text       TextConfig
	Out        OutConfig
}

// FilterConfig projects the processing/text/out sections this config
// owns into the narrow shape internal/filter.Compile expects.
func (c PlayoutConfig) FilterConfig() filter.Config {
	return filter.Config{
		Width:       c.Processing.Width,
		Height:      c.Processing.Height,
		Aspect:      c.Processing.Aspect,
		FPS:         c.Processing.FPS,
		AudioTracks: c.Processing.AudioTracks,

		AddLogo:     c.Processing.AddLogo,
		LogoPath:    c.Processing.LogoPath,
		LogoOpacity: c.Processing.LogoOpacity,
		LogoFilter:  c.Processing.LogoFilter,

		Volume:         c.Processing.Volume,
		AddLoudnorm:    c.Processing.AddLoudnorm,
		LoudnormIngest: c.Processing.LoudnormIngest,
		LoudnormFilter: c.Processing.LoudnormFilter,
		CustomFilter:   c.Processing.CustomFilter,

		TextAddText:      c.Text.AddText,
		TextFromFilename: c.Text.TextFromFilename,
		FontFile:         c.Text.FontFile,
		Style:            c.Text.Style,
		ZMQStreamSocket:  c.Text.ZMQStreamSocket,

		OutputModeHLS: c.Out.Mode == OutputHLS,
		GenerateMode:  c.General.GenerateMode,

		DayStartSec:   c.Playlist.DayStartSec,
		LengthSec:     c.Playlist.LengthSec,
		StopThreshold: c.General.StopThreshold,
	}
}
