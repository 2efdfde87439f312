// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// FileConfig is the on-disk YAML shape. It is decoded with
// KnownFields(true) so a typo or stale key fails loudly instead of
// silently falling back to a default, matching the teacher's strict
// parse policy.
type FileConfig struct {
	General struct {
		StopThreshold float64 `yaml:"stop_threshold"`
		GenerateMode  bool    `yaml:"generate_mode"`
	} `yaml:"general"`

	RPCServer struct {
		Enable  bool   `yaml:"enable"`
		Address string `yaml:"address"`
	} `yaml:"rpc_server"`

	Mail struct {
		Enable     bool   `yaml:"enable"`
		SMTPServer string `yaml:"smtp_server"`
		Recipient  string `yaml:"recipient"`
	} `yaml:"mail"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Processing struct {
		Width       int     `yaml:"width"`
		Height      int     `yaml:"height"`
		Aspect      float64 `yaml:"aspect"`
		FPS         float64 `yaml:"fps"`
		AudioTracks int     `yaml:"audio_tracks"`

		AddLogo     bool    `yaml:"add_logo"`
		LogoPath    string  `yaml:"logo_path"`
		LogoOpacity float64 `yaml:"logo_opacity"`
		LogoFilter  string  `yaml:"logo_filter"`

		Volume         float64 `yaml:"volume"`
		AddLoudnorm    bool    `yaml:"add_loudnorm"`
		LoudnormIngest bool    `yaml:"loudnorm_ingest"`
		LoudnormFilter string  `yaml:"loudnorm_filter"`
		CustomFilter   string  `yaml:"custom_filter"`

		FillerStillImage string `yaml:"filler_still_image"`
	} `yaml:"processing"`

	Ingest struct {
		Enable   bool   `yaml:"enable"`
		InputCmd string `yaml:"input_cmd"`
	} `yaml:"ingest"`

	Playlist struct {
		Path     string `yaml:"path"`
		DayStart string `yaml:"day_start"`
		Length   string `yaml:"length"`
		Infinite bool   `yaml:"infinite"`
	} `yaml:"playlist"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Text struct {
		AddText          bool   `yaml:"add_text"`
		FontFile         string `yaml:"fontfile"`
		TextFromFilename bool   `yaml:"text_from_filename"`
		Style            string `yaml:"style"`
	} `yaml:"text"`

	Out struct {
		Mode      string `yaml:"mode"`
		OutputCmd string `yaml:"output_cmd"`
	} `yaml:"out"`
}

// defaults returns the FileConfig applied before the on-disk file is
// merged in, matching the values the original process ships.
func defaults() FileConfig {
	var f FileConfig
	f.General.StopThreshold = 11
	f.Processing.Width = 1024
	f.Processing.Height = 576
	f.Processing.Aspect = 16.0 / 9.0
	f.Processing.FPS = 25
	f.Processing.AudioTracks = 1
	f.Processing.Volume = 1.0
	f.Playlist.DayStart = "00:00:00"
	f.Playlist.Length = "24:00:00"
	f.Out.Mode = string(OutputDesktop)
	return f
}
