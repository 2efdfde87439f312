// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/halvar-dev/playout/internal/clock"
	"github.com/halvar-dev/playout/internal/probe"
)

// Config carries the narrow slice of PlayoutConfig the compiler needs.
// It is built by the config/media packages from the real PlayoutConfig
// so this package does not import internal/config.
type Config struct {
	Width, Height int
	Aspect        float64
	FPS           float64
	AudioTracks   int

	AddLogo     bool
	LogoPath    string
	LogoOpacity float64
	LogoFilter  string

	Volume         float64
	AddLoudnorm    bool
	LoudnormIngest bool
	LoudnormFilter string
	CustomFilter   string

	TextAddText      bool
	TextFromFilename bool
	FontFile         string
	Style            string
	ZMQStreamSocket  string

	OutputModeHLS bool
	GenerateMode  bool

	DayStartSec   float64
	LengthSec     float64
	StopThreshold float64
}

// Node is the narrow, value-semantics view of a scheduled clip the
// compiler operates on. media.Media builds one of these per clip so
// this package never imports media (which in turn imports filter),
// avoiding the cyclic Media/filter reference the design notes warn
// against.
type Node struct {
	Source       string
	AudioPath    string
	Seek         float64
	Out          float64
	Duration     float64
	Category     string
	CustomFilter string
	Unit         clock.Unit
	Begin        *float64
	LastAd       bool
	NextAd       bool
	Probe        *probe.MediaProbe
}

// Compile runs the filter decision table against node and returns the
// populated graph. chainSnapshot is the caller's Snapshot of the
// runtime filter_chain log, taken once at next() time.
func Compile(cfg Config, node Node, chainSnapshot []string) *Filters {
	audioPosition := 0
	if isRegularFile(node.AudioPath) {
		audioPosition = 1
	}
	f := NewFilters(cfg.AudioTracks, audioPosition)

	if node.Unit == clock.Encoder {
		addText(f, cfg, node, chainSnapshot)
		return f
	}

	if node.Probe != nil && len(node.Probe.VideoStreams) > 0 {
		v := node.Probe.VideoStreams[0]
		aspect := aspectCalc(v.DisplayAspectRatio, cfg)
		fps := probe.FPSCalc(v.RFrameRate, 1.0)

		deinterlace(f, v.FieldOrder)
		pad(f, aspect, v.Width, v.Height, cfg)
		fpsFilter(f, fps, cfg)
		scale(f, v.Width, v.Height, aspect, cfg)
		extendVideo(f, node, v.Duration)
	} else {
		fpsFilter(f, 0, cfg)
		scale(f, 0, 0, 1, cfg)
	}

	addText(f, cfg, node, chainSnapshot)
	fade(f, node, 0, KindVideo)
	overlay(f, node, cfg)
	realtime(f, node, cfg)

	procVF, procAF := SplitCustomFilter(cfg.CustomFilter)
	nodeVF, nodeAF := SplitCustomFilter(node.CustomFilter)
	custom(f, procVF, 0, KindVideo)
	custom(f, nodeVF, 0, KindVideo)

	for i := 0; i < cfg.AudioTracks; i++ {
		hasProbeTrack := node.Probe != nil && i < len(node.Probe.AudioStreams)
		hasSidecar := isRegularFile(node.AudioPath)

		switch {
		case hasProbeTrack || hasSidecar:
			extendAudio(f, node, i)
		case node.Unit == clock.Decoder:
			addSilentAudio(f, node, i)
		}

		// Always close with anull, required for correct HLS split.
		f.AddFilter("anull", i, KindAudio)

		addLoudnorm(f, node, cfg, i)
		fade(f, node, i, KindAudio)
		audioVolume(f, cfg, i)

		custom(f, procAF, i, KindAudio)
		custom(f, nodeAF, i, KindAudio)
	}

	return f
}

func isRegularFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func aspectCalc(dar string, cfg Config) float64 {
	if dar == "" {
		return cfg.Aspect
	}
	parts := strings.Split(dar, ":")
	if len(parts) != 2 {
		return cfg.Aspect
	}
	w, errW := strconv.ParseFloat(parts[0], 64)
	h, errH := strconv.ParseFloat(parts[1], 64)
	if errW != nil || errH != nil || h == 0 {
		return cfg.Aspect
	}
	return w / h
}

func isClose(a, b, tolerance float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

func deinterlace(f *Filters, fieldOrder string) {
	if fieldOrder != "" && fieldOrder != "progressive" {
		f.AddFilter("yadif=0:-1:0", 0, KindVideo)
	}
}

func pad(f *Filters, aspect float64, width, height int, cfg Config) {
	if isClose(aspect, cfg.Aspect, 0.03) {
		return
	}

	scalePrefix := ""
	if width > 0 && height > 0 {
		switch {
		case width > cfg.Width && aspect > cfg.Aspect:
			scalePrefix = fmt.Sprintf("scale=%d:-1,", cfg.Width)
		case height > cfg.Height && aspect < cfg.Aspect:
			scalePrefix = fmt.Sprintf("scale=-1:%d,", cfg.Height)
		}
	}

	f.AddFilter(fmt.Sprintf(
		"%spad=max(iw\\,ih*(%d/%d)):ow/(%d/%d):(ow-iw)/2:(oh-ih)/2",
		scalePrefix, cfg.Width, cfg.Height, cfg.Width, cfg.Height,
	), 0, KindVideo)
}

func fpsFilter(f *Filters, fps float64, cfg Config) {
	if fps != cfg.FPS {
		f.AddFilter(fmt.Sprintf("fps=%v", cfg.FPS), 0, KindVideo)
	}
}

func scale(f *Filters, width, height int, aspect float64, cfg Config) {
	if width == 0 || height == 0 || width != cfg.Width || height != cfg.Height {
		f.AddFilter(fmt.Sprintf("scale=%d:%d", cfg.Width, cfg.Height), 0, KindVideo)
	}

	if !isClose(aspect, cfg.Aspect, 0.03) {
		f.AddFilter(fmt.Sprintf("setdar=dar=%v", cfg.Aspect), 0, KindVideo)
	}
}

func extendVideo(f *Filters, node Node, videoDurationStr string) {
	videoDuration, err := strconv.ParseFloat(videoDurationStr, 64)
	if err != nil {
		return
	}
	if node.Out-node.Seek > videoDuration-node.Seek+0.1 && node.Duration >= node.Out {
		stopDuration := (node.Out - node.Seek) - (videoDuration - node.Seek)
		f.AddFilter(fmt.Sprintf("tpad=stop_mode=add:stop_duration=%v", stopDuration), 0, KindVideo)
	}
}

func addText(f *Filters, cfg Config, node Node, chainSnapshot []string) {
	if !cfg.TextAddText {
		return
	}
	if !(cfg.TextFromFilename || cfg.OutputModeHLS || node.Unit == clock.Encoder) {
		return
	}
	f.AddFilter(buildDrawtext(cfg, node, chainSnapshot), 0, KindVideo)
}

func buildDrawtext(cfg Config, node Node, chainSnapshot []string) string {
	if !cfg.TextFromFilename && cfg.ZMQStreamSocket != "" {
		return fmt.Sprintf(`zmq=b=tcp\://%s,drawtext@dyntext=text=''`, cfg.ZMQStreamSocket)
	}

	text := strings.Join(chainSnapshot, " ")
	if text == "" {
		text = filepath.Base(node.Source)
	}
	return fmt.Sprintf("drawtext=fontfile=%s:text='%s':%s", cfg.FontFile, text, cfg.Style)
}

func fade(f *Filters, node Node, nr int, kind Kind) {
	t := ""
	if kind == KindAudio {
		t = "a"
	}

	if node.Seek > 0 || node.Unit == clock.Ingest {
		f.AddFilter(fmt.Sprintf("%sfade=in:st=0:d=0.5", t), nr, kind)
	}

	if node.Out != node.Duration && node.Out-node.Seek-1 > 0 {
		f.AddFilter(fmt.Sprintf("%sfade=out:st=%v:d=1.0", t, node.Out-node.Seek-1), nr, kind)
	}
}

func overlay(f *Filters, node Node, cfg Config) {
	if !cfg.AddLogo || !isRegularFile(cfg.LogoPath) || node.Category == "advertisement" {
		return
	}

	logoFilter := cfg.LogoFilter
	if logoFilter == "" {
		logoFilter = "W-w-12:12"
	}

	chain := fmt.Sprintf(
		"null[v];movie=%s:loop=0,setpts=N/(FRAME_RATE*TB),format=rgba,colorchannelmixer=aa=%v[l];[v][l]overlay=%s:shortest=1",
		cfg.LogoPath, cfg.LogoOpacity, logoFilter,
	)

	if node.LastAd {
		chain += ",fade=in:st=0:d=1.0:alpha=1"
	}
	if node.NextAd {
		chain += fmt.Sprintf(",fade=out:st=%v:d=1.0:alpha=1", node.Out-node.Seek-1)
	}

	f.AddFilter(chain, 0, KindVideo)
}

func realtime(f *Filters, node Node, cfg Config) {
	if cfg.GenerateMode || !cfg.OutputModeHLS {
		return
	}

	speedFilter := "realtime=speed=1"

	if node.Begin != nil {
		syncCfg := clock.SyncConfig{DayStartSec: cfg.DayStartSec, LengthSec: cfg.LengthSec, StopThreshold: cfg.StopThreshold}
		delta, _ := clock.GetDelta(syncCfg, *node.Begin)

		if delta < 0 && node.Seek == 0 {
			duration := node.Out - node.Seek
			speed := duration / (duration + delta)
			if speed > 0 && speed < 1.1 && delta < cfg.StopThreshold {
				speedFilter = fmt.Sprintf("realtime=speed=%v", speed)
			}
		}
	}

	f.AddFilter(speedFilter, 0, KindVideo)
}

func addSilentAudio(f *Filters, node Node, nr int) {
	f.AddFilter(fmt.Sprintf(
		"aevalsrc=0:channel_layout=stereo:duration=%v:sample_rate=48000",
		node.Out-node.Seek,
	), nr, KindAudio)
}

func extendAudio(f *Filters, node Node, nr int) {
	var audioDurationStr string
	if node.Probe != nil && nr < len(node.Probe.AudioStreams) {
		audioDurationStr = node.Probe.AudioStreams[nr].Duration
	}

	audioDuration, err := strconv.ParseFloat(audioDurationStr, 64)
	if err != nil {
		return
	}

	if node.Out-node.Seek > audioDuration-node.Seek+0.1 && node.Duration >= node.Out {
		f.AddFilter(fmt.Sprintf("apad=whole_dur=%v", node.Out-node.Seek), nr, KindAudio)
	}
}

func addLoudnorm(f *Filters, node Node, cfg Config, nr int) {
	if cfg.AddLoudnorm || (node.Unit == clock.Ingest && cfg.LoudnormIngest) {
		loud := cfg.LoudnormFilter
		if loud == "" {
			loud = "loudnorm=i=-23:tp=-2:lra=7"
		}
		f.AddFilter(loud, nr, KindAudio)
	}
}

func audioVolume(f *Filters, cfg Config, nr int) {
	if cfg.Volume != 1.0 {
		f.AddFilter(fmt.Sprintf("volume=%v", cfg.Volume), nr, KindAudio)
	}
}

func custom(f *Filters, fragment string, nr int, kind Kind) {
	if fragment != "" {
		f.AddFilter(fragment, nr, kind)
	}
}
