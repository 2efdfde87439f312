// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package probe wraps an external media-probing tool (ffprobe) and
// surfaces the stream metadata the filter compiler needs: dimensions,
// aspect ratio, frame rate, field order, and audio stream count.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/metrics"
)

// VideoStream carries the subset of ffprobe's video stream fields the
// filter compiler consults.
type VideoStream struct {
	Width             int
	Height            int
	DisplayAspectRatio string
	FieldOrder        string
	RFrameRate        string
	Duration          string
}

// AudioStream carries the subset of ffprobe's audio stream fields the
// filter compiler consults.
type AudioStream struct {
	Duration string
}

// MediaProbe is the parsed, probe-tool-agnostic view of one source file.
type MediaProbe struct {
	VideoStreams []VideoStream
	AudioStreams []AudioStream
}

// Prober spawns an external probe binary against a path.
type Prober struct {
	BinaryPath string
}

// NewProber returns a Prober bound to binaryPath. An empty binaryPath
// falls back to resolving "ffprobe" from PATH.
func NewProber(binaryPath string) *Prober {
	return &Prober{BinaryPath: strings.TrimSpace(binaryPath)}
}

// Probe runs the probe tool against path and returns the parsed stream
// metadata. Contract: idempotent and side-effect-free; on failure it
// returns a nil *MediaProbe and a non-nil error so callers can fall
// back to filter-compiler defaults per the ProbeFailed taxonomy entry.
func (p *Prober) Probe(ctx context.Context, path string) (*MediaProbe, error) {
	info, err := probeWithBin(ctx, p.BinaryPath, path)
	if err != nil {
		metrics.ProbeFailuresTotal.Inc()
		log.WithComponent("probe").Warn().Err(err).Str("source_path", path).
			Str("event", "probe_failed").Msg("media probe failed")
		return nil, err
	}
	return info, nil
}

func probeWithBin(ctx context.Context, binaryPath, path string) (*MediaProbe, error) {
	bin := strings.TrimSpace(binaryPath)
	if bin == "" {
		bin = "ffprobe"
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	// #nosec G204 -- binary path is operator-configured; args are fixed.
	cmd := exec.CommandContext(ctx, bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		errStr := stderr.String()
		if len(errStr) > 4096 {
			errStr = errStr[:4096] + "..."
		}
		return nil, fmt.Errorf("probe: ffprobe failed: %w (stderr: %s)", err, errStr)
	}

	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("probe: decode ffprobe json: %w", err)
	}

	info := &MediaProbe{}
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			info.VideoStreams = append(info.VideoStreams, VideoStream{
				Width:              s.Width,
				Height:             s.Height,
				DisplayAspectRatio: s.DisplayAspectRatio,
				FieldOrder:         s.FieldOrder,
				RFrameRate:         s.AvgFrameRate,
				Duration:           firstNonEmpty(s.Duration, data.Format.Duration),
			})
		case "audio":
			info.AudioStreams = append(info.AudioStreams, AudioStream{
				Duration: firstNonEmpty(s.Duration, data.Format.Duration),
			})
		}
	}

	if len(info.VideoStreams) == 0 && len(info.AudioStreams) == 0 {
		return nil, fmt.Errorf("probe: no usable video or audio streams in %s", path)
	}

	return info, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FPSCalc parses an ffprobe "num/den" frame rate string into a float,
// falling back to fallback when the string is empty or malformed.
func FPSCalc(rFrameRate string, fallback float64) float64 {
	if rFrameRate == "" || rFrameRate == "0/0" {
		return fallback
	}
	parts := strings.Split(rFrameRate, "/")
	if len(parts) != 2 {
		return fallback
	}
	num, errNum := strconv.ParseFloat(parts[0], 64)
	den, errDen := strconv.ParseFloat(parts[1], 64)
	if errNum != nil || errDen != nil || den == 0 {
		return fallback
	}
	return num / den
}

type probeData struct {
	Streams []struct {
		CodecType          string `json:"codec_type"`
		Width              int    `json:"width,omitempty"`
		Height             int    `json:"height,omitempty"`
		DisplayAspectRatio string `json:"display_aspect_ratio,omitempty"`
		FieldOrder         string `json:"field_order,omitempty"`
		AvgFrameRate       string `json:"avg_frame_rate,omitempty"`
		Duration           string `json:"duration,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}
