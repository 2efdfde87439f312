// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"fmt"

	"github.com/halvar-dev/playout/internal/filter"
	"github.com/halvar-dev/playout/internal/fsutil"
	"github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/probe"
)

// Config carries the narrow filter configuration plus the filler-source
// settings gen_source needs; it is built once from PlayoutConfig.
type Config struct {
	Filter    filter.Config
	ChainLog  *filter.ChainLog
	FillerImg string // optional still-image filler path (supplement: PlayoutConfig.Processing.FillerStillImage)

	// Prober probes a clip's real stream metadata before the filter
	// graph is compiled against it. Nil disables probing (filter.Compile
	// falls back to its defaults, per the ProbeFailed taxonomy entry).
	Prober *probe.Prober
}

// GenSource populates node.Cmd, node.Probe, and node.Filter in place.
// When the source file exists, it is used directly (plus an optional
// sidecar audio input); otherwise a synthetic filler of length
// out-seek is generated in its place, per the FileNotFound recovery
// policy. A real source (or still-image filler) is probed before the
// filter graph is compiled against it, matching the original's
// add_probe-then-add_filter order.
func GenSource(ctx context.Context, cfg Config, node *Media) {
	isRegular := fsutil.IsRegularFile(node.Source) == nil

	if isRegular {
		node.Cmd = []string{"-i", node.Source}

		if node.AudioPath != "" && (node.AudioIsRemote || fsutil.IsRegularFile(node.AudioPath) == nil) {
			node.Cmd = append(node.Cmd, "-i", node.AudioPath, "-t", formatSeconds(node.Out-node.Seek))
		}
	} else {
		if node.Source == "" {
			log.WithComponent("media").Warn().
				Float64("delta", node.Out-node.Seek).
				Str("event", "filler_generated").
				Msg("generating filler clip")
		} else {
			log.WithComponent("media").Error().
				Str("source_path", node.Source).
				Str("event", "file_not_found").
				Msg("source file not found, substituting filler")
		}

		source, cmd := genDummy(node.Out-node.Seek, cfg)
		node.Source = source
		node.Cmd = cmd
		isRegular = cfg.FillerImg != "" // still-image filler names a real, probeable file too
	}

	if cfg.Prober != nil && isRegular {
		if probed, err := cfg.Prober.Probe(ctx, node.Source); err == nil {
			node.Probe = probed
		}
	}

	node.Filter = filter.Compile(cfg.Filter, toFilterNode(node), snapshot(cfg.ChainLog))
}

// SeekAndLength builds the decoder-facing input arguments for a single
// clip: a seek offset when the clip starts mid-file, and a duration cap
// unless the clip plays to the natural end of the source.
func SeekAndLength(source string, seek, out, duration float64) []string {
	if out == duration && seek == 0 {
		return []string{"-i", source}
	}
	if seek > 0 {
		return []string{"-ss", formatSeconds(seek), "-i", source, "-t", formatSeconds(out - seek)}
	}
	return []string{"-i", source, "-t", formatSeconds(out - seek)}
}

func genDummy(duration float64, cfg Config) (string, []string) {
	if cfg.FillerImg != "" {
		return cfg.FillerImg, []string{"-loop", "1", "-i", cfg.FillerImg, "-t", formatSeconds(duration)}
	}

	width, height, fps := cfg.Filter.Width, cfg.Filter.Height, cfg.Filter.FPS
	if width == 0 {
		width = 1024
	}
	if height == 0 {
		height = 576
	}
	if fps == 0 {
		fps = 25
	}

	source := fmt.Sprintf("color=c=black:s=%dx%d:r=%v", width, height, fps)
	lavfi := fmt.Sprintf("%s:d=%s", source, formatSeconds(duration))
	return source, []string{"-f", "lavfi", "-i", lavfi}
}

func snapshot(log *filter.ChainLog) []string {
	if log == nil {
		return nil
	}
	return log.Snapshot()
}

func toFilterNode(node *Media) filter.Node {
	return filter.Node{
		Source:       node.Source,
		AudioPath:    node.AudioPath,
		Seek:         node.Seek,
		Out:          node.Out,
		Duration:     node.Duration,
		Category:     node.Category,
		CustomFilter: node.CustomFilter,
		Unit:         node.Unit,
		Begin:        node.Begin,
		LastAd:       node.LastAd,
		NextAd:       node.NextAd,
		Probe:        node.Probe,
	}
}
