// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/halvar-dev/playout/internal/assemble"
	"github.com/halvar-dev/playout/internal/config"
	"github.com/halvar-dev/playout/internal/filter"
	plog "github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/media"
	"github.com/halvar-dev/playout/internal/probe"
	"github.com/halvar-dev/playout/internal/scheduler"
	"github.com/halvar-dev/playout/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded.
	plog.Configure(plog.Config{
		Level:   "info",
		Service: "playout",
		Version: version.Version,
	})

	logger := plog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	explicitConfigPath := strings.TrimSpace(*configPath)
	loader := config.NewLoader(explicitConfigPath)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config_invalid").
			Str("config_path", explicitConfigPath).
			Msg("failed to load configuration")
	}

	// Re-configure logger with loaded configuration.
	plog.Configure(plog.Config{
		Level:   cfg.Logging.Level,
		Service: "playout",
		Version: version.Version,
	})
	logger = plog.WithComponent("main")

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("playlist_path", cfg.Playlist.Path).
		Str("output_mode", string(cfg.Out.Mode)).
		Msg("starting playout")

	holder := config.NewHolder(cfg, loader, explicitConfigPath)
	if err := holder.Watch(ctx); err != nil {
		logger.Error().Err(err).Str("event", "config_watch_failed").Msg("config hot-reload disabled")
	}
	defer holder.Stop()

	mediaCfg := media.Config{
		Filter:    cfg.FilterConfig(),
		ChainLog:  filter.NewChainLog(),
		FillerImg: cfg.Processing.FillerStillImage,
		Prober:    probe.NewProber(""),
	}

	cp, err := scheduler.New(cfg, mediaCfg)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "scheduler_init_failed").Msg("failed to start scheduler")
	}

	logger.Info().Msg("playout scheduler running")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		default:
		}

		clip := cp.Next(ctx)
		if !clip.Process {
			continue
		}

		live := holder.Get()
		args := assemble.Command(
			[]string{"-hide_banner", "-nostats"},
			clip.Cmd,
			clip.Filter,
			live.Out.OutputCmd,
		)

		logger.Debug().
			Str("source", clip.Source).
			Str("category", clip.Category).
			Int("index", clip.Index).
			Strs("args", args).
			Msg("assembled ffmpeg command")

		// Spawning and supervising the ffmpeg process that consumes this
		// argument vector is out of scope; an external process
		// supervisor takes args from here. We still have to pace our own
		// next() calls to the clip's real span, or we'd ask the
		// scheduler for a new clip before this one would have finished
		// playing.
		span := clip.Out - clip.Seek
		if span <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		case <-time.After(time.Duration(span * float64(time.Second))):
		}
	}
}
