// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/halvar-dev/playout/internal/log"
	"github.com/halvar-dev/playout/internal/metrics"
	"github.com/rs/zerolog"
)

// Holder holds the current PlayoutConfig with atomic hot-reload. This
// is a config-*file* reload, distinct from and orthogonal to the
// scheduler's own playlist mtime-fingerprint reload, which stays
// synchronous and demand-driven inside internal/scheduler.
type Holder struct {
	reloadMu sync.Mutex
	current  atomic.Pointer[PlayoutConfig]

	loader     *Loader
	configPath string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger
}

// NewHolder wraps an already-loaded config for atomic access and future
// reload.
func NewHolder(initial PlayoutConfig, loader *Loader, configPath string) *Holder {
	h := &Holder{loader: loader, configPath: configPath, logger: log.WithComponent("config")}
	h.current.Store(&initial)
	return h
}

// Get returns the current configuration snapshot.
func (h *Holder) Get() PlayoutConfig {
	return *h.current.Load()
}

// Reload re-runs the loader and, if the result validates, swaps it in.
// A failed reload keeps the previous configuration in place.
func (h *Holder) Reload() error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	next, err := h.loader.Load()
	if err != nil {
		metrics.ConfigReloadTotal.WithLabelValues("failure").Inc()
		h.logger.Error().Err(err).Str("event", "config_reload_failed").Msg("config reload failed, keeping previous configuration")
		return fmt.Errorf("config: reload: %w", err)
	}

	h.current.Store(&next)
	metrics.ConfigReloadTotal.WithLabelValues("success").Inc()
	h.logger.Info().Str("event", "config_reload_success").Msg("configuration reloaded")
	return nil
}

// Watch starts an fsnotify watcher on the config file's directory and
// debounces rapid writes (editors and atomic tmp+rename both fire more
// than one event per save) before triggering Reload. It returns once the
// watcher is running; the watch loop runs in its own goroutine until
// ctx is cancelled.
func (h *Holder) Watch(ctx context.Context) error {
	if h.configPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	h.watcher = watcher

	dir := filepath.Dir(h.configPath)
	file := filepath.Base(h.configPath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}

	go h.watchLoop(ctx, file)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, file string) {
	const debounceDuration = 500 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			_ = h.watcher.Close()
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, func() {
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Str("event", "config_auto_reload_failed").Msg("automatic config reload failed")
				}
			})

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str("event", "config_watcher_error").Msg("config watcher error")
		}
	}
}

// Stop closes the underlying watcher, if running.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}
