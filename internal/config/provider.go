// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// Provider holds the live configuration. It satisfies the review engine's
// new-item cap source; reads never block on I/O.
type Provider struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	file Config // as stored on disk
	cfg  Config // file plus environment overrides
}

// Load reads path, creating it with defaults if absent.
func Load(path string, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{path: path, logger: logger}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the config file location.
func (p *Provider) Path() string { return p.path }

// Config returns the effective settings.
func (p *Provider) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// NewItemCap returns the daily new-item cap.
func (p *Provider) NewItemCap() (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.NewItemsPerDay, nil
}

// SetNewItemCap changes the cap in memory. Call Save to persist it.
func (p *Provider) SetNewItemCap(n int) error {
	if n < 0 {
		return fmt.Errorf("new items per day must be >= 0, got %d", n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.file.NewItemsPerDay = n
	p.cfg.NewItemsPerDay = n
	return nil
}

// Save writes the file settings back to disk. Environment overrides are
// not persisted.
func (p *Provider) Save() error {
	p.mu.RLock()
	file := p.file
	p.mu.RUnlock()
	return writeFile(p.path, file)
}

// Reload re-reads the file. On error the current settings are kept.
func (p *Provider) Reload() error {
	file, err := readFile(p.path)
	if err != nil {
		return err
	}
	cfg := applyEnv(file)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", p.path, err)
	}
	p.mu.Lock()
	p.file, p.cfg = file, cfg
	p.mu.Unlock()
	return nil
}

// Watch reloads the file whenever it changes until ctx is done. onChange,
// if set, runs after each successful reload. The parent directory is
// watched because editors and Save replace the file by rename.
func (p *Provider) Watch(ctx context.Context, onChange func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != filepath.Clean(p.path) {
					continue
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					if err := p.Reload(); err != nil {
						p.logger.Warn("config reload failed", "path", p.path, "error", err)
						return
					}
					p.logger.Info("config reloaded", "path", p.path)
					if onChange != nil {
						onChange(p.Config())
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				p.logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}
