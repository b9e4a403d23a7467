// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/config"
	"github.com/mtreilly/arc-review/internal/queue"
)

func newWatchCmd(cfg *config.Provider, engine *queue.Engine) *cobra.Command {
	var (
		recursive  bool
		debounceMs int
		oneShot    bool
	)

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Watch a folder and import JSON decks dropped into it",
		Long: `Monitor a directory for new .json deck files and import each one.

Examples:
  arc-review watch ~/Downloads/decks
  arc-review watch ~/Dropbox/decks --recursive
  arc-review watch ~/decks --one-shot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := expandHome(args[0])
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("cannot access directory %s: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			w := &deckWatcher{
				engine:    engine,
				out:       cmd.OutOrStdout(),
				recursive: recursive,
				debounce:  time.Duration(debounceMs) * time.Millisecond,
			}
			if oneShot {
				return w.processExisting(cmd.Context(), dir)
			}

			if cfg != nil {
				if err := cfg.Watch(cmd.Context(), refreshOnChange(cmd.Context(), engine)); err != nil {
					slog.Warn("config watch unavailable", "error", err)
				}
			}
			return w.watch(cmd.Context(), dir)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch subdirectories recursively")
	cmd.Flags().IntVar(&debounceMs, "debounce", 1000, "Debounce milliseconds for file events")
	cmd.Flags().BoolVar(&oneShot, "one-shot", false, "Import existing files and exit (don't watch)")
	return cmd
}

type deckWatcher struct {
	engine    *queue.Engine
	out       io.Writer
	recursive bool
	debounce  time.Duration

	mu      sync.Mutex // guards out and pending
	pending map[string]*time.Timer
}

func isDeckFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func (w *deckWatcher) watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	w.pending = make(map[string]*time.Timer)
	defer w.stopPending()

	if w.recursive {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if err := watcher.Add(path); err != nil {
					slog.Warn("cannot watch directory", "path", path, "error", err)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk directories: %w", err)
		}
	} else if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	w.printf("Watching %s for .json decks. Press Ctrl+C to stop.\n", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDeckFile(event.Name) || !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Debounce: reset the timer while the file is still being written.
			name := event.Name
			w.mu.Lock()
			if timer, exists := w.pending[name]; exists {
				timer.Stop()
			}
			w.pending[name] = time.AfterFunc(w.debounce, func() {
				w.mu.Lock()
				delete(w.pending, name)
				w.mu.Unlock()
				w.importOne(ctx, name)
			})
			w.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (w *deckWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.pending {
		t.Stop()
	}
}

func (w *deckWatcher) processExisting(ctx context.Context, dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !w.recursive && path != dir {
			return filepath.SkipDir
		}
		if !d.IsDir() && isDeckFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk directory: %w", err)
	}

	if len(files) == 0 {
		w.printf("No .json files found\n")
		return nil
	}

	imported := 0
	for _, f := range files {
		if w.importOne(ctx, f) {
			imported++
		}
	}
	w.printf("\nImported: %d, Failed: %d\n", imported, len(files)-imported)
	return nil
}

// importOne imports a single file. Vanished files are skipped silently.
func (w *deckWatcher) importOne(ctx context.Context, path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	used, n, err := importFile(ctx, w.engine, path, "")
	if err != nil {
		slog.Warn("import failed", "path", path, "error", err)
		w.printf("Failed: %s: %v\n", filepath.Base(path), err)
		return false
	}
	w.printf("Imported %s from %s into %q\n", plural(n, "card"), filepath.Base(path), used)
	return true
}

func (w *deckWatcher) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}
