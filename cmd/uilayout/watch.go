package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tsawler/uilayout"
	"github.com/tsawler/uilayout/export"
	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/observability"
	"github.com/tsawler/uilayout/store"
)

// debounce is the quiet period after the last write before a file is
// analysed
const debounce = 500 * time.Millisecond

const layoutSuffix = ".layout.json"

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyse detection files as they are written to a directory",
		Long: "Watch a directory and write <name>.layout.json next to every detection file " +
			"once it has been quiet for half a second. Runs until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, args[0], cmd.ErrOrStderr())
		},
	}
}

// isDetectionFile reports whether path is a detection file, not one of our
// own outputs
func isDetectionFile(path string) bool {
	return strings.HasSuffix(path, ".json") && !strings.HasSuffix(path, layoutSuffix)
}

// outputPath returns the layout file written next to a detection file
func outputPath(path string) string {
	return strings.TrimSuffix(path, ".json") + layoutSuffix
}

// layoutWriter analyses one detection file and writes its layout
type layoutWriter struct {
	config  layout.AnalyzerConfig
	archive *store.Archive
	logger  observability.Logger
}

func (w *layoutWriter) process(ctx context.Context, path string) error {
	a, err := uilayout.FromFile(path).WithConfig(w.config).WithLogger(w.logger).Layout()
	if err != nil && !errors.Is(err, layout.ErrDetectionEmpty) {
		return err
	}

	out := outputPath(path)
	if err := export.NewExporter().ExportToFile(a, out); err != nil {
		return err
	}
	w.logger.Info("wrote layout", observability.String("path", out),
		observability.Int("components", len(a.Components)),
		observability.Int("lists", len(a.Lists)))

	if w.archive != nil {
		id, err := w.archive.Save(ctx, filepath.Base(path), export.NewDocument(a))
		if err != nil {
			return err
		}
		w.logger.Debug("archived layout", observability.String("id", id))
	}
	return nil
}

func runWatch(ctx context.Context, opts *rootOptions, dir string, stderr io.Writer) error {
	config, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.logger(stderr, observability.LevelInfo)

	archive, err := opts.openArchive()
	if err != nil {
		return err
	}
	w := &layoutWriter{config: config, logger: logger}
	if archive != nil {
		defer archive.Close()
		w.archive = archive
	}

	return watchDir(ctx, dir, logger, func(path string) {
		if err := w.process(ctx, path); err != nil {
			logger.Error("analysis failed", observability.String("path", path), observability.Error("error", err))
		}
	})
}

// watchDir calls handle for each detection file written in dir, once the
// file has been quiet for the debounce period. It returns when ctx is done,
// after any handle call already running has finished.
func watchDir(ctx context.Context, dir string, logger observability.Logger, handle func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching", observability.String("dir", dir))

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
		wg     sync.WaitGroup
	)
	// every scheduled timer holds one wg count until it runs or is stopped
	defer func() {
		mu.Lock()
		for _, t := range timers {
			if t.Stop() {
				wg.Done()
			}
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isDetectionFile(event.Name) {
				continue
			}
			path := event.Name

			mu.Lock()
			if t, exists := timers[path]; exists && t.Stop() {
				wg.Done()
			}
			wg.Add(1)
			var t *time.Timer
			t = time.AfterFunc(debounce, func() {
				defer wg.Done()
				mu.Lock()
				if timers[path] == t {
					delete(timers, path)
				}
				mu.Unlock()
				if ctx.Err() == nil {
					handle(path)
				}
			})
			timers[path] = t
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", observability.Error("error", err))
		}
	}
}
