// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/kortsvar/pkg/types"
)

// DefaultDebounce is how long Watch waits after the last relevant event
// before converting again.
const DefaultDebounce = 500 * time.Millisecond

// Watch runs a conversion immediately and again whenever the transcript or
// the image directory changes, until ctx is cancelled. A failed run is
// reported to w and watching continues. onRun, when non-nil, is called
// after every run.
func Watch(ctx context.Context, cfg types.ConvertConfig, w io.Writer, debounce time.Duration, onRun func(*Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Saving by rename replaces the transcript, so watch its directory.
	inputDir := filepath.Dir(cfg.InputPath)
	for _, dir := range []string{inputDir, cfg.ImagesDir} {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	input := filepath.Clean(cfg.InputPath)
	images := filepath.Clean(cfg.ImagesDir)
	written := map[string]bool{filepath.Clean(cfg.OutputPath): true}
	if cfg.ReportPath != "" {
		written[filepath.Clean(cfg.ReportPath)] = true
	}
	relevant := func(name string) bool {
		name = filepath.Clean(name)
		if written[name] {
			return false
		}
		return name == input || filepath.Dir(name) == images
	}

	run := func() {
		res, err := Run(ctx, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed  convert: %v\n", err)
		}
		if onRun != nil {
			onRun(res, err)
		}
	}

	run()
	fmt.Fprintf(w, "Watching %s and %s for changes\n", cfg.InputPath, cfg.ImagesDir)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if !relevant(event.Name) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "watch error: %v\n", err)

		case <-timer.C:
			run()
		}
	}
}
