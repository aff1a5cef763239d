package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs the analysis whenever a fixture file changes
type Watcher struct {
	watcher *fsnotify.Watcher
	config  Config
	rerun   func(*Prover)
}

// NewWatcher creates a file watcher over the config's fixture paths.
// Missing paths are skipped so optional fixtures do not fail the watch.
func NewWatcher(config Config, rerun func(*Prover)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	for _, p := range []string{config.AssetsPath, config.RulesPath, config.PoliciesDir, config.DOTPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", p, err)
		}
	}

	return &Watcher{
		watcher: watcher,
		config:  config,
		rerun:   rerun,
	}, nil
}

// Run blocks until ctx is cancelled, rebuilding the graph and re-running
// the analysis after each fixture change.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// Debounce: wait 500ms after the last write before re-running
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					prover, err := NewProver(w.config)
					if err != nil {
						fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
						return
					}
					w.rerun(prover)
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "file watcher error: %v\n", err)
		}
	}
}
