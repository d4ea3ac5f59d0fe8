package dev

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/flow-github-pages/verify-api/internal/client/mock"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FixtureWatcher reloads a mock fixture file into a resolver whenever it changes
type FixtureWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	resolver *mock.Resolver
	logger   zerolog.Logger
}

// NewFixtureWatcher loads path into resolver and prepares to watch it.
// The parent directory is watched so editors that replace the file on save
// are still picked up.
func NewFixtureWatcher(path string, resolver *mock.Resolver, logger zerolog.Logger) (*FixtureWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fixtures path: %w", err)
	}

	fixtures, err := mock.LoadFixtures(abs)
	if err != nil {
		return nil, err
	}
	resolver.SetFixtures(fixtures)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return &FixtureWatcher{
		watcher:  watcher,
		path:     abs,
		resolver: resolver,
		logger:   logger.With().Str("component", "fixture-watcher").Str("path", abs).Logger(),
	}, nil
}

// Start begins watching for changes and blocks until ctx is cancelled
func (fw *FixtureWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}

			if fw.shouldReload(event) {
				fw.reload()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				// Log error but continue watching
				fw.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

// Stop stops the file watcher
func (fw *FixtureWatcher) Stop() error {
	return fw.watcher.Close()
}

// shouldReload checks if an event touches the watched fixture file
func (fw *FixtureWatcher) shouldReload(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// reload keeps the previous fixtures when the file is unreadable or invalid
func (fw *FixtureWatcher) reload() {
	fixtures, err := mock.LoadFixtures(fw.path)
	if err != nil {
		fw.logger.Warn().Err(err).Msg("fixture reload failed, keeping previous fixtures")
		return
	}

	fw.resolver.SetFixtures(fixtures)
	fw.logger.Info().Int("count", len(fixtures)).Msg("fixtures reloaded")
}
