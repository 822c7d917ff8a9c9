// Package watch rebuilds derived area files whenever their source changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 250 * time.Millisecond

// RebuildFunc regenerates the outputs of one source file.
type RebuildFunc func() error

// Watcher runs a RebuildFunc once at start and again after each burst of
// writes to the watched file. Rebuild failures are logged and do not stop
// the watcher.
type Watcher struct {
	path     string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *zap.Logger

	builds   atomic.Int64
	failures atomic.Int64
}

// New creates a Watcher for path.
//
// Precondition: path must be non-empty; rebuild and logger must be non-nil.
// Postcondition: A debounce <= 0 is replaced by DefaultDebounce.
func New(path string, debounce time.Duration, rebuild RebuildFunc, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		rebuild:  rebuild,
		logger:   logger,
	}
}

// Builds returns the number of successful rebuilds so far.
func (w *Watcher) Builds() int64 { return w.builds.Load() }

// Failures returns the number of failed rebuilds so far.
func (w *Watcher) Failures() int64 { return w.failures.Load() }

// Run watches the source until ctx is cancelled.
//
// The parent directory is watched rather than the file, so editors that
// replace the file on save are still seen.
//
// Postcondition: Returns nil on cancellation, or an error if the watch
// could not be established.
func (w *Watcher) Run(ctx context.Context) error {
	start := time.Now()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch: watching %q: %w", w.path, err)
	}

	w.logger.Info("watching area file",
		zap.String("path", w.path),
		zap.Duration("debounce", w.debounce),
	)
	w.build()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped",
				zap.String("path", w.path),
				zap.Int64("builds", w.Builds()),
				zap.Int64("failures", w.Failures()),
				zap.Duration("uptime", time.Since(start)),
			)
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			w.build()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.String("path", w.path), zap.Error(err))
		}
	}
}

func (w *Watcher) build() {
	start := time.Now()
	if err := w.rebuild(); err != nil {
		w.failures.Add(1)
		w.logger.Warn("rebuild failed",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}
	w.builds.Add(1)
	w.logger.Info("area rebuilt",
		zap.String("path", w.path),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM, logging
// the signal received.
func SignalContext(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
