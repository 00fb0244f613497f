package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
	"github.com/aleksaelezovic/conjtrig/pkg/store"
)

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch file",
		Short: "Load a TriG file into the quad store and reload it on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := a.openStore()
			if err != nil {
				return err
			}
			defer qs.Close()
			return a.watch(cmd.Context(), qs, args[0], debounce)
		},
	}
	cmd.Flags().StringVar(&a.storePath, "store", "", "Quad store directory (overrides store.path)")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Wait this long for more changes before reloading")
	return cmd
}

// watch loads path, then reloads it whenever it is written, until ctx is done.
// The parent directory is watched so editors that replace the file are seen too.
func (a *app) watch(ctx context.Context, qs *store.QuadStore, path string, debounce time.Duration) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	loaded, err := a.reload(ctx, qs, abs, nil)
	if err != nil {
		a.logger.Error("Initial load failed", slog.String("path", abs), slog.String("error", err.Error()))
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	a.logger.Info("Watching for changes", slog.String("path", abs), slog.Duration("debounce", debounce))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			a.logger.Debug("Change detected", slog.String("path", abs), slog.String("op", event.Op.String()))
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			if loaded, err = a.reload(ctx, qs, abs, loaded); err != nil {
				a.logger.Error("Reload failed", slog.String("path", abs), slog.String("error", err.Error()))
			}
			if err := a.finish(); err != nil {
				a.logger.Warn("Metrics not written", slog.String("error", err.Error()))
			}
		}
	}
}

// reload loads path into qs and removes the statements of the previous version that the
// new one no longer has. It returns the statements now attributed to the file. After a
// failed parse nothing is removed and both versions stay attributed, so the next
// successful reload clears them.
func (a *app) reload(ctx context.Context, qs *store.QuadStore, path string, previous []*rdf.Quad) ([]*rdf.Quad, error) {
	current := rdf.NewCollector()
	if err := a.loadFile(ctx, qs, path, current); err != nil {
		return append(previous, current.Quads...), err
	}

	keep := make(map[string]bool, len(current.Quads))
	for _, q := range current.Quads {
		keep[rdf.FormatNQuad(q)] = true
	}
	var stale []*rdf.Quad
	for _, q := range previous {
		if !keep[rdf.FormatNQuad(q)] {
			stale = append(stale, q)
		}
	}
	if len(stale) == 0 {
		return current.Quads, nil
	}

	removed, err := qs.DeleteQuadsBatch(stale)
	if err != nil {
		return append(stale, current.Quads...), fmt.Errorf("remove stale statements: %w", err)
	}
	if err := qs.Sync(); err != nil {
		return current.Quads, fmt.Errorf("sync store: %w", err)
	}
	a.logger.Info("Removed stale statements", slog.String("input", path), slog.Int("removed", removed))
	return current.Quads, nil
}
