package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/gamebook/pkg/adapters/file"
)

// WatchImport imports path into sessionID once and again after every change
// until ctx is done. A failed reload keeps the previous session content.
func WatchImport(ctx context.Context, env *Env, sessionID, path string) error {
	logger := env.Logger.With("session_id", sessionID, "path", path)

	// 1. Initial load; the file may not exist yet
	if err := importFile(ctx, env, sessionID, path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Info("Waiting for file to appear")
	}

	// 2. Reload loop
	w := file.NewWatcher(path, file.WithLogger(env.Logger))
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching for changes")

	for range changes {
		logger.Info("Change detected, reloading")
		if err := importFile(ctx, env, sessionID, path); err != nil {
			logger.Error("Reload failed", "err", err)
		}
	}
	return nil
}

func importFile(ctx context.Context, env *Env, sessionID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res, err := env.Engine.Import(ctx, sessionID, f)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	env.Logger.Info("Imported", "session_id", sessionID, "path", path, "edges", len(res.Edges), "warnings", len(res.Warnings))
	return nil
}
