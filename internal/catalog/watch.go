package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/iwvelando/calcsite/internal/calculator"
	"go.uber.org/zap"
)

// reloadDelay coalesces the burst of events editors emit for one save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads calculator files from dir into reg whenever they change,
// until ctx is cancelled. Removed files keep their last loaded definition.
func Watch(ctx context.Context, logger *zap.Logger, dir string, reg *calculator.Registry) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("watching calculator directory",
		zap.String("op", "catalog.Watch"),
		zap.String("dir", dir),
	)

	pending := make(map[string]struct{})
	timer := time.NewTimer(reloadDelay)
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
			if !isDefinitionFile(event.Name) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending[filepath.Clean(event.Name)] = struct{}{}
			timer.Reset(reloadDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("calculator watcher error",
				zap.String("op", "catalog.Watch"),
				zap.Error(err),
			)
		case <-timer.C:
			for path := range pending {
				if err := loadFile(logger, reg, path); err != nil {
					logger.Warn("failed to reload calculator",
						zap.String("op", "catalog.Watch"),
						zap.String("file", path),
						zap.Error(err),
					)
				}
			}
			clear(pending)
		}
	}
}
