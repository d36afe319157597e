package assets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"studiosite/internal/storage"
)

// Resync reruns Sync on a cron schedule so images that slipped past the
// watcher still reach the store.
type Resync struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewResync(logger *slog.Logger) *Resync {
	return &Resync{cron: cron.New(), logger: logger}
}

// Start registers the sync job and starts the scheduler. Runs stop when ctx
// is canceled.
func (r *Resync) Start(ctx context.Context, spec string, store storage.Provider, m *Manager, sourceDir string) error {
	_, err := r.cron.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := Sync(ctx, store, m, sourceDir, r.logger); err != nil {
			r.logger.Error("scheduled asset sync failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", spec, err)
	}

	r.cron.Start()
	r.logger.Info("asset resync scheduled", "schedule", spec)
	return nil
}

// Stop waits for a running sync to finish.
func (r *Resync) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("asset resync stopped")
}
