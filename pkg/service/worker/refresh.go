package worker

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
)

// Loader reloads the item collection from the remote resource.
type Loader interface {
	Load(ctx context.Context) error
}

// RefreshWorker periodically reloads the item store so that changes made by
// other clients become visible.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A failed reload keeps the last loaded list; the store reports the error
type RefreshWorker struct {
	loader   Loader
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRefreshWorker creates a worker reloading loader every interval
func NewRefreshWorker(loader Loader, interval time.Duration) (*RefreshWorker, error) {
	if interval <= 0 {
		return nil, goerr.New("refresh interval must be positive", goerr.V("interval", interval.String()))
	}
	return &RefreshWorker{
		loader:   loader,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins the background refresh loop. The initial load also runs in
// the background and does not block server startup.
func (w *RefreshWorker) Start(ctx context.Context) {
	logging.Default().Info("Item refresh worker starting", "interval", w.interval.String())
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for completion
func (w *RefreshWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Item refresh worker stopped")
}

func (w *RefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Item refresh worker context cancelled")
			return
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context) {
	startTime := time.Now()
	err := w.loader.Load(ctx)
	switch {
	case err == nil:
		logging.Default().Debug("Item refresh completed", "duration", time.Since(startTime).String())
	case errors.Is(err, usecase.ErrTransport):
		// already recorded by the store as its last error
		logging.Default().Warn("Item refresh failed (will retry next interval)", "error", err.Error())
	default:
		logging.Default().Error("Item refresh failed", "error", err.Error())
	}
}
