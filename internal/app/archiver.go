package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tutormatch/internal/service"
)

// Archiver periodically archives non-recurring requests whose week has
// elapsed, keeping dashboards limited to current weeks without touching
// request history.
type Archiver struct {
	requests *service.RequestService
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewArchiver(requests *service.RequestService, interval time.Duration, logger *zap.Logger) *Archiver {
	return &Archiver{
		requests: requests,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background loop.
func (a *Archiver) Start(ctx context.Context) {
	a.logger.Info("Starting request archiver", zap.Duration("interval", a.interval))
	go a.run(ctx)
}

// Stop terminates the background loop.
func (a *Archiver) Stop() {
	close(a.stopChan)
}

func (a *Archiver) run(ctx context.Context) {
	// First sweep right away, then on the ticker.
	a.archive(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.archive(ctx)
		case <-a.stopChan:
			a.logger.Info("Request archiver stopped")
			return
		case <-ctx.Done():
			a.logger.Info("Request archiver cancelled")
			return
		}
	}
}

func (a *Archiver) archive(ctx context.Context) {
	if _, err := a.requests.ArchiveExpired(ctx, time.Now()); err != nil {
		a.logger.Error("Failed to archive expired requests", zap.Error(err))
	}
}
