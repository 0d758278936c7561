package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/metrics"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
)

// HousekeepingService periodically purges expired token registry entries.
type HousekeepingService struct {
	Tokens   store.Tokens
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  *metrics.Collector

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one hour.
func NewHousekeepingService(tokens store.Tokens, logger *slog.Logger, interval time.Duration, m *metrics.Collector) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Tokens:   tokens,
		Logger:   logger,
		Interval: interval,
		Metrics:  m,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes registry entries that have expired and returns how many
// were removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	n, err := s.Tokens.DeleteExpiredTokens(ctx, time.Now().UTC())
	if err != nil {
		s.Logger.Error("failed to delete expired tokens", "error", err)
		return n
	}

	s.Metrics.RecordRegistryPurged(n)
	s.Logger.Info("housekeeping cleanup completed", "deleted_tokens", n)
	return n
}
