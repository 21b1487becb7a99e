package service

import (
	"context"
	"time"

	apprepository "github.com/minli-dev/minli/internal/app/repository"
	"go.uber.org/zap"
)

// LinkExpiryChecker periodically hard-deletes links whose expiry passed long
// enough ago. Recently expired links stay in the table so visitors still get
// the "expired" page instead of falling through to the SPA.
type LinkExpiryChecker struct {
	logger    *zap.Logger
	repo      apprepository.LinkRepository
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
}

// NewLinkExpiryChecker creates a checker that keeps expired links around for
// the given retention before deleting them.
func NewLinkExpiryChecker(logger *zap.Logger, repo apprepository.LinkRepository, retention time.Duration) *LinkExpiryChecker {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &LinkExpiryChecker{
		logger:    logger,
		repo:      repo,
		retention: retention,
		interval:  time.Hour,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (c *LinkExpiryChecker) Start() {
	go c.run()
}

// Stop stops the periodic sweep.
func (c *LinkExpiryChecker) Stop() {
	close(c.stopChan)
}

func (c *LinkExpiryChecker) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopChan:
			c.logger.Info("link expiry checker stopped")
			return
		}
	}
}

func (c *LinkExpiryChecker) sweep() {
	ctx := context.Background()
	cutoff := time.Now().Add(-c.retention)

	deleted, err := c.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		c.logger.Error("failed to delete expired links", zap.Error(err))
		return
	}

	if deleted > 0 {
		c.logger.Info("deleted expired links",
			zap.Int64("count", deleted),
			zap.Time("expired_before", cutoff),
		)
	}
}
