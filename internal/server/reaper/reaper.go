// Package reaper periodically deletes expired refresh tokens.
package reaper

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Store is the part of the refresh token repository the reaper needs.
type Store interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Reaper struct {
	store    Store
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func New(store Store, interval time.Duration, logger logging.Logger) *Reaper {
	return &Reaper{
		store:    store,
		interval: interval,
		logger:   logger.With("module", "reaper"),
		now:      time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep deletes every refresh token expired at the current time.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error(ctx, "failed to delete expired refresh tokens", "error", err)
		}
		return 0, err
	}
	if n > 0 {
		r.logger.Info(ctx, "deleted expired refresh tokens", "count", n)
	}
	return n, nil
}
