package retention

import (
	"context"
	"time"

	"github.com/geopulse/core/internal/modules/location"
	"go.uber.org/zap"
)

// DefaultDaysToKeep bounds how far back location history is retained.
const DefaultDaysToKeep = 7

// Sweeper prunes location history entries older than the retention window.
type Sweeper struct {
	store location.Store
	log   *zap.Logger
	days  int
}

func NewSweeper(store location.Store, log *zap.Logger, days int) *Sweeper {
	if days <= 0 {
		days = DefaultDaysToKeep
	}
	return &Sweeper{store: store, log: log.Named("retention"), days: days}
}

// SweepUser removes a single user's entries strictly older than the cutoff
// and reports how many were deleted. Re-running over pruned data deletes
// nothing.
func (s *Sweeper) SweepUser(ctx context.Context, uid string, days int) (int64, error) {
	if days < 0 {
		days = s.days
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted, err := s.store.DeleteOlderThan(ctx, uid, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("pruned location history",
			zap.String("uid", uid),
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

// SweepAll prunes every user that has history. Per-user failures are
// logged and skipped so one bad document cannot stall the sweep.
func (s *Sweeper) SweepAll(ctx context.Context) (int64, error) {
	uids, err := s.store.UsersWithHistory(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, uid := range uids {
		deleted, err := s.SweepUser(ctx, uid, s.days)
		if err != nil {
			s.log.Warn("sweep failed for user", zap.String("uid", uid), zap.Error(err))
			continue
		}
		total += deleted
	}
	return total, nil
}
