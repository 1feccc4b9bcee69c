package app

import (
	"context"
	"fmt"
	"time"

	"github.com/geopulse/core/internal/modules/retention"
	pkgcron "github.com/geopulse/core/internal/pkg/cron"
	"go.uber.org/zap"
)

// presenceStaleAfter is how long a user may go without a lastSeen
// refresh before the watchdog flips them offline. The gateway touches
// connected uids every minute, so only truly gone clients age out.
const presenceStaleAfter = 5 * time.Minute

// stalePresence is the slice of the presence store the watchdog uses.
type stalePresence interface {
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, presenceStore stalePresence, sweeper *retention.Sweeper, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "sweep_location_history",
		Description: "Prune location history past the retention window",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			deleted, err := sweeper.SweepAll(ctx)
			if err != nil {
				cronLogger.Warn("history sweep failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("history sweep done, removed %d entries", deleted))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "presence_watchdog",
		Description: "Mark users offline whose presence has gone stale",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-presenceStaleAfter)
			flipped, err := presenceStore.MarkStaleOffline(ctx, cutoff)
			if err != nil {
				cronLogger.Warn("presence watchdog failed", zap.Error(err))
				return err
			}
			if flipped > 0 {
				cronLogger.Info(fmt.Sprintf("presence watchdog flipped %d users offline", flipped))
			}
			return nil
		},
	})
}
