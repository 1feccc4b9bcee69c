package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/geopulse/core/internal/models"
	"github.com/geopulse/core/internal/modules/retention"
	pkgcron "github.com/geopulse/core/internal/pkg/cron"
	"github.com/geopulse/core/internal/pkg/pagination"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStalePresence struct {
	mu      sync.Mutex
	cutoffs []time.Time
	flipped int64
}

func (f *fakeStalePresence) MarkStaleOffline(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.flipped, nil
}

type emptyHistoryStore struct{}

func (emptyHistoryStore) WriteCurrent(context.Context, string, models.LocationSample) error {
	return nil
}

func (emptyHistoryStore) CurrentLocation(context.Context, string) (*models.LocationSample, *time.Time, error) {
	return nil, nil, nil
}

func (emptyHistoryStore) AppendHistory(context.Context, string, models.LocationSample, models.DeviceMeta) error {
	return nil
}

func (emptyHistoryStore) QueryHistory(context.Context, string, pagination.Query) ([]models.LocationHistoryEntry, response.Pagination, error) {
	return nil, response.Pagination{}, nil
}

func (emptyHistoryStore) DeleteOlderThan(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

func (emptyHistoryStore) UsersWithHistory(context.Context) ([]string, error) {
	return nil, nil
}

func TestPresenceWatchdogUsesStalenessWindow(t *testing.T) {
	presenceStore := &fakeStalePresence{flipped: 2}
	sweeper := retention.NewSweeper(emptyHistoryStore{}, zap.NewNop(), 7)
	sched := pkgcron.New()
	registerCronJobs(sched, presenceStore, sweeper, zap.NewNop())

	require.NoError(t, sched.Run(context.Background(), "presence_watchdog"))

	require.Len(t, presenceStore.cutoffs, 1)
	want := time.Now().UTC().Add(-presenceStaleAfter)
	assert.WithinDuration(t, want, presenceStore.cutoffs[0], 2*time.Second)
}

func TestCronJobsAreRegistered(t *testing.T) {
	sched := pkgcron.New()
	registerCronJobs(sched, &fakeStalePresence{}, retention.NewSweeper(emptyHistoryStore{}, zap.NewNop(), 7), zap.NewNop())

	names := make(map[string]bool)
	for _, item := range sched.List() {
		names[item.Name] = true
	}
	assert.True(t, names["presence_watchdog"])
	assert.True(t, names["sweep_location_history"])
}
