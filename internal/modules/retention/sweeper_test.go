package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geopulse/core/internal/models"
	"github.com/geopulse/core/internal/pkg/pagination"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHistoryStore struct {
	mu        sync.Mutex
	entries   []models.LocationHistoryEntry
	deleteErr map[string]error
}

func (f *fakeHistoryStore) WriteCurrent(context.Context, string, models.LocationSample) error {
	return nil
}

func (f *fakeHistoryStore) CurrentLocation(context.Context, string) (*models.LocationSample, *time.Time, error) {
	return nil, nil, errors.New("not implemented")
}

func (f *fakeHistoryStore) AppendHistory(context.Context, string, models.LocationSample, models.DeviceMeta) error {
	return nil
}

func (f *fakeHistoryStore) QueryHistory(context.Context, string, pagination.Query) ([]models.LocationHistoryEntry, response.Pagination, error) {
	return nil, response.Pagination{}, nil
}

func (f *fakeHistoryStore) DeleteOlderThan(_ context.Context, uid string, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[uid]; err != nil {
		return 0, err
	}
	kept := f.entries[:0]
	var deleted int64
	for _, e := range f.entries {
		if e.UID == uid && e.UpdatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

func (f *fakeHistoryStore) UsersWithHistory(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{})
	var uids []string
	for _, e := range f.entries {
		if _, ok := seen[e.UID]; !ok {
			seen[e.UID] = struct{}{}
			uids = append(uids, e.UID)
		}
	}
	return uids, nil
}

func (f *fakeHistoryStore) add(uid string, age time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, models.LocationHistoryEntry{
		UID:       uid,
		UpdatedAt: time.Now().UTC().Add(-age),
	})
}

func (f *fakeHistoryStore) count(uid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.UID == uid {
			n++
		}
	}
	return n
}

func TestSweepUserRemovesOnlyOldEntries(t *testing.T) {
	store := &fakeHistoryStore{}
	store.add("u1", 10*24*time.Hour)
	store.add("u1", 8*24*time.Hour)
	store.add("u1", time.Hour)
	store.add("u2", 10*24*time.Hour)

	s := NewSweeper(store, zap.NewNop(), 7)
	deleted, err := s.SweepUser(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.Equal(t, 1, store.count("u1"))
	assert.Equal(t, 1, store.count("u2"), "other users untouched")
}

func TestSweepUserIsIdempotent(t *testing.T) {
	store := &fakeHistoryStore{}
	store.add("u1", 10*24*time.Hour)
	s := NewSweeper(store, zap.NewNop(), 7)

	deleted, err := s.SweepUser(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	deleted, err = s.SweepUser(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweepUserKeepsEntriesAtTheBoundary(t *testing.T) {
	store := &fakeHistoryStore{}
	// a shade newer than the cutoff
	store.add("u1", 7*24*time.Hour-time.Minute)
	s := NewSweeper(store, zap.NewNop(), 7)

	deleted, err := s.SweepUser(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Equal(t, 1, store.count("u1"))
}

func TestSweepAllCoversEveryUserAndSkipsFailures(t *testing.T) {
	store := &fakeHistoryStore{deleteErr: map[string]error{"bad": errors.New("write conflict")}}
	store.add("u1", 10*24*time.Hour)
	store.add("u2", 10*24*time.Hour)
	store.add("bad", 10*24*time.Hour)

	s := NewSweeper(store, zap.NewNop(), 7)
	deleted, err := s.SweepAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.Equal(t, 1, store.count("bad"), "failed user left as-is")
}

func TestNewSweeperDefaultsRetentionDays(t *testing.T) {
	s := NewSweeper(&fakeHistoryStore{}, zap.NewNop(), 0)
	assert.Equal(t, DefaultDaysToKeep, s.days)
}
