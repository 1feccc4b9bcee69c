package location

import (
	"context"
	"sync"
	"time"

	"github.com/geopulse/core/internal/models"
)

type deviceFix struct {
	sample     models.LocationSample
	meta       models.DeviceMeta
	receivedAt time.Time
}

type feedWaiter struct {
	uid string
	ch  chan models.LocationSample
}

// DeviceFeed is a Provider backed by fixes the device pushes over the API.
// Fixes are cached per reporting user so one user's reports can never
// satisfy another user's acquisition. Acquire serves the cached fix when
// it is fresh enough (staleness measured by server receive time, not the
// device's capturedAt, since device clocks skew) and otherwise waits for
// the next push.
type DeviceFeed struct {
	mu         sync.Mutex
	fixes      map[string]deviceFix
	waiters    map[int]feedWaiter
	nextWaiter int
}

func NewDeviceFeed() *DeviceFeed {
	return &DeviceFeed{
		fixes:   make(map[string]deviceFix),
		waiters: make(map[int]feedWaiter),
	}
}

// Offer feeds a device-reported fix into the feed under the reporting
// user's identity, waking waiters acquiring for that user.
func (f *DeviceFeed) Offer(uid string, sample models.LocationSample, meta models.DeviceMeta) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fixes[uid] = deviceFix{sample: sample, meta: meta, receivedAt: time.Now()}

	for id, w := range f.waiters {
		if w.uid != "" && w.uid != uid {
			continue
		}
		w.ch <- sample
		delete(f.waiters, id)
	}
}

// DeviceMeta returns the acquisition context of the user's most recent fix.
func (f *DeviceFeed) DeviceMeta(uid string) models.DeviceMeta {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fix, ok := f.fixes[uid]; ok {
		return fix.meta
	}
	return models.DeviceMeta{Platform: "unknown"}
}

func (f *DeviceFeed) Acquire(ctx context.Context, opts AcquireOptions) (models.LocationSample, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxSampleAge
	}

	f.mu.Lock()
	if fix, ok := f.cachedLocked(opts.UID); ok && time.Since(fix.receivedAt) <= maxAge {
		sample := fix.sample
		f.mu.Unlock()
		return sample, nil
	}

	ch := make(chan models.LocationSample, 1)
	id := f.nextWaiter
	f.nextWaiter++
	f.waiters[id] = feedWaiter{uid: opts.UID, ch: ch}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.waiters, id)
		f.mu.Unlock()
	}()

	select {
	case sample := <-ch:
		return sample, nil
	case <-ctx.Done():
		return models.LocationSample{}, ctx.Err()
	case <-time.After(timeout):
		return models.LocationSample{}, ErrAcquisitionTimeout
	}
}

// cachedLocked returns the cached fix for uid, or the most recent one
// across all users when uid is empty. Caller holds f.mu.
func (f *DeviceFeed) cachedLocked(uid string) (deviceFix, bool) {
	if uid != "" {
		fix, ok := f.fixes[uid]
		return fix, ok
	}
	var best deviceFix
	found := false
	for _, fix := range f.fixes {
		if !found || fix.receivedAt.After(best.receivedAt) {
			best = fix
			found = true
		}
	}
	return best, found
}
