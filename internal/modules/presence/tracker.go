package presence

import (
	"context"

	"github.com/geopulse/core/internal/models"
	"go.uber.org/zap"
)

// Tracker owns the user presence lifecycle. Every transition is an
// independent, idempotent write of an explicit target state; interleaving
// transitions is safe because the last write wins. All writes are
// best-effort: a failed one is corrected by the next transition.
type Tracker struct {
	store Store
	log   *zap.Logger
}

func NewTracker(store Store, log *zap.Logger) *Tracker {
	return &Tracker{store: store, log: log.Named("PresenceTracker")}
}

// Authenticated handles a successful sign-in: the profile document is
// created or refreshed, then the user goes online.
func (t *Tracker) Authenticated(ctx context.Context, uid, displayName, email string) {
	if uid == "" {
		t.log.Debug("authenticated signal without user, skipping")
		return
	}
	if err := t.store.EnsureProfile(ctx, uid, displayName, email); err != nil {
		t.log.Warn("profile upsert failed", zap.String("uid", uid), zap.Error(err))
	}
	t.setStatus(ctx, uid, models.StatusOnline)
}

// Deauthenticated handles sign-out. The user is marked offline before the
// session ends; afterwards the presence record keeps its last value and no
// further writes happen for this identity.
func (t *Tracker) Deauthenticated(ctx context.Context, uid string) {
	if uid == "" {
		t.log.Debug("deauthenticated signal without user, skipping")
		return
	}
	t.setStatus(ctx, uid, models.StatusOffline)
}

// AppStateChanged maps host lifecycle transitions onto presence while the
// user is authenticated. Unknown states are ignored.
func (t *Tracker) AppStateChanged(ctx context.Context, uid string, state AppState) {
	if uid == "" {
		t.log.Debug("app state change without user, skipping", zap.String("state", string(state)))
		return
	}

	switch state {
	case AppStateActive:
		t.setStatus(ctx, uid, models.StatusOnline)
	case AppStateBackground, AppStateInactive:
		t.setStatus(ctx, uid, models.StatusOffline)
	default:
		t.log.Warn("unknown app state", zap.String("state", string(state)))
	}
}

// Alive records transport-level liveness, such as a connected realtime
// socket, so the stale watchdog does not flip an idle-but-connected user
// offline. It never changes status.
func (t *Tracker) Alive(ctx context.Context, uid string) {
	if uid == "" {
		return
	}
	if err := t.store.Touch(ctx, uid); err != nil {
		t.log.Debug("liveness touch failed", zap.String("uid", uid), zap.Error(err))
	}
}

// SetBusy toggles the busy indicator. Leaving busy returns to online.
func (t *Tracker) SetBusy(ctx context.Context, uid string, busy bool) {
	if uid == "" {
		t.log.Debug("busy signal without user, skipping")
		return
	}
	if busy {
		t.setStatus(ctx, uid, models.StatusBusy)
		return
	}
	t.setStatus(ctx, uid, models.StatusOnline)
}

func (t *Tracker) setStatus(ctx context.Context, uid string, status models.PresenceStatus) {
	if err := t.store.SetStatus(ctx, uid, status); err != nil {
		t.log.Warn("presence write failed",
			zap.String("uid", uid),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
