package presence

import (
	"context"

	"github.com/geopulse/core/internal/models"
)

// AppState mirrors the host application's lifecycle state signal.
type AppState string

const (
	AppStateActive     AppState = "active"
	AppStateBackground AppState = "background"
	AppStateInactive   AppState = "inactive"
)

// Store persists presence documents. It is the sole writer of presence
// fields on user documents.
type Store interface {
	// EnsureProfile creates the user's presence document on first
	// authentication, or refreshes the profile fields on later ones.
	EnsureProfile(ctx context.Context, uid, displayName, email string) error
	// SetStatus writes the status plus the derived isOnline flag and
	// refreshes lastSeen with a server-assigned timestamp.
	SetStatus(ctx context.Context, uid string, status models.PresenceStatus) error
	// Touch refreshes lastSeen without changing status, keeping an
	// idle-but-connected user out of the stale sweep.
	Touch(ctx context.Context, uid string) error
	Get(ctx context.Context, uid string) (*models.UserModel, error)
	// List returns everyone except excludeUID, online users first.
	List(ctx context.Context, excludeUID string) ([]models.UserModel, error)
}

type appStateDTO struct {
	State AppState `json:"state" binding:"required"`
}

type busyDTO struct {
	Busy *bool `json:"busy" binding:"required"`
}

// userResponse is the public view of a user's presence.
type userResponse struct {
	UID         string                `json:"uid"`
	DisplayName string                `json:"displayName"`
	Email       string                `json:"email"`
	AvatarURL   string                `json:"avatarUrl,omitempty"`
	Status      models.PresenceStatus `json:"status"`
	IsOnline    bool                  `json:"isOnline"`
	LastSeen    interface{}           `json:"lastSeen,omitempty"`
}

func toUserResponse(u models.UserModel) userResponse {
	status := u.Status
	if status == "" {
		status = models.StatusOffline
	}
	return userResponse{
		UID:         u.UID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		Status:      status,
		IsOnline:    status.Online(),
		LastSeen:    u.LastSeen,
	}
}
