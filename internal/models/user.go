package models

import "time"

// PresenceStatus is a user's availability indicator.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
	StatusBusy    PresenceStatus = "busy"
)

// Online reports whether the status counts as online. Busy users are
// still reachable, so only offline maps to false.
func (s PresenceStatus) Online() bool { return s != StatusOffline }

// Valid reports whether s is one of the known statuses.
func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusBusy:
		return true
	}
	return false
}

// UserModel is a document in the users collection. It carries the account
// credentials, the presence fields and the user's current location.
type UserModel struct {
	UID         string         `json:"uid"          bson:"_id"`
	DisplayName string         `json:"displayName"  bson:"displayName"`
	Email       string         `json:"email"        bson:"email"`
	Password    string         `json:"-"            bson:"password"`
	AvatarURL   string         `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	Status      PresenceStatus `json:"status"       bson:"status"`
	IsOnline    bool           `json:"isOnline"     bson:"isOnline"`
	LastSeen    *time.Time     `json:"lastSeen,omitempty"  bson:"lastSeen,omitempty"`

	CurrentLocation    *LocationSample `json:"currentLocation,omitempty"    bson:"currentLocation,omitempty"`
	LastLocationUpdate *time.Time      `json:"lastLocationUpdate,omitempty" bson:"lastLocationUpdate,omitempty"`

	// Permissions maps a permission kind to its granted state. Absent
	// entries mean the permission was never requested.
	Permissions map[string]bool `json:"permissions,omitempty" bson:"permissions,omitempty"`

	CreatedAt *time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
