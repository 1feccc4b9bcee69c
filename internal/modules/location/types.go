package location

import (
	"context"
	"errors"
	"time"

	"github.com/geopulse/core/internal/models"
	"github.com/geopulse/core/internal/pkg/pagination"
	"github.com/geopulse/core/internal/pkg/response"
)

var (
	// ErrPermissionDenied is terminal for starting a tracking session;
	// the user has to change the grant before retrying.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrAcquisitionTimeout means no fresh fix arrived within the
	// acquisition window. Transient; the next tick retries.
	ErrAcquisitionTimeout = errors.New("location acquisition timed out")
	// ErrNoCurrentLocation means the user has never reported a location.
	ErrNoCurrentLocation = errors.New("no current location")
	// ErrSessionBusy means the tracking slot is held by a different user.
	ErrSessionBusy = errors.New("tracking session belongs to another user")
)

const (
	// DefaultAcquireTimeout bounds a single one-shot fix request.
	DefaultAcquireTimeout = 15 * time.Second
	// DefaultMaxSampleAge is the oldest cached fix a one-shot request
	// accepts instead of waiting for a new one.
	DefaultMaxSampleAge = 10 * time.Second
)

// AcquireOptions tune a single fix request. UID scopes the request to
// fixes reported by that user; leaving it empty accepts any fix.
type AcquireOptions struct {
	UID            string
	HighAccuracy   bool
	Timeout        time.Duration
	MaxAge         time.Duration
	DistanceFilter float64
}

// Provider yields geolocation fixes. Acquire blocks until a fix no older
// than MaxAge is available, or Timeout/ctx expires.
type Provider interface {
	Acquire(ctx context.Context, opts AcquireOptions) (models.LocationSample, error)
}

// Store is the sole writer of persisted location records.
type Store interface {
	// WriteCurrent overwrites the user's current location and its
	// server-assigned update timestamp.
	WriteCurrent(ctx context.Context, uid string, sample models.LocationSample) error
	// CurrentLocation reads back the current location and its update time.
	CurrentLocation(ctx context.Context, uid string) (*models.LocationSample, *time.Time, error)
	// AppendHistory inserts one immutable history record.
	AppendHistory(ctx context.Context, uid string, sample models.LocationSample, meta models.DeviceMeta) error
	// QueryHistory returns history entries newest-first.
	QueryHistory(ctx context.Context, uid string, q pagination.Query) ([]models.LocationHistoryEntry, response.Pagination, error)
	// DeleteOlderThan removes history strictly older than cutoff and
	// returns the number of records removed.
	DeleteOlderThan(ctx context.Context, uid string, cutoff time.Time) (int64, error)
	// UsersWithHistory lists the uids that have at least one record.
	UsersWithHistory(ctx context.Context) ([]string, error)
}

// Session is the process-wide tracking session state, owned by the Sampler.
type Session struct {
	Active            bool      `json:"active"`
	ForegroundOnly    bool      `json:"foregroundOnly"`
	IntervalMS        int64     `json:"intervalMs"`
	MinDistanceMeters float64   `json:"minDistanceMeters"`
	StartedAt         time.Time `json:"startedAt,omitempty"`
	UID               string    `json:"-"`
}

type fixDTO struct {
	Latitude     *float64 `json:"latitude"  binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	Altitude     *float64 `json:"altitude"`
	Accuracy     float64  `json:"accuracy"`
	Speed        *float64 `json:"speed"`
	Heading      *float64 `json:"heading"`
	CapturedAt   int64    `json:"capturedAt"` // unix millis, device clock
	Platform     string   `json:"platform"`
	IsBackground bool     `json:"isBackground"`
}

func (d fixDTO) sample() models.LocationSample {
	capturedAt := time.Now().UTC()
	if d.CapturedAt > 0 {
		capturedAt = time.UnixMilli(d.CapturedAt).UTC()
	}
	return models.LocationSample{
		Latitude:   *d.Latitude,
		Longitude:  *d.Longitude,
		Altitude:   d.Altitude,
		Accuracy:   d.Accuracy,
		Speed:      d.Speed,
		Heading:    d.Heading,
		CapturedAt: capturedAt,
	}
}

func (d fixDTO) meta() models.DeviceMeta {
	platform := d.Platform
	if platform == "" {
		platform = "unknown"
	}
	return models.DeviceMeta{Platform: platform, IsBackground: d.IsBackground}
}
