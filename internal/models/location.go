package models

import (
	"errors"
	"math"
	"time"
)

var (
	errBadLatitude  = errors.New("latitude must be a finite value in [-90, 90]")
	errBadLongitude = errors.New("longitude must be a finite value in [-180, 180]")
	errBadAccuracy  = errors.New("accuracy must be finite and non-negative")
	errBadSpeed     = errors.New("speed must be non-negative when present")
	errBadHeading   = errors.New("heading must be in [0, 360) when present")
)

// LocationSample is a single acquired geolocation fix.
type LocationSample struct {
	Latitude   float64   `json:"latitude"            bson:"latitude"`
	Longitude  float64   `json:"longitude"           bson:"longitude"`
	Altitude   *float64  `json:"altitude,omitempty"  bson:"altitude,omitempty"`
	Accuracy   float64   `json:"accuracy"            bson:"accuracy"`
	Speed      *float64  `json:"speed,omitempty"     bson:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"   bson:"heading,omitempty"`
	CapturedAt time.Time `json:"capturedAt"          bson:"capturedAt"`
}

// Validate checks the coordinate and optional-field ranges. Accuracy has no
// upper bound: a poor fix is still a fix.
func (s LocationSample) Validate() error {
	if !isFinite(s.Latitude) || math.Abs(s.Latitude) > 90 {
		return errBadLatitude
	}
	if !isFinite(s.Longitude) || math.Abs(s.Longitude) > 180 {
		return errBadLongitude
	}
	if !isFinite(s.Accuracy) || s.Accuracy < 0 {
		return errBadAccuracy
	}
	if s.Speed != nil && (!isFinite(*s.Speed) || *s.Speed < 0) {
		return errBadSpeed
	}
	if s.Heading != nil && (!isFinite(*s.Heading) || *s.Heading < 0 || *s.Heading >= 360) {
		return errBadHeading
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DeviceMeta tags a history entry with the acquisition context.
type DeviceMeta struct {
	Platform     string `json:"platform"     bson:"platform"`
	IsBackground bool   `json:"isBackground" bson:"isBackground"`
}

// LocationHistoryEntry is one immutable record in the locationHistory
// collection. Entries are only ever inserted and deleted, never updated.
type LocationHistoryEntry struct {
	ID        string         `json:"id"         bson:"_id"`
	UID       string         `json:"uid"        bson:"uid"`
	Location  LocationSample `json:"location"   bson:"location"`
	Device    DeviceMeta     `json:"deviceInfo" bson:"deviceInfo"`
	UpdatedAt time.Time      `json:"updatedAt"  bson:"updatedAt"`
}
