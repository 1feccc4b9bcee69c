package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func validSample() LocationSample {
	return LocationSample{
		Latitude:   52.5,
		Longitude:  13.4,
		Accuracy:   15,
		CapturedAt: time.Now().UTC(),
	}
}

func TestLocationSampleValidate(t *testing.T) {
	require.NoError(t, validSample().Validate())

	cases := map[string]func(*LocationSample){
		"latitude over range":   func(s *LocationSample) { s.Latitude = 90.5 },
		"latitude NaN":          func(s *LocationSample) { s.Latitude = math.NaN() },
		"longitude under range": func(s *LocationSample) { s.Longitude = -180.5 },
		"longitude infinite":    func(s *LocationSample) { s.Longitude = math.Inf(1) },
		"negative accuracy":     func(s *LocationSample) { s.Accuracy = -1 },
		"negative speed":        func(s *LocationSample) { s.Speed = f64(-0.1) },
		"heading at 360":        func(s *LocationSample) { s.Heading = f64(360) },
		"negative heading":      func(s *LocationSample) { s.Heading = f64(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := validSample()
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestLocationSampleValidateBoundaries(t *testing.T) {
	s := validSample()
	s.Latitude, s.Longitude = 90, -180
	assert.NoError(t, s.Validate())

	s = validSample()
	s.Heading = f64(0)
	s.Speed = f64(0)
	s.Accuracy = 0
	assert.NoError(t, s.Validate())

	// poor accuracy is still a valid fix
	s = validSample()
	s.Accuracy = 5000
	assert.NoError(t, s.Validate())
}

func TestPresenceStatusOnline(t *testing.T) {
	assert.True(t, StatusOnline.Online())
	assert.True(t, StatusBusy.Online())
	assert.False(t, StatusOffline.Online())
}

func TestPresenceStatusValid(t *testing.T) {
	assert.True(t, StatusOnline.Valid())
	assert.True(t, StatusOffline.Valid())
	assert.True(t, StatusBusy.Valid())
	assert.False(t, PresenceStatus("away").Valid())
	assert.False(t, PresenceStatus("").Valid())
}
