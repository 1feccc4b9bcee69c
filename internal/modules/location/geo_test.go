package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	// Berlin TV tower to Brandenburg Gate, roughly 2.8km.
	d := distanceMeters(52.520817, 13.409419, 52.516275, 13.377704)
	assert.InDelta(t, 2200, d, 400)

	assert.Zero(t, distanceMeters(52.5, 13.4, 52.5, 13.4))

	// One degree of latitude is about 111km regardless of longitude.
	d = distanceMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 200)
}

func TestDistanceMetersSmallDisplacement(t *testing.T) {
	// ~3m of latitude stays inside a 10m filter, ~20m does not.
	assert.Less(t, distanceMeters(52, 13, 52.000027, 13), 10.0)
	assert.Greater(t, distanceMeters(52, 13, 52.00018, 13), 10.0)
}
