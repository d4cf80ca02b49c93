package prematch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineAntipodalOnEquator(t *testing.T) {
	d := HaversineKm(0, 0, 0, 180)
	assert.InDelta(t, 20015, d, 1)
}

func TestHaversineIdenticalPoints(t *testing.T) {
	assert.Zero(t, HaversineKm(-34.6, -58.4, -34.6, -58.4))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Buenos Aires to Rosario, roughly 280 km.
	d := HaversineKm(-34.6037, -58.3816, -32.9442, -60.6505)
	assert.InDelta(t, 280, d, 15)
}

func TestElevationDifIsEdgeOverMidpoint(t *testing.T) {
	// Team at 2240m in a league averaging 800m.
	assert.InDelta(t, 720, ElevationDif(2240, 800), 1e-9)
	// Team at league average has no edge.
	assert.Zero(t, ElevationDif(800, 800))
}

func TestParseCoordinates(t *testing.T) {
	lat, lon, err := ParseCoordinates("-34.6037, -58.3816")
	require.NoError(t, err)
	assert.InDelta(t, -34.6037, lat, 1e-9)
	assert.InDelta(t, -58.3816, lon, 1e-9)

	_, _, err = ParseCoordinates("not-coordinates")
	require.Error(t, err)
}

func TestKickoffWindow(t *testing.T) {
	kick := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	samples := []HourlyWeather{
		{Time: kick.Add(-3 * time.Hour), TemperatureC: 30, PrecipitationMM: 5}, // outside
		{Time: kick.Add(-time.Hour), TemperatureC: 20},
		{Time: kick, TemperatureC: 18},
		{Time: kick.Add(time.Hour), TemperatureC: 16, PrecipitationMM: 0.2},
		{Time: kick.Add(2 * time.Hour), TemperatureC: 14},
		{Time: kick.Add(4 * time.Hour), TemperatureC: 10, PrecipitationMM: 9}, // outside
	}
	temp, rain := KickoffWindow(samples, kick)
	assert.InDelta(t, 17, temp, 1e-9)
	assert.True(t, rain)

	temp, rain = KickoffWindow(nil, kick)
	assert.Zero(t, temp)
	assert.False(t, rain)
}
