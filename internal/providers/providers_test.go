package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func fastOpts() Options {
	return Options{Timeout: time.Second, RequestsPerSec: 1000, BreakerThreshold: 5}
}

func TestGeocoderParsesFirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Estadio Azteca", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"lat":"19.3029","lon":"-99.1505"}]`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, fastOpts(), testLogger())
	lat, lon, err := g.Locate(context.Background(), "Estadio Azteca")
	require.NoError(t, err)
	assert.InDelta(t, 19.3029, lat, 1e-9)
	assert.InDelta(t, -99.1505, lon, 1e-9)
}

func TestElevationRetriesTransientFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"results":[{"elevation":2240.0}]}`))
	}))
	defer srv.Close()

	e := NewElevationProvider(srv.URL, fastOpts(), testLogger())
	elev, err := e.Elevation(context.Background(), 19.3, -99.15)
	require.NoError(t, err)
	assert.Equal(t, 2240.0, elev)
	assert.Equal(t, 2, calls)
}

func TestTransientFetchSurfacesAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewElevationProvider(srv.URL, fastOpts(), testLogger())
	_, err := e.Elevation(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrTransientFetch)
}

func TestWeatherHourlyParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{
			"time":["2026-03-14T19:00","2026-03-14T20:00"],
			"temperature_2m":[18.5,17.0],
			"precipitation":[0.0,0.4]}}`))
	}))
	defer srv.Close()

	wc := NewWeatherClient(srv.URL, srv.URL, fastOpts(), testLogger())
	samples, err := wc.Hourly(context.Background(), 19.3, -99.15, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 18.5, samples[0].TemperatureC)
	assert.Equal(t, 0.4, samples[1].PrecipitationMM)
	assert.Equal(t, 20, samples[1].Time.Hour())
}
