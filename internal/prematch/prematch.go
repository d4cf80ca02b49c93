// Package prematch assembles fixture context: elevation deltas against the
// league average, great-circle travel distance, rest days and kickoff-window
// weather.
package prematch

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/store"
)

const earthRadiusKm = 6371.0

// defaultRestDays stands in when a team has no recorded previous match.
const defaultRestDays = 30

// HaversineKm is the great-circle distance in kilometers, rounded to the
// nearest whole km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return math.Round(earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)))
}

// ElevationDif is a side's elevation edge over the midpoint of the league
// average and its own home altitude.
func ElevationDif(teamElev, leagueAvgElev float64) float64 {
	return teamElev - (leagueAvgElev+teamElev)/2
}

// ParseCoordinates splits a "lat,lon" pair as stored on team_data.
func ParseCoordinates(s string) (lat, lon float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("prematch: malformed coordinates %q", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("prematch: bad latitude in %q: %w", s, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("prematch: bad longitude in %q: %w", s, err)
	}
	return lat, lon, nil
}

// HourlyWeather is one hourly observation from the weather boundary.
type HourlyWeather struct {
	Time          time.Time
	TemperatureC  float64
	PrecipitationMM float64
}

// WeatherProvider yields hourly samples covering the given day at a venue.
type WeatherProvider interface {
	Hourly(ctx context.Context, lat, lon float64, day time.Time) ([]HourlyWeather, error)
}

// KickoffWindow averages temperature over [kickoff-1h, kickoff+2h] and flags
// rain when any sample in the window has positive precipitation.
func KickoffWindow(samples []HourlyWeather, kickoff time.Time) (tempC float64, raining bool) {
	from := kickoff.Add(-time.Hour)
	to := kickoff.Add(2 * time.Hour)

	var sum float64
	var n int
	for _, s := range samples {
		if s.Time.Before(from) || s.Time.After(to) {
			continue
		}
		sum += s.TemperatureC
		n++
		if s.PrecipitationMM > 0 {
			raining = true
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), raining
}

// Context is the assembled fixture context for one match.
type Context struct {
	HomeElevationDif float64
	AwayElevationDif float64
	AwayTravelKm     float64
	HomeRestDays     int
	AwayRestDays     int
	TemperatureC     float64
	IsRaining        bool
}

type Builder struct {
	store   store.Store
	weather WeatherProvider
	log     *logrus.Entry
}

func NewBuilder(st store.Store, weather WeatherProvider, log *logrus.Logger) *Builder {
	return &Builder{
		store:   st,
		weather: weather,
		log:     log.WithField("component", "prematch"),
	}
}

// Build assembles the fixture context for home vs away kicking off at the
// given time. Weather failures are downgraded to zero-temperature dry
// conditions; a missing match history falls back to the default rest days.
func (b *Builder) Build(ctx context.Context, home, away *store.Team, kickoff time.Time) (*Context, error) {
	avgElev, err := b.store.LeagueAvgElevation(ctx, home.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("league elevation: %w", err)
	}

	out := &Context{
		HomeElevationDif: ElevationDif(home.TeamElevation, avgElev),
		AwayElevationDif: ElevationDif(away.TeamElevation, avgElev),
		HomeRestDays:     b.restDays(ctx, home.TeamID, kickoff),
		AwayRestDays:     b.restDays(ctx, away.TeamID, kickoff),
	}

	hLat, hLon, err := ParseCoordinates(home.TeamCoordinates)
	if err != nil {
		return nil, err
	}
	aLat, aLon, err := ParseCoordinates(away.TeamCoordinates)
	if err != nil {
		return nil, err
	}
	out.AwayTravelKm = HaversineKm(aLat, aLon, hLat, hLon)

	if b.weather != nil {
		samples, err := b.weather.Hourly(ctx, hLat, hLon, kickoff)
		if err != nil {
			b.log.WithError(err).WithField("team", home.TeamName).
				Warn("weather lookup failed, assuming dry conditions")
		} else {
			out.TemperatureC, out.IsRaining = KickoffWindow(samples, kickoff)
		}
	}
	return out, nil
}

func (b *Builder) restDays(ctx context.Context, teamID uint, kickoff time.Time) int {
	last, err := b.store.LastMatchDate(ctx, teamID, kickoff)
	if err != nil {
		b.log.WithError(err).WithField("team_id", teamID).Warn("rest-day lookup failed")
		return defaultRestDays
	}
	if last == nil {
		return defaultRestDays
	}
	days := int(kickoff.Sub(*last).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}
