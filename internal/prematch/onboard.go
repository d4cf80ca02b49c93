package prematch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/store"
)

// Geocoder resolves a venue query to coordinates.
type Geocoder interface {
	Locate(ctx context.Context, query string) (lat, lon float64, err error)
}

// ElevationSource resolves coordinates to meters above sea level.
type ElevationSource interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}

// Onboarder registers teams: it geocodes the stadium, looks up its elevation
// and stores both on team_data so fixture context can be built offline later.
type Onboarder struct {
	store     store.Store
	geocoder  Geocoder
	elevation ElevationSource
	log       *logrus.Entry
}

func NewOnboarder(st store.Store, g Geocoder, e ElevationSource, log *logrus.Logger) *Onboarder {
	return &Onboarder{
		store:     st,
		geocoder:  g,
		elevation: e,
		log:       log.WithField("component", "onboard"),
	}
}

// RegisterTeam resolves the stadium and upserts the team. stadiumQuery is a
// free-form venue string handed to the geocoder.
func (o *Onboarder) RegisterTeam(ctx context.Context, name, stadiumQuery string, leagueID uint, fixturesURL string) (*store.Team, error) {
	lat, lon, err := o.geocoder.Locate(ctx, stadiumQuery)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", stadiumQuery, err)
	}
	elev, err := o.elevation.Elevation(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("elevation for %q: %w", stadiumQuery, err)
	}

	team := &store.Team{
		TeamName:        name,
		TeamElevation:   elev,
		TeamCoordinates: fmt.Sprintf("%g,%g", lat, lon),
		TeamFixturesURL: fixturesURL,
		LeagueID:        leagueID,
	}
	if err := o.store.UpsertTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("store team %q: %w", name, err)
	}

	o.log.WithFields(logrus.Fields{
		"team":      name,
		"elevation": elev,
		"lat":       lat,
		"lon":       lon,
	}).Info("Team registered")
	return team, nil
}
