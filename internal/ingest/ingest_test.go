package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerIDConvention(t *testing.T) {
	id := PlayerID(PlayerRef{Name: "juan perez", Shirt: 9}, "Rosario Central")
	assert.Equal(t, "juan perez_9_RC", id)

	id = PlayerID(PlayerRef{Name: "o'neill", Shirt: 4}, "Newell's Old Boys")
	assert.Equal(t, "o'neill_4_NOB", id)
}

func TestTeamInitials(t *testing.T) {
	assert.Equal(t, "B", TeamInitials("Boca"))
	assert.Equal(t, "CARP", TeamInitials("Club Atletico River Plate"))
}

func TestFakeIngestorFiltersSeenAndFuture(t *testing.T) {
	f := NewFakeIngestor()
	now := time.Now()
	f.Add(RawMatch{LeagueID: 1, URL: "m1", Kickoff: now.AddDate(0, 0, -7)})
	f.Add(RawMatch{LeagueID: 1, URL: "m2", Kickoff: now.AddDate(0, 0, -3)})
	f.Add(RawMatch{LeagueID: 1, URL: "m3", Kickoff: now.AddDate(0, 0, 3)})

	got, err := f.FetchMatches(context.Background(), 1, map[string]bool{"m1": true}, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].URL)
}
