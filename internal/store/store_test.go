package store

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	s, err := Open("file::memory:?cache=shared&_t="+t.Name(), true, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertTeamKeepsIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	team := &Team{TeamName: "Rosario Central", LeagueID: 1, TeamElevation: 25}
	require.NoError(t, s.UpsertTeam(ctx, team))
	firstID := team.TeamID
	require.NotZero(t, firstID)

	again := &Team{TeamName: "Rosario Central", LeagueID: 1, TeamElevation: 31}
	require.NoError(t, s.UpsertTeam(ctx, again))
	assert.Equal(t, firstID, again.TeamID)

	got, err := s.TeamByID(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, 31.0, got.TeamElevation)
}

func TestReplaceSimulationSwapsRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []SimShot{
		{SimID: 0, ScheduleID: 7, Minute: 12, Shooter: "a_9_RC", Squad: 1, Outcome: 1, BodyPart: BodyPartFoot},
		{SimID: 0, ScheduleID: 7, Minute: 55, Shooter: "b_4_NO", Squad: 2, Outcome: 0, BodyPart: BodyPartHead},
	}
	require.NoError(t, s.ReplaceSimulation(ctx, 7, first))

	second := []SimShot{
		{SimID: 1, ScheduleID: 7, Minute: 3, Shooter: "c_10_RC", Squad: 1, Outcome: 0, BodyPart: BodyPartFoot},
	}
	require.NoError(t, s.ReplaceSimulation(ctx, 7, second))

	rows, err := s.SimulationRows(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c_10_RC", rows[0].Shooter)
}

func TestPurgeSimulationsByScheduleAge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &Schedule{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 1, Date: time.Now().AddDate(0, 0, -30)}
	fresh := &Schedule{HomeTeamID: 2, AwayTeamID: 1, LeagueID: 1, Date: time.Now().AddDate(0, 0, -1)}
	require.NoError(t, s.UpsertSchedule(ctx, old))
	require.NoError(t, s.UpsertSchedule(ctx, fresh))

	require.NoError(t, s.ReplaceSimulation(ctx, old.ScheduleID, []SimShot{{SimID: 0, ScheduleID: old.ScheduleID, Minute: 10, Shooter: "x_1_AA", Squad: 1}}))
	require.NoError(t, s.ReplaceSimulation(ctx, fresh.ScheduleID, []SimShot{{SimID: 0, ScheduleID: fresh.ScheduleID, Minute: 10, Shooter: "y_2_BB", Squad: 2}}))

	deleted, err := s.PurgeSimulations(ctx, time.Now().AddDate(0, 0, -10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rows, err := s.SimulationRows(ctx, fresh.ScheduleID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.SimulationRows(ctx, old.ScheduleID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPlayerRatingJSONRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row := PlayerRating{
		PlayerID:    "juan perez_9_RC",
		CurrentTeam: 3,
		InStatus:    datatypes.NewJSONType(map[string]int{StatusLevel: 4, StatusTrailing: 2}),
		OutStatus:   datatypes.NewJSONType(map[string]int{StatusLeading: 1}),
		SubIn:       datatypes.JSONSlice[int]{60, 71, 80},
		SubOut:      datatypes.JSONSlice[int]{},
	}
	require.NoError(t, s.ReplacePlayerRatings(ctx, []PlayerRating{row}))

	got, err := s.PlayerRatings(ctx, []string{"juan perez_9_RC"})
	require.NoError(t, err)
	require.Contains(t, got, "juan perez_9_RC")

	in := got["juan perez_9_RC"].InStatus.Data()
	assert.Equal(t, 4, in[StatusLevel])
	assert.Equal(t, []int{60, 71, 80}, []int(got["juan perez_9_RC"].SubIn))

	// Rebuild replaces the table wholesale.
	require.NoError(t, s.ReplacePlayerRatings(ctx, nil))
	got, err = s.PlayerRatings(ctx, []string{"juan perez_9_RC"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSegmentsMissingPDRAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	match := &Match{HomeTeamID: 1, AwayTeamID: 2, LeagueID: 1, Date: time.Now()}
	require.NoError(t, s.InsertMatch(ctx, match))

	v := 1.25
	segs := []MatchSegment{
		{MatchID: match.MatchID, MinutesPlayed: 15, TeamAPDRAS: &v, TeamBPDRAS: &v},
		{MatchID: match.MatchID, MinutesPlayed: 30},
	}
	require.NoError(t, s.InsertSegments(ctx, segs))

	missing, err := s.SegmentsMissingPDRAS(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, 30, missing[0].MinutesPlayed)

	require.NoError(t, s.UpdateSegmentPDRAS(ctx, missing[0].DetailID, 0.8, 1.1))
	missing, err = s.SegmentsMissingPDRAS(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
