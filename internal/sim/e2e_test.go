package sim_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/ingest"
	"github.com/venomio5/VPFM7/internal/sim"
	"github.com/venomio5/VPFM7/internal/store"
	"github.com/venomio5/VPFM7/internal/training"
)

// Two-team league where Alpha outshoots Beta five to one in every match.
// After a full train-and-extract pass, Alpha's attackers must carry the
// higher offensive coefficients and a simulated Alpha home fixture must
// produce more expected goals for Alpha.

type e2eSquad struct {
	name string
	out  []ingest.PlayerRef
	gk   ingest.PlayerRef
}

func newSquad(name, prefix string) e2eSquad {
	sq := e2eSquad{name: name, gk: ingest.PlayerRef{Name: prefix + "gk", Shirt: 1}}
	for i := 0; i < 4; i++ {
		sq.out = append(sq.out, ingest.PlayerRef{Name: fmt.Sprintf("%so%d", prefix, i+1), Shirt: i + 2})
	}
	return sq
}

func (sq e2eSquad) rawPlayers(side ingest.Side) []ingest.RawPlayer {
	players := []ingest.RawPlayer{{Ref: sq.gk, Side: side, IsStarter: true, IsGK: true}}
	for _, ref := range sq.out {
		players = append(players, ingest.RawPlayer{Ref: ref, Side: side, IsStarter: true})
	}
	return players
}

func (sq e2eSquad) playerIDs() []string {
	ids := []string{ingest.PlayerID(sq.gk, sq.name)}
	for _, ref := range sq.out {
		ids = append(ids, ingest.PlayerID(ref, sq.name))
	}
	return ids
}

// squadShots spreads n shots over the match with a goal every fourth shot.
func squadShots(sq e2eSquad, side ingest.Side, n int) []ingest.RawShot {
	var shots []ingest.RawShot
	for i := 0; i < n; i++ {
		shot := ingest.RawShot{
			Minute:  5 + i*80/n,
			Side:    side,
			Shooter: sq.out[i%len(sq.out)],
			XG:      0.1,
			PSxG:    0.08,
		}
		if i%2 == 0 {
			a := sq.out[(i+1)%len(sq.out)]
			shot.Assister = &a
		}
		if i%5 == 3 {
			shot.BodyPart = ingest.Head
		}
		if i%4 == 0 {
			shot.Goal = true
			shot.PSxG = 0.5
		}
		shots = append(shots, shot)
	}
	return shots
}

func squadStats(sq e2eSquad, side ingest.Side, gkPSxG float64, gkGA int) []ingest.RawPlayerStat {
	stats := []ingest.RawPlayerStat{{Player: sq.gk, Side: side, GkPSxG: gkPSxG, GkGA: gkGA}}
	for _, ref := range sq.out {
		stats = append(stats, ingest.RawPlayerStat{
			Player: ref, Side: side, KeyPasses: 1, FoulsCommitted: 1, FoulsDrawn: 1,
		})
	}
	return stats
}

func seedLeague(t *testing.T, f *ingest.FakeIngestor, leagueID uint, alpha, beta e2eSquad) time.Time {
	t.Helper()
	start := time.Date(2025, 1, 5, 16, 0, 0, 0, time.UTC)
	var last time.Time
	for i := 0; i < 12; i++ {
		alphaHome := i%2 == 0
		alphaSide, betaSide := ingest.Home, ingest.Away
		home, away := alpha, beta
		if !alphaHome {
			alphaSide, betaSide = ingest.Away, ingest.Home
			home, away = beta, alpha
		}

		alphaShots := squadShots(alpha, alphaSide, 10)
		betaShots := squadShots(beta, betaSide, 2)
		var alphaPSxG, betaPSxG float64
		alphaGoals, betaGoals := 0, 0
		for _, s := range alphaShots {
			alphaPSxG += s.PSxG
			if s.Goal {
				alphaGoals++
			}
		}
		for _, s := range betaShots {
			betaPSxG += s.PSxG
			if s.Goal {
				betaGoals++
			}
		}

		m := ingest.RawMatch{
			LeagueID:     leagueID,
			HomeTeam:     home.name,
			AwayTeam:     away.name,
			URL:          fmt.Sprintf("https://example.org/matches/%d", i),
			Kickoff:      start.AddDate(0, 0, i*7),
			Referee:      "John Doe",
			TotalMinutes: 90,
			Players:      append(home.rawPlayers(ingest.Home), away.rawPlayers(ingest.Away)...),
			Shots:        append(alphaShots, betaShots...),
			Stats: append(
				squadStats(alpha, alphaSide, betaPSxG, betaGoals),
				squadStats(beta, betaSide, alphaPSxG, alphaGoals)...,
			),
		}
		f.Add(m)
		last = m.Kickoff
	}
	return last
}

func TestTrainThenSimulateFavorsStrongerSide(t *testing.T) {
	if testing.Short() {
		t.Skip("full pipeline run")
	}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	ctx := context.Background()

	st, err := store.Open("file::memory:?cache=shared&_e2e="+t.Name(), true, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.DB().Create(&store.League{LeagueName: "Test League", IsActive: true}).Error)

	alpha := newSquad("Alpha FC", "a")
	beta := newSquad("Beta FC", "b")
	fake := ingest.NewFakeIngestor()
	last := seedLeague(t, fake, 1, alpha, beta)

	trainer := contextmodel.NewTrainer(1, log)
	pipeline := training.NewPipeline(st, fake, nil, trainer, log)
	models, err := pipeline.TrainAndExtract(ctx, last.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NotNil(t, models.RAS)
	require.NotNil(t, models.RSQ)
	require.NotNil(t, models.PSxG)

	ids := append(alpha.playerIDs(), beta.playerIDs()...)
	snapshot, err := st.PlayerRatings(ctx, ids)
	require.NoError(t, err)
	require.Len(t, snapshot, len(ids))

	alphaAtt := snapshot[ingest.PlayerID(alpha.out[0], alpha.name)]
	betaAtt := snapshot[ingest.PlayerID(beta.out[0], beta.name)]
	assert.Greater(t, alphaAtt.OffShCoef, betaAtt.OffShCoef,
		"dominant side's attacker should carry the larger offensive shot coefficient")
	assert.True(t, snapshot[ingest.PlayerID(alpha.gk, alpha.name)].IsGoalkeeper)

	teams, err := st.TeamsByLeague(ctx, 1)
	require.NoError(t, err)
	byName := map[string]store.Team{}
	for _, tm := range teams {
		byName[tm.TeamName] = tm
	}

	ref, err := st.RefereeByName(ctx, "John Doe")
	require.NoError(t, err)

	sched := &store.Schedule{
		HomeTeamID: byName[alpha.name].TeamID,
		AwayTeamID: byName[beta.name].TeamID,
		LeagueID:   1,
		Date:       last.AddDate(0, 0, 7),
	}
	require.NoError(t, st.UpsertSchedule(ctx, sched))

	in := &sim.MatchInput{
		ScheduleID: sched.ScheduleID,
		Fixture:    contextmodel.FixtureContext{KickoffHour: 16, HomeRestDays: 7, AwayRestDays: 7},
		Home:       sim.BuildTeamSetup(byName[alpha.name].TeamID, true, alpha.playerIDs(), nil, snapshot),
		Away:       sim.BuildTeamSetup(byName[beta.name].TeamID, false, beta.playerIDs(), nil, snapshot),
		Referee:    *ref,
		// Resume depth keeps the run small enough for a test.
		StartMinute: 60,
	}

	driver := sim.NewDriver(st, 4, 99, log)
	res, err := driver.SimulateSchedule(ctx, in, models)
	require.NoError(t, err)
	assert.Equal(t, 2000, res.NSims)
	assert.Greater(t, res.HomeGoalsMean, res.AwayGoalsMean,
		"dominant side should out-score the weaker one on average")

	rows, err := st.SimulationRows(ctx, sched.ScheduleID)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	simIDs := map[int]bool{}
	for _, r := range rows {
		require.Less(t, r.SimID, res.NSims)
		simIDs[r.SimID] = true
		assert.Equal(t, sched.ScheduleID, r.ScheduleID)
	}
	assert.Greater(t, len(simIDs), 1)

	// A second run replaces, never appends.
	_, err = driver.SimulateSchedule(ctx, in, models)
	require.NoError(t, err)
	again, err := st.SimulationRows(ctx, sched.ScheduleID)
	require.NoError(t, err)
	assert.Equal(t, len(rows), len(again))
}
