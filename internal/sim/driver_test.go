package sim

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venomio5/VPFM7/internal/boost"
	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/frame"
	"github.com/venomio5/VPFM7/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// testModels trains tiny boosters with neutral targets: the context
// multiplier sits near one, shot quality near 0.1 and goal probability near
// one half, which is enough structure to drive the sampler.
func testModels(t *testing.T) *contextmodel.Models {
	t.Helper()
	fx := contextmodel.FixtureContext{TemperatureC: 18, KickoffHour: 16}
	small := boost.Params{Rounds: 10, MaxDepth: 3, MinChildWeight: 1, Seed: 7}

	rasB := frame.NewBuilder()
	var rasY []float64
	for _, state := range []float64{-1, 0, 1} {
		for seg := 1; seg <= 6; seg++ {
			rasB.Add(contextmodel.ShotRateRow(fx, true, state, seg, 0))
			rasB.Add(contextmodel.ShotRateRow(fx, false, -state, seg, 0))
			rasY = append(rasY, 1, 1)
		}
	}
	rasP := small
	rasP.Objective = boost.ObjPoisson
	ras, err := boost.Train(rasB.Build(), rasY, nil, rasP)
	require.NoError(t, err)

	rsqB := frame.NewBuilder()
	var rsqY []float64
	for i := 0; i < 20; i++ {
		rsqB.Add(contextmodel.ShotQualityRow(0.05, 0.1, 0.08, float64(i%3-1), 0, i%2 == 0))
		rsqY = append(rsqY, 0.1)
	}
	rsq, err := boost.Train(rsqB.Build(), rsqY, nil, small)
	require.NoError(t, err)

	psxgB := frame.NewBuilder()
	var psxgY []float64
	for i := 0; i < 20; i++ {
		psxgB.Add(contextmodel.GoalProbRow(0.1, 1.0, 0.0, fx, i%2 == 0))
		psxgY = append(psxgY, float64(i%2))
	}
	psxgP := small
	psxgP.Objective = boost.ObjLogistic
	psxg, err := boost.Train(psxgB.Build(), psxgY, nil, psxgP)
	require.NoError(t, err)

	return &contextmodel.Models{RAS: ras, RSQ: rsq, PSxG: psxg}
}

func fieldPlayer(id string) *Player {
	return &Player{
		ID:                 id,
		Minutes:            900,
		Headers:            10,
		Footers:            30,
		KeyPasses:          20,
		NonAssistedFooters: 8,
		OffSh:              0.02,
		OffHeaders:         0.005,
		OffFooters:         0.015,
		OffHxG:             0.001,
		OffFxG:             0.002,
		DefSh:              0.001,
		HeaderSQ:           0.08,
		FooterSQ:           0.1,
		HeaderA:            1.0,
		FooterA:            1.0,
		AssistSQHead:       0.06,
		AssistSQFoot:       0.09,
		FoulsCommitted:     10,
		FoulsDrawn:         10,
		InStatus:           map[string]int{},
		OutStatus:          map[string]int{},
		SubIn:              []int{60, 75},
	}
}

func testTeam(teamID uint, isHome bool, prefix string) *TeamSetup {
	setup := &TeamSetup{TeamID: teamID, IsHome: isHome, Players: map[string]*Player{}, RemainingSubs: 5}
	for i := 0; i < 7; i++ {
		id := prefix + string(rune('a'+i))
		setup.Players[id] = fieldPlayer(id)
		if i < 5 {
			setup.Starters = append(setup.Starters, id)
		} else {
			setup.Bench = append(setup.Bench, id)
		}
	}
	gk := prefix + "gk"
	setup.Players[gk] = fieldPlayer(gk)
	setup.Players[gk].IsGK = true
	setup.Players[gk].GkA = 0.1
	setup.Starters = append(setup.Starters, gk)
	return setup
}

func testInput() *MatchInput {
	return &MatchInput{
		ScheduleID: 1,
		Fixture:    contextmodel.FixtureContext{TemperatureC: 18, KickoffHour: 16},
		Home:       testTeam(10, true, "h"),
		Away:       testTeam(20, false, "a"),
		Referee:    DefaultRefereePrior,
	}
}

func TestNumSimsLadder(t *testing.T) {
	assert.Equal(t, 20000, NumSims(0))
	assert.Equal(t, 8000, NumSims(30))
	assert.Equal(t, 2000, NumSims(45))
	assert.Equal(t, 2000, NumSims(60))
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	models := testModels(t)
	in := testInput()

	first := NewDriver(nil, 4, 42, testLogger())
	second := NewDriver(nil, 1, 42, testLogger())

	res1, err := first.Run(context.Background(), in, models, 64)
	require.NoError(t, err)
	res2, err := second.Run(context.Background(), in, models, 64)
	require.NoError(t, err)

	require.NotEmpty(t, res1.Shots)
	assert.Equal(t, res1.Shots, res2.Shots)
	assert.Equal(t, res1.Cards, res2.Cards)
	assert.Equal(t, res1.HomeGoalsMean, res2.HomeGoalsMean)
	assert.Equal(t, res1.AwayGoalsMean, res2.AwayGoalsMean)
	assert.NotEqual(t, res1.RunID, res2.RunID)
}

func TestRunSimIDsDense(t *testing.T) {
	models := testModels(t)
	d := NewDriver(nil, 2, 9, testLogger())

	res, err := d.Run(context.Background(), testInput(), models, 40)
	require.NoError(t, err)
	require.NotEmpty(t, res.Shots)
	for _, s := range res.Shots {
		assert.GreaterOrEqual(t, s.SimID, 0)
		assert.Less(t, s.SimID, 40)
		assert.Equal(t, uint(1), s.ScheduleID)
	}
}

func TestSentOffPlayerStopsAppearing(t *testing.T) {
	models := testModels(t)
	in := testInput()
	// A referee who reds every foul he sees.
	in.Referee = store.RefereeStats{RefereeName: "strict", Fouls: 30, YellowCards: 0, RedCards: 30, MatchesPlayed: 10}

	d := NewDriver(nil, 2, 3, testLogger())
	res, err := d.Run(context.Background(), in, models, 20)
	require.NoError(t, err)

	sentOff := map[int]map[string]int{}
	reds := 0
	for _, c := range res.Cards {
		if c.Card != "red" {
			continue
		}
		reds++
		if sentOff[c.SimID] == nil {
			sentOff[c.SimID] = map[string]int{}
		}
		sentOff[c.SimID][c.Player] = c.Minute
	}
	require.Positive(t, reds)

	for _, s := range res.Shots {
		if m, off := sentOff[s.SimID][s.Shooter]; off && s.Minute >= m {
			t.Fatalf("sim %d: %s shot at minute %d after red at %d", s.SimID, s.Shooter, s.Minute, m)
		}
		if m, off := sentOff[s.SimID][s.Assister]; off && s.Assister != "" && s.Minute >= m {
			t.Fatalf("sim %d: %s assisted at minute %d after red at %d", s.SimID, s.Assister, s.Minute, m)
		}
	}
}

func TestPrecomputeCtxMultCoversGrid(t *testing.T) {
	models := testModels(t)
	table := PrecomputeCtxMult(models.RAS, contextmodel.FixtureContext{TemperatureC: 18, KickoffHour: 16})
	assert.Len(t, table, 2*5*6*5)
	for k, v := range table {
		assert.Positive(t, v, "multiplier for %+v", k)
	}
}
