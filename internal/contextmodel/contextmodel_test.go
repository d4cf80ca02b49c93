package contextmodel

import (
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venomio5/VPFM7/internal/frame"
	"github.com/venomio5/VPFM7/internal/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func ptr(v float64) *float64 { return &v }

func syntheticSegments(n int) []store.SegmentContext {
	match := store.Match{
		MatchID:    1,
		HomeTeamID: 1,
		AwayTeamID: 2,
		Date:       time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
	}
	var out []store.SegmentContext
	for i := 0; i < n; i++ {
		seg := store.MatchSegment{
			MatchID:       1,
			MinutesPlayed: 15,
			MatchSegment:  i%6 + 1,
			TeamAPDRAS:    ptr(0.12 * 15),
			TeamBPDRAS:    ptr(0.12 * 15),
			// Home side shoots at twice the away rate on identical exposure.
			TeamAHeaders: 1, TeamAFooters: 3,
			TeamBHeaders: 0, TeamBFooters: 2,
		}
		out = append(out, store.SegmentContext{Segment: seg, Match: match})
	}
	return out
}

func TestTrainRASLearnsHomeEdge(t *testing.T) {
	tr := NewTrainer(1, testLogger())
	model, err := tr.TrainRAS(syntheticSegments(200))
	require.NoError(t, err)

	fx := FixtureContext{KickoffHour: 20}
	b := frame.NewBuilder()
	b.Add(ShotRateRow(fx, true, 0, 3, 0))
	b.Add(ShotRateRow(fx, false, 0, 3, 0))
	margins := model.PredictMargin(b.Build())

	homeMult := math.Exp(margins[0])
	awayMult := math.Exp(margins[1])
	assert.Greater(t, homeMult, awayMult,
		"home multiplier must exceed away on home-heavy data")
}

func TestContextMultiplierScalesLinearlyWithRAS(t *testing.T) {
	tr := NewTrainer(1, testLogger())
	model, err := tr.TrainRAS(syntheticSegments(100))
	require.NoError(t, err)

	fx := FixtureContext{KickoffHour: 20}
	b := frame.NewBuilder()
	b.Add(ShotRateRow(fx, true, 1, 2, 0))
	mult := math.Exp(model.PredictMargin(b.Build())[0])

	// The raw margin excludes the exposure offset, so the minute rate is
	// team_RAS * mult and doubles when the lineup rate doubles.
	lambda1 := 0.05 * mult
	lambda2 := 0.10 * mult
	assert.InDelta(t, 2.0, lambda2/lambda1, 1e-12)
}

func TestTrainRSQSkipsUnenrichedShots(t *testing.T) {
	tr := NewTrainer(1, testLogger())
	shots := []store.Shot{
		{XG: 0.1}, // not enriched, skipped
	}
	_, err := tr.TrainRSQ(shots)
	require.Error(t, err)

	for i := 0; i < 50; i++ {
		q := 0.05 + float64(i%5)*0.05
		shots = append(shots, store.Shot{
			XG:         q,
			TotalPLSQA: ptr(q * 2),
			ShooterSQ:  ptr(q),
			AssisterSQ: ptr(q / 2),
			AssisterID: "a_1_XX",
		})
	}
	model, err := tr.TrainRSQ(shots)
	require.NoError(t, err)
	assert.Contains(t, model.Columns, "total_plsqa")
	assert.Contains(t, model.Columns, "match_state_Level")
}

func TestTrainPSxGUsesFixtureContext(t *testing.T) {
	tr := NewTrainer(1, testLogger())
	matches := map[uint]store.Match{
		1: {MatchID: 1, HomeTeamID: 1, AwayTeamID: 2, Date: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)},
	}
	var shots []store.Shot
	for i := 0; i < 80; i++ {
		rsq := 0.1 + float64(i%8)*0.1
		outcome := 0
		if rsq > 0.5 {
			outcome = 1
		}
		shots = append(shots, store.Shot{
			MatchID: 1, TeamID: 1, Outcome: outcome,
			RSQ: ptr(rsq), ShooterA: ptr(1.0), GkA: ptr(0.5),
		})
	}
	model, err := tr.TrainPSxG(shots, matches)
	require.NoError(t, err)

	b := frame.NewBuilder()
	fx := FixtureFromMatch(&store.Match{Date: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)})
	b.Add(GoalProbRow(0.9, 1.0, 0.5, fx, true))
	b.Add(GoalProbRow(0.1, 1.0, 0.5, fx, true))
	pred := model.Predict(b.Build())
	assert.Greater(t, pred[0], pred[1])
}
