package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/venomio5/VPFM7/internal/ratings"
	"github.com/venomio5/VPFM7/internal/store"
)

func intp(v int) *int { return &v }

func TestBuildPlayerRatingsAggregatesAndAttachesCoeffs(t *testing.T) {
	breakdowns := []store.MatchBreakdown{
		{MatchID: 1, PlayerID: "p_9_AF", MinutesPlayed: 90, Footers: 3, FxG: 0.6, FoulsCommitted: 2},
		{MatchID: 2, PlayerID: "p_9_AF", MinutesPlayed: 70, Footers: 1, FxG: 0.1, SubOut: intp(70), OutStatus: "Leading"},
		{MatchID: 2, PlayerID: "q_5_BF", MinutesPlayed: 20, SubIn: intp(70), InStatus: "Trailing"},
	}
	segCtxs := []store.SegmentContext{
		{
			Segment: store.MatchSegment{TeamAPlayers: datatypes.JSONSlice[string]{"p_9_AF"}, TeamBPlayers: datatypes.JSONSlice[string]{"q_5_BF"}},
			Match:   store.Match{MatchID: 2, HomeTeamID: 10, AwayTeamID: 20, Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	coeffs := map[string]ratings.PlayerCoeffs{
		"p_9_AF": {OffHeaders: 0.01, OffFooters: 0.03, DefHeaders: 0.002, DefFooters: 0.004},
	}

	rows := BuildPlayerRatings(breakdowns, segCtxs, coeffs)
	require.Len(t, rows, 2)

	byID := map[string]store.PlayerRating{}
	for _, r := range rows {
		byID[r.PlayerID] = r
	}

	p := byID["p_9_AF"]
	assert.Equal(t, 160, p.MinutesPlayed)
	assert.Equal(t, 4, p.Footers)
	assert.InDelta(t, 0.7, p.FxG, 1e-9)
	assert.Equal(t, uint(10), p.CurrentTeam)
	assert.InDelta(t, 0.04, p.OffShCoef, 1e-9)
	assert.InDelta(t, 0.006, p.DefShCoef, 1e-9)
	assert.Equal(t, 1, p.OutStatus.Data()["Leading"])
	assert.Equal(t, []int{70}, []int(p.SubOut))

	q := byID["q_5_BF"]
	assert.Equal(t, uint(20), q.CurrentTeam)
	assert.Equal(t, 1, q.InStatus.Data()["Trailing"])
}

func TestBuildRefereeStatsAverages(t *testing.T) {
	matches := []store.Match{
		{RefereeName: "R One", TotalFouls: 20, YellowCards: 4, RedCards: 1},
		{RefereeName: "R One", TotalFouls: 30, YellowCards: 2, RedCards: 0},
		{RefereeName: "", TotalFouls: 99},
	}
	rows := BuildRefereeStats(matches)
	require.Len(t, rows, 1)
	assert.Equal(t, "R One", rows[0].RefereeName)
	assert.Equal(t, 2, rows[0].MatchesPlayed)
	assert.InDelta(t, 25, rows[0].Fouls, 1e-9)
	assert.InDelta(t, 3, rows[0].YellowCards, 1e-9)
	assert.InDelta(t, 0.5, rows[0].RedCards, 1e-9)
}

func TestPDRASUsesShotCoefficients(t *testing.T) {
	players := map[string]store.PlayerRating{
		"a1": {OffShCoef: 0.05, DefShCoef: 0.01},
		"a2": {OffShCoef: 0.03, DefShCoef: 0.02},
		"b1": {OffShCoef: 0.04, DefShCoef: 0.03},
	}
	seg := &store.MatchSegment{
		TeamAPlayers:  datatypes.JSONSlice[string]{"a1", "a2"},
		TeamBPlayers:  datatypes.JSONSlice[string]{"b1"},
		MinutesPlayed: 10,
	}
	a, b := PDRAS(seg, players)
	// A: (0.05+0.03-0.03)*10, B: (0.04-(0.01+0.02))*10.
	assert.InDelta(t, 0.5, a, 1e-9)
	assert.InDelta(t, 0.1, b, 1e-9)
}

func TestEnrichShotComputesAbilities(t *testing.T) {
	players := map[string]store.PlayerRating{
		"sh": {Footers: 4, FxG: 1.0, FPSxG: 1.2, OffFxGCoef: 0.02},
		"as": {KeyPasses: 5, KpFxG: 1.0},
		"gk": {GkPSxG: 2.0, GkGA: 1},
		"d1": {DefFxGCoef: 0.01},
	}
	s := &store.Shot{
		ShotID: 7, ShooterID: "sh", AssisterID: "as", GkID: "gk",
		OffPlayers: datatypes.JSONSlice[string]{"sh"},
		DefPlayers: datatypes.JSONSlice[string]{"d1", "gk"},
		ShotType:   store.BodyPartFoot,
	}
	e := EnrichShot(s, players)
	assert.InDelta(t, 0.01, e.TotalPLSQA, 1e-9) // 0.02 - 0.01 - 0
	assert.InDelta(t, 0.25, e.ShooterSQ, 1e-9)
	assert.InDelta(t, 0.2, e.AssisterSQ, 1e-9)
	assert.InDelta(t, 1.2, e.ShooterA, 1e-9)
	assert.InDelta(t, 0.5, e.GkA, 1e-9)
}

func TestEnrichShotClampsKeeperAbility(t *testing.T) {
	players := map[string]store.PlayerRating{
		"gk": {GkPSxG: 0, GkGA: 3},
	}
	s := &store.Shot{ShooterID: "x", GkID: "gk", ShotType: store.BodyPartHead}
	e := EnrichShot(s, players)
	assert.Zero(t, e.GkA)
}
