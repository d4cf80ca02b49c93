// Package sim implements the Monte Carlo match simulator: lineup evolution,
// shot event sampling, discipline sampling and the parallel driver.
package sim

import (
	"github.com/venomio5/VPFM7/internal/store"
)

// Player is the immutable per-player snapshot taken from players_data before
// a run. Workers never mutate it; per-sim card state lives in simState.
type Player struct {
	ID      string
	Minutes float64

	Headers            float64
	Footers            float64
	KeyPasses          float64
	NonAssistedFooters float64
	HxG                float64
	FxG                float64

	OffSh      float64
	DefSh      float64
	OffHeaders float64
	DefHeaders float64
	OffFooters float64
	DefFooters float64
	OffHxG     float64
	DefHxG     float64
	OffFxG     float64
	DefFxG     float64

	// Shot quality and finishing ability, precomputed once.
	HeaderSQ float64
	FooterSQ float64
	HeaderA  float64
	FooterA  float64
	AssistSQHead float64
	AssistSQFoot float64
	GkA      float64

	FoulsCommitted float64
	FoulsDrawn     float64
	YellowCards    float64
	RedCards       float64

	InStatus  map[string]int
	OutStatus map[string]int
	SubIn     []int
	IsGK      bool
}

// NewPlayer derives the snapshot, precomputing the per-shot quality ratios
// with their zero-denominator clamps.
func NewPlayer(r *store.PlayerRating) *Player {
	p := &Player{
		ID:                 r.PlayerID,
		Minutes:            float64(r.MinutesPlayed),
		Headers:            float64(r.Headers),
		Footers:            float64(r.Footers),
		KeyPasses:          float64(r.KeyPasses),
		NonAssistedFooters: float64(r.NonAssistedFooters),
		HxG:                r.HxG,
		FxG:                r.FxG,
		OffSh:              r.OffShCoef,
		DefSh:              r.DefShCoef,
		OffHeaders:         r.OffHeadersCoef,
		DefHeaders:         r.DefHeadersCoef,
		OffFooters:         r.OffFootersCoef,
		DefFooters:         r.DefFootersCoef,
		OffHxG:             r.OffHxGCoef,
		DefHxG:             r.DefHxGCoef,
		OffFxG:             r.OffFxGCoef,
		DefFxG:             r.DefFxGCoef,
		FoulsCommitted:     float64(r.FoulsCommitted),
		FoulsDrawn:         float64(r.FoulsDrawn),
		YellowCards:        float64(r.YellowCards),
		RedCards:           float64(r.RedCards),
		InStatus:           r.InStatus.Data(),
		OutStatus:          r.OutStatus.Data(),
		SubIn:              append([]int(nil), r.SubIn...),
		IsGK:               r.IsGoalkeeper,
	}
	if r.Headers > 0 {
		p.HeaderSQ = r.HxG / float64(r.Headers)
	}
	if r.Footers > 0 {
		p.FooterSQ = r.FxG / float64(r.Footers)
	}
	if r.HxG > 0 {
		p.HeaderA = r.HPSxG / r.HxG
	}
	if r.FxG > 0 {
		p.FooterA = r.FPSxG / r.FxG
	}
	if r.KeyPasses > 0 {
		p.AssistSQHead = r.KpHxG / float64(r.KeyPasses)
		p.AssistSQFoot = r.KpFxG / float64(r.KeyPasses)
	}
	if r.GkPSxG > 0 {
		p.GkA = 1 - float64(r.GkGA)/r.GkPSxG
	}
	if p.InStatus == nil {
		p.InStatus = map[string]int{}
	}
	if p.OutStatus == nil {
		p.OutStatus = map[string]int{}
	}
	return p
}

// TeamSetup is the immutable per-team input to a run.
type TeamSetup struct {
	TeamID   uint
	IsHome   bool
	Starters []string
	Bench    []string
	Players  map[string]*Player

	// RemainingSubs caps in-sim substitutions; 5 for a pre-match run.
	RemainingSubs int
}

// BuildTeamSetup assembles a team's immutable run input from the
// players_data snapshot. Players missing from the snapshot get zeroed
// records so a fresh signing can still be fielded.
func BuildTeamSetup(teamID uint, isHome bool, starters, bench []string, snapshot map[string]store.PlayerRating) *TeamSetup {
	setup := &TeamSetup{
		TeamID:        teamID,
		IsHome:        isHome,
		Starters:      append([]string(nil), starters...),
		Bench:         append([]string(nil), bench...),
		Players:       make(map[string]*Player, len(starters)+len(bench)),
		RemainingSubs: 5,
	}
	for _, id := range append(append([]string(nil), starters...), bench...) {
		if r, ok := snapshot[id]; ok {
			setup.Players[id] = NewPlayer(&r)
		} else {
			setup.Players[id] = &Player{ID: id, InStatus: map[string]int{}, OutStatus: map[string]int{}}
		}
	}
	return setup
}

// AvgSubsPerMatch is the historical mean number of substitutions, rounded,
// derived from the players' sub-in histories against appearances.
func (t *TeamSetup) AvgSubsPerMatch() int {
	var subs int
	for _, p := range t.Players {
		subs += len(p.SubIn)
	}
	matches := 0
	var maxMinutes float64
	for _, p := range t.Players {
		if p.Minutes > maxMinutes {
			maxMinutes = p.Minutes
		}
	}
	matches = int(maxMinutes/90 + 0.5)
	if matches == 0 {
		return 0
	}
	avg := float64(subs)/float64(matches) + 0.5
	return int(avg)
}

// SubMinuteCounts merges the players' historical sub-in minutes into a
// frequency table.
func (t *TeamSetup) SubMinuteCounts() map[int]int {
	out := make(map[int]int)
	for _, p := range t.Players {
		for _, m := range p.SubIn {
			out[m]++
		}
	}
	return out
}
