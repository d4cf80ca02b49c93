package training

import (
	"sort"
	"time"

	"gorm.io/datatypes"

	"github.com/venomio5/VPFM7/internal/ratings"
	"github.com/venomio5/VPFM7/internal/store"
)

// BuildPlayerRatings aggregates match breakdowns into the players_data
// snapshot, attaching the ridge coefficients and the substitution history.
// current_team is the side of the player's most recent appearance.
func BuildPlayerRatings(
	breakdowns []store.MatchBreakdown,
	segCtxs []store.SegmentContext,
	coeffs map[string]ratings.PlayerCoeffs,
) []store.PlayerRating {
	type teamSeen struct {
		team uint
		date time.Time
	}
	latest := make(map[string]teamSeen)
	note := func(id string, team uint, date time.Time) {
		if cur, ok := latest[id]; !ok || date.After(cur.date) {
			latest[id] = teamSeen{team: team, date: date}
		}
	}
	for i := range segCtxs {
		m := &segCtxs[i].Match
		for _, id := range segCtxs[i].Segment.TeamAPlayers {
			note(id, m.HomeTeamID, m.Date)
		}
		for _, id := range segCtxs[i].Segment.TeamBPlayers {
			note(id, m.AwayTeamID, m.Date)
		}
	}

	type agg struct {
		store.PlayerRating
		inStatus  map[string]int
		outStatus map[string]int
		subIn     []int
		subOut    []int
	}
	players := make(map[string]*agg)
	get := func(id string) *agg {
		if a, ok := players[id]; ok {
			return a
		}
		a := &agg{
			inStatus:  make(map[string]int),
			outStatus: make(map[string]int),
		}
		a.PlayerID = id
		players[id] = a
		return a
	}

	for i := range breakdowns {
		b := &breakdowns[i]
		a := get(b.PlayerID)
		a.MinutesPlayed += b.MinutesPlayed
		a.Headers += b.Headers
		a.Footers += b.Footers
		a.KeyPasses += b.KeyPasses
		a.NonAssistedFooters += b.NonAssistedFooters
		a.HxG += b.HxG
		a.FxG += b.FxG
		a.KpHxG += b.KpHxG
		a.KpFxG += b.KpFxG
		a.HPSxG += b.HPSxG
		a.FPSxG += b.FPSxG
		a.GkPSxG += b.GkPSxG
		a.GkGA += b.GkGA
		a.FoulsCommitted += b.FoulsCommitted
		a.FoulsDrawn += b.FoulsDrawn
		a.YellowCards += b.YellowCards
		a.RedCards += b.RedCards
		if b.SubIn != nil {
			a.subIn = append(a.subIn, *b.SubIn)
			if b.InStatus != "" {
				a.inStatus[b.InStatus]++
			}
		}
		if b.SubOut != nil {
			a.subOut = append(a.subOut, *b.SubOut)
			if b.OutStatus != "" {
				a.outStatus[b.OutStatus]++
			}
		}
	}

	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]store.PlayerRating, 0, len(ids))
	for _, id := range ids {
		a := players[id]
		if seen, ok := latest[id]; ok {
			a.CurrentTeam = seen.team
		}
		if c, ok := coeffs[id]; ok {
			a.OffShCoef = c.OffShots()
			a.DefShCoef = c.DefShots()
			a.OffHeadersCoef = c.OffHeaders
			a.DefHeadersCoef = c.DefHeaders
			a.OffFootersCoef = c.OffFooters
			a.DefFootersCoef = c.DefFooters
			a.OffHxGCoef = c.OffHxG
			a.DefHxGCoef = c.DefHxG
			a.OffFxGCoef = c.OffFxG
			a.DefFxGCoef = c.DefFxG
		}
		a.IsGoalkeeper = a.GkPSxG > 0 || a.GkGA > 0
		sort.Ints(a.subIn)
		sort.Ints(a.subOut)
		a.InStatus = datatypes.NewJSONType(a.inStatus)
		a.OutStatus = datatypes.NewJSONType(a.outStatus)
		a.SubIn = datatypes.JSONSlice[int](a.subIn)
		a.SubOut = datatypes.JSONSlice[int](a.subOut)
		out = append(out, a.PlayerRating)
	}
	return out
}

// BuildRefereeStats averages match discipline totals per referee.
func BuildRefereeStats(matches []store.Match) []store.RefereeStats {
	type acc struct {
		fouls, yc, rc, n int
	}
	refs := make(map[string]*acc)
	for i := range matches {
		m := &matches[i]
		if m.RefereeName == "" {
			continue
		}
		a, ok := refs[m.RefereeName]
		if !ok {
			a = &acc{}
			refs[m.RefereeName] = a
		}
		a.fouls += m.TotalFouls
		a.yc += m.YellowCards
		a.rc += m.RedCards
		a.n++
	}

	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]store.RefereeStats, 0, len(names))
	for _, name := range names {
		a := refs[name]
		out = append(out, store.RefereeStats{
			RefereeName:   name,
			Fouls:         float64(a.fouls) / float64(a.n),
			YellowCards:   float64(a.yc) / float64(a.n),
			RedCards:      float64(a.rc) / float64(a.n),
			MatchesPlayed: a.n,
		})
	}
	return out
}

// SegmentObservations converts a league's segments into the two-direction
// ridge observations.
func SegmentObservations(segs []store.MatchSegment) []ratings.SegmentObs {
	var out []ratings.SegmentObs
	for i := range segs {
		s := &segs[i]
		if s.MinutesPlayed <= 0 {
			continue
		}
		m := float64(s.MinutesPlayed)
		out = append(out, ratings.SegmentObs{
			Off: s.TeamAPlayers, Def: s.TeamBPlayers, Minutes: m,
			Headers: s.TeamAHeaders, Footers: s.TeamAFooters,
			HxG: s.TeamAHxG, FxG: s.TeamAFxG,
		})
		out = append(out, ratings.SegmentObs{
			Off: s.TeamBPlayers, Def: s.TeamAPlayers, Minutes: m,
			Headers: s.TeamBHeaders, Footers: s.TeamBFooters,
			HxG: s.TeamBHxG, FxG: s.TeamBFxG,
		})
	}
	return out
}
