// Package training implements the data pipeline behind TrainAndExtract:
// raw-match decomposition into lineup-stable segments, derived-table
// rebuilds, ridge fitting, PDRAS backfill, shot enrichment and context-model
// training.
package training

import (
	"sort"

	"gorm.io/datatypes"

	"github.com/venomio5/VPFM7/internal/ingest"
	"github.com/venomio5/VPFM7/internal/matchstate"
	"github.com/venomio5/VPFM7/internal/store"
)

// MatchTotals carries the discipline aggregates written onto match_info.
type MatchTotals struct {
	Fouls       int
	YellowCards int
	RedCards    int
}

// MatchData is the decomposition of one raw match into store rows. MatchID
// is filled in after the match row itself is inserted.
type MatchData struct {
	Segments   []store.MatchSegment
	Breakdowns []store.MatchBreakdown
	Shots      []store.Shot
	ShotSides  []ingest.Side // parallel to Shots; resolved to team ids on insert
	Totals     MatchTotals
}

// SegmentBoundaries merges the standard 15-minute marks with every event
// minute, clamped to [0, total].
func SegmentBoundaries(eventMinutes []int, total int) []int {
	set := map[int]bool{0: true, total: true}
	for _, m := range []int{15, 30, 45, 60, 75} {
		if m < total {
			set[m] = true
		}
	}
	for _, m := range eventMinutes {
		if m < 0 {
			m = 0
		}
		if m > total {
			m = total
		}
		set[m] = true
	}
	out := make([]int, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// rosterState tracks live lineups, goals and reds while sweeping a match.
type rosterState struct {
	active  [2][]string
	goals   [2]int
	reds    [2]int
	minutes map[string]int
	gk      [2]string
}

func (rs *rosterState) remove(side ingest.Side, id string) {
	lineup := rs.active[side]
	for i, p := range lineup {
		if p == id {
			rs.active[side] = append(lineup[:i:i], lineup[i+1:]...)
			return
		}
	}
}

func (rs *rosterState) contains(side ingest.Side, id string) bool {
	for _, p := range rs.active[side] {
		if p == id {
			return true
		}
	}
	return false
}

// BuildMatchData decomposes a raw match into lineup-stable segments,
// per-player breakdowns and shot rows. Player advantage is encoded
// away-minus-home from the home perspective throughout.
func BuildMatchData(raw *ingest.RawMatch) *MatchData {
	total := raw.TotalMinutes
	if total <= 0 {
		total = 90
	}

	ids := make(map[ingest.PlayerRef]string)
	idOf := func(ref ingest.PlayerRef, side ingest.Side) string {
		if id, ok := ids[ref]; ok {
			return id
		}
		id := ingest.PlayerID(ref, raw.TeamName(side))
		ids[ref] = id
		return id
	}

	rs := &rosterState{minutes: make(map[string]int)}
	isGK := make(map[string]bool)
	for _, p := range raw.Players {
		id := idOf(p.Ref, p.Side)
		if p.IsStarter {
			rs.active[p.Side] = append(rs.active[p.Side], id)
			if p.IsGK {
				rs.gk[p.Side] = id
			}
		}
		if p.IsGK {
			isGK[id] = true
		}
	}

	var eventMinutes []int
	for _, e := range raw.Events {
		eventMinutes = append(eventMinutes, e.Minute)
	}
	bounds := SegmentBoundaries(eventMinutes, total)

	// Events sorted by minute; ties keep input order.
	events := append([]ingest.RawEvent(nil), raw.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Minute < events[j].Minute })

	bd := newBreakdownBuilder()
	out := &MatchData{}

	evIdx := 0
	shotIdx := 0
	shots := append([]ingest.RawShot(nil), raw.Shots...)
	// Stoppage-time shots come in at minute == total; clamp them into the
	// closing window so the half-open sweep below consumes every shot.
	for i := range shots {
		if shots[i].Minute >= total {
			shots[i].Minute = total - 1
		}
		if shots[i].Minute < 0 {
			shots[i].Minute = 0
		}
	}
	sort.SliceStable(shots, func(i, j int) bool { return shots[i].Minute < shots[j].Minute })

	for w := 0; w+1 < len(bounds); w++ {
		start, end := bounds[w], bounds[w+1]

		// Apply events at the window start.
		for evIdx < len(events) && events[evIdx].Minute <= start {
			applyEvent(rs, bd, &events[evIdx], raw, idOf)
			evIdx++
		}

		seg := store.MatchSegment{
			TeamAPlayers:  datatypes.JSONSlice[string](append([]string(nil), rs.active[ingest.Home]...)),
			TeamBPlayers:  datatypes.JSONSlice[string](append([]string(nil), rs.active[ingest.Away]...)),
			MinutesPlayed: end - start,
			MatchState:    matchstate.Encode(rs.goals[ingest.Home] - rs.goals[ingest.Away]),
			MatchSegment:  matchstate.Segment(start),
			PlayerDif:     matchstate.Encode(rs.reds[ingest.Away] - rs.reds[ingest.Home]),
		}

		// Shots inside this window.
		for shotIdx < len(shots) && shots[shotIdx].Minute < end {
			s := &shots[shotIdx]
			shotIdx++
			shotSide := s.Side
			oppSide := ingest.Away
			if shotSide == ingest.Away {
				oppSide = ingest.Home
			}
			shooterID := idOf(s.Shooter, shotSide)

			var assisterID string
			if s.Assister != nil {
				assisterID = idOf(*s.Assister, shotSide)
			}

			shotType := store.BodyPartFoot
			if s.BodyPart == ingest.Head {
				shotType = store.BodyPartHead
			}
			outcome := 0
			if s.Goal {
				outcome = 1
			}

			state := seg.MatchState
			dif := seg.PlayerDif
			if shotSide == ingest.Away {
				state = -state
				dif = -dif
			}

			out.Shots = append(out.Shots, store.Shot{
				XG:         s.XG,
				PSxG:       s.PSxG,
				Outcome:    outcome,
				ShooterID:  shooterID,
				AssisterID: assisterID,
				GkID:       rs.gk[oppSide],
				OffPlayers: datatypes.JSONSlice[string](append([]string(nil), rs.active[shotSide]...)),
				DefPlayers: datatypes.JSONSlice[string](append([]string(nil), rs.active[oppSide]...)),
				MatchState: state,
				PlayerDif:  dif,
				ShotType:   shotType,
			})
			out.ShotSides = append(out.ShotSides, shotSide)

			// Window shot aggregates.
			if shotSide == ingest.Home {
				addShot(&seg.TeamAHeaders, &seg.TeamAFooters, &seg.TeamAHxG, &seg.TeamAFxG, s)
			} else {
				addShot(&seg.TeamBHeaders, &seg.TeamBFooters, &seg.TeamBHxG, &seg.TeamBFxG, s)
			}
			bd.recordShot(shooterID, assisterID, s)
		}

		for _, side := range []ingest.Side{ingest.Home, ingest.Away} {
			for _, id := range rs.active[side] {
				rs.minutes[id] += end - start
			}
		}
		out.Segments = append(out.Segments, seg)
	}

	bd.applyStats(raw, idOf, &out.Totals)
	out.Breakdowns = bd.rows(rs.minutes)
	return out
}

func addShot(headers, footers *int, hxg, fxg *float64, s *ingest.RawShot) {
	if s.BodyPart == ingest.Head {
		*headers++
		*hxg += s.XG
	} else {
		*footers++
		*fxg += s.XG
	}
}

func applyEvent(rs *rosterState, bd *breakdownBuilder, e *ingest.RawEvent, raw *ingest.RawMatch, idOf func(ingest.PlayerRef, ingest.Side) string) {
	switch e.Type {
	case ingest.EventGoal:
		rs.goals[e.Side]++
	case ingest.EventRed:
		id := idOf(e.Player, e.Side)
		rs.reds[e.Side]++
		rs.remove(e.Side, id)
	case ingest.EventSub:
		offID := idOf(e.Off, e.Side)
		onID := idOf(e.On, e.Side)
		status := matchstate.Status(goalDifFor(rs, e.Side))
		if rs.contains(e.Side, offID) {
			rs.remove(e.Side, offID)
			rs.active[e.Side] = append(rs.active[e.Side], onID)
			if rs.gk[e.Side] == offID {
				rs.gk[e.Side] = onID
			}
			bd.recordSub(offID, onID, e.Minute, status)
		}
	}
}

func goalDifFor(rs *rosterState, side ingest.Side) int {
	if side == ingest.Home {
		return rs.goals[ingest.Home] - rs.goals[ingest.Away]
	}
	return rs.goals[ingest.Away] - rs.goals[ingest.Home]
}
