package sim

import (
	"math/rand"

	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/matchstate"
	"github.com/venomio5/VPFM7/internal/store"
)

// MatchInput is the immutable description of the fixture being simulated.
// Workers share it read-only.
type MatchInput struct {
	ScheduleID  uint
	Fixture     contextmodel.FixtureContext
	Home        *TeamSetup
	Away        *TeamSetup
	Referee     store.RefereeStats
	StartMinute int
	// Goals and red cards already on the board when resuming mid-match.
	InitialGoals [2]int
	InitialReds  [2]int
}

const (
	sideHome = 0
	sideAway = 1
)

func (in *MatchInput) setup(side int) *TeamSetup {
	if side == sideHome {
		return in.Home
	}
	return in.Away
}

// simState is the per-simulation mutable state. It is rebuilt (not deep
// copied) from the shared input at the start of every simulation.
type simState struct {
	active   [2][]string
	bench    [2][]string
	goals    [2]int
	reds     [2]int
	subsLeft [2]int
	subPlan  [2]map[int]int
	yellows  map[string]int
	ratings  [2]teamRatings
	stale    [2]bool
}

func newSimState(in *MatchInput) *simState {
	st := &simState{yellows: make(map[string]int, 16)}
	for side := 0; side < 2; side++ {
		setup := in.setup(side)
		st.active[side] = append([]string(nil), setup.Starters...)
		st.bench[side] = append([]string(nil), setup.Bench...)
		st.goals[side] = in.InitialGoals[side]
		st.reds[side] = in.InitialReds[side]
		st.subsLeft[side] = setup.RemainingSubs
		st.subPlan[side] = PlanSubMinutes(setup, in.StartMinute)
		st.stale[side] = true
	}
	return st
}

func (st *simState) ratingsFor(side int, in *MatchInput) teamRatings {
	if st.stale[side] {
		opp := 1 - side
		st.ratings[side] = computeRatings(
			st.active[side], st.active[opp],
			in.setup(side).Players, in.setup(opp).Players,
		)
		st.stale[side] = false
	}
	return st.ratings[side]
}

func (st *simState) markStale() {
	st.stale[0] = true
	st.stale[1] = true
}

func (st *simState) gkAbility(side int, in *MatchInput) float64 {
	for _, id := range st.active[side] {
		if p := in.setup(side).Players[id]; p.IsGK {
			return p.GkA
		}
	}
	return 0
}

// goalDif from the side's own perspective.
func (st *simState) goalDif(side int) int {
	return st.goals[side] - st.goals[1-side]
}

// redDif encoded as opponent-reds minus own-reds, i.e. positive when the
// side has the man advantage.
func (st *simState) redDif(side int) int {
	return st.reds[1-side] - st.reds[side]
}

func (st *simState) sendOff(side int, id string) {
	st.active[side] = removeFromRoster(st.active[side], id)
	st.reds[side]++
	st.markStale()
}

// runSimulation plays one match from StartMinute to 90 and returns its shot
// and card rows in minute order.
func runSimulation(in *MatchInput, ctxTable CtxTable, cache *predCache, rng *rand.Rand) ([]shotEvent, []cardEvent) {
	st := newSimState(in)
	var shots []shotEvent
	var cards []cardEvent

	for t := in.StartMinute; t < 90; t++ {
		// Substitutions due this minute.
		for side := 0; side < 2; side++ {
			n := st.subPlan[side][t]
			if n == 0 || st.subsLeft[side] == 0 {
				continue
			}
			if n > st.subsLeft[side] {
				n = st.subsLeft[side]
			}
			status := matchstate.Status(st.goalDif(side))
			st.active[side], st.bench[side] = PerformSubs(
				in.setup(side), st.active[side], st.bench[side], n, status, rng,
			)
			st.subsLeft[side] -= n
			st.markStale()
		}

		// Discipline before shots so a sending-off removes the player from
		// everything else this minute.
		for side := 0; side < 2; side++ {
			opp := 1 - side
			status := matchstate.Status(st.goalDif(side))
			n := sampleFoulCount(
				in.setup(side), st.active[side], st.active[opp],
				in.setup(opp).Players, &in.Referee, status, rng,
			)
			for i := 0; i < n && len(st.active[side]) > 0; i++ {
				fouler := pickFouler(in.setup(side), st.active[side], rng)
				switch sampleCard(fouler, &in.Referee, rng) {
				case cardYellow:
					st.yellows[fouler.ID]++
					cards = append(cards, cardEvent{
						Minute: t, Player: fouler.ID,
						TeamID: in.setup(side).TeamID, Card: cardYellow,
					})
					if st.yellows[fouler.ID] == 2 {
						st.sendOff(side, fouler.ID)
					}
				case cardRed:
					cards = append(cards, cardEvent{
						Minute: t, Player: fouler.ID,
						TeamID: in.setup(side).TeamID, Card: cardRed,
					})
					st.sendOff(side, fouler.ID)
				}
			}
		}

		// Shots.
		for side := 0; side < 2; side++ {
			opp := 1 - side
			state := matchstate.Encode(st.goalDif(side))
			dif := matchstate.Encode(st.redDif(side))
			key := ctxKey{
				State:   state,
				Segment: matchstate.Segment(t),
				Dif:     dif,
				Home:    side == sideHome,
			}
			events := sampleTeamShots(
				in.setup(side), st.active[side],
				st.ratingsFor(side, in), ctxTable[key],
				state, dif, st.gkAbility(opp, in),
				cache, t, rng,
			)
			for _, ev := range events {
				shots = append(shots, ev)
				if ev.Goal {
					st.goals[side]++
				}
			}
		}
	}
	return shots, cards
}
