package sim

import (
	"math"
	"math/rand"

	"github.com/venomio5/VPFM7/internal/matchstate"
	"github.com/venomio5/VPFM7/internal/store"
)

// DefaultRefereePrior stands in for referees without history.
var DefaultRefereePrior = store.RefereeStats{
	RefereeName:   "",
	Fouls:         26.5,
	YellowCards:   3.8,
	RedCards:      0.14,
	MatchesPlayed: 1,
}

// cardShrinkage is the pseudo-foul count mixed into a player's card rates.
const cardShrinkage = 10.0

var teamFactor = map[bool]float64{true: 0.95, false: 1.05}

var statusFactor = map[string]float64{
	matchstate.Leading:  0.88,
	matchstate.Level:    1.0,
	matchstate.Trailing: 1.11,
}

type cardOutcome int

const (
	cardNone cardOutcome = iota
	cardYellow
	cardRed
)

// cardEvent is one sampled booking.
type cardEvent struct {
	Minute int
	Player string
	TeamID uint
	Card   cardOutcome
}

// foulRate90 is a team's expected fouls per 90: the mean of its own
// committed rate and the opponents' drawn rate over the active lineups.
func foulRate90(active []string, players map[string]*Player, committed bool) float64 {
	if len(active) == 0 {
		return 0
	}
	var sum float64
	for _, id := range active {
		p := players[id]
		if p.Minutes <= 0 {
			continue
		}
		if committed {
			sum += p.FoulsCommitted / p.Minutes * 90
		} else {
			sum += p.FoulsDrawn / p.Minutes * 90
		}
	}
	return sum / float64(len(active))
}

// minuteFoulRate folds the referee prior, home edge and game status into the
// per-minute foul rate.
func minuteFoulRate(teamF90, oppF90, refFoulsPerMatch float64, isHome bool, status string) float64 {
	denom := (teamF90 + oppF90 + refFoulsPerMatch) / 2
	adjust := 1.0
	if denom > 0 {
		adjust = teamF90 / denom
	}
	rate := teamF90 / 90 * adjust * teamFactor[isHome] * statusFactor[status]
	return math.Max(rate, 1e-6)
}

// sampleCard mixes the fouler's shrunken card rates with the referee's
// per-foul rates, rescaling if the two probabilities overrun.
func sampleCard(fouler *Player, ref *store.RefereeStats, rng *rand.Rand) cardOutcome {
	refYCPerFoul := 0.0
	refRCPerFoul := 0.0
	if ref.Fouls > 0 {
		refYCPerFoul = ref.YellowCards / ref.Fouls
		refRCPerFoul = ref.RedCards / ref.Fouls
	}

	fouls := fouler.FoulsCommitted
	pYC := 0.5*((fouler.YellowCards+cardShrinkage*refYCPerFoul)/(fouls+cardShrinkage)) + 0.5*refYCPerFoul
	pRC := 0.5*((fouler.RedCards+cardShrinkage*refRCPerFoul)/(fouls+cardShrinkage)) + 0.5*refRCPerFoul

	if sum := pYC + pRC; sum > 1 {
		pYC /= sum
		pRC /= sum
	}

	u := rng.Float64()
	switch {
	case u < pYC:
		return cardYellow
	case u < pYC+pRC:
		return cardRed
	default:
		return cardNone
	}
}

// sampleFoulCount draws the minute's foul count for one side.
func sampleFoulCount(
	setup *TeamSetup,
	active []string,
	oppActive []string,
	oppPlayers map[string]*Player,
	ref *store.RefereeStats,
	status string,
	rng *rand.Rand,
) int {
	if len(active) == 0 {
		return 0
	}
	teamF90 := (foulRate90(active, setup.Players, true) + foulRate90(oppActive, oppPlayers, false)) / 2
	oppF90 := (foulRate90(oppActive, oppPlayers, true) + foulRate90(active, setup.Players, false)) / 2

	rate := minuteFoulRate(teamF90, oppF90, ref.Fouls, setup.IsHome, status)
	return samplePoisson(rate, rng)
}

// pickFouler chooses the offender weighted by career fouls per minute. Fouls
// are resolved one at a time so a sending-off mid-minute shrinks the pool
// for the next foul.
func pickFouler(setup *TeamSetup, active []string, rng *rand.Rand) *Player {
	weights := make([]float64, len(active))
	for i, id := range active {
		p := setup.Players[id]
		if p.Minutes > 0 {
			weights[i] = p.FoulsCommitted / p.Minutes
		}
	}
	return setup.Players[active[sampleCategorical(weights, rng)]]
}
