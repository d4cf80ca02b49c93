package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// team with ten matches of history and three subs per match on average.
func historicalSetup() *TeamSetup {
	players := map[string]*Player{}
	// Anchor player fixes the match count at 10 (900 career minutes).
	players["anchor"] = &Player{ID: "anchor", Minutes: 900}
	// Thirty historical sub-ins: minute 60 is most common, then 75, then 80.
	addSubs := func(id string, minute, n int) {
		p := &Player{ID: id, Minutes: 300}
		for i := 0; i < n; i++ {
			p.SubIn = append(p.SubIn, minute)
		}
		players[id] = p
	}
	addSubs("s60", 60, 12)
	addSubs("s75", 75, 10)
	addSubs("s80", 80, 8)
	return &TeamSetup{Players: players, RemainingSubs: 5}
}

func TestPlanSubMinutesDistribution(t *testing.T) {
	setup := historicalSetup()
	require.Equal(t, 3, setup.AvgSubsPerMatch())

	plan := PlanSubMinutes(setup, 0)
	// effective = 3 - (5-5) = 3, two windows, remainder to the earlier one.
	assert.Equal(t, map[int]int{60: 2, 75: 1}, plan)
}

func TestPlanSubMinutesBurnedWindows(t *testing.T) {
	setup := historicalSetup()
	setup.RemainingSubs = 3
	// effective = 3 - (5-3) = 1: a single window at the most frequent minute.
	plan := PlanSubMinutes(setup, 0)
	assert.Equal(t, map[int]int{60: 1}, plan)
}

func TestPlanSubMinutesSkipsPastMinutes(t *testing.T) {
	setup := historicalSetup()
	plan := PlanSubMinutes(setup, 70)
	// Only 75 and 80 remain ahead of the clock.
	assert.Equal(t, map[int]int{75: 2, 80: 1}, plan)
}

func TestPerformSubsSwapsDistinctPlayers(t *testing.T) {
	players := map[string]*Player{}
	active := []string{"a", "b", "c"}
	passive := []string{"x", "y"}
	for _, id := range append(append([]string(nil), active...), passive...) {
		players[id] = &Player{ID: id, Minutes: 450, InStatus: map[string]int{}, OutStatus: map[string]int{}}
	}
	setup := &TeamSetup{Players: players}

	rng := rand.New(rand.NewSource(1))
	newActive, newPassive := PerformSubs(setup, active, passive, 2, "Level", rng)
	assert.Len(t, newActive, 3)
	assert.Len(t, newPassive, 2)

	seen := map[string]int{}
	for _, id := range append(append([]string(nil), newActive...), newPassive...) {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "player %s duplicated", id)
	}
	// Both incoming players made it on.
	onPitch := map[string]bool{}
	for _, id := range newActive {
		onPitch[id] = true
	}
	assert.True(t, onPitch["x"])
	assert.True(t, onPitch["y"])
}

func TestNormalizeWeightsCollapsesSingleMass(t *testing.T) {
	w := normalizeWeights([]float64{0, 5, 0}, 2)
	assert.InDelta(t, 0.99, w[1], 1e-12)
	assert.InDelta(t, 0.005, w[0], 1e-12)
	assert.InDelta(t, 0.005, w[2], 1e-12)

	uniform := normalizeWeights([]float64{0, 0}, 1)
	assert.Equal(t, []float64{0.5, 0.5}, uniform)
}

func TestRemoveFromRoster(t *testing.T) {
	r := removeFromRoster([]string{"a", "b", "c"}, "b")
	assert.Equal(t, []string{"a", "c"}, r)
	r = removeFromRoster(r, "missing")
	assert.Len(t, r, 2)
}
