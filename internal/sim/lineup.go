package sim

import (
	"math/rand"
	"sort"
)

// defaultSubMinutes backstops teams with no substitution history.
var defaultSubMinutes = []int{60, 75, 85}

// PlanSubMinutes lays out when a team will substitute during the remainder
// of the match. Effective subs shrink with windows already burned, and the
// picks spread evenly over the team's most frequent historical sub minutes
// after the current one, remainder to the earlier windows.
func PlanSubMinutes(setup *TeamSetup, currentMinute int) map[int]int {
	available := setup.RemainingSubs
	mu := setup.AvgSubsPerMatch()

	effective := mu - (5 - available)
	if effective < 0 {
		effective = 0
	}
	if effective > available {
		effective = available
	}
	if effective == 0 {
		return nil
	}

	windows := 3
	switch {
	case effective == 1:
		windows = 1
	case effective < 5:
		windows = 2
	}

	counts := setup.SubMinuteCounts()
	type mc struct {
		minute, count int
	}
	var candidates []mc
	for m, c := range counts {
		if m > currentMinute {
			candidates = append(candidates, mc{m, c})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].minute < candidates[j].minute
	})

	var minutes []int
	for _, c := range candidates {
		minutes = append(minutes, c.minute)
		if len(minutes) == windows {
			break
		}
	}
	if len(minutes) == 0 {
		for _, m := range defaultSubMinutes {
			if m > currentMinute {
				minutes = append(minutes, m)
			}
			if len(minutes) == windows {
				break
			}
		}
	}
	if len(minutes) == 0 {
		return nil
	}
	sort.Ints(minutes)

	plan := make(map[int]int, len(minutes))
	per := effective / len(minutes)
	rem := effective % len(minutes)
	for i, m := range minutes {
		n := per
		if i < rem {
			n++
		}
		if n > 0 {
			plan[m] = n
		}
	}
	return plan
}

func statusProb(counts map[string]int, status string) float64 {
	var total int
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 1.0
	}
	return float64(counts[status]) / float64(total)
}

// PerformSubs swaps s players between the active and passive rosters,
// weighting outgoing players toward low historical minute shares and the
// game status, and incoming ones the other way round.
func PerformSubs(setup *TeamSetup, active, passive []string, s int, status string, rng *rand.Rand) (newActive, newPassive []string) {
	if s > len(passive) {
		s = len(passive)
	}
	if s <= 0 || len(active) == 0 {
		return active, passive
	}

	var activeMinutes, passiveMinutes float64
	for _, id := range active {
		activeMinutes += setup.Players[id].Minutes
	}
	for _, id := range passive {
		passiveMinutes += setup.Players[id].Minutes
	}

	outW := make([]float64, len(active))
	for i, id := range active {
		p := setup.Players[id]
		share := 0.0
		if activeMinutes > 0 {
			share = p.Minutes / activeMinutes
		}
		outW[i] = (1 - share) * statusProb(p.OutStatus, status)
	}
	inW := make([]float64, len(passive))
	for i, id := range passive {
		p := setup.Players[id]
		share := 0.0
		if passiveMinutes > 0 {
			share = p.Minutes / passiveMinutes
		}
		inW[i] = share * statusProb(p.InStatus, status)
	}

	outIdx := sampleDistinct(normalizeWeights(outW, s), s, rng)
	inIdx := sampleDistinct(normalizeWeights(inW, s), s, rng)

	outSet := make(map[int]bool, len(outIdx))
	for _, i := range outIdx {
		outSet[i] = true
	}
	inSet := make(map[int]bool, len(inIdx))
	for _, i := range inIdx {
		inSet[i] = true
	}

	newActive = make([]string, 0, len(active))
	for i, id := range active {
		if !outSet[i] {
			newActive = append(newActive, id)
		}
	}
	newPassive = make([]string, 0, len(passive))
	for i, id := range passive {
		if inSet[i] {
			newActive = append(newActive, id)
		} else {
			newPassive = append(newPassive, id)
		}
	}
	for _, i := range outIdx {
		newPassive = append(newPassive, active[i])
	}
	return newActive, newPassive
}

// removeFromRoster drops a sent-off player; the slot is not refilled.
func removeFromRoster(roster []string, id string) []string {
	for i, p := range roster {
		if p == id {
			return append(roster[:i:i], roster[i+1:]...)
		}
	}
	return roster
}
