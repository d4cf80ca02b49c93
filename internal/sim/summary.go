package sim

import (
	"sort"

	"github.com/venomio5/VPFM7/internal/store"
)

// ScorerLine is one player's scoring rate across a run.
type ScorerLine struct {
	Player        string  `json:"player"`
	TeamID        uint    `json:"team_id"`
	GoalsPerMatch float64 `json:"goals_per_match"`
	ShotsPerMatch float64 `json:"shots_per_match"`
}

// Summary is the aggregated outcome view of one persisted run.
type Summary struct {
	ScheduleID    uint         `json:"schedule_id"`
	NSims         int          `json:"n_sims"`
	HomeWinProb   float64      `json:"home_win_prob"`
	DrawProb      float64      `json:"draw_prob"`
	AwayWinProb   float64      `json:"away_win_prob"`
	HomeGoalsMean float64      `json:"home_goals_mean"`
	AwayGoalsMean float64      `json:"away_goals_mean"`
	TopScorers    []ScorerLine `json:"top_scorers"`
}

// Summarize folds persisted simulation rows into outcome probabilities and
// per-player scoring rates. Sims where neither side registered a shot still
// count as draws, so the sim count must come from the caller.
func Summarize(scheduleID uint, homeTeamID uint, nSims int, rows []store.SimShot) *Summary {
	s := &Summary{ScheduleID: scheduleID, NSims: nSims}
	if nSims == 0 {
		return s
	}

	type tally struct{ home, away int }
	perSim := make(map[int]*tally)
	type playerKey struct {
		id   string
		team uint
	}
	goals := make(map[playerKey]int)
	shots := make(map[playerKey]int)

	for _, r := range rows {
		t := perSim[r.SimID]
		if t == nil {
			t = &tally{}
			perSim[r.SimID] = t
		}
		k := playerKey{id: r.Shooter, team: r.Squad}
		shots[k]++
		if r.Outcome == 1 {
			goals[k]++
			if r.Squad == homeTeamID {
				t.home++
			} else {
				t.away++
			}
		}
	}

	var homeWins, draws, awayWins, homeGoals, awayGoals int
	for _, t := range perSim {
		homeGoals += t.home
		awayGoals += t.away
		switch {
		case t.home > t.away:
			homeWins++
		case t.home < t.away:
			awayWins++
		default:
			draws++
		}
	}
	// Shotless sims never produced a row.
	draws += nSims - len(perSim)

	n := float64(nSims)
	s.HomeWinProb = float64(homeWins) / n
	s.DrawProb = float64(draws) / n
	s.AwayWinProb = float64(awayWins) / n
	s.HomeGoalsMean = float64(homeGoals) / n
	s.AwayGoalsMean = float64(awayGoals) / n

	for k := range shots {
		s.TopScorers = append(s.TopScorers, ScorerLine{
			Player:        k.id,
			TeamID:        k.team,
			GoalsPerMatch: float64(goals[k]) / n,
			ShotsPerMatch: float64(shots[k]) / n,
		})
	}
	sort.Slice(s.TopScorers, func(i, j int) bool {
		a, b := s.TopScorers[i], s.TopScorers[j]
		if a.GoalsPerMatch != b.GoalsPerMatch {
			return a.GoalsPerMatch > b.GoalsPerMatch
		}
		if a.ShotsPerMatch != b.ShotsPerMatch {
			return a.ShotsPerMatch > b.ShotsPerMatch
		}
		return a.Player < b.Player
	})
	if len(s.TopScorers) > 10 {
		s.TopScorers = s.TopScorers[:10]
	}
	return s
}
