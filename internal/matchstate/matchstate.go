// Package matchstate holds the shared encodings of live match context:
// score state, numeric-advantage state, time segment, kickoff time bucket
// and the categorical labels derived from them. Training and simulation use
// the same encoders so stored rows and sampled rows always agree.
package matchstate

// Encode compresses a signed difference (goals, or red cards for the player
// advantage) into the five-level scale {-1.5, -1, 0, 1, 1.5}.
func Encode(dif int) float64 {
	switch {
	case dif >= 2:
		return 1.5
	case dif == 1:
		return 1
	case dif == 0:
		return 0
	case dif == -1:
		return -1
	default:
		return -1.5
	}
}

// Segment maps a window start minute to its 15-minute segment, 1-based and
// capped at 6.
func Segment(startMinute int) int {
	s := startMinute/15 + 1
	if s > 6 {
		s = 6
	}
	return s
}

// Status labels used for substitution context and card-mix factors.
const (
	Leading  = "Leading"
	Level    = "Level"
	Trailing = "Trailing"
)

// Status labels a goal difference from the team's own perspective.
func Status(goalDif int) string {
	switch {
	case goalDif > 0:
		return Leading
	case goalDif < 0:
		return Trailing
	default:
		return Level
	}
}

// Shot-context labels for the RSQ model categoricals.
const (
	DifNeg = "Neg"
	DifNeu = "Neu"
	DifPos = "Pos"
)

// DifLabel collapses an encoded player_dif to its three-level label.
func DifLabel(encoded float64) string {
	switch {
	case encoded > 0:
		return DifPos
	case encoded < 0:
		return DifNeg
	default:
		return DifNeu
	}
}

// StateLabel collapses an encoded match_state to Trailing/Level/Leading.
func StateLabel(encoded float64) string {
	switch {
	case encoded > 0:
		return Leading
	case encoded < 0:
		return Trailing
	default:
		return Level
	}
}

// Kickoff-hour buckets for the match_time categorical.
const (
	TimeAfternoon = "aft"
	TimeEvening   = "evening"
	TimeNight     = "night"
)

// TimeBucket assigns a kickoff hour to its bucket: 9-14 afternoon, 14-19
// evening, anything else night.
func TimeBucket(hour int) string {
	switch {
	case hour >= 9 && hour < 14:
		return TimeAfternoon
	case hour >= 14 && hour < 19:
		return TimeEvening
	default:
		return TimeNight
	}
}
