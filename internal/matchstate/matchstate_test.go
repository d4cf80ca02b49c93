package matchstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeGoalDiffSequence(t *testing.T) {
	diffs := []int{0, 1, 2, 3, 2, 1, 0, -1, -2}
	want := []float64{0, 1, 1.5, 1.5, 1.5, 1, 0, -1, -1.5}
	for i, d := range diffs {
		assert.Equal(t, want[i], Encode(d), "diff %d", d)
	}
}

func TestSegmentCapsAtSix(t *testing.T) {
	cases := map[int]int{0: 1, 14: 1, 15: 2, 44: 3, 45: 4, 60: 5, 75: 6, 89: 6, 100: 6}
	for start, want := range cases {
		assert.Equal(t, want, Segment(start), "start %d", start)
	}
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, Leading, Status(2))
	assert.Equal(t, Level, Status(0))
	assert.Equal(t, Trailing, Status(-1))
}

func TestTimeBuckets(t *testing.T) {
	assert.Equal(t, TimeAfternoon, TimeBucket(9))
	assert.Equal(t, TimeAfternoon, TimeBucket(13))
	assert.Equal(t, TimeEvening, TimeBucket(14))
	assert.Equal(t, TimeEvening, TimeBucket(18))
	assert.Equal(t, TimeNight, TimeBucket(19))
	assert.Equal(t, TimeNight, TimeBucket(3))
}

func TestDifAndStateLabels(t *testing.T) {
	assert.Equal(t, DifPos, DifLabel(1.5))
	assert.Equal(t, DifNeu, DifLabel(0))
	assert.Equal(t, DifNeg, DifLabel(-1))
	assert.Equal(t, Leading, StateLabel(1))
	assert.Equal(t, Trailing, StateLabel(-1.5))
	assert.Equal(t, Level, StateLabel(0))
}
