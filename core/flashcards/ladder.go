package flashcards

import "time"

// Ladder is an ordered sequence of spaced-repetition delays. A card's
// interval index is a position on this ladder; correct answers climb,
// misses descend.
type Ladder []time.Duration

// DefaultLadder is the serving ladder: sub-hour drilling first, then
// day-scale retention checks.
var DefaultLadder = Ladder{
	1 * time.Minute,
	10 * time.Minute,
	1 * time.Hour,
	6 * time.Hour,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
}

// defaultInterval applies when a ladder has no entries at all.
const defaultInterval = 5 * time.Minute

// IntervalFor returns the delay at `index`, clamping out-of-range indices
// to the nearest end. Total: never fails.
func (l Ladder) IntervalFor(index int) time.Duration {
	if len(l) == 0 {
		return defaultInterval
	}
	if index < 0 {
		index = 0
	}
	if index >= len(l) {
		index = len(l) - 1
	}
	return l[index]
}

// MaxIndex is the highest valid interval index on the ladder.
func (l Ladder) MaxIndex() int {
	if len(l) == 0 {
		return 0
	}
	return len(l) - 1
}
