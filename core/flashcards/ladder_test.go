package flashcards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLadder_IntervalFor(t *testing.T) {
	ladder := Ladder{time.Minute, time.Hour, 24 * time.Hour}

	tests := []struct {
		name  string
		index int
		want  time.Duration
	}{
		{name: "first rung", index: 0, want: time.Minute},
		{name: "middle rung", index: 1, want: time.Hour},
		{name: "last rung", index: 2, want: 24 * time.Hour},
		{name: "negative clamps to bottom", index: -3, want: time.Minute},
		{name: "overflow clamps to top", index: 99, want: 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ladder.IntervalFor(tt.index))
		})
	}
}

func TestLadder_IntervalFor_empty(t *testing.T) {
	var ladder Ladder
	assert.Equal(t, defaultInterval, ladder.IntervalFor(0))
	assert.Equal(t, defaultInterval, ladder.IntervalFor(-1))
	assert.Equal(t, defaultInterval, ladder.IntervalFor(7))
}

func TestLadder_MaxIndex(t *testing.T) {
	assert.Equal(t, 0, Ladder{}.MaxIndex())
	assert.Equal(t, 0, Ladder{time.Minute}.MaxIndex())
	assert.Equal(t, len(DefaultLadder)-1, DefaultLadder.MaxIndex())
}

func TestDefaultLadder_monotonic(t *testing.T) {
	for i := 1; i < len(DefaultLadder); i++ {
		assert.Greater(t, DefaultLadder[i], DefaultLadder[i-1],
			"rung %d must outwait rung %d", i, i-1)
	}
}
