package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foreignlabs/foreign/core/course"
)

func TestStageProgress_Complete(t *testing.T) {
	tests := []struct {
		name      string
		completed []bool
		want      bool
	}{
		{name: "no tasks counts as complete", completed: nil, want: true},
		{name: "empty vector counts as complete", completed: []bool{}, want: true},
		{name: "all done", completed: []bool{true, true, true}, want: true},
		{name: "one remaining", completed: []bool{true, false, true}, want: false},
		{name: "none done", completed: []bool{false, false}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := StageProgress{CompletedTasks: tt.completed}
			assert.Equal(t, tt.want, sp.Complete())
		})
	}
}

func Test_reconcile(t *testing.T) {
	tests := []struct {
		name        string
		completed   []bool
		want        int
		wantBits    []bool
		wantChanged bool
	}{
		{name: "exact fit", completed: []bool{true, false}, want: 2, wantBits: []bool{true, false}},
		{name: "pad missing bits", completed: []bool{true}, want: 3, wantBits: []bool{true, false, false}, wantChanged: true},
		{name: "truncate extra bits", completed: []bool{true, true, true, true}, want: 2, wantBits: []bool{true, true}, wantChanged: true},
		{name: "from nothing", completed: nil, want: 2, wantBits: []bool{false, false}, wantChanged: true},
		{name: "down to nothing", completed: []bool{true}, want: 0, wantBits: []bool{}, wantChanged: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := reconcile(tt.completed, tt.want)
			assert.Equal(t, tt.wantBits, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func Test_reconcile_copies(t *testing.T) {
	original := []bool{true, false}
	got, _ := reconcile(original, 2)
	got[1] = true
	assert.False(t, original[1], "reconcile must not alias the stored vector")
}

func TestUnlocks_For(t *testing.T) {
	u := Unlocks{LaunchPad: true, FlightDeck: true}
	assert.True(t, u.For(StageLaunchPad))
	assert.True(t, u.For(StageFlightDeck))
	assert.False(t, u.For(StageAfterburner))
	assert.False(t, u.For("warp-drive"))
}

func Test_specFromActivity_schedulerIsDerived(t *testing.T) {
	derived := specFromActivity(course.ActivityConfig{Slot: course.FlightDeckSlotScheduler, Title: "Schedule"})
	assert.Equal(t, TaskDerived, derived.Kind)

	manual := specFromActivity(course.ActivityConfig{Slot: course.FlightDeckSlotNotebook, Title: "Notebook"})
	assert.Equal(t, TaskManual, manual.Kind)
}
