package stages

import (
	"time"

	"github.com/foreignlabs/foreign/core/course"
)

// Stage keys, in progression order.
const (
	StageLaunchPad   = "launch-pad"
	StageFlightDeck  = "flight-deck"
	StageAfterburner = "afterburner"
)

var StageSequence = []string{StageLaunchPad, StageFlightDeck, StageAfterburner}

// Task kinds. Manual tasks are checked off by the learner; derived tasks
// mirror an external fact and reject manual toggles.
const (
	TaskManual  = "manual"
	TaskDerived = "derived"
)

type (
	// TaskSpec is one positional task of a stage: its display config plus
	// how its done-bit is driven.
	TaskSpec struct {
		Kind        string `json:"kind"`
		Slot        string `json:"slot,omitempty"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Subtitle    string `json:"subtitle,omitempty"`
		Goal        string `json:"goal,omitempty"`
		LinkLabel   string `json:"link_label,omitempty"`
		LinkURL     string `json:"link_url,omitempty"`
	}

	// StageProgress is the per-learner completion record of one stage of one
	// module. CompletedTasks is positional against the stage's task list and
	// is reconciled to its current length on every read.
	StageProgress struct {
		ID             string    `json:"id"`
		UserID         string    `json:"user_id"`
		ModuleID       string    `json:"module_id"`
		StageKey       string    `json:"stage_key"`
		CompletedTasks []bool    `json:"completed_tasks"`
		CreatedAt      time.Time `json:"created_at"` // UTC
		UpdatedAt      time.Time `json:"updated_at"` // UTC
	}

	// Unlocks is the gate state of a module's three stages for one learner.
	Unlocks struct {
		LaunchPad   bool `json:"launchPad"`
		FlightDeck  bool `json:"flightDeck"`
		Afterburner bool `json:"afterburner"`
	}

	// TaskView is one task joined with its done-bit, for the dashboard.
	TaskView struct {
		TaskSpec
		Index int  `json:"index"`
		Done  bool `json:"done"`
	}

	// StageView is one fully evaluated stage.
	StageView struct {
		Key      string     `json:"key"`
		Unlocked bool       `json:"unlocked"`
		Complete bool       `json:"complete"`
		Tasks    []TaskView `json:"tasks"`
	}

	// Overview is the whole module gate state served to the dashboard.
	Overview struct {
		ModuleID       string      `json:"module_id"`
		ModuleUnlocked bool        `json:"module_unlocked"`
		Stages         []StageView `json:"stages"`
	}
)

// Complete reports whether every task bit is set. A stage with no tasks is
// complete.
func (sp StageProgress) Complete() bool {
	for _, done := range sp.CompletedTasks {
		if !done {
			return false
		}
	}
	return true
}

// specFromTask maps a Launch Pad checklist entry. All Launch Pad tasks are
// manual.
func specFromTask(cfg course.TaskConfig) TaskSpec {
	return TaskSpec{
		Kind:        TaskManual,
		Title:       cfg.Title,
		Description: cfg.Description,
		LinkLabel:   cfg.LinkLabel,
		LinkURL:     cfg.LinkURL,
	}
}

// specFromActivity maps a Flight Deck slot. The scheduler slot is derived
// from live-meeting signups.
func specFromActivity(cfg course.ActivityConfig) TaskSpec {
	kind := TaskManual
	if cfg.Slot == course.FlightDeckSlotScheduler {
		kind = TaskDerived
	}
	return TaskSpec{
		Kind:      kind,
		Slot:      cfg.Slot,
		Title:     cfg.Title,
		Subtitle:  cfg.Subtitle,
		LinkLabel: cfg.LinkLabel,
		LinkURL:   cfg.LinkURL,
	}
}

// specFromCard maps an Afterburner card. All Afterburner tasks are manual.
func specFromCard(cfg course.CardConfig) TaskSpec {
	return TaskSpec{
		Kind:        TaskManual,
		Slot:        cfg.Slot,
		Title:       cfg.Title,
		Description: cfg.Description,
		Goal:        cfg.Goal,
	}
}
