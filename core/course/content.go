package course

import (
	"context"

	"github.com/pkg/errors"
)

const notebookAppURL = "https://notebooklm.google.com/app"

type (
	// TaskConfig is one Launch Pad checklist entry as served to learners.
	TaskConfig struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		LinkLabel   string `json:"link_label"`
		LinkURL     string `json:"link_url"`
	}

	// ActivityConfig is one Flight Deck slot as served to learners.
	ActivityConfig struct {
		Slot      string `json:"slot"`
		Title     string `json:"title"`
		Subtitle  string `json:"subtitle"`
		LinkLabel string `json:"link_label"`
		LinkURL   string `json:"link_url"`
	}

	// CardConfig is one Afterburner card as served to learners.
	CardConfig struct {
		Slot        string `json:"slot"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Goal        string `json:"goal"`
	}
)

// defaultLaunchPadTasks applies when a module has no configured tasks.
var defaultLaunchPadTasks = []TaskConfig{
	{Title: "NotebookLM briefing: theme overview", LinkLabel: "Open NotebookLM", LinkURL: notebookAppURL},
	{Title: "Vocabulary pack with pronunciation clips", LinkLabel: "Open NotebookLM", LinkURL: notebookAppURL},
	{Title: "Speaking drill: record a 30-second practice", LinkLabel: "Open NotebookLM", LinkURL: notebookAppURL},
	{Title: "Micro-quiz to check comprehension", LinkLabel: "Open NotebookLM", LinkURL: notebookAppURL},
	{Title: "Cultural insight drop", LinkLabel: "Open NotebookLM", LinkURL: notebookAppURL},
	{Title: "Mission reflection prompt", LinkLabel: "Open NotebookLM", LinkURL: notebookAppURL},
}

var defaultFlightDeckActivities = map[string]ActivityConfig{
	FlightDeckSlotScheduler: {
		Slot:     FlightDeckSlotScheduler,
		Title:    "Schedule your live mission",
		Subtitle: "Lock your Friday studio slot directly from this page.",
	},
	FlightDeckSlotNotebook: {
		Slot:      FlightDeckSlotNotebook,
		Title:     "Prep your NotebookLM workspace",
		Subtitle:  "Capture vocabulary, new expressions and personal takeaways so you can revisit them later.",
		LinkLabel: "NotebookLM Notes",
		LinkURL:   notebookAppURL,
	},
	FlightDeckSlotRecorder: {
		Slot:     FlightDeckSlotRecorder,
		Title:    "Get your recorder ready",
		Subtitle: "Capture your live mission for reflection and evidence uploads",
	},
}

var defaultAfterburnerCards = map[string]CardConfig{
	AfterburnerSlotTalkRecord: {
		Slot:        AfterburnerSlotTalkRecord,
		Title:       "Talk & Record Challenge",
		Description: "Press record. Say the model sentence slowly. Listen. Try again with clear sounds.",
	},
	AfterburnerSlotReading: {
		Slot:        AfterburnerSlotReading,
		Title:       "Read & Highlight",
		Description: "Read the short text out loud. Underline three new words and say them again.",
	},
	AfterburnerSlotRealWorld: {
		Slot:        AfterburnerSlotRealWorld,
		Title:       "Real World Challenge",
		Description: "Use this week's phrase in real life. Log one win in your notes.",
	},
	AfterburnerSlotGrammar: {
		Slot:        AfterburnerSlotGrammar,
		Title:       "Grammar Snapshot",
		Description: "Watch the quick grammar clip. Write two sentences using the pattern.",
	},
	AfterburnerSlotGame: {
		Slot:        AfterburnerSlotGame,
		Title:       "Adaptive Vocabulary Game",
		Description: "Clear your due flashcards. The game adapts its pace to what you remember.",
	},
}

// LaunchPadTaskConfigs returns the Launch Pad checklist for a module:
// admin-configured tasks when present, else the default list.
func (svc *Service) LaunchPadTaskConfigs(ctx context.Context, mod Module) ([]TaskConfig, error) {
	tasks, err := svc.repo.QueryLaunchPadTasks(ctx, mod.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying launch pad tasks")
	}
	if len(tasks) == 0 {
		configs := make([]TaskConfig, len(defaultLaunchPadTasks))
		copy(configs, defaultLaunchPadTasks)
		return configs, nil
	}

	configs := make([]TaskConfig, 0, len(tasks))
	for _, task := range tasks {
		cfg := TaskConfig{
			Title:       task.Title,
			Description: task.Description,
			LinkLabel:   task.LinkLabel,
			LinkURL:     task.LinkURL,
		}
		if cfg.LinkLabel == "" {
			cfg.LinkLabel = "Open NotebookLM"
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// FlightDeckActivityConfigs returns the ordered Flight Deck slots with module
// overrides applied on top of the defaults. The slot sequence is fixed; module
// rows only change titles and links, never add or remove slots.
func (svc *Service) FlightDeckActivityConfigs(ctx context.Context, mod Module) ([]ActivityConfig, error) {
	activities, err := svc.repo.QueryFlightDeckActivities(ctx, mod.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying flight deck activities")
	}
	overrides := make(map[string]FlightDeckActivity, len(activities))
	for _, act := range activities {
		if act.IsActive {
			overrides[act.Slot] = act
		}
	}

	configs := make([]ActivityConfig, 0, len(FlightDeckSlotSequence))
	for _, slot := range FlightDeckSlotSequence {
		cfg := defaultFlightDeckActivities[slot]
		if act, ok := overrides[slot]; ok {
			if act.Title != "" {
				cfg.Title = act.Title
			}
			if act.Subtitle != "" {
				cfg.Subtitle = act.Subtitle
			}
			if act.LinkLabel != "" {
				cfg.LinkLabel = act.LinkLabel
			}
			if act.LinkURL != "" {
				cfg.LinkURL = act.LinkURL
			}
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// AfterburnerCardConfigs returns the ordered Afterburner cards with module
// overrides applied on top of the defaults.
func (svc *Service) AfterburnerCardConfigs(ctx context.Context, mod Module) ([]CardConfig, error) {
	activities, err := svc.repo.QueryAfterburnerActivities(ctx, mod.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying afterburner activities")
	}
	overrides := make(map[string]AfterburnerActivity, len(activities))
	for _, act := range activities {
		if act.IsActive {
			overrides[act.Slot] = act
		}
	}

	configs := make([]CardConfig, 0, len(AfterburnerSlotSequence))
	for _, slot := range AfterburnerSlotSequence {
		cfg := defaultAfterburnerCards[slot]
		if act, ok := overrides[slot]; ok {
			if act.Title != "" {
				cfg.Title = act.Title
			}
			if act.Description != "" {
				cfg.Description = act.Description
			}
			cfg.Goal = act.Goal
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
