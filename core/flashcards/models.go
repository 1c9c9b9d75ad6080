package flashcards

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// game types
const (
	GameTypeAdaptiveFlashcards = "adaptive_flashcards"
)

// review outcomes as reported by the client
const (
	OutcomeKnew  = "knew"
	OutcomeDidnt = "didnt"
)

// last-outcome markers persisted on progress rows
const (
	LastOutcomeNone      = "none"
	LastOutcomeCorrect   = "correct"
	LastOutcomeIncorrect = "incorrect"
)

type (
	// Game is a playable activity attached to a module. Only games of type
	// adaptive_flashcards participate in the review scheduler.
	Game struct {
		ID        string    `json:"id" db:"id"`
		ModuleID  string    `json:"module_id" db:"module_id"`
		Title     string    `json:"title" db:"title"`
		GameType  string    `json:"game_type" db:"game_type"`
		IsActive  bool      `json:"is_active" db:"is_active"`
		Order     int       `json:"order" db:"order"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	// Card is a single vocabulary item inside a game.
	Card struct {
		ID         string    `json:"id" db:"id"`
		GameID     string    `json:"game_id" db:"game_id"`
		Word       string    `json:"word" db:"word"`
		Definition string    `json:"definition" db:"definition"`
		Example    string    `json:"example" db:"example"`
		IsActive   bool      `json:"is_active" db:"is_active"`
		Order      int       `json:"order" db:"order"`
		CreatedAt  time.Time `json:"created_at" db:"created_at"`
	}

	// Progress is the per-user scheduling state of one card. One row per
	// (user, card); the review transaction is the only writer after bootstrap.
	Progress struct {
		ID             string    `json:"id" db:"id"`
		UserID         string    `json:"user_id" db:"user_id"`
		CardID         string    `json:"card_id" db:"card_id"`
		IntervalIndex  int       `json:"interval_index" db:"interval_index"`
		NextReviewAt   time.Time `json:"next_review_at" db:"next_review_at"`
		CorrectStreak  int       `json:"correct_streak" db:"correct_streak"`
		SeenCount      int       `json:"seen_count" db:"seen_count"`
		LastOutcome    string    `json:"last_outcome" db:"last_outcome"`
		TotalPoints    int       `json:"total_points" db:"total_points"`
		LastReviewedAt null.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
		CreatedAt      time.Time `json:"created_at" db:"created_at"`
		UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	}

	// ReviewLog is one append-only audit record of a graded answer.
	ReviewLog struct {
		ID            string    `json:"id" db:"id"`
		ProgressID    string    `json:"progress_id" db:"progress_id"`
		Outcome       string    `json:"outcome" db:"outcome"`
		StreakLength  int       `json:"streak_length" db:"streak_length"`
		TimeSpentMs   int       `json:"time_spent_ms" db:"time_spent_ms"`
		PointsAwarded int       `json:"points_awarded" db:"points_awarded"`
		RecordedAt    time.Time `json:"recorded_at" db:"recorded_at"`
	}

	// QueueCard is a due card joined with its scheduling state, shaped for
	// the play surface.
	QueueCard struct {
		ID            string `json:"id" db:"id"`
		Word          string `json:"word" db:"word"`
		Definition    string `json:"definition" db:"definition"`
		Example       string `json:"example" db:"example"`
		IntervalIndex int    `json:"intervalIndex" db:"interval_index"`
		CorrectStreak int    `json:"correctStreak" db:"correct_streak"`
		SeenCount     int    `json:"seenCount" db:"seen_count"`
		LastOutcome   string `json:"lastOutcome" db:"last_outcome"`
	}

	// QueueMeta carries the session header totals.
	QueueMeta struct {
		TotalDue    int `json:"totalDue"`
		TotalActive int `json:"totalActive"`
	}

	// Queue is the shuffled set of cards due now plus totals for the
	// session header.
	Queue struct {
		Cards []QueueCard `json:"cards"`
		Meta  QueueMeta   `json:"meta"`
	}

	// DueSummary is a per-user count of cards ready for review, used by the
	// reminder job.
	DueSummary struct {
		UserID   string `db:"user_id"`
		Email    string `db:"email"`
		Name     string `db:"name"`
		DueCount int    `db:"due_count"`
	}
)

// NewProgress returns the bootstrap state for a card never reviewed: due
// immediately, bottom of the ladder.
func NewProgress(userID, cardID string, now time.Time) Progress {
	return Progress{
		UserID:        userID,
		CardID:        cardID,
		IntervalIndex: 0,
		NextReviewAt:  now,
		LastOutcome:   LastOutcomeNone,
	}
}
