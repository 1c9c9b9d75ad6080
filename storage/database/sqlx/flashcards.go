package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/flashcards"
)

type FlashcardRepository struct {
	db *sqlx.DB
}

var _ flashcards.Repository = (*FlashcardRepository)(nil)

func NewFlashcardRepository(db *sqlx.DB) *FlashcardRepository {
	return &FlashcardRepository{db: db}
}

// exec returns the transaction executor when one is supplied, else the pool.
func (repo *FlashcardRepository) exec(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return repo.db
}

// InTransaction runs fn in a database transaction, rolling back on error.
func (repo *FlashcardRepository) InTransaction(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *FlashcardRepository) GetActiveGame(ctx context.Context, moduleID, gameType string) (flashcards.Game, error) {
	var game flashcards.Game
	q := `
SELECT id, module_id, title, game_type, is_active, "order", created_at
FROM module_game
WHERE module_id = $1 AND game_type = $2 AND is_active
ORDER BY "order", created_at
LIMIT 1`
	if err := repo.db.GetContext(ctx, &game, q, moduleID, gameType); err != nil {
		if err == sql.ErrNoRows {
			return flashcards.Game{}, flashcards.ErrGameNotFound
		}
		return flashcards.Game{}, errors.Wrap(err, "getting game")
	}
	return game, nil
}

func (repo *FlashcardRepository) GetGameByID(ctx context.Context, id string) (flashcards.Game, error) {
	var game flashcards.Game
	q := `SELECT id, module_id, title, game_type, is_active, "order", created_at FROM module_game WHERE id = $1`
	if err := repo.db.GetContext(ctx, &game, q, id); err != nil {
		if err == sql.ErrNoRows {
			return flashcards.Game{}, flashcards.ErrGameNotFound
		}
		return flashcards.Game{}, errors.Wrap(err, "getting game")
	}
	return game, nil
}

func (repo *FlashcardRepository) QueryActiveCards(ctx context.Context, gameID string) ([]flashcards.Card, error) {
	var cards []flashcards.Card
	q := `
SELECT id, game_id, word, definition, example, is_active, "order", created_at
FROM game_flashcard
WHERE game_id = $1 AND is_active
ORDER BY "order", id`
	if err := repo.db.SelectContext(ctx, &cards, q, gameID); err != nil {
		return nil, errors.Wrap(err, "querying cards")
	}
	return cards, nil
}

func (repo *FlashcardRepository) GetCardByID(ctx context.Context, id string) (flashcards.Card, error) {
	var card flashcards.Card
	q := `SELECT id, game_id, word, definition, example, is_active, "order", created_at FROM game_flashcard WHERE id = $1`
	if err := repo.db.GetContext(ctx, &card, q, id); err != nil {
		if err == sql.ErrNoRows {
			return flashcards.Card{}, flashcards.ErrCardNotFound
		}
		return flashcards.Card{}, errors.Wrap(err, "getting card")
	}
	return card, nil
}

// EnsureProgress bootstraps missing progress rows in one multi-row insert.
// Existing rows win the conflict and keep their scheduling state.
func (repo *FlashcardRepository) EnsureProgress(ctx context.Context, userID string, cardIDs []string, now time.Time) error {
	if len(cardIDs) == 0 {
		return nil
	}

	values := make([]string, len(cardIDs))
	args := make([]interface{}, 0, len(cardIDs)+2)
	args = append(args, userID, now)
	for i, cardID := range cardIDs {
		values[i] = fmt.Sprintf("($1, $%d, $2, 'none', $2, $2)", i+3)
		args = append(args, cardID)
	}
	q := `
INSERT INTO flashcard_progress (user_id, card_id, next_review_at, last_outcome, created_at, updated_at)
VALUES ` + strings.Join(values, ", ") + `
ON CONFLICT (user_id, card_id) DO NOTHING`

	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "bootstrapping progress")
	}
	return nil
}

func (repo *FlashcardRepository) QueryDueCards(ctx context.Context, userID, gameID string, now time.Time) ([]flashcards.QueueCard, error) {
	var cards []flashcards.QueueCard
	q := `
SELECT c.id, c.word, c.definition, c.example,
       p.interval_index, p.correct_streak, p.seen_count, p.last_outcome
FROM game_flashcard c
JOIN flashcard_progress p ON p.card_id = c.id AND p.user_id = $1
WHERE c.game_id = $2 AND c.is_active AND p.next_review_at <= $3`
	if err := repo.db.SelectContext(ctx, &cards, q, userID, gameID, now); err != nil {
		return nil, errors.Wrap(err, "querying due cards")
	}
	return cards, nil
}

func (repo *FlashcardRepository) CountDueCards(ctx context.Context, userID, gameID string, now time.Time) (int, error) {
	var count int
	q := `
SELECT COUNT(*)
FROM game_flashcard c
JOIN flashcard_progress p ON p.card_id = c.id AND p.user_id = $1
WHERE c.game_id = $2 AND c.is_active AND p.next_review_at <= $3`
	if err := repo.db.GetContext(ctx, &count, q, userID, gameID, now); err != nil {
		return 0, errors.Wrap(err, "counting due cards")
	}
	return count, nil
}

const progressColumns = `
id, user_id, card_id, interval_index, next_review_at, correct_streak,
seen_count, last_outcome, total_points, last_reviewed_at, created_at, updated_at`

// GetProgressForUpdate locks the row for the remainder of the transaction so
// concurrent reviews of the same card serialize.
func (repo *FlashcardRepository) GetProgressForUpdate(ctx context.Context, userID, cardID string, exec ...core.DBExecutor) (flashcards.Progress, error) {
	q := `SELECT ` + progressColumns + ` FROM flashcard_progress WHERE user_id = $1 AND card_id = $2 FOR UPDATE`
	row := repo.exec(exec).QueryRowContext(ctx, q, userID, cardID)
	p, err := scanProgress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return flashcards.Progress{}, flashcards.ErrProgressNotFound
		}
		return flashcards.Progress{}, errors.Wrap(err, "getting progress")
	}
	return p, nil
}

func scanProgress(row *sql.Row) (flashcards.Progress, error) {
	var p flashcards.Progress
	err := row.Scan(
		&p.ID, &p.UserID, &p.CardID, &p.IntervalIndex, &p.NextReviewAt, &p.CorrectStreak,
		&p.SeenCount, &p.LastOutcome, &p.TotalPoints, &p.LastReviewedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return flashcards.Progress{}, err
	}
	return p, nil
}

// CreateProgress inserts the bootstrap row for a first-ever review. When a
// concurrent transaction wins the insert, the conflict clause makes this a
// no-op and the winner's row is loaded under the usual row lock instead.
func (repo *FlashcardRepository) CreateProgress(ctx context.Context, p flashcards.Progress, exec ...core.DBExecutor) (flashcards.Progress, error) {
	q := `
INSERT INTO flashcard_progress (user_id, card_id, interval_index, next_review_at, last_outcome)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, card_id) DO NOTHING
RETURNING ` + progressColumns
	row := repo.exec(exec).QueryRowContext(ctx, q, p.UserID, p.CardID, p.IntervalIndex, p.NextReviewAt, p.LastOutcome)
	created, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return repo.GetProgressForUpdate(ctx, p.UserID, p.CardID, exec...)
	}
	if err != nil {
		return flashcards.Progress{}, errors.Wrap(err, "creating progress")
	}
	return created, nil
}

func (repo *FlashcardRepository) UpdateProgress(ctx context.Context, p flashcards.Progress, exec ...core.DBExecutor) (flashcards.Progress, error) {
	q := `
UPDATE flashcard_progress
SET interval_index = $1, next_review_at = $2, correct_streak = $3, seen_count = $4,
    last_outcome = $5, total_points = $6, last_reviewed_at = $7, updated_at = now()
WHERE id = $8
RETURNING ` + progressColumns
	row := repo.exec(exec).QueryRowContext(
		ctx, q,
		p.IntervalIndex, p.NextReviewAt, p.CorrectStreak, p.SeenCount,
		p.LastOutcome, p.TotalPoints, p.LastReviewedAt, p.ID,
	)
	p, err := scanProgress(row)
	if err != nil {
		return flashcards.Progress{}, errors.Wrap(err, "updating progress")
	}
	return p, nil
}

func (repo *FlashcardRepository) CreateReviewLog(ctx context.Context, entry flashcards.ReviewLog, exec ...core.DBExecutor) (flashcards.ReviewLog, error) {
	q := `
INSERT INTO review_log (progress_id, outcome, streak_length, time_spent_ms, points_awarded, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err := repo.exec(exec).QueryRowContext(
		ctx, q,
		entry.ProgressID, entry.Outcome, entry.StreakLength, entry.TimeSpentMs, entry.PointsAwarded, entry.RecordedAt,
	).Scan(&entry.ID)
	if err != nil {
		return flashcards.ReviewLog{}, errors.Wrap(err, "appending review log")
	}
	return entry, nil
}

func (repo *FlashcardRepository) QueryDueSummaries(ctx context.Context, now time.Time) ([]flashcards.DueSummary, error) {
	var summaries []flashcards.DueSummary
	q := `
SELECT u.id AS user_id, u.email, u.name, COUNT(*) AS due_count
FROM flashcard_progress p
JOIN "user" u ON u.id = p.user_id AND u.is_active
JOIN game_flashcard c ON c.id = p.card_id AND c.is_active
WHERE p.next_review_at <= $1 AND p.seen_count > 0
GROUP BY u.id, u.email, u.name`
	if err := repo.db.SelectContext(ctx, &summaries, q, now); err != nil {
		return nil, errors.Wrap(err, "querying due summaries")
	}
	return summaries, nil
}
