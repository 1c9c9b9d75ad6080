package flashcards

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core"
)

var (
	// errors
	ErrGameNotFound     = errors.New("game not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrProgressNotFound = errors.New("progress not found")
)

type (
	// Repository abstracts flashcard persistence. Methods that participate
	// in the review transaction accept the executor handed to the
	// InTransaction callback.
	Repository interface {
		GetActiveGame(ctx context.Context, moduleID, gameType string) (Game, error)
		GetGameByID(ctx context.Context, id string) (Game, error)
		QueryActiveCards(ctx context.Context, gameID string) ([]Card, error)
		GetCardByID(ctx context.Context, id string) (Card, error)

		// EnsureProgress inserts bootstrap rows for any (user, card) pairs
		// that do not exist yet, in one batch. Existing rows are untouched.
		EnsureProgress(ctx context.Context, userID string, cardIDs []string, now time.Time) error
		QueryDueCards(ctx context.Context, userID, gameID string, now time.Time) ([]QueueCard, error)
		CountDueCards(ctx context.Context, userID, gameID string, now time.Time) (int, error)

		// InTransaction runs fn atomically; the callback's writes are visible
		// together or not at all.
		InTransaction(ctx context.Context, fn func(exec core.DBExecutor) error) error
		// GetProgressForUpdate loads one row under a row-scoped write lock
		// held until the surrounding transaction ends.
		GetProgressForUpdate(ctx context.Context, userID, cardID string, exec ...core.DBExecutor) (Progress, error)
		CreateProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)
		UpdateProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)
		CreateReviewLog(ctx context.Context, entry ReviewLog, exec ...core.DBExecutor) (ReviewLog, error)

		QueryDueSummaries(ctx context.Context, now time.Time) ([]DueSummary, error)
	}

	ServiceInterface interface {
		BuildQueue(ctx context.Context, userID, moduleID string) (Queue, error)
		LogReview(ctx context.Context, userID, moduleID string, entry ReviewEntry) (Progress, int, error)
		DueSummaries(ctx context.Context, now time.Time) ([]DueSummary, error)
	}

	Service struct {
		repo   Repository
		ladder Ladder
	}

	// ReviewEntry is the client-reported result of one card flip.
	ReviewEntry struct {
		CardID        string `json:"cardId" validate:"required"`
		Outcome       string `json:"outcome" validate:"required,oneof=knew didnt"`
		TimeSpentMs   int    `json:"timeSpentMs" validate:"min=0"`
		StreakLength  int    `json:"streakLength" validate:"min=0"`
		PointsAwarded int    `json:"pointsAwarded"`
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		ladder: DefaultLadder,
	}
}

func (re *ReviewEntry) Validate(validate *validator.Validate) error {
	if err := validate.Struct(re); err != nil {
		return err
	}
	return nil
}

// BuildQueue bootstraps missing progress rows for the module's flashcard
// game, then returns the cards due now in random order.
func (svc *Service) BuildQueue(ctx context.Context, userID, moduleID string) (Queue, error) {
	game, err := svc.repo.GetActiveGame(ctx, moduleID, GameTypeAdaptiveFlashcards)
	if err != nil {
		return Queue{}, err
	}

	cards, err := svc.repo.QueryActiveCards(ctx, game.ID)
	if err != nil {
		return Queue{}, errors.Wrap(err, "querying cards")
	}
	if len(cards) == 0 {
		return Queue{Cards: []QueueCard{}}, nil
	}

	now := time.Now()
	cardIDs := make([]string, len(cards))
	for i, c := range cards {
		cardIDs[i] = c.ID
	}
	if err = svc.repo.EnsureProgress(ctx, userID, cardIDs, now); err != nil {
		return Queue{}, errors.Wrap(err, "bootstrapping progress")
	}

	due, err := svc.repo.QueryDueCards(ctx, userID, game.ID, now)
	if err != nil {
		return Queue{}, errors.Wrap(err, "querying due cards")
	}
	rand.Shuffle(len(due), func(i, j int) { due[i], due[j] = due[j], due[i] })

	return Queue{
		Cards: due,
		Meta:  QueueMeta{TotalDue: len(due), TotalActive: len(cards)},
	}, nil
}

// LogReview applies a graded answer atomically: the progress row is locked,
// advanced on the ladder and rewritten, and an audit record appended, all in
// one transaction. It returns the new progress state and the number of cards
// still due in the same game.
func (svc *Service) LogReview(ctx context.Context, userID, moduleID string, entry ReviewEntry) (Progress, int, error) {
	card, err := svc.repo.GetCardByID(ctx, entry.CardID)
	if err != nil {
		return Progress{}, 0, err
	}
	game, err := svc.repo.GetGameByID(ctx, card.GameID)
	if err != nil {
		return Progress{}, 0, err
	}
	if game.ModuleID != moduleID || !game.IsActive || !card.IsActive {
		return Progress{}, 0, ErrCardNotFound
	}

	now := time.Now()

	var progress Progress
	err = svc.repo.InTransaction(ctx, func(exec core.DBExecutor) error {
		progress, err = svc.repo.GetProgressForUpdate(ctx, userID, card.ID, exec)
		if err != nil {
			if errors.Cause(err) != ErrProgressNotFound {
				return err
			}
			// first review before any queue build; create the row in this
			// transaction, with a lost insert race resolving to the winner's row
			if progress, err = svc.repo.CreateProgress(ctx, NewProgress(userID, card.ID, now), exec); err != nil {
				return errors.Wrap(err, "creating progress")
			}
		}

		progress = svc.ladder.Advance(progress, entry.Outcome, entry.PointsAwarded, now)
		if progress, err = svc.repo.UpdateProgress(ctx, progress, exec); err != nil {
			return errors.Wrap(err, "updating progress")
		}

		// trust whichever streak figure is larger; the client may be ahead
		// within an unsynced session
		streak := entry.StreakLength
		if progress.CorrectStreak > streak {
			streak = progress.CorrectStreak
		}
		logEntry := ReviewLog{
			ProgressID:    progress.ID,
			Outcome:       progress.LastOutcome,
			StreakLength:  streak,
			TimeSpentMs:   entry.TimeSpentMs,
			PointsAwarded: entry.PointsAwarded,
			RecordedAt:    now,
		}
		if _, err = svc.repo.CreateReviewLog(ctx, logEntry, exec); err != nil {
			return errors.Wrap(err, "appending review log")
		}
		return nil
	})
	if err != nil {
		return Progress{}, 0, err
	}

	remaining, err := svc.repo.CountDueCards(ctx, userID, game.ID, now)
	if err != nil {
		return Progress{}, 0, errors.Wrap(err, "counting due cards")
	}
	return progress, remaining, nil
}

// DueSummaries lists users with cards ready for review, for the daily
// reminder job.
func (svc *Service) DueSummaries(ctx context.Context, now time.Time) ([]DueSummary, error) {
	return svc.repo.QueryDueSummaries(ctx, now)
}
