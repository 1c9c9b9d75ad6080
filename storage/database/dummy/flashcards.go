package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/flashcards"
)

type FlashcardRepository struct {
	db *flashcardTable
}

var _ flashcards.Repository = (*FlashcardRepository)(nil) // interface compliance check

func NewFlashcardRepository(db *DB) *FlashcardRepository {
	return &FlashcardRepository{db: db.flashcard}
}

// seed helpers, for tests

func (repo *FlashcardRepository) SeedGame(game flashcards.Game) flashcards.Game {
	repo.db.Lock()
	defer repo.db.Unlock()
	if game.ID == "" {
		game.ID = newPK()
	}
	repo.db.games[game.ID] = &game
	return game
}

func (repo *FlashcardRepository) SeedCard(card flashcards.Card) flashcards.Card {
	repo.db.Lock()
	defer repo.db.Unlock()
	if card.ID == "" {
		card.ID = newPK()
	}
	repo.db.cards[card.ID] = &card
	return card
}

// Logs returns all review log entries, oldest first.
func (repo *FlashcardRepository) Logs() []flashcards.ReviewLog {
	repo.db.RLock()
	defer repo.db.RUnlock()

	logs := make([]flashcards.ReviewLog, 0, len(repo.db.logs))
	for _, entry := range repo.db.logs {
		logs = append(logs, *entry)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].RecordedAt.Before(logs[j].RecordedAt) })
	return logs
}

// Progress returns the stored scheduling state of one card.
func (repo *FlashcardRepository) Progress(userID, cardID string) (flashcards.Progress, bool) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.get(userID, cardID)
}

func (repo *FlashcardRepository) get(userID, cardID string) (flashcards.Progress, bool) {
	for _, p := range repo.db.progress {
		if p.UserID == userID && p.CardID == cardID {
			return *p, true
		}
	}
	return flashcards.Progress{}, false
}

// queries

func (repo *FlashcardRepository) GetActiveGame(ctx context.Context, moduleID, gameType string) (flashcards.Game, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	games := make([]flashcards.Game, 0)
	for _, game := range repo.db.games {
		if game.ModuleID == moduleID && game.GameType == gameType && game.IsActive {
			games = append(games, *game)
		}
	}
	if len(games) == 0 {
		return flashcards.Game{}, flashcards.ErrGameNotFound
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Order < games[j].Order })
	return games[0], nil
}

func (repo *FlashcardRepository) GetGameByID(ctx context.Context, id string) (flashcards.Game, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if game, ok := repo.db.games[id]; ok {
		return *game, nil
	}
	return flashcards.Game{}, flashcards.ErrGameNotFound
}

func (repo *FlashcardRepository) QueryActiveCards(ctx context.Context, gameID string) ([]flashcards.Card, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cards := make([]flashcards.Card, 0)
	for _, card := range repo.db.cards {
		if card.GameID == gameID && card.IsActive {
			cards = append(cards, *card)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Order != cards[j].Order {
			return cards[i].Order < cards[j].Order
		}
		return cards[i].ID < cards[j].ID
	})
	return cards, nil
}

func (repo *FlashcardRepository) GetCardByID(ctx context.Context, id string) (flashcards.Card, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if card, ok := repo.db.cards[id]; ok {
		return *card, nil
	}
	return flashcards.Card{}, flashcards.ErrCardNotFound
}

func (repo *FlashcardRepository) EnsureProgress(ctx context.Context, userID string, cardIDs []string, now time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, cardID := range cardIDs {
		if _, ok := repo.get(userID, cardID); ok {
			continue
		}
		p := flashcards.NewProgress(userID, cardID, now)
		p.ID = newPK()
		p.CreatedAt = now
		p.UpdatedAt = now
		repo.db.progress[p.ID] = &p
	}
	return nil
}

func (repo *FlashcardRepository) QueryDueCards(ctx context.Context, userID, gameID string, now time.Time) ([]flashcards.QueueCard, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	due := make([]flashcards.QueueCard, 0)
	for _, p := range repo.db.progress {
		if p.UserID != userID || p.NextReviewAt.After(now) {
			continue
		}
		card, ok := repo.db.cards[p.CardID]
		if !ok || card.GameID != gameID || !card.IsActive {
			continue
		}
		due = append(due, flashcards.QueueCard{
			ID:            card.ID,
			Word:          card.Word,
			Definition:    card.Definition,
			Example:       card.Example,
			IntervalIndex: p.IntervalIndex,
			CorrectStreak: p.CorrectStreak,
			SeenCount:     p.SeenCount,
			LastOutcome:   p.LastOutcome,
		})
	}
	return due, nil
}

func (repo *FlashcardRepository) CountDueCards(ctx context.Context, userID, gameID string, now time.Time) (int, error) {
	due, err := repo.QueryDueCards(ctx, userID, gameID, now)
	if err != nil {
		return 0, err
	}
	return len(due), nil
}

// InTransaction runs fn while holding the transaction mutex, so two
// concurrent reviews apply one after the other just as they would behind
// the SQL implementation's row lock. The executor is nil and the write
// methods ignore it; each takes the table lock itself.
func (repo *FlashcardRepository) InTransaction(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	repo.db.txMu.Lock()
	defer repo.db.txMu.Unlock()
	return fn(nil)
}

func (repo *FlashcardRepository) GetProgressForUpdate(ctx context.Context, userID, cardID string, exec ...core.DBExecutor) (flashcards.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.get(userID, cardID); ok {
		return p, nil
	}
	return flashcards.Progress{}, flashcards.ErrProgressNotFound
}

func (repo *FlashcardRepository) CreateProgress(ctx context.Context, p flashcards.Progress, exec ...core.DBExecutor) (flashcards.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.get(p.UserID, p.CardID); ok {
		return existing, nil
	}
	now := time.Now().UTC()
	p.ID = newPK()
	p.CreatedAt = now
	p.UpdatedAt = now
	repo.db.progress[p.ID] = &p
	return p, nil
}

func (repo *FlashcardRepository) UpdateProgress(ctx context.Context, p flashcards.Progress, exec ...core.DBExecutor) (flashcards.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.progress[p.ID]; !ok {
		return flashcards.Progress{}, flashcards.ErrProgressNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	repo.db.progress[p.ID] = &p
	return p, nil
}

func (repo *FlashcardRepository) CreateReviewLog(ctx context.Context, entry flashcards.ReviewLog, exec ...core.DBExecutor) (flashcards.ReviewLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	entry.ID = newPK()
	repo.db.logs[entry.ID] = &entry
	return entry, nil
}

func (repo *FlashcardRepository) QueryDueSummaries(ctx context.Context, now time.Time) ([]flashcards.DueSummary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	for _, p := range repo.db.progress {
		if p.SeenCount > 0 && !p.NextReviewAt.After(now) {
			counts[p.UserID]++
		}
	}
	summaries := make([]flashcards.DueSummary, 0, len(counts))
	for userID, count := range counts {
		summaries = append(summaries, flashcards.DueSummary{UserID: userID, DueCount: count})
	}
	return summaries, nil
}
