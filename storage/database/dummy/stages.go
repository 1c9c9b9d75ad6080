package dummydb

import (
	"context"
	"time"

	"github.com/foreignlabs/foreign/core/stages"
)

type StageRepository struct {
	db *stageTable
}

var _ stages.Repository = (*StageRepository)(nil) // interface compliance check

func NewStageRepository(db *DB) *StageRepository {
	return &StageRepository{db: db.stage}
}

// Get returns a copy straight from the table, bypassing reconciliation.
// Tests use it to observe what Tasks actually wrote.
func (repo *StageRepository) Get(userID, moduleID, stageKey string) (stages.StageProgress, bool) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sp := range repo.db.table {
		if sp.UserID == userID && sp.ModuleID == moduleID && sp.StageKey == stageKey {
			return *sp, true
		}
	}
	return stages.StageProgress{}, false
}

func (repo *StageRepository) GetStageProgress(ctx context.Context, userID, moduleID, stageKey string) (stages.StageProgress, error) {
	if sp, ok := repo.Get(userID, moduleID, stageKey); ok {
		return sp, nil
	}
	return stages.StageProgress{}, stages.ErrNotFound
}

func (repo *StageRepository) CreateStageProgress(ctx context.Context, sp stages.StageProgress) (stages.StageProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == sp.UserID && existing.ModuleID == sp.ModuleID && existing.StageKey == sp.StageKey {
			return *existing, nil
		}
	}

	now := time.Now().UTC()
	sp.ID = newPK()
	sp.CreatedAt = now
	sp.UpdatedAt = now
	repo.db.table[sp.ID] = &sp
	return sp, nil
}

func (repo *StageRepository) UpdateCompletedTasks(ctx context.Context, id string, completed []bool) (stages.StageProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sp, ok := repo.db.table[id]
	if !ok {
		return stages.StageProgress{}, stages.ErrNotFound
	}
	sp.CompletedTasks = append([]bool(nil), completed...)
	sp.UpdatedAt = time.Now().UTC()
	return *sp, nil
}
