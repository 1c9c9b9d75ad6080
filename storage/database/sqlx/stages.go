package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core/stages"
)

type dbStageProgress struct {
	ID             string       `db:"id"`
	UserID         string       `db:"user_id"`
	ModuleID       string       `db:"module_id"`
	StageKey       string       `db:"stage_key"`
	CompletedTasks pq.BoolArray `db:"completed_tasks"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (dsp dbStageProgress) toStageProgress() stages.StageProgress {
	return stages.StageProgress{
		ID:             dsp.ID,
		UserID:         dsp.UserID,
		ModuleID:       dsp.ModuleID,
		StageKey:       dsp.StageKey,
		CompletedTasks: dsp.CompletedTasks,
		CreatedAt:      dsp.CreatedAt,
		UpdatedAt:      dsp.UpdatedAt,
	}
}

type StageRepository struct {
	db *sqlx.DB
}

var _ stages.Repository = (*StageRepository)(nil)

func NewStageRepository(db *sqlx.DB) *StageRepository {
	return &StageRepository{db: db}
}

func (repo *StageRepository) GetStageProgress(ctx context.Context, userID, moduleID, stageKey string) (stages.StageProgress, error) {
	var dsp dbStageProgress
	q := `
SELECT id, user_id, module_id, stage_key, completed_tasks, created_at, updated_at
FROM stage_progress
WHERE user_id = $1 AND module_id = $2 AND stage_key = $3`
	if err := repo.db.GetContext(ctx, &dsp, q, userID, moduleID, stageKey); err != nil {
		if err == sql.ErrNoRows {
			return stages.StageProgress{}, stages.ErrNotFound
		}
		return stages.StageProgress{}, errors.Wrap(err, "getting stage progress")
	}
	return dsp.toStageProgress(), nil
}

func (repo *StageRepository) CreateStageProgress(ctx context.Context, sp stages.StageProgress) (stages.StageProgress, error) {
	var dsp dbStageProgress
	// the conflict clause makes a concurrent first touch converge on one row
	q := `
INSERT INTO stage_progress (user_id, module_id, stage_key, completed_tasks)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, module_id, stage_key)
DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id, user_id, module_id, stage_key, completed_tasks, created_at, updated_at`
	err := repo.db.GetContext(ctx, &dsp, q, sp.UserID, sp.ModuleID, sp.StageKey, pq.BoolArray(sp.CompletedTasks))
	if err != nil {
		return stages.StageProgress{}, errors.Wrap(err, "creating stage progress")
	}
	return dsp.toStageProgress(), nil
}

func (repo *StageRepository) UpdateCompletedTasks(ctx context.Context, id string, completed []bool) (stages.StageProgress, error) {
	var dsp dbStageProgress
	q := `
UPDATE stage_progress
SET completed_tasks = $1, updated_at = now()
WHERE id = $2
RETURNING id, user_id, module_id, stage_key, completed_tasks, created_at, updated_at`
	if err := repo.db.GetContext(ctx, &dsp, q, pq.BoolArray(completed), id); err != nil {
		if err == sql.ErrNoRows {
			return stages.StageProgress{}, stages.ErrNotFound
		}
		return stages.StageProgress{}, errors.Wrap(err, "updating stage progress")
	}
	return dsp.toStageProgress(), nil
}
