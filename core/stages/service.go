package stages

import (
	"context"

	"github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("stage progress not found")
	ErrUnknownStage  = errors.New("unknown stage")
	ErrStageLocked   = errors.New("stage is locked")
	ErrModuleLocked  = errors.New("module is locked")
	ErrTaskNotFound  = errors.New("task not found")
	ErrDerivedToggle = errors.New("task is derived and cannot be toggled")
)

type (
	// CourseContent is the slice of the course service the stage engine
	// consumes: task configuration, meeting signups and module ordering.
	CourseContent interface {
		LaunchPadTaskConfigs(ctx context.Context, mod course.Module) ([]course.TaskConfig, error)
		FlightDeckActivityConfigs(ctx context.Context, mod course.Module) ([]course.ActivityConfig, error)
		AfterburnerCardConfigs(ctx context.Context, mod course.Module) ([]course.CardConfig, error)
		HasMeetingSignup(ctx context.Context, userID, moduleID string) (bool, error)
		PreviousModule(ctx context.Context, mod course.Module) (course.Module, error)
	}

	Repository interface {
		// GetStageProgress returns ErrNotFound when no record exists yet.
		GetStageProgress(ctx context.Context, userID, moduleID, stageKey string) (StageProgress, error)
		CreateStageProgress(ctx context.Context, sp StageProgress) (StageProgress, error)
		// UpdateCompletedTasks rewrites only the bit vector (and updated_at).
		UpdateCompletedTasks(ctx context.Context, id string, completed []bool) (StageProgress, error)
	}

	ServiceInterface interface {
		Tasks(ctx context.Context, userID string, mod course.Module, stageKey string) (StageProgress, []TaskSpec, error)
		Toggle(ctx context.Context, usr user.User, mod course.Module, stageKey string, index int, done bool) (StageProgress, error)
		StageUnlocks(ctx context.Context, usr user.User, mod course.Module, entitled bool) (Unlocks, error)
		IsModuleUnlocked(ctx context.Context, usr user.User, mod course.Module, entitled bool) (bool, error)
		ModuleOverview(ctx context.Context, usr user.User, mod course.Module, entitled bool) (Overview, error)
	}

	Service struct {
		repo    Repository
		content CourseContent
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, content CourseContent) *Service {
	return &Service{
		repo:    repo,
		content: content,
	}
}

// specs resolves the current task list for one stage of a module.
func (svc *Service) specs(ctx context.Context, mod course.Module, stageKey string) ([]TaskSpec, error) {
	switch stageKey {
	case StageLaunchPad:
		cfgs, err := svc.content.LaunchPadTaskConfigs(ctx, mod)
		if err != nil {
			return nil, err
		}
		specs := make([]TaskSpec, len(cfgs))
		for i, cfg := range cfgs {
			specs[i] = specFromTask(cfg)
		}
		return specs, nil
	case StageFlightDeck:
		cfgs, err := svc.content.FlightDeckActivityConfigs(ctx, mod)
		if err != nil {
			return nil, err
		}
		specs := make([]TaskSpec, len(cfgs))
		for i, cfg := range cfgs {
			specs[i] = specFromActivity(cfg)
		}
		return specs, nil
	case StageAfterburner:
		cfgs, err := svc.content.AfterburnerCardConfigs(ctx, mod)
		if err != nil {
			return nil, err
		}
		specs := make([]TaskSpec, len(cfgs))
		for i, cfg := range cfgs {
			specs[i] = specFromCard(cfg)
		}
		return specs, nil
	}
	return nil, ErrUnknownStage
}

// Tasks returns the stage's task list and the learner's reconciled progress
// record, creating it on first touch. Reconciliation pads or truncates the
// bit vector to the task count and refreshes derived bits; it only writes
// when something actually changed, so repeated reads leave the record
// untouched.
func (svc *Service) Tasks(ctx context.Context, userID string, mod course.Module, stageKey string) (StageProgress, []TaskSpec, error) {
	specs, err := svc.specs(ctx, mod, stageKey)
	if err != nil {
		return StageProgress{}, nil, err
	}

	sp, err := svc.repo.GetStageProgress(ctx, userID, mod.ID, stageKey)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return StageProgress{}, nil, err
		}
		sp, err = svc.repo.CreateStageProgress(ctx, StageProgress{
			UserID:         userID,
			ModuleID:       mod.ID,
			StageKey:       stageKey,
			CompletedTasks: make([]bool, len(specs)),
		})
		if err != nil {
			return StageProgress{}, nil, errors.Wrap(err, "creating stage progress")
		}
	}

	completed, changed := reconcile(sp.CompletedTasks, len(specs))

	for i, spec := range specs {
		if spec.Kind != TaskDerived {
			continue
		}
		derived, err := svc.derivedDone(ctx, userID, mod, spec)
		if err != nil {
			return StageProgress{}, nil, err
		}
		if completed[i] != derived {
			completed[i] = derived
			changed = true
		}
	}

	if changed {
		if sp, err = svc.repo.UpdateCompletedTasks(ctx, sp.ID, completed); err != nil {
			return StageProgress{}, nil, errors.Wrap(err, "reconciling stage progress")
		}
	} else {
		sp.CompletedTasks = completed
	}
	return sp, specs, nil
}

// derivedDone evaluates the external fact behind a derived task. Only the
// Flight Deck scheduler slot exists today.
func (svc *Service) derivedDone(ctx context.Context, userID string, mod course.Module, spec TaskSpec) (bool, error) {
	if spec.Slot == course.FlightDeckSlotScheduler {
		return svc.content.HasMeetingSignup(ctx, userID, mod.ID)
	}
	return false, nil
}

// reconcile fits a stored bit vector to the current task count. Extra bits
// are dropped, missing ones default to not-done.
func reconcile(completed []bool, want int) ([]bool, bool) {
	if len(completed) == want {
		out := make([]bool, want)
		copy(out, completed)
		return out, false
	}
	out := make([]bool, want)
	copy(out, completed)
	return out, true
}

// Toggle sets one manual task bit. The stage must be unlocked for the
// learner, the index must exist, and derived tasks reject toggles. Callers
// verify course entitlement and the module gate before invoking.
func (svc *Service) Toggle(ctx context.Context, usr user.User, mod course.Module, stageKey string, index int, done bool) (StageProgress, error) {
	unlocks, err := svc.StageUnlocks(ctx, usr, mod, true)
	if err != nil {
		return StageProgress{}, err
	}
	if !unlocks.For(stageKey) {
		return StageProgress{}, ErrStageLocked
	}

	sp, specs, err := svc.Tasks(ctx, usr.ID, mod, stageKey)
	if err != nil {
		return StageProgress{}, err
	}
	if index < 0 || index >= len(specs) {
		return StageProgress{}, ErrTaskNotFound
	}
	if specs[index].Kind == TaskDerived {
		return StageProgress{}, ErrDerivedToggle
	}
	if sp.CompletedTasks[index] == done {
		return sp, nil
	}

	completed := make([]bool, len(sp.CompletedTasks))
	copy(completed, sp.CompletedTasks)
	completed[index] = done
	sp, err = svc.repo.UpdateCompletedTasks(ctx, sp.ID, completed)
	return sp, errors.Wrap(err, "toggling task")
}

// For returns the unlock bit for a stage key.
func (u Unlocks) For(stageKey string) bool {
	switch stageKey {
	case StageLaunchPad:
		return u.LaunchPad
	case StageFlightDeck:
		return u.FlightDeck
	case StageAfterburner:
		return u.Afterburner
	}
	return false
}
