package stages

import (
	"context"

	"github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/user"
)

// StageUnlocks evaluates the completion gates of a module for one learner.
// Launch Pad opens with course entitlement; each later stage opens when its
// predecessor is open and fully complete. A stage with zero tasks counts as
// complete, so an empty predecessor never blocks progression.
func (svc *Service) StageUnlocks(ctx context.Context, usr user.User, mod course.Module, entitled bool) (Unlocks, error) {
	var u Unlocks
	u.LaunchPad = entitled
	if !u.LaunchPad {
		return u, nil
	}

	launchPad, _, err := svc.Tasks(ctx, usr.ID, mod, StageLaunchPad)
	if err != nil {
		return Unlocks{}, errors.Wrap(err, "evaluating launch pad")
	}
	u.FlightDeck = launchPad.Complete()
	if !u.FlightDeck {
		return u, nil
	}

	flightDeck, _, err := svc.Tasks(ctx, usr.ID, mod, StageFlightDeck)
	if err != nil {
		return Unlocks{}, errors.Wrap(err, "evaluating flight deck")
	}
	u.Afterburner = flightDeck.Complete()
	return u, nil
}

// IsModuleUnlocked reports whether the learner may enter the module at all.
// Staff and the first module are always open; otherwise the previous
// module's Flight Deck must be unlocked. A gap in module ordering fails
// open.
func (svc *Service) IsModuleUnlocked(ctx context.Context, usr user.User, mod course.Module, entitled bool) (bool, error) {
	if usr.IsStaff() || mod.Order <= 1 {
		return true, nil
	}

	prev, err := svc.content.PreviousModule(ctx, mod)
	if err != nil {
		if errors.Cause(err) == course.ErrModuleNotFound {
			return true, nil
		}
		return false, errors.Wrap(err, "resolving previous module")
	}

	unlocks, err := svc.StageUnlocks(ctx, usr, prev, entitled)
	if err != nil {
		return false, err
	}
	return unlocks.FlightDeck, nil
}

// ModuleOverview assembles the dashboard view: the module gate plus every
// stage's unlock state, completion and task list with done-bits.
func (svc *Service) ModuleOverview(ctx context.Context, usr user.User, mod course.Module, entitled bool) (Overview, error) {
	moduleUnlocked, err := svc.IsModuleUnlocked(ctx, usr, mod, entitled)
	if err != nil {
		return Overview{}, err
	}

	unlocks, err := svc.StageUnlocks(ctx, usr, mod, entitled)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{
		ModuleID:       mod.ID,
		ModuleUnlocked: moduleUnlocked,
		Stages:         make([]StageView, 0, len(StageSequence)),
	}
	for _, key := range StageSequence {
		sp, specs, err := svc.Tasks(ctx, usr.ID, mod, key)
		if err != nil {
			return Overview{}, err
		}
		view := StageView{
			Key:      key,
			Unlocked: moduleUnlocked && unlocks.For(key),
			Complete: sp.Complete(),
			Tasks:    make([]TaskView, len(specs)),
		}
		for i, spec := range specs {
			view.Tasks[i] = TaskView{
				TaskSpec: spec,
				Index:    i,
				Done:     sp.CompletedTasks[i],
			}
		}
		ov.Stages = append(ov.Stages, view)
	}
	return ov, nil
}
