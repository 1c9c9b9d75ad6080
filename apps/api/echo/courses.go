package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/flashcards"
	"github.com/foreignlabs/foreign/core/stages"
	"github.com/foreignlabs/foreign/core/user"
)

const (
	contextCourseKey = "course"
	contextModuleKey = "module"
)

var errModNotFoundInCtx = errors.New("module object not found in echo.Context")

type courseApi struct {
	conf      *core.Config
	userSvc   user.ServiceInterface
	courseSvc *course.Service
	stageSvc  stages.ServiceInterface
	cardSvc   flashcards.ServiceInterface
	validate  *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		conf:      deps.Conf,
		userSvc:   deps.UserSvc,
		courseSvc: deps.CourseSvc,
		stageSvc:  deps.StageSvc,
		cardSvc:   deps.CardSvc,
		validate:  deps.Validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.GET("/:slug", api.retrieve)

	// module-scoped endpoints; the middleware resolves the course and module
	// and enforces entitlement
	mg := cg.Group("/:slug/modules/:moduleID", api.moduleContextMiddleware())
	mg.GET("/stages", api.stageOverview)
	mg.POST("/stages/:stageKey/tasks/:index/toggle", api.toggleTask)
	mg.GET("/flashcards/queue", api.flashcardQueue)
	mg.POST("/flashcards/log", api.logReview)
	mg.POST("/meetings/:meetingID/signup", api.meetingSignup)
	mg.DELETE("/meetings/:meetingID/signup", api.cancelMeetingSignup)
}

// moduleContextMiddleware resolves :slug and :moduleID, rejects modules that
// do not belong to the course, checks the learner's entitlement and stashes
// the resolved objects in the echo.Context.
func (api *courseApi) moduleContextMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			reqCtx := ctx.Request().Context()

			crs, err := api.courseSvc.GetBySlug(reqCtx, ctx.Param("slug"))
			if err != nil {
				return errors.Wrap(err, "finding course by slug")
			}
			mod, err := api.courseSvc.GetModule(reqCtx, ctx.Param("moduleID"))
			if err != nil {
				return errors.Wrap(err, "finding module by ID")
			}
			if mod.CourseID != crs.ID {
				return course.ErrModuleNotFound
			}

			usr, err := getContextUser(ctx, api.userSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			canView, err := api.courseSvc.CanView(reqCtx, usr, crs)
			if err != nil {
				return errors.Wrap(err, "checking course entitlement")
			}
			if !canView {
				return errHttpForbidden
			}

			ctx.Set(contextCourseKey, crs)
			ctx.Set(contextModuleKey, mod)
			return next(ctx)
		}
	}
}

func getContextModule(ctx echo.Context) (course.Module, error) {
	if mod, ok := ctx.Get(contextModuleKey).(course.Module); ok {
		return mod, nil
	}
	return course.Module{}, errModNotFoundInCtx
}

// requireModuleUnlocked enforces the module gate shared by every module-scoped
// content endpoint.
func (api *courseApi) requireModuleUnlocked(ctx echo.Context, usr user.User, mod course.Module) error {
	unlocked, err := api.stageSvc.IsModuleUnlocked(ctx.Request().Context(), usr, mod, true)
	if err != nil {
		return errors.Wrap(err, "evaluating module gate")
	}
	if !unlocked {
		return errModuleLocked
	}
	return nil
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.courseSvc.Query(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	crs, err := api.courseSvc.GetBySlug(reqCtx, ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "finding course by slug")
	}
	modules, err := api.courseSvc.QueryModules(reqCtx, crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}
	if modules == nil {
		modules = []course.Module{}
	}
	return ctx.JSON(http.StatusOK, CourseDetailResponse{Course: crs, Modules: modules})
}

func (api *courseApi) stageOverview(ctx echo.Context) error {
	mod, err := getContextModule(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.requireModuleUnlocked(ctx, usr, mod); err != nil {
		return err
	}

	overview, err := api.stageSvc.ModuleOverview(ctx.Request().Context(), usr, mod, true)
	if err != nil {
		return errors.Wrap(err, "building module overview")
	}
	return ctx.JSON(http.StatusOK, overview)
}

func (api *courseApi) toggleTask(ctx echo.Context) error {
	mod, err := getContextModule(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.requireModuleUnlocked(ctx, usr, mod); err != nil {
		return err
	}

	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return stages.ErrTaskNotFound
	}

	var data ToggleRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleRequest")
	}

	reqCtx := ctx.Request().Context()
	stageKey := ctx.Param("stageKey")

	sp, err := api.stageSvc.Toggle(reqCtx, usr, mod, stageKey, index, data.Done)
	if err != nil {
		return errors.Wrap(err, "toggling task")
	}
	unlocks, err := api.stageSvc.StageUnlocks(reqCtx, usr, mod, true)
	if err != nil {
		return errors.Wrap(err, "evaluating stage unlocks")
	}

	completedCount := 0
	for _, done := range sp.CompletedTasks {
		if done {
			completedCount++
		}
	}
	return ctx.JSON(http.StatusOK, ToggleResponse{
		Completed:      sp.CompletedTasks[index],
		CompletedCount: completedCount,
		Required:       len(sp.CompletedTasks),
		Tasks:          sp.CompletedTasks,
		StageUnlocks:   unlocks,
	})
}

// requireAfterburner gates the flashcard endpoints behind the Afterburner
// stage unlock.
func (api *courseApi) requireAfterburner(ctx echo.Context, usr user.User, mod course.Module) error {
	unlocks, err := api.stageSvc.StageUnlocks(ctx.Request().Context(), usr, mod, true)
	if err != nil {
		return errors.Wrap(err, "evaluating stage unlocks")
	}
	if !unlocks.Afterburner {
		return errStageLocked
	}
	return nil
}

func (api *courseApi) flashcardQueue(ctx echo.Context) error {
	mod, err := getContextModule(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.requireModuleUnlocked(ctx, usr, mod); err != nil {
		return err
	}
	if err = api.requireAfterburner(ctx, usr, mod); err != nil {
		return err
	}

	queue, err := api.cardSvc.BuildQueue(ctx.Request().Context(), usr.ID, mod.ID)
	if err != nil {
		return errors.Wrap(err, "building flashcard queue")
	}
	return ctx.JSON(http.StatusOK, queue)
}

func (api *courseApi) logReview(ctx echo.Context) error {
	mod, err := getContextModule(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.requireModuleUnlocked(ctx, usr, mod); err != nil {
		return err
	}
	if err = api.requireAfterburner(ctx, usr, mod); err != nil {
		return err
	}

	var data flashcards.ReviewEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	progress, remainingDue, err := api.cardSvc.LogReview(ctx.Request().Context(), usr.ID, mod.ID, data)
	if err != nil {
		return errors.Wrap(err, "logging review")
	}
	return ctx.JSON(http.StatusOK, LogReviewResponse{Progress: progress, RemainingDue: remainingDue})
}

func (api *courseApi) meetingSignup(ctx echo.Context) error {
	mod, err := getContextModule(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.requireModuleUnlocked(ctx, usr, mod); err != nil {
		return err
	}

	signup, err := api.courseSvc.SignupForMeeting(ctx.Request().Context(), usr, mod, ctx.Param("meetingID"))
	if err != nil {
		return errors.Wrap(err, "signing up for meeting")
	}
	return ctx.JSON(http.StatusCreated, signup)
}

func (api *courseApi) cancelMeetingSignup(ctx echo.Context) error {
	mod, err := getContextModule(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.requireModuleUnlocked(ctx, usr, mod); err != nil {
		return err
	}

	if err = api.courseSvc.CancelMeetingSignup(ctx.Request().Context(), usr, ctx.Param("meetingID")); err != nil {
		return errors.Wrap(err, "cancelling meeting signup")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	CourseDetailResponse struct {
		course.Course
		Modules []course.Module `json:"modules"`
	}

	ToggleRequest struct {
		Done bool `json:"done"`
	}

	// ToggleResponse reports the new value of the toggled task plus the
	// stage's overall progress and the resulting unlocks.
	ToggleResponse struct {
		Completed      bool           `json:"completed"`
		CompletedCount int            `json:"completedCount"`
		Required       int            `json:"required"`
		Tasks          []bool         `json:"tasks"`
		StageUnlocks   stages.Unlocks `json:"stageUnlocks"`
	}

	LogReviewResponse struct {
		Progress     flashcards.Progress `json:"progress"`
		RemainingDue int                 `json:"remainingDue"`
	}
)
