package course

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrModuleNotFound  = errors.New("module not found")
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

type (
	Repository interface {
		QueryCourses(ctx context.Context, orderings ...core.DBOrdering) ([]Course, error)
		GetCourseBySlug(ctx context.Context, slug string) (Course, error)
		QueryModules(ctx context.Context, courseID string) ([]Module, error)
		GetModuleByID(ctx context.Context, id string) (Module, error)
		// GetModuleByOrder returns ErrModuleNotFound when the course has no
		// module at that position.
		GetModuleByOrder(ctx context.Context, courseID string, order int) (Module, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		// QueryLaunchPadTasks returns active tasks ordered by (order, id).
		QueryLaunchPadTasks(ctx context.Context, moduleID string) ([]LaunchPadTask, error)
		QueryFlightDeckActivities(ctx context.Context, moduleID string) ([]FlightDeckActivity, error)
		QueryAfterburnerActivities(ctx context.Context, moduleID string) ([]AfterburnerActivity, error)
		GetMeetingByID(ctx context.Context, id string) (LiveMeeting, error)
		HasMeetingSignup(ctx context.Context, userID, moduleID string) (bool, error)
		// CreateMeetingSignup treats an already-existing signup as success.
		CreateMeetingSignup(ctx context.Context, signup MeetingSignup) (MeetingSignup, error)
		DeleteMeetingSignup(ctx context.Context, userID, meetingID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, orderings ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, orderings...)
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Course, error) {
	return svc.repo.GetCourseBySlug(ctx, slug)
}

func (svc *Service) QueryModules(ctx context.Context, courseID string) ([]Module, error) {
	return svc.repo.QueryModules(ctx, courseID)
}

func (svc *Service) GetModule(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModuleByID(ctx, id)
}

// PreviousModule returns the module one position before `mod` in its course,
// or ErrModuleNotFound if the course has none there.
func (svc *Service) PreviousModule(ctx context.Context, mod Module) (Module, error) {
	return svc.repo.GetModuleByOrder(ctx, mod.CourseID, mod.Order-1)
}

// CanView reports whether `usr` may view `crs` content: an enrollment in an
// allowed status, or staff privilege.
func (svc *Service) CanView(ctx context.Context, usr user.User, crs Course) (bool, error) {
	if usr.IsStaff() {
		return true, nil
	}
	enr, err := svc.repo.GetEnrollment(ctx, usr.ID, crs.ID)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "getting enrollment")
	}
	return enr.HasAccess(), nil
}

func (svc *Service) Enroll(ctx context.Context, usr user.User, crs Course) (Enrollment, error) {
	if _, err := svc.repo.GetEnrollment(ctx, usr.ID, crs.ID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if pkgerrors.Cause(err) != ErrNotFound {
		return Enrollment{}, pkgerrors.Wrap(err, "checking enrollment")
	}

	now := time.Now().UTC()
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		UserID:    usr.ID,
		CourseID:  crs.ID,
		Status:    EnrollmentActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// HasMeetingSignup reports whether the learner holds a live-meeting signup
// for the module. The Flight Deck scheduler task derives from this.
func (svc *Service) HasMeetingSignup(ctx context.Context, userID, moduleID string) (bool, error) {
	return svc.repo.HasMeetingSignup(ctx, userID, moduleID)
}

func (svc *Service) SignupForMeeting(ctx context.Context, usr user.User, mod Module, meetingID string) (MeetingSignup, error) {
	meeting, err := svc.repo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return MeetingSignup{}, err
	}
	if meeting.ModuleID != mod.ID || !meeting.IsActive {
		return MeetingSignup{}, ErrMeetingNotFound
	}
	return svc.repo.CreateMeetingSignup(ctx, MeetingSignup{
		MeetingID: meeting.ID,
		ModuleID:  mod.ID,
		UserID:    usr.ID,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) CancelMeetingSignup(ctx context.Context, usr user.User, meetingID string) error {
	return svc.repo.DeleteMeetingSignup(ctx, usr.ID, meetingID)
}
