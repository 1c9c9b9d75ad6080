package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/course"
)

type CourseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*CourseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// courseOrderFields are the columns the ordering query param may reference.
var courseOrderFields = map[string]bool{"title": true, "slug": true, "created_at": true}

func (repo *CourseRepository) QueryCourses(ctx context.Context, orderings ...core.DBOrdering) ([]course.Course, error) {
	orderBy := "created_at ASC"
	if clauses := make([]string, 0, len(orderings)); len(orderings) > 0 {
		for _, ord := range orderings {
			if courseOrderFields[ord.Field] {
				clauses = append(clauses, ord.String())
			}
		}
		if len(clauses) > 0 {
			orderBy = strings.Join(clauses, ", ")
		}
	}

	var courses []course.Course
	q := `
SELECT id, slug, title, headline, description, is_published, created_at, updated_at
FROM course
WHERE is_published
ORDER BY ` + orderBy
	if err := repo.db.SelectContext(ctx, &courses, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo *CourseRepository) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	var crs course.Course
	q := `
SELECT id, slug, title, headline, description, is_published, created_at, updated_at
FROM course
WHERE slug = $1`
	if err := repo.db.GetContext(ctx, &crs, q, slug); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

func (repo *CourseRepository) QueryModules(ctx context.Context, courseID string) ([]course.Module, error) {
	var mods []course.Module
	q := `
SELECT id, course_id, title, summary, "order", created_at, updated_at
FROM course_module
WHERE course_id = $1
ORDER BY "order"`
	if err := repo.db.SelectContext(ctx, &mods, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	return mods, nil
}

func (repo *CourseRepository) GetModuleByID(ctx context.Context, id string) (course.Module, error) {
	var mod course.Module
	q := `
SELECT id, course_id, title, summary, "order", created_at, updated_at
FROM course_module
WHERE id = $1`
	if err := repo.db.GetContext(ctx, &mod, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, errors.Wrap(err, "getting module")
	}
	return mod, nil
}

func (repo *CourseRepository) GetModuleByOrder(ctx context.Context, courseID string, order int) (course.Module, error) {
	var mod course.Module
	q := `
SELECT id, course_id, title, summary, "order", created_at, updated_at
FROM course_module
WHERE course_id = $1 AND "order" = $2`
	if err := repo.db.GetContext(ctx, &mod, q, courseID, order); err != nil {
		if err == sql.ErrNoRows {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, errors.Wrap(err, "getting module by order")
	}
	return mod, nil
}

func (repo *CourseRepository) GetEnrollment(ctx context.Context, userID, courseID string) (course.Enrollment, error) {
	var enr course.Enrollment
	q := `
SELECT id, user_id, course_id, status, created_at, updated_at
FROM course_enrollment
WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &enr, q, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return enr, nil
}

func (repo *CourseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	q := `
INSERT INTO course_enrollment (user_id, course_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, course_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q, enr.UserID, enr.CourseID, enr.Status, enr.CreatedAt, enr.UpdatedAt).Scan(&enr.ID)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (repo *CourseRepository) QueryLaunchPadTasks(ctx context.Context, moduleID string) ([]course.LaunchPadTask, error) {
	var tasks []course.LaunchPadTask
	q := `
SELECT id, module_id, title, description, link_label, link_url, is_active, "order"
FROM launch_pad_task
WHERE module_id = $1 AND is_active
ORDER BY "order", id`
	if err := repo.db.SelectContext(ctx, &tasks, q, moduleID); err != nil {
		return nil, errors.Wrap(err, "querying launch pad tasks")
	}
	return tasks, nil
}

func (repo *CourseRepository) QueryFlightDeckActivities(ctx context.Context, moduleID string) ([]course.FlightDeckActivity, error) {
	var acts []course.FlightDeckActivity
	q := `
SELECT id, module_id, slot, title, subtitle, link_label, link_url, is_active
FROM flight_deck_activity
WHERE module_id = $1 AND is_active`
	if err := repo.db.SelectContext(ctx, &acts, q, moduleID); err != nil {
		return nil, errors.Wrap(err, "querying flight deck activities")
	}
	return acts, nil
}

func (repo *CourseRepository) QueryAfterburnerActivities(ctx context.Context, moduleID string) ([]course.AfterburnerActivity, error) {
	var acts []course.AfterburnerActivity
	q := `
SELECT id, module_id, slot, title, description, goal, is_active
FROM afterburner_activity
WHERE module_id = $1 AND is_active`
	if err := repo.db.SelectContext(ctx, &acts, q, moduleID); err != nil {
		return nil, errors.Wrap(err, "querying afterburner activities")
	}
	return acts, nil
}

func (repo *CourseRepository) GetMeetingByID(ctx context.Context, id string) (course.LiveMeeting, error) {
	var meeting course.LiveMeeting
	q := `
SELECT id, module_id, title, meeting_url, scheduled_at, is_active
FROM live_meeting
WHERE id = $1`
	if err := repo.db.GetContext(ctx, &meeting, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.LiveMeeting{}, course.ErrMeetingNotFound
		}
		return course.LiveMeeting{}, errors.Wrap(err, "getting meeting")
	}
	return meeting, nil
}

func (repo *CourseRepository) HasMeetingSignup(ctx context.Context, userID, moduleID string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM meeting_signup WHERE user_id = $1 AND module_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, q, userID, moduleID); err != nil {
		return false, errors.Wrap(err, "checking meeting signup")
	}
	return exists, nil
}

func (repo *CourseRepository) CreateMeetingSignup(ctx context.Context, signup course.MeetingSignup) (course.MeetingSignup, error) {
	q := `
INSERT INTO meeting_signup (meeting_id, module_id, user_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, meeting_id) DO NOTHING
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q, signup.MeetingID, signup.ModuleID, signup.UserID, signup.CreatedAt).Scan(&signup.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			// signup already exists; fetch the original
			q = `SELECT id, meeting_id, module_id, user_id, created_at FROM meeting_signup WHERE user_id = $1 AND meeting_id = $2`
			if err = repo.db.GetContext(ctx, &signup, q, signup.UserID, signup.MeetingID); err == nil {
				return signup, nil
			}
		}
		return course.MeetingSignup{}, errors.Wrap(err, "creating meeting signup")
	}
	return signup, nil
}

func (repo *CourseRepository) DeleteMeetingSignup(ctx context.Context, userID, meetingID string) error {
	q := `DELETE FROM meeting_signup WHERE user_id = $1 AND meeting_id = $2`
	if _, err := repo.db.ExecContext(ctx, q, userID, meetingID); err != nil {
		return errors.Wrap(err, "deleting meeting signup")
	}
	return nil
}
