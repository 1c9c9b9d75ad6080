package dummydb

import (
	"context"
	"sort"

	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/course"
)

type CourseRepository struct {
	db *courseTable
}

var _ course.Repository = (*CourseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db.course}
}

// seed helpers, for tests

func (repo *CourseRepository) SeedCourse(crs course.Course) course.Course {
	repo.db.Lock()
	defer repo.db.Unlock()
	if crs.ID == "" {
		crs.ID = newPK()
	}
	repo.db.courses[crs.ID] = &crs
	return crs
}

func (repo *CourseRepository) SeedModule(mod course.Module) course.Module {
	repo.db.Lock()
	defer repo.db.Unlock()
	if mod.ID == "" {
		mod.ID = newPK()
	}
	repo.db.modules[mod.ID] = &mod
	return mod
}

func (repo *CourseRepository) SeedLaunchPadTask(task course.LaunchPadTask) course.LaunchPadTask {
	repo.db.Lock()
	defer repo.db.Unlock()
	if task.ID == "" {
		task.ID = newPK()
	}
	repo.db.tasks[task.ID] = &task
	return task
}

func (repo *CourseRepository) SeedFlightDeckActivity(act course.FlightDeckActivity) course.FlightDeckActivity {
	repo.db.Lock()
	defer repo.db.Unlock()
	if act.ID == "" {
		act.ID = newPK()
	}
	repo.db.activities[act.ID] = &act
	return act
}

func (repo *CourseRepository) SeedAfterburnerActivity(act course.AfterburnerActivity) course.AfterburnerActivity {
	repo.db.Lock()
	defer repo.db.Unlock()
	if act.ID == "" {
		act.ID = newPK()
	}
	repo.db.cards[act.ID] = &act
	return act
}

func (repo *CourseRepository) SeedMeeting(meeting course.LiveMeeting) course.LiveMeeting {
	repo.db.Lock()
	defer repo.db.Unlock()
	if meeting.ID == "" {
		meeting.ID = newPK()
	}
	repo.db.meetings[meeting.ID] = &meeting
	return meeting
}

// queries

func (repo *CourseRepository) QueryCourses(ctx context.Context, orderings ...core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if crs.IsPublished {
			courses = append(courses, *crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool {
		for _, ord := range orderings {
			if ord.Field == "title" && courses[i].Title != courses[j].Title {
				return (courses[i].Title < courses[j].Title) == ord.Ascending
			}
		}
		return courses[i].CreatedAt.Before(courses[j].CreatedAt)
	})
	return courses, nil
}

func (repo *CourseRepository) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, crs := range repo.db.courses {
		if crs.Slug == slug {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *CourseRepository) QueryModules(ctx context.Context, courseID string) ([]course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	mods := make([]course.Module, 0)
	for _, mod := range repo.db.modules {
		if mod.CourseID == courseID {
			mods = append(mods, *mod)
		}
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Order < mods[j].Order })
	return mods, nil
}

func (repo *CourseRepository) GetModuleByID(ctx context.Context, id string) (course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mod, ok := repo.db.modules[id]; ok {
		return *mod, nil
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *CourseRepository) GetModuleByOrder(ctx context.Context, courseID string, order int) (course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, mod := range repo.db.modules {
		if mod.CourseID == courseID && mod.Order == order {
			return *mod, nil
		}
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *CourseRepository) GetEnrollment(ctx context.Context, userID, courseID string) (course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID && enr.CourseID == courseID {
			return *enr, nil
		}
	}
	return course.Enrollment{}, course.ErrNotFound
}

func (repo *CourseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.enrollments {
		if existing.UserID == enr.UserID && existing.CourseID == enr.CourseID {
			existing.Status = enr.Status
			existing.UpdatedAt = enr.UpdatedAt
			return *existing, nil
		}
	}
	enr.ID = newPK()
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *CourseRepository) QueryLaunchPadTasks(ctx context.Context, moduleID string) ([]course.LaunchPadTask, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := make([]course.LaunchPadTask, 0)
	for _, task := range repo.db.tasks {
		if task.ModuleID == moduleID && task.IsActive {
			tasks = append(tasks, *task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (repo *CourseRepository) QueryFlightDeckActivities(ctx context.Context, moduleID string) ([]course.FlightDeckActivity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	acts := make([]course.FlightDeckActivity, 0)
	for _, act := range repo.db.activities {
		if act.ModuleID == moduleID && act.IsActive {
			acts = append(acts, *act)
		}
	}
	return acts, nil
}

func (repo *CourseRepository) QueryAfterburnerActivities(ctx context.Context, moduleID string) ([]course.AfterburnerActivity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	acts := make([]course.AfterburnerActivity, 0)
	for _, act := range repo.db.cards {
		if act.ModuleID == moduleID && act.IsActive {
			acts = append(acts, *act)
		}
	}
	return acts, nil
}

func (repo *CourseRepository) GetMeetingByID(ctx context.Context, id string) (course.LiveMeeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if meeting, ok := repo.db.meetings[id]; ok {
		return *meeting, nil
	}
	return course.LiveMeeting{}, course.ErrMeetingNotFound
}

func (repo *CourseRepository) HasMeetingSignup(ctx context.Context, userID, moduleID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, signup := range repo.db.signups {
		if signup.UserID == userID && signup.ModuleID == moduleID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *CourseRepository) CreateMeetingSignup(ctx context.Context, signup course.MeetingSignup) (course.MeetingSignup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.signups {
		if existing.UserID == signup.UserID && existing.MeetingID == signup.MeetingID {
			return *existing, nil
		}
	}
	signup.ID = newPK()
	repo.db.signups[signup.ID] = &signup
	return signup, nil
}

func (repo *CourseRepository) DeleteMeetingSignup(ctx context.Context, userID, meetingID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, signup := range repo.db.signups {
		if signup.UserID == userID && signup.MeetingID == meetingID {
			delete(repo.db.signups, id)
		}
	}
	return nil
}
