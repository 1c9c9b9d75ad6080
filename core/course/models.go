package course

import "time"

// EnrollmentStatus values. Only active and completed enrollments grant
// access to course content.
const (
	EnrollmentApplied   = "applied"
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentWithdrawn = "withdrawn"
)

// AllowedEnrollmentStatuses grant course content access.
var AllowedEnrollmentStatuses = []string{EnrollmentActive, EnrollmentCompleted}

// Flight Deck activity slots, in serving order. The scheduler slot is driven
// by live-meeting signups, never toggled by hand.
const (
	FlightDeckSlotScheduler = "scheduler"
	FlightDeckSlotNotebook  = "notebook"
	FlightDeckSlotRecorder  = "recorder"
)

var FlightDeckSlotSequence = []string{
	FlightDeckSlotScheduler,
	FlightDeckSlotNotebook,
	FlightDeckSlotRecorder,
}

// Afterburner card slots, in serving order.
const (
	AfterburnerSlotTalkRecord = "talk-record"
	AfterburnerSlotReading    = "reading"
	AfterburnerSlotRealWorld  = "real-world"
	AfterburnerSlotGrammar    = "grammar"
	AfterburnerSlotGame       = "game"
)

var AfterburnerSlotSequence = []string{
	AfterburnerSlotTalkRecord,
	AfterburnerSlotReading,
	AfterburnerSlotRealWorld,
	AfterburnerSlotGrammar,
	AfterburnerSlotGame,
}

type Course struct {
	ID          string    `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Title       string    `json:"title" db:"title"`
	Headline    string    `json:"headline" db:"headline"`
	Description string    `json:"description" db:"description"`
	IsPublished bool      `json:"is_published" db:"is_published"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Module is a week-scoped curriculum unit within a Course.
// Order is 1-based and unique within the course.
type Module struct {
	ID        string    `json:"id" db:"id"`
	CourseID  string    `json:"course_id" db:"course_id"`
	Title     string    `json:"title" db:"title"`
	Summary   string    `json:"summary" db:"summary"`
	Order     int       `json:"order" db:"order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type Enrollment struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CourseID  string    `json:"course_id" db:"course_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// HasAccess reports whether this enrollment grants content access.
func (e Enrollment) HasAccess() bool {
	for _, status := range AllowedEnrollmentStatuses {
		if e.Status == status {
			return true
		}
	}
	return false
}

// LaunchPadTask is an admin-configured Launch Pad checklist item.
// When a module has none, the default task list applies.
type LaunchPadTask struct {
	ID          string `json:"id" db:"id"`
	ModuleID    string `json:"module_id" db:"module_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	LinkLabel   string `json:"link_label" db:"link_label"`
	LinkURL     string `json:"link_url" db:"link_url"`
	IsActive    bool   `json:"is_active" db:"is_active"`
	Order       int    `json:"order" db:"order"`
}

// FlightDeckActivity overrides the default config of one Flight Deck slot.
type FlightDeckActivity struct {
	ID        string `json:"id" db:"id"`
	ModuleID  string `json:"module_id" db:"module_id"`
	Slot      string `json:"slot" db:"slot"`
	Title     string `json:"title" db:"title"`
	Subtitle  string `json:"subtitle" db:"subtitle"`
	LinkLabel string `json:"link_label" db:"link_label"`
	LinkURL   string `json:"link_url" db:"link_url"`
	IsActive  bool   `json:"is_active" db:"is_active"`
}

// AfterburnerActivity overrides the default config of one Afterburner card.
type AfterburnerActivity struct {
	ID          string `json:"id" db:"id"`
	ModuleID    string `json:"module_id" db:"module_id"`
	Slot        string `json:"slot" db:"slot"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Goal        string `json:"goal" db:"goal"`
	IsActive    bool   `json:"is_active" db:"is_active"`
}

type LiveMeeting struct {
	ID          string    `json:"id" db:"id"`
	ModuleID    string    `json:"module_id" db:"module_id"`
	Title       string    `json:"title" db:"title"`
	MeetingURL  string    `json:"meeting_url" db:"meeting_url"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"` // UTC
	IsActive    bool      `json:"is_active" db:"is_active"`
}

type MeetingSignup struct {
	ID        string    `json:"id" db:"id"`
	MeetingID string    `json:"meeting_id" db:"meeting_id"`
	ModuleID  string    `json:"module_id" db:"module_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}
