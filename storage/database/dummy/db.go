// Package dummydb is an in-memory implementation of the storage
// repositories, for tests.
package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/flashcards"
	"github.com/foreignlabs/foreign/core/stages"
	"github.com/foreignlabs/foreign/core/user"
)

type (
	DB struct {
		user      *userTable
		course    *courseTable
		stage     *stageTable
		flashcard *flashcardTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		courses     map[string]*course.Course
		modules     map[string]*course.Module
		enrollments map[string]*course.Enrollment
		tasks       map[string]*course.LaunchPadTask
		activities  map[string]*course.FlightDeckActivity
		cards       map[string]*course.AfterburnerActivity
		meetings    map[string]*course.LiveMeeting
		signups     map[string]*course.MeetingSignup
	}

	stageTable struct {
		sync.RWMutex
		table map[string]*stages.StageProgress
	}

	flashcardTable struct {
		sync.RWMutex
		// txMu serializes review transactions the way the row lock taken by
		// the SQL implementation does.
		txMu     sync.Mutex
		games    map[string]*flashcards.Game
		cards    map[string]*flashcards.Card
		progress map[string]*flashcards.Progress
		logs     map[string]*flashcards.ReviewLog
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			courses:     make(map[string]*course.Course),
			modules:     make(map[string]*course.Module),
			enrollments: make(map[string]*course.Enrollment),
			tasks:       make(map[string]*course.LaunchPadTask),
			activities:  make(map[string]*course.FlightDeckActivity),
			cards:       make(map[string]*course.AfterburnerActivity),
			meetings:    make(map[string]*course.LiveMeeting),
			signups:     make(map[string]*course.MeetingSignup),
		},
		stage:     &stageTable{table: make(map[string]*stages.StageProgress)},
		flashcard: &flashcardTable{games: make(map[string]*flashcards.Game), cards: make(map[string]*flashcards.Card), progress: make(map[string]*flashcards.Progress), logs: make(map[string]*flashcards.ReviewLog)},
	}
	return db, nil
}

func newPK() string {
	return uuid.New().String()
}
