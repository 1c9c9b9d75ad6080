package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/foreignlabs/foreign/apps/api/echo"
	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/flashcards"
	"github.com/foreignlabs/foreign/core/stages"
	"github.com/foreignlabs/foreign/core/user"
)

type curriculum struct {
	crs     course.Course
	mod1    course.Module
	mod2    course.Module
	meeting course.LiveMeeting
	game    flashcards.Game
	cards   []flashcards.Card
}

func seedCurriculum(t *testing.T, f *fixture, withGame bool) curriculum {
	t.Helper()

	crs := f.crsRepo.SeedCourse(course.Course{Slug: "mission-french", Title: "Mission French", IsPublished: true})
	mod1 := f.crsRepo.SeedModule(course.Module{CourseID: crs.ID, Title: "Week 1", Order: 1})
	mod2 := f.crsRepo.SeedModule(course.Module{CourseID: crs.ID, Title: "Week 2", Order: 2})
	meeting := f.crsRepo.SeedMeeting(course.LiveMeeting{ModuleID: mod1.ID, Title: "Live studio", IsActive: true})

	cur := curriculum{crs: crs, mod1: mod1, mod2: mod2, meeting: meeting}
	if withGame {
		cur.game = f.cardRepo.SeedGame(flashcards.Game{ModuleID: mod1.ID, Title: "Vocab blast", GameType: flashcards.GameTypeAdaptiveFlashcards, IsActive: true})
		for i, word := range []string{"bonjour", "merci", "fusée"} {
			card := f.cardRepo.SeedCard(flashcards.Card{GameID: cur.game.ID, Word: word, Definition: "def", IsActive: true, Order: i + 1})
			cur.cards = append(cur.cards, card)
		}
	}
	return cur
}

// unlockAfterburner completes the Launch Pad checklist and the Flight Deck
// slots for the module, opening its flashcard endpoints.
func unlockAfterburner(t *testing.T, f *fixture, usr user.User, cur curriculum) {
	t.Helper()
	ctx := context.Background()

	_, specs, err := f.stageSvc.Tasks(ctx, usr.ID, cur.mod1, stages.StageLaunchPad)
	require.NoError(t, err)
	for i := range specs {
		_, err = f.stageSvc.Toggle(ctx, usr, cur.mod1, stages.StageLaunchPad, i, true)
		require.NoError(t, err)
	}

	_, err = f.crsSvc.SignupForMeeting(ctx, usr, cur.mod1, cur.meeting.ID)
	require.NoError(t, err)
	_, specs, err = f.stageSvc.Tasks(ctx, usr.ID, cur.mod1, stages.StageFlightDeck)
	require.NoError(t, err)
	for i, spec := range specs {
		if spec.Kind == stages.TaskDerived {
			continue
		}
		_, err = f.stageSvc.Toggle(ctx, usr, cur.mod1, stages.StageFlightDeck, i, true)
		require.NoError(t, err)
	}
}

func enrollLearner(t *testing.T, f *fixture, crs course.Course) user.User {
	t.Helper()

	usr := createUser(t, f.usrRepo, "Awa Diop", "awadiop", "awa@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)
	_, err := f.crsSvc.Enroll(context.Background(), usr, crs)
	require.NoError(t, err)
	return usr
}

func modulePath(cur curriculum, moduleID, suffix string) string {
	return fmt.Sprintf("/v1/courses/%s/modules/%s%s", cur.crs.Slug, moduleID, suffix)
}

func Test_courseApi_query(t *testing.T) {
	f := setup(t)
	cur := seedCurriculum(t, f, false)
	f.crsRepo.SeedCourse(course.Course{Slug: "drafts-only", Title: "Drafts Only"}) // unpublished
	usr := createUser(t, f.usrRepo, "Awa Diop", "awadiop", "awa@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "only published courses are listed",
			token:    f.getToken(t, usr),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []course.Course{cur.crs}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/courses", tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_retrieve(t *testing.T) {
	f := setup(t)
	cur := seedCurriculum(t, f, false)
	usr := createUser(t, f.usrRepo, "Awa Diop", "awadiop", "awa@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)

	tests := []httpTest{
		{
			name:     "unknown course",
			path:     "/v1/courses/mission-klingon",
			token:    f.getToken(t, usr),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()}),
		},
		{
			name:     "modules come ordered by week",
			path:     "/v1/courses/mission-french",
			token:    f.getToken(t, usr),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, CourseDetailResponse{Course: cur.crs, Modules: []course.Module{cur.mod1, cur.mod2}}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_stageOverview(t *testing.T) {
	f := setup(t)
	cur := seedCurriculum(t, f, false)
	otherCrs := f.crsRepo.SeedCourse(course.Course{Slug: "mission-wolof", Title: "Mission Wolof", IsPublished: true})
	otherMod := f.crsRepo.SeedModule(course.Module{CourseID: otherCrs.ID, Title: "Week 1", Order: 1})

	learner := enrollLearner(t, f, cur.crs)
	outsider := createUser(t, f.usrRepo, "Out Sider", "outsider", "out@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)
	coach := createUser(t, f.usrRepo, "Coach Carter", "coachcarter", "coach@test.cm", "v3ryS3cur3!", user.CoachRoles, true)

	tests := []httpTest{
		{
			name:     "no token",
			path:     modulePath(cur, cur.mod1.ID, "/stages"),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "module of another course",
			path:     modulePath(cur, otherMod.ID, "/stages"),
			token:    f.getToken(t, learner),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: course.ErrModuleNotFound.Error()}),
		},
		{
			name:     "not enrolled",
			path:     modulePath(cur, cur.mod1.ID, "/stages"),
			token:    f.getToken(t, outsider),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "staff need no enrollment",
			path:     modulePath(cur, cur.mod1.ID, "/stages"),
			token:    f.getToken(t, coach),
			wantCode: http.StatusOK,
		},
		{
			name:     "later module is locked",
			path:     modulePath(cur, cur.mod2.ID, "/stages"),
			token:    f.getToken(t, learner),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "module is locked"}),
		},
		{
			name:     "fresh module overview",
			path:     modulePath(cur, cur.mod1.ID, "/stages"),
			token:    f.getToken(t, learner),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "fresh module overview" {
				var ov stages.Overview
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ov))
				assert.Equal(t, cur.mod1.ID, ov.ModuleID)
				assert.True(t, ov.ModuleUnlocked)
				require.Len(t, ov.Stages, 3)
				assert.True(t, ov.Stages[0].Unlocked)  // launch pad opens with the module
				assert.False(t, ov.Stages[1].Unlocked) // flight deck waits on launch pad
				assert.False(t, ov.Stages[2].Unlocked)
				assert.Len(t, ov.Stages[0].Tasks, 6)
			}
		})
	}
}

func Test_courseApi_toggleTask(t *testing.T) {
	f := setup(t)
	cur := seedCurriculum(t, f, false)
	learner := enrollLearner(t, f, cur.crs)
	token := f.getToken(t, learner)

	done := marchallObj(t, ToggleRequest{Done: true})

	tests := []httpTest{
		{
			name:     "unknown stage",
			path:     modulePath(cur, cur.mod1.ID, "/stages/warp-drive/tasks/0/toggle"),
			body:     done,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: stages.ErrUnknownStage.Error()}),
		},
		{
			name:     "non-numeric index",
			path:     modulePath(cur, cur.mod1.ID, "/stages/launch-pad/tasks/first/toggle"),
			body:     done,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: stages.ErrTaskNotFound.Error()}),
		},
		{
			name:     "index out of range",
			path:     modulePath(cur, cur.mod1.ID, "/stages/launch-pad/tasks/99/toggle"),
			body:     done,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: stages.ErrTaskNotFound.Error()}),
		},
		{
			name:     "locked stage rejects toggles",
			path:     modulePath(cur, cur.mod1.ID, "/stages/flight-deck/tasks/1/toggle"),
			body:     done,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: stages.ErrStageLocked.Error()}),
		},
		{
			name:     "first task checked",
			path:     modulePath(cur, cur.mod1.ID, "/stages/launch-pad/tasks/0/toggle"),
			body:     done,
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "first task checked" {
				var resp ToggleResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.True(t, resp.Completed)
				assert.Equal(t, 1, resp.CompletedCount)
				assert.Equal(t, 6, resp.Required)
				require.Len(t, resp.Tasks, 6)
				assert.Equal(t, []bool{true, false, false, false, false, false}, resp.Tasks)
				assert.Equal(t, stages.Unlocks{LaunchPad: true}, resp.StageUnlocks)
			}
		})
	}

	t.Run("derived scheduler task cannot be toggled", func(t *testing.T) {
		unlockAfterburner(t, f, learner, cur)

		req, rec := newAuthRequest(http.MethodPost, modulePath(cur, cur.mod1.ID, "/stages/flight-deck/tasks/0/toggle"), token, marchallObj(t, ToggleRequest{Done: false}))
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: stages.ErrDerivedToggle.Error()}),
		}, rec)
	})
}

func Test_courseApi_flashcardQueue(t *testing.T) {
	t.Run("locked before afterburner", func(t *testing.T) {
		f := setup(t)
		cur := seedCurriculum(t, f, true)
		learner := enrollLearner(t, f, cur.crs)

		req, rec := newAuthRequest(http.MethodGet, modulePath(cur, cur.mod1.ID, "/flashcards/queue"), f.getToken(t, learner))
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "stage is locked"}),
		}, rec)
	})

	t.Run("no game configured", func(t *testing.T) {
		f := setup(t)
		cur := seedCurriculum(t, f, false)
		learner := enrollLearner(t, f, cur.crs)
		unlockAfterburner(t, f, learner, cur)

		req, rec := newAuthRequest(http.MethodGet, modulePath(cur, cur.mod1.ID, "/flashcards/queue"), f.getToken(t, learner))
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: flashcards.ErrGameNotFound.Error()}),
		}, rec)
	})

	t.Run("full deck due on first visit", func(t *testing.T) {
		f := setup(t)
		cur := seedCurriculum(t, f, true)
		learner := enrollLearner(t, f, cur.crs)
		unlockAfterburner(t, f, learner, cur)

		req, rec := newAuthRequest(http.MethodGet, modulePath(cur, cur.mod1.ID, "/flashcards/queue"), f.getToken(t, learner))
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var queue flashcards.Queue
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
		assert.Len(t, queue.Cards, 3)
		assert.Equal(t, 3, queue.Meta.TotalDue)
		assert.Equal(t, 3, queue.Meta.TotalActive)
	})
}

func Test_courseApi_logReview(t *testing.T) {
	f := setup(t)
	cur := seedCurriculum(t, f, true)
	learner := enrollLearner(t, f, cur.crs)
	unlockAfterburner(t, f, learner, cur)
	token := f.getToken(t, learner)

	// a play session starts by pulling the queue
	_, err := f.cardSvc.BuildQueue(context.Background(), learner.ID, cur.mod1.ID)
	require.NoError(t, err)

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     marchallObj(t, flashcards.ReviewEntry{}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad outcome",
			body:     marchallObj(t, flashcards.ReviewEntry{CardID: "whatever", Outcome: "maybe"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown card",
			body:     marchallObj(t, flashcards.ReviewEntry{CardID: "ghost", Outcome: flashcards.OutcomeKnew}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: flashcards.ErrCardNotFound.Error()}),
		},
		{
			name: "correct answer climbs the ladder",
			body: marchallObj(t, flashcards.ReviewEntry{
				CardID:        cur.cards[0].ID,
				Outcome:       flashcards.OutcomeKnew,
				TimeSpentMs:   2300,
				PointsAwarded: 10,
			}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, modulePath(cur, cur.mod1.ID, "/flashcards/log"), token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LogReviewResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, 1, resp.Progress.IntervalIndex)
				assert.Equal(t, 1, resp.Progress.CorrectStreak)
				assert.Equal(t, 10, resp.Progress.TotalPoints)
				assert.Equal(t, 2, resp.RemainingDue)
			}
		})
	}
}

func Test_courseApi_meetingSignup(t *testing.T) {
	f := setup(t)
	cur := seedCurriculum(t, f, false)
	learner := enrollLearner(t, f, cur.crs)
	token := f.getToken(t, learner)

	signupPath := modulePath(cur, cur.mod1.ID, "/meetings/"+cur.meeting.ID+"/signup")

	t.Run("unknown meeting", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, modulePath(cur, cur.mod1.ID, "/meetings/ghost/signup"), token)
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: course.ErrMeetingNotFound.Error()}),
		}, rec)
	})

	var first course.MeetingSignup
	t.Run("signup", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, signupPath, token)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
		assert.Equal(t, learner.ID, first.UserID)
		assert.Equal(t, cur.meeting.ID, first.MeetingID)
	})

	t.Run("signup is idempotent", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, signupPath, token)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var again course.MeetingSignup
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("cancel", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, signupPath, token)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		has, err := f.crsSvc.HasMeetingSignup(context.Background(), learner.ID, cur.mod1.ID)
		require.NoError(t, err)
		assert.False(t, has)
	})
}
