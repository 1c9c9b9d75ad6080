package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	. "github.com/foreignlabs/foreign/apps/api/echo"
	"github.com/foreignlabs/foreign/core"
	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/flashcards"
	"github.com/foreignlabs/foreign/core/stages"
	"github.com/foreignlabs/foreign/core/user"
	logsvc "github.com/foreignlabs/foreign/services/logger"
	dummydb "github.com/foreignlabs/foreign/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	conf      *core.Config
	app       Server
	usrRepo   user.Repository
	crsRepo   *dummydb.CourseRepository
	stageRepo *dummydb.StageRepository
	cardRepo  *dummydb.FlashcardRepository
	usrSvc    *user.Service
	crsSvc    *course.Service
	stageSvc  *stages.Service
	cardSvc   *flashcards.Service
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Foreign",
		SecretKey: []byte("secret"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := newTestConfig()

	// repos
	usrRepo := dummydb.NewUserRepository(db)
	crsRepo := dummydb.NewCourseRepository(db)
	stageRepo := dummydb.NewStageRepository(db)
	cardRepo := dummydb.NewFlashcardRepository(db)

	// services
	usrSvc := user.NewService(usrRepo)
	crsSvc := course.NewService(crsRepo)
	stageSvc := stages.NewService(stageRepo, crsSvc)
	cardSvc := flashcards.NewService(cardRepo)

	// validators
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, found := uni.GetTranslator(_en.Locale())
	require.True(t, found)
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)

	app := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		CourseSvc:  crsSvc,
		StageSvc:   stageSvc,
		CardSvc:    cardSvc,
		Validate:   validate,
		Translator: translator,
	})

	return &fixture{
		conf:      conf,
		app:       app,
		usrRepo:   usrRepo,
		crsRepo:   crsRepo,
		stageRepo: stageRepo,
		cardRepo:  cardRepo,
		usrSvc:    usrSvc,
		crsSvc:    crsSvc,
		stageSvc:  stageSvc,
		cardSvc:   cardSvc,
	}
}

func createUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		require.NoError(t, usr.SetPassword(pwd))
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

func (f *fixture) getToken(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(f.conf, GetUserClaims(f.conf, usr))
	require.NoError(t, err)
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %s; wantData %s", rec.Body.Bytes(), tt.wantData)
	}
}
