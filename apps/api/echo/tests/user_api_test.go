package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/foreignlabs/foreign/apps/api/echo"
	"github.com/foreignlabs/foreign/core/user"
)

func Test_userApi_login(t *testing.T) {
	f := setup(t)
	createUser(t, f.usrRepo, "Awa Diop", "awadiop", "awa@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)
	createUser(t, f.usrRepo, "Gone Girl", "gonegirl", "gone@test.cm", "v3ryS3cur3!", user.LearnerRoles, false)

	tests := []httpTest{
		{
			name:     "empty credentials",
			body:     marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "v3ryS3cur3!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Username: "awadiop", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, LoginRequest{Username: "gonegirl", Password: "v3ryS3cur3!"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "login by username",
			body:     marchallObj(t, LoginRequest{Username: "awadiop", Password: "v3ryS3cur3!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login by email is case-insensitive",
			body:     marchallObj(t, LoginRequest{Username: " AWA@test.cm ", Password: "v3ryS3cur3!"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
			}
		})
	}

	t.Run("login sets lastLogin", func(t *testing.T) {
		usr, err := f.usrSvc.GetByUsernameOrEmail(context.Background(), "awadiop")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_userApi_me(t *testing.T) {
	f := setup(t)
	usr := createUser(t, f.usrRepo, "Awa Diop", "awadiop", "awa@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "token for a deleted user",
			token:    f.getToken(t, user.User{ID: "gone", Username: "gone"}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
		{
			name:     "ok",
			token:    f.getToken(t, usr),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, usr),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	f := setup(t)
	usr := createUser(t, f.usrRepo, "Awa Diop", "awadiop", "awa@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)
	inactive := createUser(t, f.usrRepo, "Gone Girl", "gonegirl", "gone@test.cm", "v3ryS3cur3!", user.LearnerRoles, false)

	staleIat := time.Now().Add(-f.conf.Server.JWTRefreshExpirationDelta - time.Hour).Unix()
	staleToken, err := GenerateToken(f.conf, GetUserClaims(f.conf, usr, staleIat))
	require.NoError(t, err)

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "refresh window expired",
			token:    staleToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{
			name:     "deactivated account",
			token:    f.getToken(t, inactive),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "ok",
			token:    f.getToken(t, usr),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func Test_userApi_register(t *testing.T) {
	f := setup(t)
	admin := createUser(t, f.usrRepo, "Root", "rootadmin", "root@test.cm", "v3ryS3cur3!", user.AdminRoles, true)
	learner := createUser(t, f.usrRepo, "Awa Diop", "awadiop", "awa@test.cm", "v3ryS3cur3!", user.LearnerRoles, true)

	newUser := user.NewUser{
		Name:            "New Learner",
		Username:        "newlearner",
		Email:           "new@test.cm",
		Password:        "v3ryS3cur3!",
		PasswordConfirm: "v3ryS3cur3!",
	}

	tests := []httpTest{
		{
			name:     "no token",
			body:     marchallObj(t, newUser),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "learners cannot register users",
			token:    f.getToken(t, learner),
			body:     marchallObj(t, newUser),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "weak password",
			token:    f.getToken(t, admin),
			body:     marchallObj(t, user.NewUser{Name: "N", Username: "newlearner", Password: "weak", PasswordConfirm: "weak"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "duplicate username",
			token:    f.getToken(t, admin),
			body:     marchallObj(t, user.NewUser{Name: "Copy Cat", Username: "awadiop", Password: "v3ryS3cur3!", PasswordConfirm: "v3ryS3cur3!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name:     "ok",
			token:    f.getToken(t, admin),
			body:     marchallObj(t, newUser),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", tt.token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var created user.User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
				assert.NotEmpty(t, created.ID)
				assert.Equal(t, []string{user.RoleLearner}, created.Roles)
			}
		})
	}
}
