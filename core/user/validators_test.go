package user

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreignlabs/foreign/core"
)

// uniqueSvcStub satisfies ServiceInterface so NewUser.Validate can run its
// uniqueness check without a backing store.
type uniqueSvcStub struct{ err error }

var _ ServiceInterface = (*uniqueSvcStub)(nil) // interface compliance check

func (s *uniqueSvcStub) CheckUniqueness(uname, email string) error { return s.err }
func (s *uniqueSvcStub) Create(ctx context.Context, nu NewUser) (User, error) {
	return User{}, nil
}
func (s *uniqueSvcStub) GetByID(ctx context.Context, id string) (User, error) { return User{}, nil }
func (s *uniqueSvcStub) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return User{}, nil
}
func (s *uniqueSvcStub) SetLastLogin(ctx context.Context, usr User) (User, error) {
	return User{}, nil
}

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, found := uni.GetTranslator(_en.Locale())
	require.True(t, found)

	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewUser_Validate(t *testing.T) {
	validate := newTestValidator(t)
	svc := &uniqueSvcStub{}

	valid := NewUser{
		Name:            "Awa Diop",
		Username:        "awadiop",
		Email:           "awa@test.cm",
		Password:        "v3ryS3cur3!",
		PasswordConfirm: "v3ryS3cur3!",
	}

	tests := []struct {
		name    string
		mutate  func(nu *NewUser)
		wantTag string
	}{
		{name: "valid"},
		{
			name:    "name is required",
			mutate:  func(nu *NewUser) { nu.Name = "" },
			wantTag: "required",
		},
		{
			name: "one of username or email is required",
			mutate: func(nu *NewUser) {
				nu.Username = ""
				nu.Email = ""
			},
			wantTag: usernameOrEmailTag,
		},
		{
			name:    "username too short",
			mutate:  func(nu *NewUser) { nu.Username = "awa" },
			wantTag: "min",
		},
		{
			name:    "username with punctuation",
			mutate:  func(nu *NewUser) { nu.Username = "awa.diop!" },
			wantTag: "alphanum_",
		},
		{
			name:    "username with inner whitespace",
			mutate:  func(nu *NewUser) { nu.Username = "awa diop" },
			wantTag: "alphanum_",
		},
		{
			name:    "malformed email",
			mutate:  func(nu *NewUser) { nu.Email = "not-an-email" },
			wantTag: "email",
		},
		{
			name:    "password confirmation mismatch",
			mutate:  func(nu *NewUser) { nu.PasswordConfirm = "s0methingElse!" },
			wantTag: "eqfield",
		},
		{
			name:    "unknown role",
			mutate:  func(nu *NewUser) { nu.Roles = []string{"pilot:"} },
			wantTag: allRolesTag,
		},
		{
			name: "password too short",
			mutate: func(nu *NewUser) {
				nu.Password = "aB1!"
				nu.PasswordConfirm = "aB1!"
			},
			wantTag: pwdMinLenTag,
		},
		{
			name: "password with whitespace",
			mutate: func(nu *NewUser) {
				nu.Password = "aB1! aB1!"
				nu.PasswordConfirm = "aB1! aB1!"
			},
			wantTag: pwdNoSpaceTag,
		},
		{
			name: "all-numeric password",
			mutate: func(nu *NewUser) {
				nu.Password = "12345678"
				nu.PasswordConfirm = "12345678"
			},
			wantTag: pwdNotAllNumTag,
		},
		{
			name: "password lacking complexity",
			mutate: func(nu *NewUser) {
				nu.Password = "abcdefgh"
				nu.PasswordConfirm = "abcdefgh"
			},
			wantTag: pwdComplexityTag,
		},
		{
			name: "password too similar to username",
			mutate: func(nu *NewUser) {
				nu.Password = "Awadiop1!"
				nu.PasswordConfirm = "Awadiop1!"
			},
			wantTag: pwdAttrSimTag,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid
			if tt.mutate != nil {
				tt.mutate(&nu)
			}

			err := nu.Validate(validate, svc)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}

			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			tags := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				tags = append(tags, fe.Tag())
			}
			assert.Contains(t, tags, tt.wantTag)
		})
	}
}

func TestNewUser_Validate_cleansInput(t *testing.T) {
	validate := newTestValidator(t)

	nu := NewUser{
		Name:            "  Awa Diop ",
		Username:        " AwaDiop ",
		Email:           " AWA@Test.cm ",
		Password:        "v3ryS3cur3!",
		PasswordConfirm: "v3ryS3cur3!",
	}
	require.NoError(t, nu.Validate(validate, &uniqueSvcStub{}))

	assert.Equal(t, "Awa Diop", nu.Name)
	assert.Equal(t, "awadiop", nu.Username)
	assert.Equal(t, "awa@test.cm", nu.Email)
}

func TestNewUser_Validate_uniquenessFailureSurfaces(t *testing.T) {
	validate := newTestValidator(t)
	svc := &uniqueSvcStub{err: core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})}

	nu := NewUser{
		Name:            "Awa Diop",
		Username:        "awadiop",
		Password:        "v3ryS3cur3!",
		PasswordConfirm: "v3ryS3cur3!",
	}
	err := nu.Validate(validate, svc)

	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, vErr.Err, ErrUsernameExists)
}
