package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foreignlabs/foreign/core/course"
	"github.com/foreignlabs/foreign/core/user"
	dummydb "github.com/foreignlabs/foreign/storage/database/dummy"
)

func setup(t *testing.T) (*commandLine, *dummydb.DB) {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	return &commandLine{
		usrRepo: dummydb.NewUserRepository(db),
		crsSvc:  course.NewService(dummydb.NewCourseRepository(db)),
	}, db
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, err)
				} else if tt.wantErrStr != "" {
					assert.EqualError(t, err, tt.wantErrStr)
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addLearner(t *testing.T) {
	cli, _ := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addlearner"}, wantErr: errHelp},
		{name: "args but no password", args: []string{"addlearner", "-name", "Awe Lol", "-username", "awelol", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "ok", args: []string{"addlearner", "-name", "Awe Lol", "-username", "awelol", "-email", "awe@test.cd"}, extra: extra{pwd: "mdr"}},
		{name: "duplicate username", args: []string{"addlearner", "-name", "Awe Lol", "-username", "awelol", "-email", "other@test.cd"}, extra: extra{pwd: "mdr"}, wantErr: user.ErrUsernameExists},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			usr, err := cli.usrRepo.GetUserByUsernameOrEmail(context.Background(), "awelol")
			require.NoError(t, err)
			assert.True(t, usr.IsLearner())
			assert.False(t, usr.IsStaff())
			require.NotNil(t, usr.IsActive)
			assert.True(t, *usr.IsActive)
			assert.NoError(t, usr.CheckPassword("mdr"))
		})
	}
}

func Test_commandLine_enroll(t *testing.T) {
	cli, db := setup(t)

	crsRepo := dummydb.NewCourseRepository(db)
	crs := crsRepo.SeedCourse(course.Course{Slug: "mission-french", Title: "Mission French", IsPublished: true})

	usr := user.User{Name: "Awe Lol", Username: "awelol", Email: "awe@test.cd", Roles: user.LearnerRoles}
	usr.SetActive(true)
	usr, err := cli.usrRepo.CreateUser(context.Background(), usr)
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no args", args: []string{"enroll"}, wantErr: errHelp},
		{name: "missing course", args: []string{"enroll", "-username", "awelol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"enroll", "-username", "ghost", "-course", "mission-french"}, wantErr: user.ErrNotFound},
		{name: "course not found", args: []string{"enroll", "-username", "awelol", "-course", "lol"}, wantErr: course.ErrNotFound},
		{name: "ok", args: []string{"enroll", "-username", "awelol", "-course", "mission-french"}},
		{name: "already enrolled", args: []string{"enroll", "-username", "awelol", "-course", "mission-french"}, wantErr: course.ErrAlreadyEnrolled},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)

			enr, err := crsRepo.GetEnrollment(context.Background(), usr.ID, crs.ID)
			require.NoError(t, err)
			assert.Equal(t, course.EnrollmentActive, enr.Status)
		})
	}
}
