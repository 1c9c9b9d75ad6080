package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_roles(t *testing.T) {
	tests := []struct {
		name                               string
		roles                              []string
		isAdmin, isCoach, isLearner, staff bool
	}{
		{name: "no roles"},
		{name: "learner", roles: LearnerRoles, isLearner: true},
		{name: "coach", roles: CoachRoles, isCoach: true, staff: true},
		{name: "admin", roles: AdminRoles, isAdmin: true, staff: true},
		{name: "owner", roles: []string{RoleAdminOwner}, isAdmin: true, staff: true},
		{name: "coach and learner", roles: []string{RoleCoach, RoleLearner}, isCoach: true, isLearner: true, staff: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := User{Roles: tt.roles}
			assert.Equal(t, tt.isAdmin, usr.IsAdmin())
			assert.Equal(t, tt.isCoach, usr.IsCoach())
			assert.Equal(t, tt.isLearner, usr.IsLearner())
			assert.Equal(t, tt.staff, usr.IsStaff())
		})
	}
}

func TestUser_password(t *testing.T) {
	var usr User
	assert.Error(t, usr.CheckPassword("anything")) // no hash set yet

	assert.NoError(t, usr.SetPassword("s3cret pa55!"))
	assert.NoError(t, usr.CheckPassword("s3cret pa55!"))
	assert.Error(t, usr.CheckPassword("S3cret pa55!"))
}

func TestUser_SetActive(t *testing.T) {
	var usr User
	assert.Nil(t, usr.IsActive)

	usr.SetActive(true)
	assert.True(t, *usr.IsActive)

	usr.SetActive(false)
	assert.False(t, *usr.IsActive)
}
