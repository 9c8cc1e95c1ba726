package user_test

import (
	"testing"

	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/stretchr/testify/assert"
)

func TestToggle_KeepsFlagsInSync(t *testing.T) {
	t.Parallel()
	u := user.User{IsActive: true}
	u.Toggle()
	assert.False(t, u.IsActive)
	assert.True(t, u.IsDeactivated)
	u.Toggle()
	assert.True(t, u.IsActive)
	assert.False(t, u.IsDeactivated)
}

func TestCountActive_DeactivatedNeverCounts(t *testing.T) {
	t.Parallel()
	users := []user.User{
		{IsActive: true},
		{IsActive: true, IsDeactivated: true},
		{IsActive: false},
	}
	assert.Equal(t, 1, user.CountActive(users))

	admins := []user.Admin{{User: user.User{IsActive: true}}}
	assert.Equal(t, 1, user.CountActive(admins))
}

func TestUpdateAdminRequest_Apply(t *testing.T) {
	t.Parallel()
	a := user.Admin{User: user.User{Name: "Old", Role: user.RoleAdmin}, Permissions: []string{"read"}}
	name := "New"
	user.UpdateAdminRequest{Name: &name}.Apply(&a)
	assert.Equal(t, "New", a.Name)
	assert.Equal(t, user.RoleAdmin, a.Role)
	assert.Equal(t, []string{"read"}, a.Permissions)
}

func TestCreateAdminRequest_Validate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, user.CreateAdminRequest{Email: "a@chapa.co", Name: "A", Role: user.RoleAdmin}.Validate())
	assert.Error(t, user.CreateAdminRequest{Email: "a@chapa.co", Name: "A", Role: user.RoleUser}.Validate())
}
