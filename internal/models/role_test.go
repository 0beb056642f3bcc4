package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Tiers(t *testing.T) {
	ordered := []Role{RoleFree, RoleBasicUser, RoleDirectUser, RoleDistributorRep, RoleRSM, RoleAdmin}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Tier(), ordered[i-1].Tier(), "%s must rank above %s", ordered[i], ordered[i-1])
		assert.True(t, ordered[i].AtLeast(ordered[i-1]))
		assert.False(t, ordered[i-1].AtLeast(ordered[i]))
	}
}

func TestRole_Unknown(t *testing.T) {
	r := Role("SUPERUSER")
	assert.False(t, r.Valid())
	assert.Equal(t, -1, r.Tier())
	assert.False(t, r.AtLeast(RoleFree))
	assert.False(t, r.IsPaid())
}

func TestRole_IsPaid(t *testing.T) {
	assert.False(t, RoleFree.IsPaid())
	assert.True(t, RoleBasicUser.IsPaid())
	assert.True(t, RoleAdmin.IsPaid())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("RSM")
	require.NoError(t, err)
	assert.Equal(t, RoleRSM, r)

	_, err = ParseRole("rsm")
	require.Error(t, err)
}

func TestUsersFilter_Offset(t *testing.T) {
	assert.Equal(t, 0, UsersFilter{Page: 0, Limit: 20}.Offset())
	assert.Equal(t, 0, UsersFilter{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, UsersFilter{Page: 3, Limit: 20}.Offset())
}
