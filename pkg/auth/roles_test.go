// Copyright (C) 2025 Joshua Goldstein

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleString(t *testing.T) {
	assert.Equal(t, "Administrator", RoleAdmin.String())
	assert.Equal(t, "Master", RoleMaster.String())
	assert.Equal(t, "Operator", RoleOperator.String())
	assert.Equal(t, "Role 9", Role(9).String())
}

func TestRoleValid(t *testing.T) {
	for _, r := range AllRoles {
		assert.True(t, r.Valid(), r.String())
	}
	assert.False(t, Role(0).Valid())
	assert.False(t, Role(4).Valid())
}

func TestRolesAllows(t *testing.T) {
	adminMaster := Roles{RoleAdmin, RoleMaster}

	assert.True(t, adminMaster.Allows(RoleAdmin))
	assert.True(t, adminMaster.Allows(RoleMaster))
	assert.False(t, adminMaster.Allows(RoleOperator))
	assert.False(t, adminMaster.Allows(Role(0)))

	var open Roles
	for _, r := range append(Roles{Role(42)}, AllRoles...) {
		assert.True(t, open.Allows(r), "empty allow-list admits %v", r)
	}
}
