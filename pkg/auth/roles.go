// Copyright (C) 2025 Joshua Goldstein

package auth

import "strconv"

// Role is the backend role_id of a user.
type Role int

const (
	RoleAdmin    Role = 1
	RoleMaster   Role = 2
	RoleOperator Role = 3
)

// AllRoles lists the known roles in display order.
var AllRoles = Roles{RoleAdmin, RoleMaster, RoleOperator}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleMaster:
		return "Master"
	case RoleOperator:
		return "Operator"
	}
	return "Role " + strconv.Itoa(int(r))
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return AllRoles.Contains(r)
}

// Roles is a route allow-list.
type Roles []Role

// Contains reports whether r is listed.
func (rs Roles) Contains(r Role) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

// Allows reports whether a user with role r may pass. An empty list allows
// any authenticated user.
func (rs Roles) Allows(r Role) bool {
	return len(rs) == 0 || rs.Contains(r)
}
