// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/table"
)

func userWithRole(r auth.Role) *auth.User {
	return &auth.User{ID: 1, Username: "u", RoleID: int(r)}
}

func navLabels(items []navItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestNavFor(t *testing.T) {
	tests := []struct {
		role auth.Role
		want []string
	}{
		{role: auth.RoleAdmin, want: []string{"Dashboard", "Users", "Objects", "Object types", "Parameters", "Tasks", "Calendar", "Non-compliance", "Instructions"}},
		{role: auth.RoleMaster, want: []string{"Dashboard", "Objects", "Tasks", "Calendar", "Non-compliance", "Instructions"}},
		{role: auth.RoleOperator, want: []string{"Dashboard", "Tasks", "Calendar", "Instructions"}},
		{role: auth.Role(9), want: []string{"Dashboard", "Tasks", "Calendar", "Instructions"}},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, navLabels(navFor(userWithRole(tt.role), "/")))
		})
	}
}

func TestNavForMarksActiveSection(t *testing.T) {
	active := func(path string) []string {
		var out []string
		for _, it := range navFor(userWithRole(auth.RoleAdmin), path) {
			if it.Active {
				out = append(out, it.Label)
			}
		}
		return out
	}
	assert.Equal(t, []string{"Dashboard"}, active("/"))
	assert.Equal(t, []string{"Objects"}, active("/objects/10/edit"))
	assert.Equal(t, []string{"Object types"}, active("/object-types"))
	assert.Empty(t, active("/objectsx"))
}

func TestCanOpen(t *testing.T) {
	master := userWithRole(auth.RoleMaster)
	assert.True(t, canOpen(master, "/objects"))
	assert.False(t, canOpen(master, "/users"))
	assert.False(t, canOpen(master, "/nowhere"))
	assert.True(t, canOpen(userWithRole(auth.RoleOperator), "/instructions"))
}

func TestListViewHrefs(t *testing.T) {
	v := listView{Path: "/objects"}
	assert.Equal(t, "/objects?sort=name", v.SortHref("name"))
	assert.Equal(t, "/objects?page=2", v.PageHref(2))

	v.Table = table.View{Sort: "name"}
	assert.Equal(t, "/objects?desc=1&sort=name", v.SortHref("name"))
	assert.Equal(t, "/objects?sort=address", v.SortHref("address"))
	assert.Equal(t, "/objects?page=3&sort=name", v.PageHref(3))

	v.Table.Desc = true
	assert.Equal(t, "/objects?sort=name", v.SortHref("name"))
	assert.Equal(t, "/objects?desc=1&page=1&sort=name", v.PageHref(1))
}

func TestObjectTypeName(t *testing.T) {
	types := map[int]string{1: "Boiler room", 2: ""}
	tests := []struct {
		name string
		obj  api.Object
		want string
	}{
		{name: "text wins", obj: api.Object{ObjectTypeID: 1, ObjectType: "Embedded", ObjectTypeText: " Cold store "}, want: "Cold store"},
		{name: "embedded name", obj: api.Object{ObjectTypeID: 1, ObjectType: "Embedded"}, want: "Embedded"},
		{name: "by id", obj: api.Object{ObjectTypeID: 1, ObjectTypeText: "  "}, want: "Boiler room"},
		{name: "blank name", obj: api.Object{ObjectTypeID: 2}, want: noValue},
		{name: "unknown id", obj: api.Object{ObjectTypeID: 99}, want: noValue},
		{name: "no type", obj: api.Object{}, want: noValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, objectTypeName(tt.obj, types))
		})
	}
}

func TestLookupName(t *testing.T) {
	m := map[int]string{20: "Pressure gauge"}
	assert.Equal(t, "Pressure gauge", lookupName(m, 20))
	assert.Equal(t, noValue, lookupName(m, 21))
	assert.Equal(t, "", lookupName(m, 0))
	assert.Equal(t, noValue, lookupName(nil, 5))
}

func TestRowHelpers(t *testing.T) {
	assert.Equal(t, "2025-03-04", dateOnly("2025-03-04T10:11:12Z"))
	assert.Equal(t, "2025-03", dateOnly("2025-03"))
	assert.Equal(t, "", itoa(0))
	assert.Equal(t, "7", itoa(7))
	assert.Equal(t, "Yes", yesNo(true))

	row := taskRow(api.Task{ID: 5, ObjectID: 10, Status: "in_progress", PlannedAt: "2025-03-04T00:00:00Z"})
	assert.Equal(t, "5", row["id"])
	assert.Equal(t, "", row["user_id"])
	assert.Equal(t, "In Progress", row["status"])
	assert.Equal(t, "2025-03-04", row["planned_at"])
}

func TestOptions(t *testing.T) {
	opts := codeOptions(api.TaskStatuses, "done")
	require.Len(t, opts, len(api.TaskStatuses))
	assert.Equal(t, option{Value: "done", Label: "Done", Selected: true}, opts[2])
	assert.False(t, opts[0].Selected)

	roles := roleOptions(int(auth.RoleMaster))
	assert.Equal(t, []option{
		{Value: "1", Label: "Administrator"},
		{Value: "2", Label: "Master", Selected: true},
		{Value: "3", Label: "Operator"},
	}, roles)
}

func TestWithErrors(t *testing.T) {
	fields := withErrors([]formField{{Name: "name"}, {Name: "address"}}, map[string]string{"name": "is required"})
	assert.Equal(t, "is required", fields[0].Error)
	assert.Empty(t, fields[1].Error)
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"status=active", " name =North=East", "address="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "active", "name": "North=East", "address": ""}, got)

	_, err = parseFilters([]string{"status"})
	assert.ErrorContains(t, err, `invalid filter "status"`)

	_, err = parseFilters([]string{"=x"})
	assert.Error(t, err)
}
