// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/session"
	"github.com/SergeyMarcum/crm-app/pkg/table"
	"github.com/SergeyMarcum/crm-app/pkg/template"
)

// Route allow-lists.
var (
	anyRole    auth.Roles
	adminOnly  = auth.Roles{auth.RoleAdmin}
	writeRoles = auth.Roles{auth.RoleAdmin, auth.RoleMaster}
)

type section struct {
	Label string
	Href  string
	Roles auth.Roles
}

// sections is the navigation menu in display order.
var sections = []section{
	{Label: "Dashboard", Href: "/", Roles: anyRole},
	{Label: "Users", Href: "/users", Roles: adminOnly},
	{Label: "Objects", Href: "/objects", Roles: writeRoles},
	{Label: "Object types", Href: "/object-types", Roles: adminOnly},
	{Label: "Parameters", Href: "/parameters", Roles: adminOnly},
	{Label: "Tasks", Href: "/tasks", Roles: anyRole},
	{Label: "Calendar", Href: "/calendar", Roles: anyRole},
	{Label: "Non-compliance", Href: "/non-compliance", Roles: writeRoles},
	{Label: "Instructions", Href: "/instructions", Roles: anyRole},
}

type navItem struct {
	Label  string
	Href   string
	Active bool
}

// navFor returns the menu entries u may open, marking the one containing path.
func navFor(u *auth.User, path string) []navItem {
	items := make([]navItem, 0, len(sections))
	for _, s := range sections {
		if !s.Roles.Allows(u.Role()) {
			continue
		}
		active := path == s.Href || (s.Href != "/" && strings.HasPrefix(path, s.Href+"/"))
		items = append(items, navItem{Label: s.Label, Href: s.Href, Active: active})
	}
	return items
}

// canOpen reports whether u may open the section at href.
func canOpen(u *auth.User, href string) bool {
	for _, s := range sections {
		if s.Href == href {
			return s.Roles.Allows(u.Role())
		}
	}
	return false
}

// page is the data handed to the base layout.
type page struct {
	Title  string
	User   *auth.User
	Nav    []navItem
	Toasts []session.Toast
	Data   interface{}
}

type action struct {
	Label   string
	Href    string
	Post    bool
	Confirm string
	Danger  bool
}

type listView struct {
	Table        table.View
	Path         string
	NewHref      string
	BulkAction   string
	FilterAction string
	Selectable   bool
}

// SortHref links a column header: first click ascending, second descending.
func (v listView) SortHref(field string) string {
	q := url.Values{}
	q.Set("sort", field)
	if v.Table.Sort == field && !v.Table.Desc {
		q.Set("desc", "1")
	}
	return v.Path + "?" + q.Encode()
}

// PageHref links page n keeping the current sort.
func (v listView) PageHref(n int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(n))
	if v.Table.Sort != "" {
		q.Set("sort", v.Table.Sort)
		if v.Table.Desc {
			q.Set("desc", "1")
		}
	}
	return v.Path + "?" + q.Encode()
}

type detailField struct {
	Label string
	Value string
	Href  string
}

type detailSection struct {
	Title   string
	Actions []action
	Table   *table.View
	Empty   string
}

type detailView struct {
	Fields   []detailField
	Actions  []action
	Sections []detailSection
	BackHref string
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Checked  bool
	Options  []option
	Required bool
	Help     string
	Error    string
}

type formView struct {
	Action     string
	Fields     []formField
	Submit     string
	CancelHref string
	Error      string
}

// withErrors attaches per-field messages and returns the fields.
func withErrors(fields []formField, errs map[string]string) []formField {
	for i := range fields {
		fields[i].Error = errs[fields[i].Name]
	}
	return fields
}

type homeCard struct {
	Label string
	Count string
	Href  string
}

type homeView struct {
	Greeting string
	Cards    []homeCard
}

type errorView struct {
	Message  string
	BackHref string
}

type loginView struct {
	Domains  []api.Domain
	Domain   string
	Username string
	Next     string
	Error    string
	Cooldown int
	Toasts   []session.Toast
}

// selectOptions builds options from id/label pairs, marking selected.
func selectOptions[T any](items []T, id func(T) int, label func(T) string, selected int) []option {
	out := make([]option, 0, len(items))
	for _, it := range items {
		out = append(out, option{
			Value:    strconv.Itoa(id(it)),
			Label:    label(it),
			Selected: id(it) == selected,
		})
	}
	return out
}

// codeOptions builds options from backend codes such as statuses.
func codeOptions(codes []string, selected string) []option {
	out := make([]option, 0, len(codes))
	for _, c := range codes {
		out = append(out, option{Value: c, Label: template.Label(c), Selected: c == selected})
	}
	return out
}

func roleOptions(selected int) []option {
	out := make([]option, 0, len(auth.AllRoles))
	for _, r := range auth.AllRoles {
		out = append(out, option{Value: strconv.Itoa(int(r)), Label: r.String(), Selected: int(r) == selected})
	}
	return out
}
