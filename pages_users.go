// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/table"
	"github.com/SergeyMarcum/crm-app/pkg/validation"
)

// entityRoutes lists the CRUD screen sets in menu order.
func (a *App) entityRoutes() []routeSet {
	return []routeSet{
		userPages(),
		objectPages(),
		objectTypePages(),
		parameterPages(),
		taskPages(),
		nonCompliancePages(),
		instructionPages(),
	}
}

// nestedTable renders rows as a plain table inside a detail page.
func nestedTable(columns []table.Column, rows []table.Row) *table.View {
	v := (&table.Table{Columns: columns}).Render(rows, nil, table.Options{})
	return &v
}

func formText(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

func userPages() *entityPages[api.User, api.UserInput] {
	return &entityPages[api.User, api.UserInput]{
		spec:     usersTable,
		singular: "user",
		write:    adminOnly,
		resource: (*api.Client).Users,
		id:       func(u api.User) int { return u.ID },
		title: func(u api.User) string {
			if u.Name != "" {
				return u.Name
			}
			return u.Email
		},
		toInput: func(u api.User) api.UserInput {
			return api.UserInput{Email: u.Email, Name: u.Name, Phone: u.Phone, RoleID: u.RoleID}
		},
		parse: func(r *http.Request) api.UserInput {
			return api.UserInput{
				Email:    formText(r, "email"),
				Name:     formText(r, "name"),
				Phone:    formText(r, "phone"),
				RoleID:   formInt(r, "role_id"),
				Password: r.FormValue("password"),
			}
		},
		validate: validation.ValidateUser,
		fields:   userFields,
		detail:   userDetail,
	}
}

func userFields(_ context.Context, _ *App, _ api.Credentials, in api.UserInput, creating bool) ([]formField, error) {
	password := formField{Name: "password", Label: "Password", Type: "password", Required: creating}
	if !creating {
		password.Help = "Leave blank to keep the current password."
	}
	return []formField{
		{Name: "email", Label: "Email", Type: "email", Value: in.Email, Required: true},
		{Name: "name", Label: "Full name", Type: "text", Value: in.Name, Required: true},
		{Name: "phone", Label: "Phone", Type: "tel", Value: in.Phone},
		{Name: "role_id", Label: "Role", Type: "select", Options: roleOptions(in.RoleID), Required: true},
		password,
	}, nil
}

func userDetail(ctx context.Context, a *App, u *auth.User, item api.User) (detailView, error) {
	tasks, err := a.tasks(ctx, credsOf(u))
	if err != nil {
		return detailView{}, err
	}
	var rows []table.Row
	for _, t := range tasks {
		if t.UserID == item.ID {
			rows = append(rows, taskRow(t))
		}
	}

	return detailView{
		Fields: []detailField{
			{Label: "Email", Value: item.Email},
			{Label: "Name", Value: item.Name},
			{Label: "Phone", Value: item.Phone},
			{Label: "Role", Value: auth.Role(item.RoleID).String()},
			{Label: "Domain", Value: item.Domain},
			{Label: "Created", Value: dateOnly(item.CreatedAt)},
		},
		Sections: []detailSection{{
			Title: "Assigned tasks",
			Table: nestedTable(taskColumns(u), rows),
		}},
	}, nil
}
