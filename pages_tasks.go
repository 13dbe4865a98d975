// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/table"
	"github.com/SergeyMarcum/crm-app/pkg/template"
	"github.com/SergeyMarcum/crm-app/pkg/validation"
)

func taskPages() *entityPages[api.Task, api.TaskInput] {
	return &entityPages[api.Task, api.TaskInput]{
		spec:     tasksTable,
		singular: "task",
		write:    writeRoles,
		resource: (*api.Client).Tasks,
		id:       func(t api.Task) int { return t.ID },
		title:    func(t api.Task) string { return "Task #" + strconv.Itoa(t.ID) },
		toInput: func(t api.Task) api.TaskInput {
			return api.TaskInput{
				ObjectID:    t.ObjectID,
				UserID:      t.UserID,
				Status:      t.Status,
				PlannedAt:   dateOnly(t.PlannedAt),
				CompletedAt: dateOnly(t.CompletedAt),
				Comment:     t.Comment,
			}
		},
		parse: func(r *http.Request) api.TaskInput {
			return api.TaskInput{
				ObjectID:    formInt(r, "object_id"),
				UserID:      formInt(r, "user_id"),
				Status:      formText(r, "status"),
				PlannedAt:   formText(r, "planned_at"),
				CompletedAt: formText(r, "completed_at"),
				Comment:     formText(r, "comment"),
			}
		},
		validate: func(in api.TaskInput, _ bool) *validation.Validator { return validation.ValidateTask(in) },
		fields:   taskFields,
		detail:   taskDetail,
		prefill: func(r *http.Request) api.TaskInput {
			return api.TaskInput{ObjectID: formInt(r, "object_id"), Status: "new"}
		},
	}
}

// taskFields needs the object and user lists for its selects. Masters
// cannot list users, so a failed user list keeps only the current choice.
func taskFields(ctx context.Context, a *App, creds api.Credentials, in api.TaskInput, _ bool) ([]formField, error) {
	var (
		objects []api.Object
		users   []api.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		objects, err = a.objects(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		users, err = a.users(gctx, creds)
		return reference(err, entityUsers)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	userOpts := selectOptions(users, func(u api.User) int { return u.ID }, func(u api.User) string {
		if u.Name != "" {
			return u.Name
		}
		return u.Email
	}, in.UserID)
	if len(userOpts) == 0 && in.UserID > 0 {
		userOpts = []option{{Value: strconv.Itoa(in.UserID), Label: "User #" + strconv.Itoa(in.UserID), Selected: true}}
	}

	return []formField{
		{Name: "object_id", Label: "Object", Type: "select", Required: true,
			Options: selectOptions(objects, func(o api.Object) int { return o.ID }, func(o api.Object) string { return o.Name }, in.ObjectID)},
		{Name: "user_id", Label: "Assignee", Type: "select", Options: userOpts, Required: true},
		{Name: "status", Label: "Status", Type: "select", Options: codeOptions(api.TaskStatuses, in.Status), Required: true},
		{Name: "planned_at", Label: "Planned", Type: "date", Value: in.PlannedAt, Required: true},
		{Name: "completed_at", Label: "Completed", Type: "date", Value: in.CompletedAt, Help: "Required once the task is done."},
		{Name: "comment", Label: "Comment", Type: "textarea", Value: in.Comment},
	}, nil
}

func taskDetail(ctx context.Context, a *App, u *auth.User, t api.Task) (detailView, error) {
	checks, err := a.checks(ctx, credsOf(u))
	if err != nil {
		return detailView{}, err
	}
	var rows []table.Row
	for _, c := range checks {
		if c.TaskID == t.ID {
			rows = append(rows, checkRow(c))
		}
	}

	object := detailField{Label: "Object", Value: t.ObjectName}
	if object.Value == "" && t.ObjectID > 0 {
		object.Value = "#" + strconv.Itoa(t.ObjectID)
	}
	if t.ObjectID > 0 && canOpen(u, "/objects") {
		object.Href = "/objects/" + strconv.Itoa(t.ObjectID)
	}
	assignee := detailField{Label: "Assignee", Value: t.UserName}
	if t.UserID > 0 && canOpen(u, "/users") {
		assignee.Href = "/users/" + strconv.Itoa(t.UserID)
	}

	return detailView{
		Fields: []detailField{
			object,
			assignee,
			{Label: "Status", Value: template.Label(t.Status)},
			{Label: "Planned", Value: dateOnly(t.PlannedAt)},
			{Label: "Completed", Value: dateOnly(t.CompletedAt)},
			{Label: "Comment", Value: t.Comment},
		},
		Sections: []detailSection{{
			Title: "Checks",
			Table: nestedTable([]table.Column{
				{Header: "Date", Field: "date"},
				{Header: "Title", Field: "title"},
				{Header: "Status", Field: "status"},
			}, rows),
			Empty: "No checks scheduled for this task.",
		}},
	}, nil
}
