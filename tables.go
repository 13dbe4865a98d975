// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
	"github.com/SergeyMarcum/crm-app/pkg/table"
)

// tableSpec binds a table definition to the query that feeds it.
type tableSpec struct {
	Name  string
	Path  string
	Roles auth.Roles
	Def   func(u *auth.User, pageSize int) *table.Table
	Load  func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error)
}

var tableSpecs = map[string]tableSpec{
	"users":          usersTable,
	"objects":        objectsTable,
	"object_types":   objectTypesTable,
	"parameters":     parametersTable,
	"tasks":          tasksTable,
	"checks":         checksTable,
	"non_compliance": nonComplianceTable,
	"instructions":   instructionsTable,
}

func lookupTable(name string) (tableSpec, bool) {
	s, ok := tableSpecs[name]
	return s, ok
}

func tableNames() []string {
	out := make([]string, 0, len(tableSpecs))
	for name := range tableSpecs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// linkTo links a cell to prefix/<row[field]>.
func linkTo(prefix, field string) func(table.Row) string {
	return func(r table.Row) string {
		if r[field] == "" {
			return ""
		}
		return prefix + "/" + r[field]
	}
}

// linkIf is linkTo when u may open section, otherwise no link.
func linkIf(u *auth.User, section, field string) func(table.Row) string {
	if !canOpen(u, section) {
		return nil
	}
	return linkTo(section, field)
}

// reference tolerates a failed lookup list: rows fall back to ids.
// Authorization failures still end the session.
func reference(err error, what string) error {
	if err == nil || errors.Is(err, api.ErrUnauthorized) {
		return err
	}
	logger.Warning("Reference list unavailable", "list", what, "error", err.Error())
	return nil
}

var usersTable = tableSpec{
	Name:  "users",
	Path:  "/users",
	Roles: adminOnly,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:  "users",
			Title: "Users",
			Columns: []table.Column{
				{Header: "ID", Field: "id"},
				{Header: "Email", Field: "email", Link: linkTo("/users", "id")},
				{Header: "Name", Field: "name"},
				{Header: "Phone", Field: "phone"},
				{Header: "Role", Field: "role"},
				{Header: "Created", Field: "created_at"},
			},
			Filters: []table.Filter{
				{Field: "email", Label: "Email"},
				{Field: "name", Label: "Name"},
				{Field: "phone", Label: "Phone"},
				{Field: "role", Label: "Role"},
			},
			PageSize:   pageSize,
			Selectable: true,
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		users, err := q.users(ctx, creds)
		if err != nil {
			return nil, err
		}
		return rowsOf(users, userRow), nil
	},
}

var objectsTable = tableSpec{
	Name:  "objects",
	Path:  "/objects",
	Roles: writeRoles,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:  "objects",
			Title: "Objects",
			Columns: []table.Column{
				{Header: "ID", Field: "id"},
				{Header: "Name", Field: "name", Link: linkTo("/objects", "id")},
				{Header: "Address", Field: "address"},
				{Header: "Type", Field: "object_type"},
				{Header: "Status", Field: "status"},
				{Header: "Last check", Field: "last_check_at"},
			},
			Filters: []table.Filter{
				{Field: "name", Label: "Name"},
				{Field: "address", Label: "Address"},
				{Field: "object_type", Label: "Type"},
				{Field: "status", Label: "Status"},
			},
			PageSize:   pageSize,
			Selectable: true,
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		var (
			objects []api.Object
			types   []api.ObjectType
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			objects, err = q.objects(gctx, creds)
			return err
		})
		g.Go(func() (err error) {
			types, err = q.objectTypes(gctx, creds)
			return reference(err, entityObjectTypes)
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		byID := typeNames(types)
		return rowsOf(objects, func(o api.Object) table.Row { return objectRow(o, byID) }), nil
	},
}

var objectTypesTable = tableSpec{
	Name:  "object_types",
	Path:  "/object-types",
	Roles: adminOnly,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:  "object_types",
			Title: "Object types",
			Columns: []table.Column{
				{Header: "ID", Field: "id"},
				{Header: "Name", Field: "name", Link: linkTo("/object-types", "id")},
				{Header: "Description", Field: "description"},
			},
			Filters: []table.Filter{
				{Field: "name", Label: "Name"},
				{Field: "description", Label: "Description"},
			},
			PageSize:   pageSize,
			Selectable: true,
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		types, err := q.objectTypes(ctx, creds)
		if err != nil {
			return nil, err
		}
		return rowsOf(types, objectTypeRow), nil
	},
}

func parameterColumns() []table.Column {
	return []table.Column{
		{Header: "ID", Field: "id"},
		{Header: "Name", Field: "name", Link: linkTo("/parameters", "id")},
		{Header: "Object type", Field: "object_type", Link: linkTo("/object-types", "object_type_id")},
		{Header: "Required", Field: "required"},
		{Header: "Description", Field: "description"},
	}
}

var parametersTable = tableSpec{
	Name:  "parameters",
	Path:  "/parameters",
	Roles: adminOnly,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:    "parameters",
			Title:   "Parameters",
			Columns: parameterColumns(),
			Filters: []table.Filter{
				{Field: "name", Label: "Name"},
				{Field: "object_type", Label: "Object type"},
				{Field: "required", Label: "Required"},
			},
			PageSize:   pageSize,
			Selectable: true,
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		var (
			params []api.Parameter
			types  []api.ObjectType
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			params, err = q.parameters(gctx, creds)
			return err
		})
		g.Go(func() (err error) {
			types, err = q.objectTypes(gctx, creds)
			return reference(err, entityObjectTypes)
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		byID := typeNames(types)
		return rowsOf(params, func(p api.Parameter) table.Row { return parameterRow(p, byID) }), nil
	},
}

func taskColumns(u *auth.User) []table.Column {
	return []table.Column{
		{Header: "ID", Field: "id", Link: linkTo("/tasks", "id")},
		{Header: "Object", Field: "object", Link: linkIf(u, "/objects", "object_id")},
		{Header: "Assignee", Field: "user", Link: linkIf(u, "/users", "user_id")},
		{Header: "Status", Field: "status"},
		{Header: "Planned", Field: "planned_at"},
		{Header: "Completed", Field: "completed_at"},
	}
}

var tasksTable = tableSpec{
	Name:  "tasks",
	Path:  "/tasks",
	Roles: anyRole,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:    "tasks",
			Title:   "Tasks",
			Columns: taskColumns(u),
			Filters: []table.Filter{
				{Field: "object", Label: "Object"},
				{Field: "user", Label: "Assignee"},
				{Field: "status", Label: "Status"},
				{Field: "planned_at", Label: "Planned"},
			},
			PageSize:   pageSize,
			Selectable: writeRoles.Allows(u.Role()),
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		tasks, err := q.tasks(ctx, creds)
		if err != nil {
			return nil, err
		}
		return rowsOf(tasks, taskRow), nil
	},
}

var checksTable = tableSpec{
	Name:  "checks",
	Path:  "/calendar",
	Roles: anyRole,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:  "checks",
			Title: "Checks",
			Columns: []table.Column{
				{Header: "ID", Field: "id"},
				{Header: "Date", Field: "date"},
				{Header: "Title", Field: "title", Link: linkTo("/tasks", "task_id")},
				{Header: "Object", Field: "object_id", Link: linkIf(u, "/objects", "object_id")},
				{Header: "Status", Field: "status"},
			},
			Filters: []table.Filter{
				{Field: "title", Label: "Title"},
				{Field: "date", Label: "Date"},
				{Field: "status", Label: "Status"},
			},
			PageSize: pageSize,
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		checks, err := q.checks(ctx, creds)
		if err != nil {
			return nil, err
		}
		return rowsOf(checks, checkRow), nil
	},
}

// withParameterNames loads a list alongside the parameters it references.
func withParameterNames[T any](ctx context.Context, q *queries, creds api.Credentials,
	list func(context.Context, api.Credentials) ([]T, error),
	row func(T, map[int]string) table.Row,
) ([]table.Row, error) {
	var (
		items  []T
		params []api.Parameter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = list(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		params, err = q.parameters(gctx, creds)
		return reference(err, entityParameters)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	byID := parameterNames(params)
	return rowsOf(items, func(it T) table.Row { return row(it, byID) }), nil
}

var nonComplianceTable = tableSpec{
	Name:  "non_compliance",
	Path:  "/non-compliance",
	Roles: writeRoles,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:  "non_compliance",
			Title: "Non-compliance",
			Columns: []table.Column{
				{Header: "ID", Field: "id"},
				{Header: "Name", Field: "name", Link: linkTo("/non-compliance", "id")},
				{Header: "Parameter", Field: "parameter", Link: linkIf(u, "/parameters", "parameter_id")},
				{Header: "Severity", Field: "severity"},
				{Header: "Description", Field: "description"},
			},
			Filters: []table.Filter{
				{Field: "name", Label: "Name"},
				{Field: "parameter", Label: "Parameter"},
				{Field: "severity", Label: "Severity"},
			},
			PageSize:   pageSize,
			Selectable: true,
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		return withParameterNames(ctx, q, creds, q.nonCompliance, nonComplianceRow)
	},
}

var instructionsTable = tableSpec{
	Name:  "instructions",
	Path:  "/instructions",
	Roles: anyRole,
	Def: func(u *auth.User, pageSize int) *table.Table {
		return &table.Table{
			Name:  "instructions",
			Title: "Instructions",
			Columns: []table.Column{
				{Header: "ID", Field: "id"},
				{Header: "Title", Field: "title", Link: linkTo("/instructions", "id")},
				{Header: "Parameter", Field: "parameter", Link: linkIf(u, "/parameters", "parameter_id")},
				{Header: "Created", Field: "created_at"},
			},
			Filters: []table.Filter{
				{Field: "title", Label: "Title"},
				{Field: "parameter", Label: "Parameter"},
				{Field: "body", Label: "Text"},
			},
			PageSize:   pageSize,
			Selectable: adminOnly.Allows(u.Role()),
		}
	},
	Load: func(ctx context.Context, q *queries, creds api.Credentials) ([]table.Row, error) {
		return withParameterNames(ctx, q, creds, q.instructions, instructionRow)
	},
}
