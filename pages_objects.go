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

func objectPages() *entityPages[api.Object, api.ObjectInput] {
	return &entityPages[api.Object, api.ObjectInput]{
		spec:     objectsTable,
		singular: "object",
		write:    writeRoles,
		resource: (*api.Client).Objects,
		id:       func(o api.Object) int { return o.ID },
		title:    func(o api.Object) string { return o.Name },
		toInput: func(o api.Object) api.ObjectInput {
			return api.ObjectInput{Name: o.Name, Address: o.Address, ObjectTypeID: o.ObjectTypeID, Status: o.Status}
		},
		parse: func(r *http.Request) api.ObjectInput {
			return api.ObjectInput{
				Name:         formText(r, "name"),
				Address:      formText(r, "address"),
				ObjectTypeID: formInt(r, "object_type_id"),
				Status:       formText(r, "status"),
			}
		},
		validate: func(in api.ObjectInput, _ bool) *validation.Validator { return validation.ValidateObject(in) },
		fields:   objectFields,
		detail:   objectDetail,
		prefill: func(r *http.Request) api.ObjectInput {
			return api.ObjectInput{ObjectTypeID: formInt(r, "object_type_id"), Status: "active"}
		},
	}
}

func objectTypeOptions(types []api.ObjectType, selected int) []option {
	return selectOptions(types, func(t api.ObjectType) int { return t.ID }, func(t api.ObjectType) string { return t.Name }, selected)
}

func objectFields(ctx context.Context, a *App, creds api.Credentials, in api.ObjectInput, _ bool) ([]formField, error) {
	types, err := a.objectTypes(ctx, creds)
	if err != nil {
		return nil, err
	}
	return []formField{
		{Name: "name", Label: "Name", Type: "text", Value: in.Name, Required: true},
		{Name: "address", Label: "Address", Type: "text", Value: in.Address},
		{Name: "object_type_id", Label: "Object type", Type: "select", Options: objectTypeOptions(types, in.ObjectTypeID), Required: true},
		{Name: "status", Label: "Status", Type: "select", Options: codeOptions(api.ObjectStatuses, in.Status), Required: true},
	}, nil
}

// objectParameterColumns shows an object's checklist; names link to the
// parameter only for users who may open parameters.
func objectParameterColumns(u *auth.User) []table.Column {
	return []table.Column{
		{Header: "Parameter", Field: "name", Link: linkIf(u, "/parameters", "id")},
		{Header: "Required", Field: "required"},
		{Header: "Description", Field: "description"},
	}
}

// objectDetail is the info card plus the object's parameters and tasks.
func objectDetail(ctx context.Context, a *App, u *auth.User, o api.Object) (detailView, error) {
	creds := credsOf(u)
	var (
		types  []api.ObjectType
		params []api.Parameter
		tasks  []api.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		types, err = a.objectTypes(gctx, creds)
		return reference(err, entityObjectTypes)
	})
	g.Go(func() (err error) {
		tasks, err = a.tasksForObject(gctx, creds, o.ID)
		return err
	})
	if o.ObjectTypeID > 0 {
		g.Go(func() (err error) {
			params, err = a.parametersForType(gctx, creds, o.ObjectTypeID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return detailView{}, err
	}

	typeByID := typeNames(types)
	typeField := detailField{Label: "Type", Value: objectTypeName(o, typeByID)}
	if o.ObjectTypeID > 0 && canOpen(u, "/object-types") {
		typeField.Href = "/object-types/" + strconv.Itoa(o.ObjectTypeID)
	}

	paramSection := detailSection{Title: "Parameters"}
	if o.ObjectTypeID > 0 {
		paramSection.Table = nestedTable(objectParameterColumns(u), rowsOf(params, func(p api.Parameter) table.Row {
			return parameterRow(p, typeByID)
		}))
	} else {
		paramSection.Empty = "The object has no type, so it has no checklist."
	}

	taskSection := detailSection{
		Title: "Tasks",
		Table: nestedTable(taskColumns(u), rowsOf(tasks, taskRow)),
	}
	if writeRoles.Allows(u.Role()) {
		taskSection.Actions = []action{{Label: "+ New task", Href: "/tasks/new?object_id=" + strconv.Itoa(o.ID)}}
	}

	return detailView{
		Fields: []detailField{
			{Label: "Name", Value: o.Name},
			{Label: "Address", Value: o.Address},
			typeField,
			{Label: "Status", Value: template.Label(o.Status)},
			{Label: "Last check", Value: dateOnly(o.LastCheckAt)},
			{Label: "Created", Value: dateOnly(o.CreatedAt)},
		},
		Sections: []detailSection{paramSection, taskSection},
	}, nil
}
