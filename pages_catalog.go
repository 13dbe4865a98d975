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

func objectTypePages() *entityPages[api.ObjectType, api.ObjectTypeInput] {
	return &entityPages[api.ObjectType, api.ObjectTypeInput]{
		spec:     objectTypesTable,
		singular: "object type",
		write:    adminOnly,
		resource: (*api.Client).ObjectTypes,
		id:       func(t api.ObjectType) int { return t.ID },
		title:    func(t api.ObjectType) string { return t.Name },
		toInput: func(t api.ObjectType) api.ObjectTypeInput {
			return api.ObjectTypeInput{Name: t.Name, Description: t.Description}
		},
		parse: func(r *http.Request) api.ObjectTypeInput {
			return api.ObjectTypeInput{Name: formText(r, "name"), Description: formText(r, "description")}
		},
		validate: func(in api.ObjectTypeInput, _ bool) *validation.Validator { return validation.ValidateObjectType(in) },
		fields: func(_ context.Context, _ *App, _ api.Credentials, in api.ObjectTypeInput, _ bool) ([]formField, error) {
			return []formField{
				{Name: "name", Label: "Name", Type: "text", Value: in.Name, Required: true},
				{Name: "description", Label: "Description", Type: "textarea", Value: in.Description},
			}, nil
		},
		detail: objectTypeDetail,
	}
}

func objectTypeDetail(ctx context.Context, a *App, u *auth.User, t api.ObjectType) (detailView, error) {
	params, err := a.parametersForType(ctx, credsOf(u), t.ID)
	if err != nil {
		return detailView{}, err
	}
	id := strconv.Itoa(t.ID)
	return detailView{
		Fields: []detailField{
			{Label: "Name", Value: t.Name},
			{Label: "Description", Value: t.Description},
		},
		Sections: []detailSection{{
			Title: "Parameters",
			Actions: []action{
				{Label: "+ Add parameter", Href: "/parameters/new?object_type_id=" + id},
				{Label: "+ Add object", Href: "/objects/new?object_type_id=" + id},
			},
			Table: nestedTable(objectParameterColumns(u), rowsOf(params, func(p api.Parameter) table.Row {
				return parameterRow(p, nil)
			})),
		}},
	}, nil
}

func parameterPages() *entityPages[api.Parameter, api.ParameterInput] {
	return &entityPages[api.Parameter, api.ParameterInput]{
		spec:     parametersTable,
		singular: "parameter",
		write:    adminOnly,
		resource: (*api.Client).Parameters,
		id:       func(p api.Parameter) int { return p.ID },
		title:    func(p api.Parameter) string { return p.Name },
		toInput: func(p api.Parameter) api.ParameterInput {
			return api.ParameterInput{ObjectTypeID: p.ObjectTypeID, Name: p.Name, Description: p.Description, Required: p.Required}
		},
		parse: func(r *http.Request) api.ParameterInput {
			return api.ParameterInput{
				ObjectTypeID: formInt(r, "object_type_id"),
				Name:         formText(r, "name"),
				Description:  formText(r, "description"),
				Required:     r.FormValue("required") != "",
			}
		},
		validate: func(in api.ParameterInput, _ bool) *validation.Validator { return validation.ValidateParameter(in) },
		fields:   parameterFields,
		detail:   parameterDetail,
		prefill: func(r *http.Request) api.ParameterInput {
			return api.ParameterInput{ObjectTypeID: formInt(r, "object_type_id"), Required: true}
		},
	}
}

func parameterFields(ctx context.Context, a *App, creds api.Credentials, in api.ParameterInput, _ bool) ([]formField, error) {
	types, err := a.objectTypes(ctx, creds)
	if err != nil {
		return nil, err
	}
	return []formField{
		{Name: "object_type_id", Label: "Object type", Type: "select", Options: objectTypeOptions(types, in.ObjectTypeID), Required: true},
		{Name: "name", Label: "Name", Type: "text", Value: in.Name, Required: true},
		{Name: "description", Label: "Description", Type: "textarea", Value: in.Description},
		{Name: "required", Label: "Required on every inspection", Type: "checkbox", Checked: in.Required},
	}, nil
}

func parameterDetail(ctx context.Context, a *App, u *auth.User, p api.Parameter) (detailView, error) {
	creds := credsOf(u)
	var (
		types        []api.ObjectType
		defects      []api.NonCompliance
		instructions []api.Instruction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		types, err = a.objectTypes(gctx, creds)
		return reference(err, entityObjectTypes)
	})
	g.Go(func() (err error) {
		defects, err = a.nonCompliance(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		instructions, err = a.instructions(gctx, creds)
		return err
	})
	if err := g.Wait(); err != nil {
		return detailView{}, err
	}

	byName := map[int]string{p.ID: p.Name}
	var defectRows, instructionRows []table.Row
	for _, n := range defects {
		if n.ParameterID == p.ID {
			defectRows = append(defectRows, nonComplianceRow(n, byName))
		}
	}
	for _, i := range instructions {
		if i.ParameterID == p.ID {
			instructionRows = append(instructionRows, instructionRow(i, byName))
		}
	}

	typeField := detailField{Label: "Object type", Value: lookupName(typeNames(types), p.ObjectTypeID)}
	if p.ObjectTypeID > 0 {
		typeField.Href = "/object-types/" + strconv.Itoa(p.ObjectTypeID)
	}
	id := strconv.Itoa(p.ID)

	return detailView{
		Fields: []detailField{
			{Label: "Name", Value: p.Name},
			typeField,
			{Label: "Required", Value: yesNo(p.Required)},
			{Label: "Description", Value: p.Description},
		},
		Sections: []detailSection{
			{
				Title:   "Non-compliance",
				Actions: []action{{Label: "+ Add", Href: "/non-compliance/new?parameter_id=" + id}},
				Table: nestedTable([]table.Column{
					{Header: "Name", Field: "name", Link: linkTo("/non-compliance", "id")},
					{Header: "Severity", Field: "severity"},
					{Header: "Description", Field: "description"},
				}, defectRows),
			},
			{
				Title:   "Instructions",
				Actions: []action{{Label: "+ Add", Href: "/instructions/new?parameter_id=" + id}},
				Table: nestedTable([]table.Column{
					{Header: "Title", Field: "title", Link: linkTo("/instructions", "id")},
					{Header: "Created", Field: "created_at"},
				}, instructionRows),
			},
		},
	}, nil
}

func parameterOptions(params []api.Parameter, selected int) []option {
	return selectOptions(params, func(p api.Parameter) int { return p.ID }, func(p api.Parameter) string { return p.Name }, selected)
}

func nonCompliancePages() *entityPages[api.NonCompliance, api.NonComplianceInput] {
	return &entityPages[api.NonCompliance, api.NonComplianceInput]{
		spec:     nonComplianceTable,
		singular: "non-compliance record",
		write:    writeRoles,
		resource: (*api.Client).NonCompliance,
		id:       func(n api.NonCompliance) int { return n.ID },
		title:    func(n api.NonCompliance) string { return n.Name },
		toInput: func(n api.NonCompliance) api.NonComplianceInput {
			return api.NonComplianceInput{ParameterID: n.ParameterID, Name: n.Name, Description: n.Description, Severity: n.Severity}
		},
		parse: func(r *http.Request) api.NonComplianceInput {
			return api.NonComplianceInput{
				ParameterID: formInt(r, "parameter_id"),
				Name:        formText(r, "name"),
				Description: formText(r, "description"),
				Severity:    formText(r, "severity"),
			}
		},
		validate: func(in api.NonComplianceInput, _ bool) *validation.Validator {
			return validation.ValidateNonCompliance(in)
		},
		fields: func(ctx context.Context, a *App, creds api.Credentials, in api.NonComplianceInput, _ bool) ([]formField, error) {
			params, err := a.parameters(ctx, creds)
			if err != nil {
				return nil, err
			}
			return []formField{
				{Name: "parameter_id", Label: "Parameter", Type: "select", Options: parameterOptions(params, in.ParameterID), Required: true},
				{Name: "name", Label: "Name", Type: "text", Value: in.Name, Required: true},
				{Name: "severity", Label: "Severity", Type: "select", Options: codeOptions(api.Severities, in.Severity), Required: true},
				{Name: "description", Label: "Description", Type: "textarea", Value: in.Description},
			}, nil
		},
		detail: func(ctx context.Context, a *App, u *auth.User, n api.NonCompliance) (detailView, error) {
			params, err := a.parameters(ctx, credsOf(u))
			if err := reference(err, entityParameters); err != nil {
				return detailView{}, err
			}
			param := detailField{Label: "Parameter", Value: lookupName(parameterNames(params), n.ParameterID)}
			if n.ParameterID > 0 && canOpen(u, "/parameters") {
				param.Href = "/parameters/" + strconv.Itoa(n.ParameterID)
			}
			return detailView{Fields: []detailField{
				{Label: "Name", Value: n.Name},
				param,
				{Label: "Severity", Value: template.Label(n.Severity)},
				{Label: "Description", Value: n.Description},
			}}, nil
		},
		prefill: func(r *http.Request) api.NonComplianceInput {
			return api.NonComplianceInput{ParameterID: formInt(r, "parameter_id"), Severity: "medium"}
		},
	}
}

func instructionPages() *entityPages[api.Instruction, api.InstructionInput] {
	return &entityPages[api.Instruction, api.InstructionInput]{
		spec:     instructionsTable,
		singular: "instruction",
		write:    adminOnly,
		resource: (*api.Client).Instructions,
		id:       func(i api.Instruction) int { return i.ID },
		title:    func(i api.Instruction) string { return i.Title },
		toInput: func(i api.Instruction) api.InstructionInput {
			return api.InstructionInput{ParameterID: i.ParameterID, Title: i.Title, Body: i.Body}
		},
		parse: func(r *http.Request) api.InstructionInput {
			return api.InstructionInput{
				ParameterID: formInt(r, "parameter_id"),
				Title:       formText(r, "title"),
				Body:        formText(r, "body"),
			}
		},
		validate: func(in api.InstructionInput, _ bool) *validation.Validator { return validation.ValidateInstruction(in) },
		fields: func(ctx context.Context, a *App, creds api.Credentials, in api.InstructionInput, _ bool) ([]formField, error) {
			params, err := a.parameters(ctx, creds)
			if err != nil {
				return nil, err
			}
			return []formField{
				{Name: "title", Label: "Title", Type: "text", Value: in.Title, Required: true},
				{Name: "parameter_id", Label: "Parameter", Type: "select", Options: parameterOptions(params, in.ParameterID), Help: "Optional."},
				{Name: "body", Label: "Text", Type: "textarea", Value: in.Body, Required: true},
			}, nil
		},
		detail: func(ctx context.Context, a *App, u *auth.User, i api.Instruction) (detailView, error) {
			view := detailView{Fields: []detailField{
				{Label: "Title", Value: i.Title},
				{Label: "Created", Value: dateOnly(i.CreatedAt)},
				{Label: "Text", Value: i.Body},
			}}
			if i.ParameterID == 0 {
				return view, nil
			}
			params, err := a.parameters(ctx, credsOf(u))
			if err := reference(err, entityParameters); err != nil {
				return detailView{}, err
			}
			param := detailField{Label: "Parameter", Value: lookupName(parameterNames(params), i.ParameterID)}
			if canOpen(u, "/parameters") {
				param.Href = "/parameters/" + strconv.Itoa(i.ParameterID)
			}
			view.Fields = append(view.Fields, param)
			return view, nil
		},
		prefill: func(r *http.Request) api.InstructionInput {
			return api.InstructionInput{ParameterID: formInt(r, "parameter_id")}
		},
	}
}
