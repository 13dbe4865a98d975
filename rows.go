// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"strconv"
	"strings"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/table"
	"github.com/SergeyMarcum/crm-app/pkg/template"
)

// noValue is shown for references that cannot be resolved.
const noValue = "—"

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// dateOnly trims a backend timestamp to its calendar date.
func dateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// names indexes display names by id.
func names[T any](items []T, id func(T) int, name func(T) string) map[int]string {
	out := make(map[int]string, len(items))
	for _, it := range items {
		out[id(it)] = name(it)
	}
	return out
}

func typeNames(types []api.ObjectType) map[int]string {
	return names(types, func(t api.ObjectType) int { return t.ID }, func(t api.ObjectType) string { return t.Name })
}

func parameterNames(params []api.Parameter) map[int]string {
	return names(params, func(p api.Parameter) int { return p.ID }, func(p api.Parameter) string { return p.Name })
}

// objectTypeName resolves the type shown for an object: the free text the
// backend sent, then the name of object_type_id among the loaded types.
func objectTypeName(o api.Object, types map[int]string) string {
	if s := strings.TrimSpace(o.ObjectTypeText); s != "" {
		return s
	}
	if s := strings.TrimSpace(o.ObjectType); s != "" {
		return s
	}
	if s, ok := types[o.ObjectTypeID]; ok && s != "" {
		return s
	}
	return noValue
}

func lookupName(m map[int]string, id int) string {
	if s, ok := m[id]; ok && s != "" {
		return s
	}
	if id == 0 {
		return ""
	}
	return noValue
}

func userRow(u api.User) table.Row {
	return table.Row{
		"id":         strconv.Itoa(u.ID),
		"email":      u.Email,
		"name":       u.Name,
		"phone":      u.Phone,
		"role_id":    itoa(u.RoleID),
		"role":       auth.Role(u.RoleID).String(),
		"domain":     u.Domain,
		"created_at": dateOnly(u.CreatedAt),
	}
}

func objectRow(o api.Object, types map[int]string) table.Row {
	return table.Row{
		"id":             strconv.Itoa(o.ID),
		"name":           o.Name,
		"address":        o.Address,
		"object_type_id": itoa(o.ObjectTypeID),
		"object_type":    objectTypeName(o, types),
		"status":         template.Label(o.Status),
		"last_check_at":  dateOnly(o.LastCheckAt),
		"created_at":     dateOnly(o.CreatedAt),
	}
}

func objectTypeRow(t api.ObjectType) table.Row {
	return table.Row{
		"id":          strconv.Itoa(t.ID),
		"name":        t.Name,
		"description": t.Description,
	}
}

func parameterRow(p api.Parameter, types map[int]string) table.Row {
	return table.Row{
		"id":             strconv.Itoa(p.ID),
		"name":           p.Name,
		"description":    p.Description,
		"object_type_id": itoa(p.ObjectTypeID),
		"object_type":    lookupName(types, p.ObjectTypeID),
		"required":       yesNo(p.Required),
	}
}

func taskRow(t api.Task) table.Row {
	return table.Row{
		"id":           strconv.Itoa(t.ID),
		"object_id":    itoa(t.ObjectID),
		"object":       t.ObjectName,
		"user_id":      itoa(t.UserID),
		"user":         t.UserName,
		"status":       template.Label(t.Status),
		"planned_at":   dateOnly(t.PlannedAt),
		"completed_at": dateOnly(t.CompletedAt),
		"comment":      t.Comment,
	}
}

func checkRow(c api.Check) table.Row {
	return table.Row{
		"id":        strconv.Itoa(c.ID),
		"object_id": itoa(c.ObjectID),
		"task_id":   itoa(c.TaskID),
		"title":     c.Title,
		"date":      dateOnly(c.Date),
		"status":    template.Label(c.Status),
	}
}

func nonComplianceRow(n api.NonCompliance, params map[int]string) table.Row {
	return table.Row{
		"id":           strconv.Itoa(n.ID),
		"parameter_id": itoa(n.ParameterID),
		"parameter":    lookupName(params, n.ParameterID),
		"name":         n.Name,
		"description":  n.Description,
		"severity":     template.Label(n.Severity),
	}
}

func instructionRow(i api.Instruction, params map[int]string) table.Row {
	return table.Row{
		"id":           strconv.Itoa(i.ID),
		"parameter_id": itoa(i.ParameterID),
		"parameter":    lookupName(params, i.ParameterID),
		"title":        i.Title,
		"body":         i.Body,
		"created_at":   dateOnly(i.CreatedAt),
	}
}

// rowsOf normalizes a fetched list.
func rowsOf[T any](items []T, row func(T) table.Row) []table.Row {
	out := make([]table.Row, 0, len(items))
	for _, it := range items {
		out = append(out, row(it))
	}
	return out
}
