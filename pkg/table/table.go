// Copyright (C) 2025 Joshua Goldstein

// Package table renders record lists as filterable, sortable, paginated views.
// It is a pure view over rows that were already fetched.
package table

import (
	"sort"
	"strconv"
	"strings"
)

// Row is a flat view-model record keyed by field name.
type Row map[string]string

// Key returns the row identifier used for links and selection.
func (r Row) Key() string {
	return r["id"]
}

// Column describes one rendered column.
type Column struct {
	Header string
	Field  string
	// Value computes the cell text. When nil the row's Field value is used.
	Value func(Row) string
	// Link returns an href for the cell, or "" for plain text.
	Link func(Row) string
}

// Text returns the cell text for row.
func (c Column) Text(row Row) string {
	if c.Value != nil {
		return c.Value(row)
	}
	return row[c.Field]
}

// Filter declares a filterable field and the label shown in the filter form.
type Filter struct {
	Field string
	Label string
}

// Table is the definition of a table widget instance.
type Table struct {
	Name       string
	Title      string
	Columns    []Column
	Filters    []Filter
	PageSize   int
	Selectable bool
}

// Options are per-request view parameters.
type Options struct {
	Page int
	Sort string
	Desc bool
}

// Header is a rendered column header.
type Header struct {
	Label  string
	Field  string
	Sorted bool
	Desc   bool
}

// Cell is a rendered cell.
type Cell struct {
	Text string
	Href string
}

// ViewRow is a rendered row.
type ViewRow struct {
	Key   string
	Cells []Cell
}

// FilterValue is a filter form field with its applied value.
type FilterValue struct {
	Field string
	Label string
	Value string
}

// View is the render-ready state of a table.
type View struct {
	Name       string
	Title      string
	Headers    []Header
	Rows       []ViewRow
	Filters    []FilterValue
	Filtered   bool
	Total      int
	Visible    int
	Page       int
	Pages      int
	Selectable bool
	Sort       string
	Desc       bool
}

// HasPrev reports whether a previous page exists.
func (v View) HasPrev() bool { return v.Page > 1 }

// HasNext reports whether a next page exists.
func (v View) HasNext() bool { return v.Page < v.Pages }

// PrevPage returns the previous page number.
func (v View) PrevPage() int { return v.Page - 1 }

// NextPage returns the next page number.
func (v View) NextPage() int { return v.Page + 1 }

// Sanitize keeps the declared filter fields with non-blank values, trimmed.
func (t *Table) Sanitize(values map[string]string) map[string]string {
	out := make(map[string]string, len(t.Filters))
	for _, f := range t.Filters {
		if v := strings.TrimSpace(values[f.Field]); v != "" {
			out[f.Field] = v
		}
	}
	return out
}

// Visible returns the rows that pass the applied filters, sorted when
// opts.Sort names a column.
func (t *Table) Visible(rows []Row, applied map[string]string, opts Options) []Row {
	visible := Apply(rows, applied)
	if col, ok := t.column(opts.Sort); ok {
		sortRows(visible, col, opts.Desc)
	}
	return visible
}

// Render filters, sorts and paginates rows into a View.
func (t *Table) Render(rows []Row, applied map[string]string, opts Options) View {
	visible := t.Visible(rows, applied, opts)

	v := View{
		Name:       t.Name,
		Title:      t.Title,
		Total:      len(rows),
		Visible:    len(visible),
		Selectable: t.Selectable,
		Page:       1,
		Pages:      1,
	}
	if _, ok := t.column(opts.Sort); ok {
		v.Sort, v.Desc = opts.Sort, opts.Desc
	}

	for _, c := range t.Columns {
		v.Headers = append(v.Headers, Header{
			Label:  c.Header,
			Field:  c.Field,
			Sorted: c.Field != "" && c.Field == v.Sort,
			Desc:   c.Field != "" && c.Field == v.Sort && v.Desc,
		})
	}
	for _, f := range t.Filters {
		val := applied[f.Field]
		if val != "" {
			v.Filtered = true
		}
		v.Filters = append(v.Filters, FilterValue{Field: f.Field, Label: f.Label, Value: val})
	}

	page := visible
	if t.PageSize > 0 && len(visible) > 0 {
		v.Pages = (len(visible) + t.PageSize - 1) / t.PageSize
		v.Page = clamp(opts.Page, 1, v.Pages)
		start := (v.Page - 1) * t.PageSize
		end := start + t.PageSize
		if end > len(visible) {
			end = len(visible)
		}
		page = visible[start:end]
	}

	v.Rows = make([]ViewRow, 0, len(page))
	for _, row := range page {
		vr := ViewRow{Key: row.Key(), Cells: make([]Cell, 0, len(t.Columns))}
		for _, c := range t.Columns {
			cell := Cell{Text: c.Text(row)}
			if c.Link != nil {
				cell.Href = c.Link(row)
			}
			vr.Cells = append(vr.Cells, cell)
		}
		v.Rows = append(v.Rows, vr)
	}
	return v
}

func (t *Table) column(field string) (Column, bool) {
	if field == "" {
		return Column{}, false
	}
	for _, c := range t.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// sortRows orders rows by the column text. Integers sort before other text
// and compare numerically; everything else compares by case-folded text.
// The sort is stable.
func sortRows(rows []Row, col Column, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := col.Text(rows[i]), col.Text(rows[j])
		if desc {
			a, b = b, a
		}
		return lessText(a, b)
	})
}

func lessText(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return ai < bi
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return fold(a) < fold(b)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// SelectedIDs parses submitted row selections into unique positive ids,
// preserving submission order. Invalid entries are skipped.
func SelectedIDs(values []string) []int {
	seen := make(map[int]bool, len(values))
	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
