// Copyright (C) 2025 Joshua Goldstein

package table

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable(pageSize int) *Table {
	return &Table{
		Name:  "users",
		Title: "Users",
		Columns: []Column{
			{Header: "ID", Field: "id"},
			{Header: "Email", Field: "email", Link: func(r Row) string { return "/users/" + r.Key() }},
			{Header: "Name", Field: "name"},
			{Header: "Badge", Value: func(r Row) string { return "#" + r["id"] }},
		},
		Filters: []Filter{
			{Field: "email", Label: "Email"},
			{Field: "name", Label: "Name"},
		},
		PageSize:   pageSize,
		Selectable: true,
	}
}

func TestRenderNoFilters(t *testing.T) {
	v := usersTable(0).Render(sampleRows(), nil, Options{})

	assert.Equal(t, 3, v.Total)
	assert.Equal(t, 3, v.Visible)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.Pages)
	assert.False(t, v.Filtered)
	assert.True(t, v.Selectable)
	require.Len(t, v.Rows, 3)
	assert.Equal(t, "1", v.Rows[0].Key)

	cells := v.Rows[0].Cells
	require.Len(t, cells, 4)
	assert.Equal(t, Cell{Text: "ivan@test.com", Href: "/users/1"}, cells[1])
	assert.Equal(t, Cell{Text: "#1"}, cells[3])
}

func TestRenderWithFilters(t *testing.T) {
	v := usersTable(0).Render(sampleRows(), map[string]string{"email": "ivan"}, Options{})

	assert.Equal(t, 3, v.Total)
	assert.Equal(t, 1, v.Visible)
	assert.True(t, v.Filtered)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "1", v.Rows[0].Key)

	require.Len(t, v.Filters, 2)
	assert.Equal(t, FilterValue{Field: "email", Label: "Email", Value: "ivan"}, v.Filters[0])
	assert.Equal(t, FilterValue{Field: "name", Label: "Name"}, v.Filters[1])
}

func TestRenderNilRows(t *testing.T) {
	v := usersTable(10).Render(nil, map[string]string{"email": "x"}, Options{Page: 3})

	assert.Equal(t, 0, v.Total)
	assert.Equal(t, 0, v.Visible)
	assert.NotNil(t, v.Rows)
	assert.Empty(t, v.Rows)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.Pages)
}

func TestRenderPagination(t *testing.T) {
	rows := make([]Row, 0, 23)
	for i := 1; i <= 23; i++ {
		rows = append(rows, Row{"id": strconv.Itoa(i), "email": "user" + strconv.Itoa(i) + "@test.com"})
	}
	tbl := usersTable(10)

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantFirst string
		wantLen   int
	}{
		{name: "first page", page: 1, wantPage: 1, wantFirst: "1", wantLen: 10},
		{name: "zero clamps to first", page: 0, wantPage: 1, wantFirst: "1", wantLen: 10},
		{name: "last page partial", page: 3, wantPage: 3, wantFirst: "21", wantLen: 3},
		{name: "beyond last clamps", page: 99, wantPage: 3, wantFirst: "21", wantLen: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tbl.Render(rows, nil, Options{Page: tt.page})
			assert.Equal(t, 3, v.Pages)
			assert.Equal(t, tt.wantPage, v.Page)
			require.Len(t, v.Rows, tt.wantLen)
			assert.Equal(t, tt.wantFirst, v.Rows[0].Key)
			assert.Equal(t, tt.wantPage > 1, v.HasPrev())
			assert.Equal(t, tt.wantPage < 3, v.HasNext())
		})
	}
}

func TestRenderSort(t *testing.T) {
	rows := []Row{
		{"id": "10", "name": "beta"},
		{"id": "9", "name": "Alpha"},
		{"id": "100", "name": "gamma"},
	}
	tbl := usersTable(0)

	byName := tbl.Render(rows, nil, Options{Sort: "name"})
	assert.Equal(t, []string{"9", "10", "100"}, keys(byName))
	assert.Equal(t, "name", byName.Sort)
	assert.True(t, byName.Headers[2].Sorted)

	byIDDesc := tbl.Render(rows, nil, Options{Sort: "id", Desc: true})
	assert.Equal(t, []string{"100", "10", "9"}, keys(byIDDesc))
	assert.True(t, byIDDesc.Headers[0].Desc)

	unknown := tbl.Render(rows, nil, Options{Sort: "password"})
	assert.Equal(t, []string{"10", "9", "100"}, keys(unknown))
	assert.Equal(t, "", unknown.Sort)
}

func TestRenderSortMixedColumn(t *testing.T) {
	tbl := usersTable(0)
	orders := [][]string{
		{"2", "1a", "10", "3", "9b"},
		{"10", "9b", "3", "1a", "2"},
		{"9b", "3", "2", "10", "1a"},
	}
	for _, input := range orders {
		rows := make([]Row, 0, len(input))
		for i, n := range input {
			rows = append(rows, Row{"id": strconv.Itoa(i + 1), "name": n})
		}

		asc := tbl.Render(rows, nil, Options{Sort: "name"})
		assert.Equal(t, []string{"2", "3", "10", "1a", "9b"}, nameCells(asc), "input %v", input)

		desc := tbl.Render(rows, nil, Options{Sort: "name", Desc: true})
		assert.Equal(t, []string{"9b", "1a", "10", "3", "2"}, nameCells(desc), "input %v", input)
	}
}

func TestSanitize(t *testing.T) {
	got := usersTable(0).Sanitize(map[string]string{
		"email":    "  ivan ",
		"name":     "   ",
		"password": "secret",
	})
	assert.Equal(t, map[string]string{"email": "ivan"}, got)
}

func TestSelectedIDs(t *testing.T) {
	got := SelectedIDs([]string{"3", "1", "x", "3", "-2", " 7 ", "0"})
	assert.Equal(t, []int{3, 1, 7}, got)
	assert.Empty(t, SelectedIDs(nil))
}

func nameCells(v View) []string {
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.Cells[2].Text)
	}
	return out
}

func keys(v View) []string {
	out := make([]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, r.Key)
	}
	return out
}
