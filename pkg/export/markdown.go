// Copyright (C) 2025 Joshua Goldstein

// Package export writes table views as Markdown reports.
package export

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/SergeyMarcum/crm-app/pkg/table"
)

// Report describes one exported table.
type Report struct {
	View        table.View
	Domain      string
	GeneratedBy string
	GeneratedAt time.Time
}

// WriteMarkdown renders the report: a heading, the applied filters, the
// visible/total counts and the visible rows.
func WriteMarkdown(w io.Writer, r Report) error {
	md := markdown.NewMarkdown(w)

	md.H1(r.View.Title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Domain", cell(r.Domain)},
			{"Exported by", cell(r.GeneratedBy)},
			{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Rows", strconv.Itoa(r.View.Visible) + " of " + strconv.Itoa(r.View.Total)},
		},
	})
	md.PlainText("")

	writeFilters(md, r.View)
	writeRows(md, r.View)

	return md.Build()
}

func writeFilters(md *markdown.Markdown, v table.View) {
	md.H2("Filters")
	md.PlainText("")

	var applied []string
	for _, f := range v.Filters {
		if f.Value != "" {
			applied = append(applied, f.Label+" contains \""+f.Value+"\"")
		}
	}
	if len(applied) == 0 {
		md.PlainText("No filters applied.")
		md.PlainText("")
		return
	}
	sort.Strings(applied)
	md.BulletList(applied...)
	md.PlainText("")
}

func writeRows(md *markdown.Markdown, v table.View) {
	md.H2("Rows")
	md.PlainText("")

	if len(v.Rows) == 0 {
		md.PlainText("No rows match.")
		md.PlainText("")
		return
	}

	header := make([]string, len(v.Headers))
	for i, h := range v.Headers {
		header[i] = cell(h.Label)
	}
	rows := make([][]string, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = make([]string, len(r.Cells))
		for j, c := range r.Cells {
			rows[i][j] = cell(c.Text)
		}
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

// cell makes text safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}
