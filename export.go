// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/cache"
	"github.com/SergeyMarcum/crm-app/pkg/export"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
	"github.com/SergeyMarcum/crm-app/pkg/table"
)

// passwordEnv supplies the export password when --password is not given.
const passwordEnv = "CRM_PASSWORD"

type exportOptions struct {
	domain   string
	username string
	password string
	filters  []string
	sort     string
	desc     bool
	output   string
}

// NewExportCmd creates the export command.
func NewExportCmd(st *cliState) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export a filtered table as Markdown",
		Long: `Signs in to the backend, loads a table, applies the given filters and
writes the visible rows as a Markdown report.

Tables: ` + strings.Join(tableNames(), ", "),
		Example: `  crm export objects --domain north --username admin --filter status=active
  CRM_PASSWORD=secret crm export tasks -d north -u master -o tasks.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.password == "" {
				opts.password = os.Getenv(passwordEnv)
			}
			var report bytes.Buffer
			if err := runExport(cmd.Context(), st, args[0], opts, &report); err != nil {
				return err
			}
			if opts.output == "" || opts.output == "-" {
				_, err := report.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(opts.output, report.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.domain, "domain", "d", "", "backend domain")
	f.StringVarP(&opts.username, "username", "u", "", "username")
	f.StringVarP(&opts.password, "password", "p", "", "password (default $"+passwordEnv+")")
	f.StringArrayVarP(&opts.filters, "filter", "f", nil, "filter as field=value, repeatable")
	f.StringVar(&opts.sort, "sort", "", "column field to sort by")
	f.BoolVar(&opts.desc, "desc", false, "sort descending")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// parseFilters turns field=value flags into a filter map.
func parseFilters(flags []string) (map[string]string, error) {
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		field, value, ok := strings.Cut(f, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: want field=value", f)
		}
		out[field] = value
	}
	return out, nil
}

func runExport(ctx context.Context, st *cliState, name string, opts *exportOptions, out io.Writer) error {
	log := logger.NewLogger("export")

	spec, ok := lookupTable(name)
	if !ok {
		return fmt.Errorf("unknown table %q (have %s)", name, strings.Join(tableNames(), ", "))
	}
	if opts.password == "" {
		return fmt.Errorf("no password: use --password or $%s", passwordEnv)
	}
	filters, err := parseFilters(opts.filters)
	if err != nil {
		return err
	}

	client, err := api.NewClient(st.cfg.Backend.BaseURL, st.cfg.Backend.Timeout)
	if err != nil {
		return err
	}
	res, err := client.Login(ctx, opts.domain, opts.username, opts.password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	creds := api.Credentials{Domain: opts.domain, Username: opts.username, Token: res.Token}
	defer func() {
		if err := client.Logout(context.WithoutCancel(ctx), creds); err != nil {
			log.Warning("Logout failed", "error", err.Error())
		}
	}()

	user := &auth.User{
		ID:       res.User.ID,
		Username: opts.username,
		Name:     res.User.Name,
		RoleID:   res.User.RoleID,
		Domain:   opts.domain,
		Token:    res.Token,
	}
	if !spec.Roles.Allows(user.Role()) {
		return fmt.Errorf("role %s may not read %s", user.Role(), spec.Name)
	}

	q := &queries{client: client, cache: cache.New(0)}
	rows, err := spec.Load(ctx, q, creds)
	if err != nil {
		return fmt.Errorf("load %s: %w", spec.Name, err)
	}

	def := spec.Def(user, 0)
	applied := def.Sanitize(filters)
	if len(applied) < len(filters) {
		log.Warning("Ignoring filters on fields the table does not filter", "table", spec.Name)
	}
	view := def.Render(rows, applied, table.Options{Sort: opts.sort, Desc: opts.desc})

	log.Info("Exporting", "table", spec.Name, "visible", view.Visible, "total", view.Total)
	return export.WriteMarkdown(out, export.Report{
		View:        view,
		Domain:      opts.domain,
		GeneratedBy: user.DisplayName(),
		GeneratedAt: time.Now(),
	})
}
