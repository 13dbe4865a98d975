// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SergeyMarcum/crm-app/pkg/config"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
)

// cliState carries what the root command resolved to its subcommands.
type cliState struct {
	configPath string
	logLevel   string

	cfg        *config.Config
	loadedFrom string
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	st := &cliState{}

	cmd := &cobra.Command{
		Use:   "crm",
		Short: "Inspection CRM admin console",
		Long: `crm serves the administrative console for facility-inspection operations:
users, inspected objects, object types and their parameters, inspection
tasks, the check calendar, non-compliance records and instructions.

All data lives in the inspection backend; crm renders it and forwards edits.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&st.configPath, "config", "c", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd(st))
	cmd.AddCommand(NewExportCmd(st))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func (st *cliState) load() error {
	cfg, path, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.Log.Level = st.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	st.cfg, st.loadedFrom = cfg, path
	if path != "" {
		logger.Debug("Loaded configuration", "path", path)
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	err := NewRootCmd().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
