// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/version"
)

type rootOptions struct {
	configPath string
	logLevel   string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pzpanel",
		Short:         "Project Zomboid server admin panel",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true
			}
			level := opts.logLevel
			if level == "" {
				level = "warn"
			}
			xglog.Reconfigure(xglog.Config{
				Level:   level,
				Output:  cmd.ErrOrStderr(),
				Service: "pzpanel",
				Version: version.Version,
			})
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		newServeCmd(opts),
		newConfigCmd(opts),
		newSettingsCmd(),
		newModsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version.String())
			return err
		},
	}
}
