// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pzpanel/pzpanel/internal/config"
	"github.com/pzpanel/pzpanel/internal/version"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the panel configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with secrets masked",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.NewLoader(opts.configPath, version.Version).Load()
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(config.MaskSecrets(cfg)); err != nil {
					return err
				}
				return enc.Close()
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Load and validate the configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				loader := config.NewLoader(opts.configPath, version.Version)
				if _, err := loader.Load(); err != nil {
					return err
				}
				path := loader.Path()
				if path == "" {
					path = "defaults and environment"
				}
				_, err := color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				return err
			},
		},
	)
	return cmd
}
