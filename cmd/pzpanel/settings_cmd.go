// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pzpanel/pzpanel/internal/configedit"
	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and patch server config files (.ini, .lua)",
	}
	cmd.AddCommand(newSettingsShowCmd(), newSettingsSetCmd())
	return cmd
}

func newEditor() *configedit.Service {
	return configedit.New(files.NewOSStore(), settings.DefaultCatalog())
}

func newSettingsShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the settings of a config file in file order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := newEditor().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return printSettings(out, view)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed view as JSON")
	return cmd
}

func printSettings(w io.Writer, view *configedit.View) error {
	header := color.New(color.Bold)
	key := color.New(color.FgCyan)
	if _, err := header.Fprintf(w, "# %s (%s, %s)\n", view.Path, view.Dialect, view.Encoding); err != nil {
		return err
	}
	for _, k := range view.Settings.Keys() {
		if _, err := fmt.Fprintf(w, "%s = %s\n", key.Sprint(k), view.Settings.Raw(k)); err != nil {
			return err
		}
	}
	return nil
}

// parseAssignments turns key=value arguments into a patch. Later duplicates win.
func parseAssignments(args []string) (settings.Patch, error) {
	patch := settings.Patch{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", a)
		}
		patch[k] = v
	}
	return patch, nil
}

func newSettingsSetCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "set FILE key=value...",
		Short: "Patch settings in place, preserving comments and layout",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			res, err := newEditor().Save(cmd.Context(), args[0], patch, configedit.SaveOptions{DryRun: dryRun})
			if err != nil {
				var pe *settings.PatchError
				if errors.As(err, &pe) {
					for _, p := range pe.Problems {
						_, _ = color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "%s=%q: %s\n", p.Key, p.Value, p.Message)
					}
				}
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the diff without writing")
	return cmd
}

func printResult(w io.Writer, res *configedit.Result) error {
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	warn := color.New(color.FgYellow)

	for _, d := range res.Change.Diff {
		var err error
		switch d.Op {
		case settings.DiffInsert:
			_, err = add.Fprintf(w, "+ %s\n", d.Text)
		case settings.DiffDelete:
			_, err = del.Fprintf(w, "- %s\n", d.Text)
		}
		if err != nil {
			return err
		}
	}
	for _, u := range res.Change.Unknown {
		msg := fmt.Sprintf("warning: %s is not a known setting", u.Key)
		if len(u.Suggestions) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(u.Suggestions, ", "))
		}
		if _, err := warn.Fprintln(w, msg); err != nil {
			return err
		}
	}

	var status string
	switch {
	case res.Change.Empty():
		status = "no changes"
	case res.DryRun:
		status = "dry run, nothing written"
	default:
		status = "written"
	}
	_, err := fmt.Fprintf(w, "%s: %d changed, %d appended, %s\n",
		res.Path, len(res.Change.Changed), len(res.Change.Appended), status)
	return err
}
