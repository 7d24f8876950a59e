// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/mods"
)

func newModsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mods",
		Short: "Inspect the mod list of a server .ini",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list FILE",
		Short: "List the mods and workshop items of a server .ini",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := mods.New(files.NewOSStore()).Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tWORKSHOP ID")
			for _, m := range list.Mods {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, m.WorkshopID)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if list.Warning != "" {
				_, _ = color.New(color.FgYellow).Fprintf(out, "warning: %s\n", list.Warning)
			}
			if len(list.Dropped) > 0 {
				_, _ = color.New(color.FgYellow).Fprintf(out, "ignored invalid workshop ids: %v\n", list.Dropped)
			}
			return nil
		},
	})
	return cmd
}
