package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teknatem/mpbackoffice/internal/bootstrap"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered report data sources and their fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := bootstrap.NewRegistry()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, schema := range registry.List() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", schema.ID, schema.Name, schema.Table)
			for _, f := range schema.Fields {
				var flags string
				if f.CanGroup {
					flags += "group "
				}
				if f.CanAggregate {
					flags += "aggregate"
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.ID, f.Type, flags)
			}
		}
		return tw.Flush()
	},
}
