package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/solarimport/internal/importer"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List registered import schemas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := importer.Default().All()
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTARGET\tFIELDS\tDUPLICATES\tLABEL")
		for _, s := range all {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.TargetModel, len(s.Fields), s.Strategy(), s.Label)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
}
