package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/report"
)

var (
	templateSchema string
	templateOut    string
)

var templateCmd = &cobra.Command{
	Use:   "template --schema ID -o FILE",
	Short: "Write the Excel template of a schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := importer.Default().Lookup(templateSchema)
		if err != nil {
			return err
		}
		data, err := report.Template(s)
		if err != nil {
			return err
		}
		out := templateOut
		if out == "" {
			out = s.ID + "_plantilla.xlsx"
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plantilla guardada en %s\n", out)
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVar(&templateSchema, "schema", "", "schema ID")
	templateCmd.Flags().StringVarP(&templateOut, "output", "o", "", "output file (default <schema>_plantilla.xlsx)")
	_ = templateCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(templateCmd)
}
