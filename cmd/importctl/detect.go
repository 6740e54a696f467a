package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/importjob"
)

var detectSchema string

var detectCmd = &cobra.Command{
	Use:   "detect --schema ID FILE",
	Short: "Analyze a file and suggest a column mapping",
	Long: `Parse FILE, infer each column's type and suggest which schema field it
maps to. The output is JSON; its suggestions can be edited into a mapping
file for 'importctl process --mapping'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		up, err := readUpload(args[0])
		if err != nil {
			return err
		}
		svc := importjob.NewService(nil, importer.Default(), importjob.Options{})
		d, err := svc.Detect(cmd.Context(), detectSchema, up)
		if err != nil {
			return err
		}
		return printJSON(cmd, d)
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectSchema, "schema", "", "schema ID")
	_ = detectCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(detectCmd)
}

func readUpload(path string) (importjob.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return importjob.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return importjob.Upload{FileName: filepath.Base(path), Data: data}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
