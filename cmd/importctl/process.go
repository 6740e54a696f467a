package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/importjob"
	"github.com/JonMunkholm/solarimport/internal/report"
	"github.com/JonMunkholm/solarimport/internal/store"
)

var processFlags struct {
	schema   string
	mapping  string
	strategy string
	tenant   string
	dryRun   bool
	report   string
	db       string
	jsonOut  bool
}

var processCmd = &cobra.Command{
	Use:   "process --schema ID FILE",
	Short: "Import a file into the local database",
	Long: `Validate every row of FILE against the schema and store the valid ones in
a SQLite database. Rows whose identity matches a stored record follow the
duplicate strategy (skip, update, error, append or ask).

With --report, invalid and rejected rows are written to an Excel workbook.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processFlags.schema, "schema", "", "schema ID")
	f.StringVar(&processFlags.mapping, "mapping", "", "JSON file mapping source columns to field keys")
	f.StringVar(&processFlags.strategy, "strategy", "", "duplicate strategy (default: the schema's)")
	f.StringVar(&processFlags.tenant, "tenant", "", "tenant the import belongs to")
	f.BoolVar(&processFlags.dryRun, "dry-run", false, "resolve rows without writing")
	f.StringVar(&processFlags.report, "report", "", "write an Excel error report to this file")
	f.StringVar(&processFlags.db, "db", "imports.db", "SQLite database file")
	f.BoolVar(&processFlags.jsonOut, "json", false, "print the full summary as JSON")
	_ = processCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	up, err := readUpload(args[0])
	if err != nil {
		return err
	}
	mapping, err := readMapping(processFlags.mapping)
	if err != nil {
		return err
	}
	strategy, err := importer.ParseDuplicateStrategy(processFlags.strategy)
	if err != nil {
		return err
	}

	repo, err := store.OpenSQLite(ctx, processFlags.db)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := importjob.NewService(repo, importer.Default(), importjob.Options{})
	sum, err := svc.Execute(ctx, importjob.Request{
		SchemaID: processFlags.schema,
		TenantID: processFlags.tenant,
		Upload:   up,
		Mapping:  mapping,
		Strategy: strategy,
		DryRun:   processFlags.dryRun,
	})
	if err != nil {
		return err
	}

	if processFlags.report != "" {
		if err := writeReport(processFlags.report, sum); err != nil {
			return err
		}
	}

	if processFlags.jsonOut {
		return printJSON(cmd, sum)
	}
	printSummary(cmd, sum)
	return nil
}

func readMapping(path string) (importer.Mapping, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var m importer.Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid mapping %s: %w", path, err)
	}
	return m, nil
}

// writeReport includes rows rejected at write time next to the invalid
// ones, so the workbook lists everything that did not make it in.
func writeReport(path string, sum *importjob.Summary) error {
	res := *sum.Result
	res.InvalidData = append(append([]importer.InvalidRow{}, res.InvalidData...), sum.Failures...)
	res.Warnings = sum.Warnings

	data, err := report.ErrorReport(&res, sum.Headers)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printSummary(cmd *cobra.Command, sum *importjob.Summary) {
	out := cmd.OutOrStdout()
	j := sum.Job
	fmt.Fprintf(out, "Importación %s (%s)\n", j.ID, j.Status)
	fmt.Fprintf(out, "  Filas:        %d (%d válidas, %d con errores)\n", j.TotalRows, j.ValidRows, j.InvalidRows)
	fmt.Fprintf(out, "  Insertadas:   %d\n", j.Inserted)
	fmt.Fprintf(out, "  Actualizadas: %d\n", j.Updated)
	fmt.Fprintf(out, "  Omitidas:     %d\n", j.Skipped)
	fmt.Fprintf(out, "  Pendientes:   %d\n", j.Pending)
	fmt.Fprintf(out, "  Fallidas:     %d\n", j.Failed)

	for _, w := range sum.Warnings {
		fmt.Fprintf(out, "Aviso: %s\n", w)
	}
	for _, inv := range sum.Result.InvalidData {
		printRowErrors(cmd, inv)
	}
	for _, inv := range sum.Failures {
		printRowErrors(cmd, inv)
	}
}

func printRowErrors(cmd *cobra.Command, inv importer.InvalidRow) {
	for _, e := range inv.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "Fila %d, %s: %s\n", inv.Row, e.Field, e.Message)
	}
}
