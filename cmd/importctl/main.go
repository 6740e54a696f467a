// Command importctl runs spreadsheet imports from the command line against
// a local SQLite database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/solarimport/internal/importer"
	"github.com/JonMunkholm/solarimport/internal/importer/schemas"
	"github.com/JonMunkholm/solarimport/internal/logging"
)

var (
	schemaDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "importctl",
	Short: "Import CSV and Excel files into the solar CRM",
	Long: `importctl inspects, validates and imports CSV and Excel files using the
same schemas and duplicate handling as the import API.

Examples:
  importctl schemas
  importctl detect --schema import_customers_v2 clientes.xlsx
  importctl process --schema import_customers_v2 --dry-run clientes.csv
  importctl template --schema import_leads_v1 -o plantilla.xlsx`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries command output; logs go to stderr
		slog.SetDefault(logging.New(os.Stderr, logLevel, "text"))

		if schemaDir == "" {
			schemaDir = os.Getenv("SCHEMAS_DIR")
		}
		if schemaDir == "" {
			return nil
		}
		n, err := schemas.LoadDir(importer.Default(), schemaDir)
		if err != nil {
			return fmt.Errorf("load schemas from %s: %w", schemaDir, err)
		}
		slog.Debug("schema files loaded", "dir", schemaDir, "count", n)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&schemaDir, "schemas-dir", "", "directory of extra YAML schemas (default $SCHEMAS_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

func main() {
	// a missing .env is fine; real environment variables win
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// flag and I/O errors have no user message; print them as they are
		if importer.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, "Error:", importer.FormatUserError(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		slog.Debug("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
