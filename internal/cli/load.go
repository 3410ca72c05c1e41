package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/bookshelf/internal/services"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
)

var loadCmd = &cobra.Command{
	Use:   "load [keyword...]",
	Short: "Load validated partitions into the catalog database",
	Long: `Load writes the validated partition of each keyword to PostgreSQL in one
transaction per partition. New books, authors, genres and identifiers are
inserted once; every record adds an observation for the partition date.

The catalog database and its tables are created on first use.
Connection: DB_URL, BOOKSHELF_DB_URL or connection.url in bookshelf.yaml.

Examples:
  bookshelf load gardening
  bookshelf load gardening --date 2024-05-01`,
	RunE: runLoad,
}

type loadFlagValues struct {
	date string
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadFlags.date, "date", "",
		"Partition date to load, YYYY-MM-DD (default: latest per keyword)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadFlags.date != "" {
		if _, err := bookshelf.ParseDate(loadFlags.date); err != nil {
			return err
		}
	}
	settings, err := loadSettings(args, nil)
	if err != nil {
		return err
	}
	a, err := newApp(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	ctx, cancel := commandContext(settings.Timeout)
	defer cancel()

	st, closeStore, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	loader := services.NewLoadService(st, a.fs, a.logger, a.metrics, settings.ValidatedDir)
	reports, err := loader.Run(ctx, settings.Keywords, loadFlags.date)
	if len(reports) > 0 {
		printSummary(cmd.OutOrStdout(), renderLoad(reports))
	}
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}
