package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vvka-141/bookshelf/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "Google Books catalog pipeline",
	Long: `bookshelf pulls search results from the Google Books API, validates every
record against the catalog schema and loads the accepted records into
PostgreSQL. Each run appends one observation per book, so prices, ratings
and availability can be tracked over time.

Data layout:
  <raw_dir>/<keyword>/<YYYY-MM-DD>/start_index_<n>.json   fetched pages
  <validated_dir>/<keyword>/<YYYY-MM-DD>/output_0.json    accepted records

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  20 - Keyword directory has no date directories
  21 - Partition directory has no files
  22 - Partition files contain no records
  23 - Validation pass rate below threshold
  24 - Reference rows missing after insert
  25 - Catalog API request failed`,
	SilenceUsage: true,
}

type globalFlagValues struct {
	verbose    bool
	configPath string
	logFormat  string
}

var globalFlags globalFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configPath, "config", "",
		"Path to the settings file (default: ./bookshelf.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", logging.FormatAuto,
		"Log format: auto|console|json\n"+
			"auto uses console output on a terminal and JSON otherwise")
}
