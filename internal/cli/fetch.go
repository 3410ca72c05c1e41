package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/bookshelf/internal/config"
	"github.com/vvka-141/bookshelf/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [keyword...]",
	Short: "Download search result pages from the Google Books API",
	Long: `Fetch requests one page per start index for every keyword and writes the
responses below <raw_dir>/<keyword>/<today>/.

Keywords given as arguments replace the configured keyword list.
Requests are rate limited; transient API errors (429, 5xx) are retried.

Examples:
  bookshelf fetch gardening
  GOOGLE_BOOKS_API_KEY=... bookshelf fetch --end-index 10`,
	RunE: runFetch,
}

type fetchFlagValues struct {
	endIndex   int
	maxResults int
}

var fetchFlags fetchFlagValues

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchFlags.endIndex, "end-index", 0,
		"Exclusive upper bound of requested start indexes (default from settings)")
	fetchCmd.Flags().IntVar(&fetchFlags.maxResults, "max-results", 0,
		"Results per page, 1-40 (default from settings)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(args, applyFetchFlags(cmd))
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

	client := a.fetchClient()
	var results []fetch.Result
	for _, keyword := range settings.Keywords {
		result, err := client.Fetch(ctx, keyword)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		results = append(results, *result)
	}

	printSummary(cmd.OutOrStdout(), renderFetch(results))
	return nil
}

func applyFetchFlags(cmd *cobra.Command) func(*config.Settings) {
	return func(s *config.Settings) {
		if cmd.Flags().Changed("end-index") {
			s.Fetch.EndIndex = fetchFlags.endIndex
		}
		if cmd.Flags().Changed("max-results") {
			s.Fetch.MaxResults = fetchFlags.maxResults
		}
	}
}
