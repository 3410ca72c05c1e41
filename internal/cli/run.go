package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/bookshelf/internal/config"
	"github.com/vvka-141/bookshelf/internal/services"
)

var runCmd = &cobra.Command{
	Use:   "run [keyword...]",
	Short: "Fetch, validate and load in one go",
	Long: `Run executes the fetch, validate and load stages for every keyword. Each
stage completes for all keywords before the next one starts, and the run
stops at the first failing stage.

Examples:
  bookshelf run gardening beekeeping
  bookshelf run --skip-fetch`,
	RunE: runRun,
}

type runFlagValues struct {
	skipFetch  bool
	minPercent float64
}

var runFlags runFlagValues

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.skipFetch, "skip-fetch", false,
		"Validate and load pages already on disk without calling the API")
	runCmd.Flags().Float64Var(&runFlags.minPercent, "min-percent", 0,
		"Minimum share of records that must pass, 0-100 (default from settings, 70)")
}

func runRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(args, func(s *config.Settings) {
		if cmd.Flags().Changed("min-percent") {
			s.MinPercent = runFlags.minPercent
		}
	})
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

	var fetcher services.Fetcher
	if !runFlags.skipFetch {
		fetcher = a.fetchClient()
	}
	loader := services.NewLoadService(st, a.fs, a.logger, a.metrics, settings.ValidatedDir)
	pipeline := services.NewPipeline(fetcher, a.validationService(), loader, a.logger, a.metrics)

	report, err := pipeline.Run(ctx, settings.Keywords)
	printSummary(cmd.OutOrStdout(), renderRun(report)...)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func renderRun(report *services.RunReport) []string {
	var blocks []string
	if len(report.Fetched) > 0 {
		blocks = append(blocks, renderFetch(report.Fetched))
	}
	if len(report.Validated) > 0 {
		blocks = append(blocks, renderValidation(report.Validated))
	}
	if len(report.Loaded) > 0 {
		blocks = append(blocks, renderLoad(report.Loaded))
	}
	return blocks
}
