package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/bookshelf/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [keyword...]",
	Short: "Validate the latest raw partition of each keyword",
	Long: `Validate reads every page of the latest raw partition of each keyword,
checks each record and writes the accepted records to
<validated_dir>/<keyword>/<date>/output_0.json.

Rejected records are logged with their location and reason. The run fails
when the share of accepted records is below --min-percent, and stops at the
first keyword that fails.

Examples:
  bookshelf validate gardening
  bookshelf validate --min-percent 85`,
	RunE: runValidate,
}

type validateFlagValues struct {
	minPercent float64
}

var validateFlags validateFlagValues

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Float64Var(&validateFlags.minPercent, "min-percent", 0,
		"Minimum share of records that must pass, 0-100 (default from settings, 70)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(args, func(s *config.Settings) {
		if cmd.Flags().Changed("min-percent") {
			s.MinPercent = validateFlags.minPercent
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

	reports, err := a.validationService().RunAll(ctx, settings.Keywords)
	if len(reports) > 0 {
		printSummary(cmd.OutOrStdout(), renderValidation(reports))
	}
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
