package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/metrics"
	"github.com/vvka-141/bookshelf/internal/validation"
	"go.uber.org/zap"
)

// ValidationService validates the latest raw partition of each keyword.
type ValidationService struct {
	fsProvider filesystem.FileSystemProvider
	logger     *zap.Logger
	metrics    *metrics.Metrics
	opts       validation.Options
}

// NewValidationService creates a ValidationService. Panics if fsProvider is nil.
func NewValidationService(fsProvider filesystem.FileSystemProvider, logger *zap.Logger, m *metrics.Metrics, opts validation.Options) *ValidationService {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{fsProvider: fsProvider, logger: logger, metrics: m, opts: opts}
}

// Run validates keyword with a fresh validation.Manager, so counters never
// leak between keywords.
func (s *ValidationService) Run(ctx context.Context, keyword string) (*validation.Report, error) {
	log := s.logger.With(zap.String("run_id", uuid.NewString()))
	report, err := validation.NewManager(s.fsProvider, log, s.opts, keyword).Run(ctx)

	if report != nil {
		s.metrics.ObserveValidation(keyword, report.Total, report.Passed, report.Percent, err != nil)
	} else {
		s.metrics.ObserveValidation(keyword, 0, 0, 0, true)
	}
	return report, err
}

// RunAll validates keywords in order and stops at the first failure.
func (s *ValidationService) RunAll(ctx context.Context, keywords []string) ([]validation.Report, error) {
	reports := make([]validation.Report, 0, len(keywords))
	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.Run(ctx, keyword)
		if err != nil {
			return reports, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}
