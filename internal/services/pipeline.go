package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/vvka-141/bookshelf/internal/fetch"
	"github.com/vvka-141/bookshelf/internal/metrics"
	"github.com/vvka-141/bookshelf/internal/validation"
	"go.uber.org/zap"
)

// Fetcher pulls the raw pages of one keyword.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string) (*fetch.Result, error)
}

// Loader loads the latest validated partition of each keyword.
type Loader interface {
	Run(ctx context.Context, keywords []string, date string) ([]LoadReport, error)
}

// RunReport collects the reports of every stage of one pipeline run.
type RunReport struct {
	RunID     string
	Fetched   []fetch.Result
	Validated []validation.Report
	Loaded    []LoadReport
}

// Pipeline runs fetch, validate and load for a keyword list. Each stage
// finishes for every keyword before the next stage starts.
type Pipeline struct {
	fetcher   Fetcher
	validator *ValidationService
	loader    Loader
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewPipeline creates a Pipeline. A nil fetcher skips the fetch stage.
// Panics if validator or loader is nil.
func NewPipeline(fetcher Fetcher, validator *ValidationService, loader Loader, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{fetcher: fetcher, validator: validator, loader: loader, logger: logger, metrics: m}
}

// Run executes the stages in order and stops at the first failing stage.
func (p *Pipeline) Run(ctx context.Context, keywords []string) (*RunReport, error) {
	report := &RunReport{RunID: uuid.NewString()}
	log := p.logger.With(zap.String("run_id", report.RunID))
	log.Info("pipeline started", zap.Strings("keywords", keywords))

	if p.fetcher != nil {
		for _, keyword := range keywords {
			result, err := p.fetcher.Fetch(ctx, keyword)
			p.metrics.ObserveRun("fetch", err)
			if err != nil {
				return report, err
			}
			report.Fetched = append(report.Fetched, *result)
		}
	}

	validated, err := p.validator.RunAll(ctx, keywords)
	report.Validated = validated
	p.metrics.ObserveRun("validate", err)
	if err != nil {
		return report, err
	}

	loaded, err := p.loader.Run(ctx, keywords, "")
	report.Loaded = loaded
	p.metrics.ObserveRun("load", err)
	if err != nil {
		return report, err
	}

	log.Info("pipeline finished", zap.Int("keywords", len(keywords)))
	return report, nil
}
