package validation

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vvka-141/bookshelf/internal/catalog"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/files/loader"
	"github.com/vvka-141/bookshelf/internal/files/scanner"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	RawDir       string
	ValidatedDir string
	// MinPercent is the minimum share of items, 0 to 100, that must pass.
	MinPercent float64
}

// Report summarizes one validated partition.
type Report struct {
	Keyword    string
	Date       string
	Files      int
	Total      int
	Passed     int
	Percent    float64
	OutputPath string
}

// Rejected returns the number of items that failed validation.
func (r *Report) Rejected() int {
	return r.Total - r.Passed
}

// Manager validates the latest raw partition of one keyword and owns the
// counters of that run. It is not safe for concurrent use.
type Manager struct {
	keyword    string
	opts       Options
	fsProvider filesystem.FileSystemProvider
	scanner    *scanner.Scanner
	loader     *loader.Loader
	logger     *zap.Logger

	total  int
	passed int
}

// NewManager creates a Manager for keyword.
func NewManager(fsProvider filesystem.FileSystemProvider, logger *zap.Logger, opts Options, keyword string) *Manager {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		keyword:    keyword,
		opts:       opts,
		fsProvider: fsProvider,
		scanner:    scanner.NewScannerWithFS(fsProvider),
		loader:     loader.NewLoaderWithFS(fsProvider),
		logger:     logger.With(zap.String("keyword", keyword)),
	}
}

// Run validates every item of the latest raw partition and, when the pass
// rate reaches MinPercent, writes the accepted volumes to the validated tree.
// Nothing is written when an error is returned.
func (m *Manager) Run(ctx context.Context) (*Report, error) {
	m.total, m.passed = 0, 0

	date, err := m.scanner.LatestDate(m.opts.RawDir, m.keyword)
	if err != nil {
		m.logger.Error("no date directories", zap.Error(err))
		return nil, err
	}
	log := m.logger.With(zap.String("date", date))

	files, err := m.scanner.ListFiles(scanner.PartitionDir(m.opts.RawDir, m.keyword, date))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		err := &bookshelf.MissingFilesError{Dir: m.keyword + "/" + date}
		log.Error("no files in partition", zap.Error(err))
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := m.loader.ReadRawItems(files)
	if err != nil {
		return nil, err
	}

	volumes := m.validateItems(log, items)

	if m.total == 0 {
		log.Error("no records in partition", zap.Int("files", len(files)))
		return nil, fmt.Errorf("%s/%s: %w", m.keyword, date, bookshelf.ErrNoData)
	}

	report := &Report{
		Keyword: m.keyword,
		Date:    date,
		Files:   len(files),
		Total:   m.total,
		Passed:  m.passed,
		Percent: float64(m.passed) / float64(m.total) * 100,
	}

	if report.Percent < m.opts.MinPercent {
		err := &bookshelf.PercentError{Percent: report.Percent, MinPercent: m.opts.MinPercent}
		log.Error("validation threshold not met",
			zap.Int("total", report.Total),
			zap.Int("passed", report.Passed),
			zap.Float64("percent", report.Percent),
			zap.Float64("min_percent", m.opts.MinPercent),
		)
		return report, err
	}

	outputPath, err := m.write(date, volumes)
	if err != nil {
		return report, err
	}
	report.OutputPath = outputPath

	log.Info("partition validated",
		zap.Int("total", report.Total),
		zap.Int("passed", report.Passed),
		zap.Float64("percent", report.Percent),
		zap.String("output", outputPath),
	)
	return report, nil
}

func (m *Manager) validateItems(log *zap.Logger, items []any) []catalog.Volume {
	volumes := make([]catalog.Volume, 0, len(items))
	for _, item := range items {
		m.total++
		result := Validate(item)
		if !result.Valid() {
			for _, issue := range result.Issues {
				log.Warn("record failed validation",
					zap.String("msg", issue.Msg),
					zap.String("loc", issue.Path()),
				)
			}
			continue
		}
		m.passed++
		volumes = append(volumes, *result.Volume)
	}
	return volumes
}

// write replaces any earlier output of the same partition.
func (m *Manager) write(date string, volumes []catalog.Volume) (string, error) {
	data, err := catalog.MarshalVolumes(volumes)
	if err != nil {
		return "", err
	}

	outputPath := scanner.OutputPath(m.opts.ValidatedDir, m.keyword, date)
	if err := m.fsProvider.MkdirAll(filepath.Dir(outputPath)); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(outputPath), err)
	}
	if err := m.fsProvider.WriteFile(outputPath, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return outputPath, nil
}
