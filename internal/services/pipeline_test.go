package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/bookshelf/internal/fetch"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/files/scanner"
	"github.com/vvka-141/bookshelf/internal/metrics"
	"github.com/vvka-141/bookshelf/internal/store"
	"github.com/vvka-141/bookshelf/internal/store/memory"
	"go.uber.org/zap"
)

// fakeFetcher writes canned raw pages instead of calling the catalog API.
type fakeFetcher struct {
	fs    *filesystem.MemoryFileSystem
	date  string
	pages map[string][]string
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, keyword string) (*fetch.Result, error) {
	f.calls = append(f.calls, keyword)
	if f.err != nil {
		return nil, f.err
	}
	result := &fetch.Result{Keyword: keyword, Date: f.date}
	for i, page := range f.pages[keyword] {
		path := scanner.RawPagePath(rawDir, keyword, f.date, i)
		f.fs.AddFile(path, page)
		result.Files = append(result.Files, path)
	}
	return result, nil
}

func TestPipeline_TwoRunsAccumulateObservations(t *testing.T) {
	ctx := context.Background()
	fs := filesystem.NewMemoryFileSystem("/")
	st := memory.New()
	validator := newValidationService(fs, 70)
	loader := NewLoadService(st, fs, zap.NewNop(), nil, validatedDir)

	first := &fakeFetcher{fs: fs, date: "2024-05-01", pages: map[string][]string{
		"gardening": {rawPage(
			rawItem("w1", "Roses", []string{"Ann"}, []string{"Gardening"}),
			rawItem("w2", "Tulips", []string{"Ann"}, []string{"Gardening"}),
		)},
	}}
	report, err := NewPipeline(first, validator, loader, zap.NewNop(), nil).Run(ctx, []string{"gardening"})
	require.NoError(t, err)
	require.Len(t, report.Loaded, 1)
	assert.Equal(t, 2, report.Loaded[0].NewWorks)
	assert.Equal(t, 1, report.Loaded[0].NewAuthors)
	assert.Equal(t, 1, report.Loaded[0].NewCategories)

	second := &fakeFetcher{fs: fs, date: "2024-05-02", pages: map[string][]string{
		"gardening": {rawPage(
			rawItem("w1", "Roses", []string{"Ann"}, []string{"Gardening"}),
			rawItem("w3", "Ferns", []string{"Bob"}, []string{"Gardening"}),
			rawItem("w4", "Moss", []string{"Ann", "Cid"}, nil),
		)},
	}}
	report, err = NewPipeline(second, validator, loader, zap.NewNop(), nil).Run(ctx, []string{"gardening"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", report.Loaded[0].Date)
	assert.Equal(t, 2, report.Loaded[0].NewWorks)
	assert.Equal(t, 3, report.Loaded[0].Observations)

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{
		Works:          4,
		Authors:        3,
		Categories:     1,
		BookAuthors:    5,
		BookCategories: 3,
		Observations:   5,
	}, counts)
	assert.Len(t, st.Observations("w1"), 2)
	assert.Len(t, st.Observations("w3"), 1)
	assert.Equal(t, []string{"Ann", "Cid"}, st.RefsOf(store.Authors, "w4"))
}

func TestPipeline_SkipsFetchWithoutFetcher(t *testing.T) {
	ctx := context.Background()
	fs := filesystem.NewMemoryFileSystem("/")
	fs.AddFile(scanner.RawPagePath(rawDir, "bees", "2024-05-01", 0), rawPage(
		rawItem("b1", "Bees", []string{"Dee"}, nil),
	))
	st := memory.New()

	report, err := NewPipeline(nil, newValidationService(fs, 70),
		NewLoadService(st, fs, zap.NewNop(), nil, validatedDir), zap.NewNop(), nil).Run(ctx, []string{"bees"})
	require.NoError(t, err)
	assert.Empty(t, report.Fetched)
	assert.NotEmpty(t, report.RunID)
	_, ok := st.Work("b1")
	assert.True(t, ok)
}

func TestPipeline_FetchFailureStopsRun(t *testing.T) {
	ctx := context.Background()
	fs := filesystem.NewMemoryFileSystem("/")
	st := memory.New()
	reg := prometheus.NewRegistry()
	fetcher := &fakeFetcher{fs: fs, err: errors.New("quota exceeded")}

	_, err := NewPipeline(fetcher, newValidationService(fs, 70),
		NewLoadService(st, fs, zap.NewNop(), nil, validatedDir), zap.NewNop(), metrics.New(reg)).Run(ctx, []string{"a", "b"})
	assert.EqualError(t, err, "quota exceeded")
	assert.Equal(t, []string{"a"}, fetcher.calls)

	n, err := testutil.GatherAndCount(reg, "bookshelf_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
