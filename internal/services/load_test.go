package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/bookshelf/internal/catalog"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/store"
	"github.com/vvka-141/bookshelf/internal/store/memory"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoadService(t *testing.T, st store.Store) (*LoadService, *filesystem.MemoryFileSystem, *observer.ObservedLogs) {
	t.Helper()
	fs := filesystem.NewMemoryFileSystem("/")
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLoadService(st, fs, zap.New(core), nil, validatedDir), fs, logs
}

func TestLoadPartition_InsertsEverything(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, _, _ := newLoadService(t, st)

	v1 := volume("w1", "Roses", []string{"Ann", "Bob"}, []string{"Gardening"})
	v1.VolumeInfo.PublishedDate = ptr(catalog.NewDate(2010, time.January, 1))
	v1.VolumeInfo.IndustryIdentifiers = []catalog.IndustryIdentifier{{Type: "ISBN_13", Identifier: "9780000000001"}}
	v1.SaleInfo = &catalog.SaleInfo{Country: ptr("US"), IsEbook: true, ListPrice: &catalog.Price{Amount: "12.99"}}
	v1.AccessInfo = &catalog.AccessInfo{Viewability: ptr("PARTIAL"), Epub: &catalog.Availability{IsAvailable: true}}
	v2 := volume("w2", "Tulips", []string{"Ann"}, []string{"Gardening", "Flowers"})

	report, err := svc.LoadPartition(ctx, "flowers", "2024-05-01", []catalog.Volume{v1, v2})
	require.NoError(t, err)
	assert.Equal(t, &LoadReport{
		Keyword: "flowers", Date: "2024-05-01", Records: 2,
		NewWorks: 2, NewAuthors: 2, NewCategories: 2, Identifiers: 1, Observations: 2,
	}, report)

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{
		Works: 2, Authors: 2, Categories: 2, BookAuthors: 3, BookCategories: 3, Identifiers: 1, Observations: 2,
	}, counts)

	w1, ok := st.Work("w1")
	require.True(t, ok)
	assert.Equal(t, "Roses", w1.Title)
	require.NotNil(t, w1.PublishedDate)
	assert.Equal(t, "2010-01-01", w1.PublishedDate.Format(bookshelf.DateLayout))
	assert.Equal(t, []string{"Ann", "Bob"}, st.RefsOf(store.Authors, "w1"))
	assert.Equal(t, []string{"Flowers", "Gardening"}, st.RefsOf(store.Categories, "w2"))

	obs := st.Observations("w1")
	require.Len(t, obs, 1)
	assert.Equal(t, "2024-05-01", obs[0].ObservedOn.Format(bookshelf.DateLayout))
	assert.Equal(t, ptr("US"), obs[0].SaleCountry)
	assert.Equal(t, ptr(true), obs[0].IsEbook)
	assert.Equal(t, ptr("12.99"), obs[0].ListPrice)
	assert.Nil(t, obs[0].RetailPrice)
	assert.Equal(t, ptr("PARTIAL"), obs[0].Viewability)
	assert.Equal(t, ptr(true), obs[0].EpubAvailable)
	assert.Nil(t, obs[0].PDFAvailable)

	bare := st.Observations("w2")[0]
	assert.Nil(t, bare.SaleCountry)
	assert.Nil(t, bare.IsEbook)
	assert.Nil(t, bare.ListPrice)
	assert.Nil(t, bare.AccessCountry)
	assert.Nil(t, bare.EpubAvailable)
}

func TestLoadPartition_TwiceAddsOnlyObservations(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, _, _ := newLoadService(t, st)
	volumes := []catalog.Volume{
		volume("w1", "Roses", []string{"Ann"}, []string{"Gardening"}),
		volume("w2", "Tulips", []string{"Bob"}, nil),
	}

	_, err := svc.LoadPartition(ctx, "flowers", "2024-05-01", volumes)
	require.NoError(t, err)
	first, err := st.Counts(ctx)
	require.NoError(t, err)

	report, err := svc.LoadPartition(ctx, "flowers", "2024-05-01", volumes)
	require.NoError(t, err)
	assert.Equal(t, 0, report.NewWorks)
	assert.Equal(t, 0, report.NewAuthors)
	assert.Equal(t, 2, report.Observations)

	second, err := st.Counts(ctx)
	require.NoError(t, err)
	want := first
	want.Observations = 2 * first.Observations
	assert.Equal(t, want, second)
}

func TestLoadPartition_DuplicateIDFirstWins(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, _, _ := newLoadService(t, st)

	report, err := svc.LoadPartition(ctx, "flowers", "2024-05-01", []catalog.Volume{
		volume("w1", "First", []string{"Ann"}, nil),
		volume("w1", "Second", []string{"Zed"}, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.NewWorks)
	assert.Equal(t, 2, report.Observations)

	w, ok := st.Work("w1")
	require.True(t, ok)
	assert.Equal(t, "First", w.Title)
	assert.Equal(t, []string{"Ann"}, st.Names(store.Authors))
	assert.Len(t, st.Observations("w1"), 2)
}

func TestLoadPartition_RepeatedNameInOneWork(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, _, _ := newLoadService(t, st)

	_, err := svc.LoadPartition(ctx, "flowers", "2024-05-01", []catalog.Volume{
		volume("w1", "Roses", []string{"Ann", "Ann"}, []string{"Gardening", "Gardening"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann"}, st.RefsOf(store.Authors, "w1"))
	assert.Equal(t, []string{"Gardening"}, st.RefsOf(store.Categories, "w1"))
}

func TestLoadPartition_ReusesStoredNames(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, _, _ := newLoadService(t, st)

	_, err := svc.LoadPartition(ctx, "flowers", "2024-05-01", []catalog.Volume{
		volume("w1", "Roses", []string{"Ann"}, []string{"Gardening"}),
	})
	require.NoError(t, err)

	report, err := svc.LoadPartition(ctx, "flowers", "2024-05-02", []catalog.Volume{
		volume("w2", "Tulips", []string{"Ann", "Cid"}, []string{"Gardening"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.NewAuthors)
	assert.Equal(t, 0, report.NewCategories)
	assert.Equal(t, []string{"Ann", "Cid"}, st.Names(store.Authors))
	assert.Equal(t, []string{"Ann", "Cid"}, st.RefsOf(store.Authors, "w2"))
}

func TestLoadPartition_MissingReferenceRollsBack(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, _, _ := newLoadService(t, &dropName{Store: st, kind: store.Categories, name: "Gardening"})

	_, err := svc.LoadPartition(ctx, "flowers", "2024-05-01", []catalog.Volume{
		volume("w1", "Roses", []string{"Ann"}, []string{"Gardening"}),
	})
	require.Error(t, err)

	var refErr *bookshelf.MissingReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "category", refErr.Kind)
	assert.Equal(t, "Gardening", refErr.Name)
	assert.Equal(t, "w1", refErr.WorkID)
	assert.ErrorIs(t, err, bookshelf.ErrMissingReference)

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{}, counts)
}

func TestLoadPartition_InvalidDate(t *testing.T) {
	svc, _, _ := newLoadService(t, memory.New())
	_, err := svc.LoadPartition(context.Background(), "flowers", "May 1st", nil)
	assert.ErrorIs(t, err, bookshelf.ErrInvalidConfig)
}

func TestLoadService_Run_LatestPartition(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, fs, logs := newLoadService(t, st)
	writeValidated(t, fs, "flowers", "2024-05-01", volume("old", "Old", nil, nil))
	writeValidated(t, fs, "flowers", "2024-05-02", volume("new", "New", nil, nil))

	reports, err := svc.Run(ctx, []string{"flowers"}, "")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2024-05-02", reports[0].Date)

	_, ok := st.Work("old")
	assert.False(t, ok)
	_, ok = st.Work("new")
	assert.True(t, ok)

	entries := logs.FilterMessage("partition loaded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "flowers", fields["keyword"])
	assert.Equal(t, "2024-05-02", fields["date"])
	assert.NotEmpty(t, fields["run_id"])
}

func TestLoadService_Run_ExplicitDate(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, fs, _ := newLoadService(t, st)
	writeValidated(t, fs, "flowers", "2024-05-01", volume("old", "Old", nil, nil))
	writeValidated(t, fs, "flowers", "2024-05-02", volume("new", "New", nil, nil))

	_, err := svc.Run(ctx, []string{"flowers"}, "2024-05-01")
	require.NoError(t, err)
	_, ok := st.Work("old")
	assert.True(t, ok)
}

func TestLoadService_Run_MissingPartitionIsSkipped(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, fs, logs := newLoadService(t, st)
	writeValidated(t, fs, "bees", "2024-05-01", volume("b1", "Bees", nil, nil))

	reports, err := svc.Run(ctx, []string{"flowers", "bees"}, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].Skipped)
	assert.False(t, reports[1].Skipped)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "flowers/2024-05-01 directory does not exist", warnings[0].Message)

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Works)
}

func TestLoadService_Run_MissingKeywordIsSkipped(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc, fs, logs := newLoadService(t, st)
	writeValidated(t, fs, "bees", "2024-05-01", volume("b1", "Bees", nil, nil))

	reports, err := svc.Run(ctx, []string{"flowers", "bees"}, "")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, LoadReport{Keyword: "flowers", Skipped: true}, reports[0])
	assert.Equal(t, "2024-05-01", reports[1].Date)
	assert.Equal(t, 1, reports[1].NewWorks)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "flowers directory does not exist", warnings[0].Message)

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Works)
}

func TestLoadService_Run_Errors(t *testing.T) {
	ctx := context.Background()
	svc, fs, _ := newLoadService(t, memory.New())

	fs.AddDir(validatedDir + "/flowers/notes")
	_, err := svc.Run(ctx, []string{"flowers"}, "")
	assert.ErrorIs(t, err, bookshelf.ErrNoDirectories)

	_, err = svc.Run(ctx, []string{"flowers"}, "yesterday")
	assert.ErrorIs(t, err, bookshelf.ErrInvalidConfig)

	fs.AddFile(validatedDir+"/flowers/2024-05-01/output_0.json", "{not json")
	_, err = svc.Run(ctx, []string{"flowers"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadService_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc, _, _ := newLoadService(t, memory.New())

	_, err := svc.Run(ctx, []string{"flowers"}, "")
	assert.ErrorIs(t, err, context.Canceled)
}
