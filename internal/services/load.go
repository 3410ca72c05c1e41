package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/bookshelf/internal/catalog"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/files/loader"
	"github.com/vvka-141/bookshelf/internal/files/scanner"
	"github.com/vvka-141/bookshelf/internal/metrics"
	"github.com/vvka-141/bookshelf/internal/store"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
)

// LoadReport summarizes one loaded partition.
type LoadReport struct {
	Keyword       string
	Date          string
	Records       int
	NewWorks      int
	NewAuthors    int
	NewCategories int
	Identifiers   int
	Observations  int
	// Skipped is set when the keyword or partition directory does not exist.
	Skipped bool
}

// LoadService writes validated partitions to a store.
// Not safe for concurrent runs against the same partition.
type LoadService struct {
	store        store.Store
	scanner      *scanner.Scanner
	loader       *loader.Loader
	logger       *zap.Logger
	metrics      *metrics.Metrics
	validatedDir string
}

// NewLoadService creates a LoadService reading partitions below validatedDir.
// Panics if st or fsProvider is nil.
func NewLoadService(st store.Store, fsProvider filesystem.FileSystemProvider, logger *zap.Logger, m *metrics.Metrics, validatedDir string) *LoadService {
	if st == nil {
		panic("store cannot be nil")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoadService{
		store:        st,
		scanner:      scanner.NewScannerWithFS(fsProvider),
		loader:       loader.NewLoaderWithFS(fsProvider),
		logger:       logger,
		metrics:      m,
		validatedDir: validatedDir,
	}
}

// Run loads one partition per keyword, in order. With an empty date the
// latest date directory of each keyword is used. A missing keyword or
// partition directory is logged and skipped; any other error stops the run and is returned with
// the reports of the keywords already loaded.
func (s *LoadService) Run(ctx context.Context, keywords []string, date string) ([]LoadReport, error) {
	if date != "" {
		if _, err := bookshelf.ParseDate(date); err != nil {
			return nil, err
		}
	}
	log := s.logger.With(zap.String("run_id", uuid.NewString()))

	reports := make([]LoadReport, 0, len(keywords))
	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.loadKeyword(ctx, log.With(zap.String("keyword", keyword)), keyword, date)
		if err != nil {
			return reports, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

func (s *LoadService) loadKeyword(ctx context.Context, log *zap.Logger, keyword, date string) (*LoadReport, error) {
	log.Info("processing keyword")

	if date == "" {
		if !s.scanner.KeywordExists(s.validatedDir, keyword) {
			log.Warn(keyword + " directory does not exist")
			return &LoadReport{Keyword: keyword, Skipped: true}, nil
		}
		latest, err := s.scanner.LatestDate(s.validatedDir, keyword)
		if err != nil {
			log.Error("no validated partitions", zap.Error(err))
			return nil, err
		}
		date = latest
	}
	log = log.With(zap.String("date", date))
	partition := bookshelf.Partition{Keyword: keyword, Date: date}

	if !s.scanner.PartitionExists(s.validatedDir, keyword, date) {
		log.Warn(partition.String() + " directory does not exist")
		return &LoadReport{Keyword: keyword, Date: date, Skipped: true}, nil
	}
	log.Info("processing date")

	files, err := s.scanner.ListFiles(scanner.PartitionDir(s.validatedDir, keyword, date))
	if err != nil {
		return nil, err
	}
	volumes, err := s.loader.ReadVolumes(files)
	if err != nil {
		return nil, err
	}

	report, err := s.LoadPartition(ctx, keyword, date, volumes)
	if err != nil {
		log.Error("partition rolled back", zap.Error(err))
		return nil, fmt.Errorf("failed to load %s: %w", partition, err)
	}

	log.Info("partition loaded",
		zap.Int("records", report.Records),
		zap.Int("new_works", report.NewWorks),
		zap.Int("new_authors", report.NewAuthors),
		zap.Int("new_categories", report.NewCategories),
		zap.Int("observations", report.Observations),
	)
	return report, nil
}

// LoadPartition stores volumes observed on date in one transaction.
// Works, names and identifiers are inserted only when new; one observation
// is inserted for every volume. Nothing is kept when an error is returned.
func (s *LoadService) LoadPartition(ctx context.Context, keyword, date string, volumes []catalog.Volume) (*LoadReport, error) {
	observedOn, err := bookshelf.ParseDate(date)
	if err != nil {
		return nil, err
	}

	var report *LoadReport
	err = s.store.InTx(ctx, func(tx store.Tx) error {
		report = &LoadReport{Keyword: keyword, Date: date, Records: len(volumes)}
		return loadBatch(ctx, tx, volumes, observedOn, report)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLoad(keyword, report.NewWorks, report.Observations)
	return report, nil
}

// batch is the new-entity part of a partition.
type batch struct {
	works       []store.Work
	newVolumes  []*catalog.Volume
	candidates  map[store.RefKind]*orderedSet
	identifiers []store.Identifier
}

func loadBatch(ctx context.Context, tx store.Tx, volumes []catalog.Volume, observedOn time.Time, report *LoadReport) error {
	existing, err := tx.ExistingWorkIDs(ctx, distinctIDs(volumes))
	if err != nil {
		return err
	}
	b := collectNew(volumes, existing)

	if len(b.works) > 0 {
		if err := tx.InsertWorks(ctx, b.works); err != nil {
			return err
		}
	}
	report.NewWorks = len(b.works)

	for _, kind := range store.Kinds {
		inserted, err := insertNewNames(ctx, tx, kind, b.candidates[kind].items)
		if err != nil {
			return err
		}
		switch kind {
		case store.Authors:
			report.NewAuthors = inserted
		case store.Categories:
			report.NewCategories = inserted
		}
	}

	if len(b.identifiers) > 0 {
		if err := tx.InsertIdentifiers(ctx, b.identifiers); err != nil {
			return err
		}
	}
	report.Identifiers = len(b.identifiers)

	for _, kind := range store.Kinds {
		if err := linkNames(ctx, tx, kind, b.candidates[kind].items, b.newVolumes); err != nil {
			return err
		}
	}

	observations := make([]store.Observation, 0, len(volumes))
	for i := range volumes {
		observations = append(observations, observationOf(&volumes[i], observedOn))
	}
	if len(observations) > 0 {
		if err := tx.InsertObservations(ctx, observations); err != nil {
			return err
		}
	}
	report.Observations = len(observations)
	return nil
}

func distinctIDs(volumes []catalog.Volume) []string {
	ids := newOrderedSet()
	for i := range volumes {
		ids.add(volumes[i].ID)
	}
	return ids.items
}

// collectNew keeps the first occurrence of every id not yet stored.
func collectNew(volumes []catalog.Volume, existing map[string]struct{}) *batch {
	b := &batch{candidates: make(map[store.RefKind]*orderedSet, len(store.Kinds))}
	for _, kind := range store.Kinds {
		b.candidates[kind] = newOrderedSet()
	}

	seen := make(map[string]struct{})
	for i := range volumes {
		v := &volumes[i]
		if _, ok := existing[v.ID]; ok {
			continue
		}
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}

		b.works = append(b.works, workOf(v))
		b.newVolumes = append(b.newVolumes, v)
		for _, kind := range store.Kinds {
			for _, name := range namesOf(v, kind) {
				b.candidates[kind].add(name)
			}
		}
		for _, id := range v.VolumeInfo.IndustryIdentifiers {
			b.identifiers = append(b.identifiers, store.Identifier{Value: id.Identifier, Type: id.Type, WorkID: v.ID})
		}
	}
	return b
}

func insertNewNames(ctx context.Context, tx store.Tx, kind store.RefKind, candidates []string) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	existing, err := tx.ExistingNames(ctx, kind, candidates)
	if err != nil {
		return 0, err
	}

	var missing []string
	for _, name := range candidates {
		if _, ok := existing[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := tx.InsertNames(ctx, kind, missing); err != nil {
		return 0, err
	}
	return len(missing), nil
}

func linkNames(ctx context.Context, tx store.Tx, kind store.RefKind, candidates []string, newVolumes []*catalog.Volume) error {
	if len(candidates) == 0 {
		return nil
	}
	ids, err := tx.ResolveNames(ctx, kind, candidates)
	if err != nil {
		return err
	}

	var refs []store.WorkRef
	for _, v := range newVolumes {
		linked := make(map[int64]struct{})
		for _, name := range namesOf(v, kind) {
			id, ok := ids[name]
			if !ok {
				return &bookshelf.MissingReferenceError{Kind: string(kind), Name: name, WorkID: v.ID}
			}
			if _, dup := linked[id]; dup {
				continue
			}
			linked[id] = struct{}{}
			refs = append(refs, store.WorkRef{WorkID: v.ID, RefID: id})
		}
	}
	if len(refs) == 0 {
		return nil
	}
	return tx.InsertWorkRefs(ctx, kind, refs)
}

func namesOf(v *catalog.Volume, kind store.RefKind) []string {
	if kind == store.Authors {
		return v.VolumeInfo.Authors
	}
	return v.VolumeInfo.Categories
}

func workOf(v *catalog.Volume) store.Work {
	info := &v.VolumeInfo
	w := store.Work{
		ID:             v.ID,
		Title:          info.Title,
		Subtitle:       info.Subtitle,
		Publisher:      info.Publisher,
		PageCount:      info.PageCount,
		MaturityRating: info.MaturityRating,
		Language:       info.Language,
	}
	if info.PublishedDate != nil {
		t := info.PublishedDate.Time
		w.PublishedDate = &t
	}
	return w
}

func observationOf(v *catalog.Volume, observedOn time.Time) store.Observation {
	o := store.Observation{
		WorkID:        v.ID,
		ObservedOn:    observedOn,
		AverageRating: v.VolumeInfo.AverageRating,
		RatingsCount:  v.VolumeInfo.RatingsCount,
	}

	if sale := v.SaleInfo; sale != nil {
		isEbook := sale.IsEbook
		o.SaleCountry = sale.Country
		o.Saleability = sale.Saleability
		o.IsEbook = &isEbook
		o.ListPrice = amountOf(sale.ListPrice)
		o.RetailPrice = amountOf(sale.RetailPrice)
	}

	if access := v.AccessInfo; access != nil {
		o.AccessCountry = access.Country
		o.Viewability = access.Viewability
		o.TextToSpeech = access.TextToSpeechPermission
		o.EpubAvailable = availableOf(access.Epub)
		o.PDFAvailable = availableOf(access.PDF)
	}
	return o
}

func amountOf(p *catalog.Price) *string {
	if p == nil {
		return nil
	}
	amount := p.Amount.String()
	return &amount
}

func availableOf(a *catalog.Availability) *bool {
	if a == nil {
		return nil
	}
	available := a.IsAvailable
	return &available
}

// orderedSet keeps the first-seen order of distinct strings.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
}
