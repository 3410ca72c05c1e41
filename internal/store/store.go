package store

import (
	"context"
	"time"
)

// RefKind names one of the two shared reference tables.
type RefKind string

const (
	Authors    RefKind = "author"
	Categories RefKind = "category"
)

// Kinds lists every reference kind in load order.
var Kinds = []RefKind{Authors, Categories}

// Table returns the name table of the kind.
func (k RefKind) Table() string { return string(k) }

// JunctionTable returns the table linking works to names of the kind.
func (k RefKind) JunctionTable() string { return "book_" + string(k) }

// JunctionColumn returns the junction column referencing the name table.
func (k RefKind) JunctionColumn() string { return string(k) + "_id" }

// Work is the immutable part of a catalog volume.
type Work struct {
	ID             string
	Title          string
	Subtitle       *string
	Publisher      *string
	PublishedDate  *time.Time
	PageCount      *int64
	MaturityRating *string
	Language       *string
}

// Identifier is an external identifier of a work.
type Identifier struct {
	Value  string
	Type   string
	WorkID string
}

// WorkRef links a work to a name id of some RefKind.
type WorkRef struct {
	WorkID string
	RefID  int64
}

// Observation is the snapshot of a work's mutable fields taken on one run.
// Prices are decimal text.
type Observation struct {
	WorkID        string
	ObservedOn    time.Time
	AverageRating *float64
	RatingsCount  *int64

	SaleCountry *string
	Saleability *string
	IsEbook     *bool
	ListPrice   *string
	RetailPrice *string

	AccessCountry *string
	Viewability   *string
	TextToSpeech  *string
	EpubAvailable *bool
	PDFAvailable  *bool
}

// Counts reports the number of rows in each table.
type Counts struct {
	Works          int64
	Authors        int64
	Categories     int64
	BookAuthors    int64
	BookCategories int64
	Identifiers    int64
	Observations   int64
}

// Tx is the set of operations available inside one transaction.
// Every bulk method issues a single statement for the whole slice.
type Tx interface {
	// ExistingWorkIDs returns the subset of ids already stored.
	ExistingWorkIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	InsertWorks(ctx context.Context, works []Work) error

	// ExistingNames returns the subset of names already stored for kind.
	ExistingNames(ctx context.Context, kind RefKind, names []string) (map[string]struct{}, error)
	InsertNames(ctx context.Context, kind RefKind, names []string) error
	// ResolveNames maps each stored name of kind to its id.
	ResolveNames(ctx context.Context, kind RefKind, names []string) (map[string]int64, error)

	// InsertIdentifiers skips identifiers whose (value, type) is already stored.
	InsertIdentifiers(ctx context.Context, ids []Identifier) error
	InsertWorkRefs(ctx context.Context, kind RefKind, refs []WorkRef) error
	InsertObservations(ctx context.Context, obs []Observation) error
}

// Store is a catalog database.
type Store interface {
	// EnsureSchema creates missing tables. Safe to call on every start.
	EnsureSchema(ctx context.Context) error

	// InTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Counts(ctx context.Context) (Counts, error)
}
