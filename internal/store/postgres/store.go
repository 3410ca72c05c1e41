// Package postgres implements store.Store on PostgreSQL with pgx.
//
// Bulk inserts use COPY where every row is new by construction and a single
// INSERT ... SELECT FROM unnest(...) where conflicts are skipped.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/vvka-141/bookshelf/internal/store"
)

// DB is satisfied by *pgxpool.Pool and *pgx.Conn.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a store.Store backed by a connection pool.
type Store struct {
	pool DB
}

// New returns a Store using pool. The caller owns the pool.
func New(pool DB) *Store {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &Store{pool: pool}
}

// EnsureSchema creates the catalog tables that do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
		}
		return nil
	})
}

// InTx runs fn in one transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

// Counts returns the number of rows per table.
func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	var c store.Counts
	err := s.pool.QueryRow(ctx, `SELECT
		(SELECT count(*) FROM book),
		(SELECT count(*) FROM author),
		(SELECT count(*) FROM category),
		(SELECT count(*) FROM book_author),
		(SELECT count(*) FROM book_category),
		(SELECT count(*) FROM industry_identifier),
		(SELECT count(*) FROM book_record)`).Scan(
		&c.Works, &c.Authors, &c.Categories, &c.BookAuthors, &c.BookCategories, &c.Identifiers, &c.Observations,
	)
	if err != nil {
		return store.Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}

var _ store.Store = (*Store)(nil)

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) ExistingWorkIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return t.stringSet(ctx, `SELECT id FROM book WHERE id = ANY($1)`, ids)
}

func (t *pgTx) InsertWorks(ctx context.Context, works []store.Work) error {
	rows := make([][]any, 0, len(works))
	for _, w := range works {
		rows = append(rows, []any{
			w.ID, w.Title, w.Subtitle, w.Publisher, w.PublishedDate, w.PageCount, w.MaturityRating, w.Language,
		})
	}
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"book"},
		[]string{"id", "title", "subtitle", "publisher", "published_date", "page_count", "maturity_rating", "language"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d books: %w", len(works), err)
	}
	return nil
}

func (t *pgTx) ExistingNames(ctx context.Context, kind store.RefKind, names []string) (map[string]struct{}, error) {
	query := fmt.Sprintf(`SELECT name FROM %s WHERE name = ANY($1)`, pgx.Identifier{kind.Table()}.Sanitize())
	return t.stringSet(ctx, query, names)
}

func (t *pgTx) InsertNames(ctx context.Context, kind store.RefKind, names []string) error {
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{kind.Table()},
		[]string{"name"},
		pgx.CopyFromSlice(len(names), func(i int) ([]any, error) {
			return []any{names[i]}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d %s names: %w", len(names), kind, err)
	}
	return nil
}

func (t *pgTx) ResolveNames(ctx context.Context, kind store.RefKind, names []string) (map[string]int64, error) {
	query := fmt.Sprintf(`SELECT name, id FROM %s WHERE name = ANY($1)`, pgx.Identifier{kind.Table()}.Sanitize())
	rows, err := t.tx.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s names: %w", kind, err)
	}
	defer rows.Close()

	out := make(map[string]int64, len(names))
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		out[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to resolve %s names: %w", kind, err)
	}
	return out, nil
}

func (t *pgTx) InsertIdentifiers(ctx context.Context, ids []store.Identifier) error {
	values := make([]string, len(ids))
	types := make([]string, len(ids))
	works := make([]string, len(ids))
	for i, id := range ids {
		values[i], types[i], works[i] = id.Value, id.Type, id.WorkID
	}

	_, err := t.tx.Exec(ctx, `INSERT INTO industry_identifier (identifier, type, book_id)
		SELECT * FROM unnest($1::varchar[], $2::varchar[], $3::text[])
		ON CONFLICT (identifier, type) DO NOTHING`, values, types, works)
	if err != nil {
		return fmt.Errorf("failed to insert %d identifiers: %w", len(ids), err)
	}
	return nil
}

func (t *pgTx) InsertWorkRefs(ctx context.Context, kind store.RefKind, refs []store.WorkRef) error {
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{kind.JunctionTable()},
		[]string{"book_id", kind.JunctionColumn()},
		pgx.CopyFromSlice(len(refs), func(i int) ([]any, error) {
			return []any{refs[i].WorkID, refs[i].RefID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d %s rows: %w", len(refs), kind.JunctionTable(), err)
	}
	return nil
}

func (t *pgTx) InsertObservations(ctx context.Context, obs []store.Observation) error {
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		listPrice, err := numeric(o.ListPrice)
		if err != nil {
			return fmt.Errorf("book %s list price: %w", o.WorkID, err)
		}
		retailPrice, err := numeric(o.RetailPrice)
		if err != nil {
			return fmt.Errorf("book %s retail price: %w", o.WorkID, err)
		}
		rows = append(rows, []any{
			o.AverageRating, o.RatingsCount,
			o.SaleCountry, o.Saleability, o.IsEbook, listPrice, retailPrice,
			o.AccessCountry, o.Viewability, o.TextToSpeech, o.EpubAvailable, o.PDFAvailable,
			pgtype.Date{Time: o.ObservedOn, Valid: true}, o.WorkID,
		})
	}

	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"book_record"},
		[]string{
			"average_rating", "ratings_count",
			"sale_country", "saleability", "is_ebook", "list_price", "retail_price",
			"access_country", "viewability", "text_to_speech", "epub_available", "pdf_available",
			"record_date", "book_id",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d book records: %w", len(obs), err)
	}
	return nil
}

func (t *pgTx) stringSet(ctx context.Context, query string, values []string) (map[string]struct{}, error) {
	rows, err := t.tx.Query(ctx, query, values)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	strs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	out := make(map[string]struct{}, len(strs))
	for _, s := range strs {
		out[s] = struct{}{}
	}
	return out, nil
}

// numeric converts decimal text to a NUMERIC parameter; nil is SQL NULL.
func numeric(amount *string) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if amount == nil {
		return n, nil
	}
	if err := n.Scan(*amount); err != nil {
		return n, fmt.Errorf("invalid amount %q: %w", *amount, err)
	}
	return n, nil
}
