// Package memory implements store.Store in process memory.
//
// It enforces the same keys as the relational schema, so a loader bug that
// would violate a constraint in Postgres fails here too. Transactions work on
// a copy of the data that replaces the committed state only when the callback
// succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vvka-141/bookshelf/internal/store"
)

type identifierKey struct {
	value string
	typ   string
}

type refKey struct {
	workID string
	refID  int64
}

type state struct {
	works        map[string]store.Work
	names        map[store.RefKind]map[string]int64
	nextID       map[store.RefKind]int64
	refs         map[store.RefKind]map[refKey]struct{}
	identifiers  map[identifierKey]store.Identifier
	observations []store.Observation
}

func newState() *state {
	s := &state{
		works:       make(map[string]store.Work),
		names:       make(map[store.RefKind]map[string]int64),
		nextID:      make(map[store.RefKind]int64),
		refs:        make(map[store.RefKind]map[refKey]struct{}),
		identifiers: make(map[identifierKey]store.Identifier),
	}
	for _, kind := range store.Kinds {
		s.names[kind] = make(map[string]int64)
		s.refs[kind] = make(map[refKey]struct{})
	}
	return s
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.works {
		c.works[k] = v
	}
	for _, kind := range store.Kinds {
		for name, id := range s.names[kind] {
			c.names[kind][name] = id
		}
		for ref := range s.refs[kind] {
			c.refs[kind][ref] = struct{}{}
		}
		c.nextID[kind] = s.nextID[kind]
	}
	for k, v := range s.identifiers {
		c.identifiers[k] = v
	}
	c.observations = append([]store.Observation(nil), s.observations...)
	return c
}

// Store is an in-memory store.Store.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// EnsureSchema is a no-op; the tables always exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return ctx.Err()
}

// InTx runs fn against a copy of the data and commits it when fn succeeds.
// Transactions are serialized.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// Counts returns the number of rows per table.
func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return store.Counts{
		Works:          int64(len(s.state.works)),
		Authors:        int64(len(s.state.names[store.Authors])),
		Categories:     int64(len(s.state.names[store.Categories])),
		BookAuthors:    int64(len(s.state.refs[store.Authors])),
		BookCategories: int64(len(s.state.refs[store.Categories])),
		Identifiers:    int64(len(s.state.identifiers)),
		Observations:   int64(len(s.state.observations)),
	}, ctx.Err()
}

// Observations returns the committed observations of workID in insertion order.
func (s *Store) Observations(workID string) []store.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Observation
	for _, o := range s.state.observations {
		if o.WorkID == workID {
			out = append(out, o)
		}
	}
	return out
}

// Work returns the committed work with the given id.
func (s *Store) Work(id string) (store.Work, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.state.works[id]
	return w, ok
}

// Names returns the committed names of kind, sorted.
func (s *Store) Names(kind store.RefKind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.state.names[kind]))
	for name := range s.state.names[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RefsOf returns the names of kind linked to workID, sorted.
func (s *Store) RefsOf(kind store.RefKind, workID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[int64]string, len(s.state.names[kind]))
	for name, id := range s.state.names[kind] {
		byID[id] = name
	}
	var names []string
	for ref := range s.state.refs[kind] {
		if ref.workID == workID {
			names = append(names, byID[ref.refID])
		}
	}
	sort.Strings(names)
	return names
}

var _ store.Store = (*Store)(nil)

type memTx struct {
	state *state
}

func (tx *memTx) ExistingWorkIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := tx.state.works[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, ctx.Err()
}

func (tx *memTx) InsertWorks(ctx context.Context, works []store.Work) error {
	for _, w := range works {
		if _, ok := tx.state.works[w.ID]; ok {
			return fmt.Errorf("duplicate key value violates unique constraint \"book_pkey\": id=%s", w.ID)
		}
		tx.state.works[w.ID] = w
	}
	return ctx.Err()
}

func (tx *memTx) ExistingNames(ctx context.Context, kind store.RefKind, names []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, name := range names {
		if _, ok := tx.state.names[kind][name]; ok {
			out[name] = struct{}{}
		}
	}
	return out, ctx.Err()
}

func (tx *memTx) InsertNames(ctx context.Context, kind store.RefKind, names []string) error {
	for _, name := range names {
		if _, ok := tx.state.names[kind][name]; ok {
			return fmt.Errorf("duplicate key value violates unique constraint \"%s_name_key\": name=%s", kind.Table(), name)
		}
		tx.state.nextID[kind]++
		tx.state.names[kind][name] = tx.state.nextID[kind]
	}
	return ctx.Err()
}

func (tx *memTx) ResolveNames(ctx context.Context, kind store.RefKind, names []string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		if id, ok := tx.state.names[kind][name]; ok {
			out[name] = id
		}
	}
	return out, ctx.Err()
}

func (tx *memTx) InsertIdentifiers(ctx context.Context, ids []store.Identifier) error {
	for _, id := range ids {
		if _, ok := tx.state.works[id.WorkID]; !ok {
			return fmt.Errorf("insert on table \"industry_identifier\" violates foreign key constraint: book %s", id.WorkID)
		}
		key := identifierKey{value: id.Value, typ: id.Type}
		if _, ok := tx.state.identifiers[key]; ok {
			continue
		}
		tx.state.identifiers[key] = id
	}
	return ctx.Err()
}

func (tx *memTx) InsertWorkRefs(ctx context.Context, kind store.RefKind, refs []store.WorkRef) error {
	known := make(map[int64]struct{}, len(tx.state.names[kind]))
	for _, id := range tx.state.names[kind] {
		known[id] = struct{}{}
	}
	for _, ref := range refs {
		if _, ok := tx.state.works[ref.WorkID]; !ok {
			return fmt.Errorf("insert on table %q violates foreign key constraint: book %s", kind.JunctionTable(), ref.WorkID)
		}
		if _, ok := known[ref.RefID]; !ok {
			return fmt.Errorf("insert on table %q violates foreign key constraint: %s %d", kind.JunctionTable(), kind, ref.RefID)
		}
		key := refKey{workID: ref.WorkID, refID: ref.RefID}
		if _, ok := tx.state.refs[kind][key]; ok {
			return fmt.Errorf("duplicate key value violates unique constraint \"%s_pkey\"", kind.JunctionTable())
		}
		tx.state.refs[kind][key] = struct{}{}
	}
	return ctx.Err()
}

func (tx *memTx) InsertObservations(ctx context.Context, obs []store.Observation) error {
	for _, o := range obs {
		if _, ok := tx.state.works[o.WorkID]; !ok {
			return fmt.Errorf("insert on table \"book_record\" violates foreign key constraint: book %s", o.WorkID)
		}
	}
	tx.state.observations = append(tx.state.observations, obs...)
	return ctx.Err()
}
