package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/bookshelf/internal/store"
)

func TestStore_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx store.Tx) error {
		return tx.InsertWorks(ctx, []store.Work{{ID: "a", Title: "A"}})
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.InTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.InsertWorks(ctx, []store.Work{{ID: "b", Title: "B"}}))
		require.NoError(t, tx.InsertNames(ctx, store.Authors, []string{"X"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Works: 1}, counts)
	_, ok := s.Work("b")
	assert.False(t, ok)
}

func TestStore_KeysEnforced(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx store.Tx) error {
		return tx.InsertWorks(ctx, []store.Work{{ID: "a"}, {ID: "a"}})
	})
	assert.ErrorContains(t, err, "book_pkey")

	err = s.InTx(ctx, func(tx store.Tx) error {
		return tx.InsertNames(ctx, store.Categories, []string{"Gardening", "Gardening"})
	})
	assert.ErrorContains(t, err, "category_name_key")

	err = s.InTx(ctx, func(tx store.Tx) error {
		return tx.InsertObservations(ctx, []store.Observation{{WorkID: "ghost"}})
	})
	assert.ErrorContains(t, err, "foreign key")

	err = s.InTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertWorks(ctx, []store.Work{{ID: "a"}}); err != nil {
			return err
		}
		return tx.InsertWorkRefs(ctx, store.Authors, []store.WorkRef{{WorkID: "a", RefID: 99}})
	})
	assert.ErrorContains(t, err, "foreign key")
}

func TestStore_NamesAndRefs(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.InsertWorks(ctx, []store.Work{{ID: "a", Title: "A"}}))
		require.NoError(t, tx.InsertNames(ctx, store.Authors, []string{"Ann", "Bob"}))

		existing, err := tx.ExistingNames(ctx, store.Authors, []string{"Ann", "Cid"})
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"Ann": {}}, existing)

		ids, err := tx.ResolveNames(ctx, store.Authors, []string{"Ann", "Bob", "Cid"})
		require.NoError(t, err)
		assert.Len(t, ids, 2)
		assert.NotEqual(t, ids["Ann"], ids["Bob"])

		return tx.InsertWorkRefs(ctx, store.Authors, []store.WorkRef{
			{WorkID: "a", RefID: ids["Ann"]},
			{WorkID: "a", RefID: ids["Bob"]},
		})
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ann", "Bob"}, s.Names(store.Authors))
	assert.Equal(t, []string{"Ann", "Bob"}, s.RefsOf(store.Authors, "a"))
	assert.Empty(t, s.Names(store.Categories))
}

func TestStore_IdentifiersSkipConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.InsertWorks(ctx, []store.Work{{ID: "a"}, {ID: "b"}}))
		return tx.InsertIdentifiers(ctx, []store.Identifier{
			{Value: "9780385752992", Type: "ISBN_13", WorkID: "a"},
			{Value: "9780385752992", Type: "ISBN_13", WorkID: "b"},
			{Value: "0385752997", Type: "ISBN_10", WorkID: "a"},
		})
	})
	require.NoError(t, err)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Identifiers)
}

func TestStore_Observations(t *testing.T) {
	ctx := context.Background()
	s := New()
	day1 := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	for _, day := range []time.Time{day1, day2} {
		err := s.InTx(ctx, func(tx store.Tx) error {
			existing, err := tx.ExistingWorkIDs(ctx, []string{"a"})
			if err != nil {
				return err
			}
			if _, ok := existing["a"]; !ok {
				if err := tx.InsertWorks(ctx, []store.Work{{ID: "a"}}); err != nil {
					return err
				}
			}
			return tx.InsertObservations(ctx, []store.Observation{{WorkID: "a", ObservedOn: day}})
		})
		require.NoError(t, err)
	}

	obs := s.Observations("a")
	require.Len(t, obs, 2)
	assert.Equal(t, day1, obs[0].ObservedOn)
	assert.Equal(t, day2, obs[1].ObservedOn)
}

func TestStore_CancelledContextRollsBack(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.InTx(ctx, func(tx store.Tx) error {
		err := tx.InsertWorks(context.Background(), []store.Work{{ID: "a"}})
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts.Works)
}
