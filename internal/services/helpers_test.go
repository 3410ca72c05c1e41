package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vvka-141/bookshelf/internal/catalog"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/files/scanner"
	"github.com/vvka-141/bookshelf/internal/store"
)

const (
	rawDir       = "/data/raw"
	validatedDir = "/data/validated"
)

func ptr[T any](v T) *T { return &v }

func volume(id, title string, authors, categories []string) catalog.Volume {
	return catalog.Volume{
		ID: id,
		VolumeInfo: catalog.VolumeInfo{
			Title:      title,
			Authors:    authors,
			Categories: categories,
		},
	}
}

// writeValidated stores volumes as the validated partition keyword/date.
func writeValidated(t *testing.T, fs *filesystem.MemoryFileSystem, keyword, date string, volumes ...catalog.Volume) {
	t.Helper()
	data, err := catalog.MarshalVolumes(volumes)
	require.NoError(t, err)
	fs.AddFile(scanner.OutputPath(validatedDir, keyword, date), string(data))
}

// dropName hides one name from ResolveNames to simulate a lost reference row.
type dropName struct {
	store.Store
	kind store.RefKind
	name string
}

func (d *dropName) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return d.Store.InTx(ctx, func(tx store.Tx) error {
		return fn(&dropNameTx{Tx: tx, kind: d.kind, name: d.name})
	})
}

type dropNameTx struct {
	store.Tx
	kind store.RefKind
	name string
}

func (tx *dropNameTx) ResolveNames(ctx context.Context, kind store.RefKind, names []string) (map[string]int64, error) {
	ids, err := tx.Tx.ResolveNames(ctx, kind, names)
	if kind == tx.kind {
		delete(ids, tx.name)
	}
	return ids, err
}
