package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vvka-141/bookshelf/internal/catalog"
	"github.com/vvka-141/bookshelf/internal/files/filesystem"
)

// Loader reads partition files through a filesystem provider.
type Loader struct {
	fsProvider filesystem.FileSystemProvider
}

// NewLoader creates a loader over the OS filesystem.
func NewLoader() *Loader {
	return &Loader{fsProvider: filesystem.NewOSFileSystem()}
}

// NewLoaderWithFS creates a loader over a custom filesystem provider.
// Panics if fsProvider is nil.
func NewLoaderWithFS(fsProvider filesystem.FileSystemProvider) *Loader {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Loader{fsProvider: fsProvider}
}

type rawPage struct {
	Items []any `json:"items"`
}

// ReadRawItems returns the items of every raw page in files, in order.
// A page without an "items" key contributes no records.
func (l *Loader) ReadRawItems(files []string) ([]any, error) {
	var items []any
	for _, path := range files {
		data, err := l.fsProvider.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var page rawPage
		if err := decode(data, &page); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// ReadVolumes returns the canonical volumes of every validated file in files.
func (l *Loader) ReadVolumes(files []string) ([]catalog.Volume, error) {
	var volumes []catalog.Volume
	for _, path := range files {
		data, err := l.fsProvider.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		batch, err := catalog.UnmarshalVolumes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		volumes = append(volumes, batch...)
	}
	return volumes, nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
