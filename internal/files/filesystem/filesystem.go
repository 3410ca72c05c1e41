package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// FileSystemProvider abstracts the file operations of the fetch, validate and
// load stages so they can run against an in-memory tree in tests.
//
// Errors for missing paths satisfy errors.Is(err, fs.ErrNotExist).
type FileSystemProvider interface {
	// ReadFile reads a specific file at the given path.
	ReadFile(path string) ([]byte, error)

	// ReadDir reads the directory entries at the given path, sorted by name.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path.
	Stat(path string) (FileInfo, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// WriteFile writes data to the file at path, replacing any existing content.
	// The parent directory must exist.
	WriteFile(path string, data []byte) error
}

// Exists reports whether path exists in fsys.
func Exists(fsys FileSystemProvider, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}
