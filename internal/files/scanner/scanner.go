package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
)

// Scanner discovers partitions and partition files.
// Scanner is safe for concurrent use when its filesystem provider is.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{fsProvider: filesystem.NewOSFileSystem()}
}

// NewScannerWithFS creates a scanner over a custom filesystem provider.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// LatestDate returns the greatest date directory under <root>/<keyword>.
// Children whose names are not YYYY-MM-DD dates are ignored. When the keyword
// directory is missing or holds no date directory a *MissingDirectoriesError
// is returned.
func (s *Scanner) LatestDate(root, keyword string) (string, error) {
	entries, err := s.fsProvider.ReadDir(KeywordDir(root, keyword))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &bookshelf.MissingDirectoriesError{Keyword: keyword}
		}
		return "", fmt.Errorf("failed to list %s: %w", KeywordDir(root, keyword), err)
	}

	latest := ""
	for _, entry := range entries {
		if !entry.IsDir() || !IsDateName(entry.Name()) {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", &bookshelf.MissingDirectoriesError{Keyword: keyword}
	}
	return latest, nil
}

// KeywordExists reports whether <root>/<keyword> is a directory.
func (s *Scanner) KeywordExists(root, keyword string) bool {
	info, err := s.fsProvider.Stat(KeywordDir(root, keyword))
	return err == nil && info.IsDir()
}

// PartitionExists reports whether <root>/<keyword>/<date> is a directory.
func (s *Scanner) PartitionExists(root, keyword, date string) bool {
	info, err := s.fsProvider.Stat(PartitionDir(root, keyword, date))
	return err == nil && info.IsDir()
}

// ListFiles returns the paths of the regular files directly inside dir,
// sorted by name. Hidden files are left out; they are in-progress writes.
// A missing directory is an error.
func (s *Scanner) ListFiles(dir string) ([]string, error) {
	entries, err := s.fsProvider.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// IsDateName reports whether name is a calendar date in YYYY-MM-DD form.
func IsDateName(name string) bool {
	if len(name) != len(bookshelf.DateLayout) {
		return false
	}
	_, err := time.Parse(bookshelf.DateLayout, name)
	return err == nil
}

// KeywordDir returns <root>/<keyword>.
func KeywordDir(root, keyword string) string {
	return filepath.Join(root, keyword)
}

// PartitionDir returns <root>/<keyword>/<date>.
func PartitionDir(root, keyword, date string) string {
	return filepath.Join(root, keyword, date)
}

// OutputPath returns the validated output file of a partition.
func OutputPath(root, keyword, date string) string {
	return filepath.Join(PartitionDir(root, keyword, date), bookshelf.OutputFileName)
}

// RawPagePath returns the raw page file written for one API request.
func RawPagePath(root, keyword, date string, startIndex int) string {
	return filepath.Join(PartitionDir(root, keyword, date), fmt.Sprintf("start_index_%d.json", startIndex))
}
