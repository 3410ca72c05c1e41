package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryEntry struct {
	content []byte
	info    *memoryFileInfo
}

// MemoryFileSystem implements FileSystemProvider for in-memory testing.
// Paths are virtual and always use forward slashes.
type MemoryFileSystem struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry // absolute path -> entry
	root    string
}

// NewMemoryFileSystem creates a new in-memory filesystem rooted at root.
// Relative paths passed to its methods are resolved against root.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))

	mfs := &MemoryFileSystem{
		entries: make(map[string]*memoryEntry),
		root:    root,
	}
	mfs.entries[root] = newDirEntry(root)
	return mfs
}

func newDirEntry(p string) *memoryEntry {
	return &memoryEntry{
		info: &memoryFileInfo{
			name:    path.Base(p),
			mode:    0o755 | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		},
	}
}

// AddFile adds a file, creating parent directories as needed.
func (mfs *MemoryFileSystem) AddFile(filePath string, content string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.putFile(mfs.abs(filePath), []byte(content))
}

// AddDir adds an empty directory and its parents.
func (mfs *MemoryFileSystem) AddDir(dirPath string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.ensureDir(mfs.abs(dirPath))
}

func (mfs *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return mfs.root
	}
	if !path.IsAbs(p) {
		p = path.Join(mfs.root, p)
	}
	return path.Clean(p)
}

func (mfs *MemoryFileSystem) putFile(absPath string, content []byte) {
	buf := make([]byte, len(content))
	copy(buf, content)
	mfs.entries[absPath] = &memoryEntry{
		content: buf,
		info: &memoryFileInfo{
			name:    path.Base(absPath),
			size:    int64(len(buf)),
			mode:    0o644,
			modTime: time.Now(),
		},
	}
	mfs.ensureDir(path.Dir(absPath))
}

// ensureDir creates directory entries for dir and all of its parents.
func (mfs *MemoryFileSystem) ensureDir(dir string) {
	for {
		if _, exists := mfs.entries[dir]; exists {
			return
		}
		mfs.entries[dir] = newDirEntry(dir)
		parent := path.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func notExist(op, p string) error {
	return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
}

// ReadFile implements FileSystemProvider.ReadFile
func (mfs *MemoryFileSystem) ReadFile(filePath string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	entry, exists := mfs.entries[mfs.abs(filePath)]
	if !exists {
		return nil, notExist("read", filePath)
	}
	if entry.info.isDir {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	out := make([]byte, len(entry.content))
	copy(out, entry.content)
	return out, nil
}

// ReadDir implements FileSystemProvider.ReadDir
func (mfs *MemoryFileSystem) ReadDir(dirPath string) ([]FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	dir := mfs.abs(dirPath)
	entry, exists := mfs.entries[dir]
	if !exists {
		return nil, fmt.Errorf("failed to read directory: %w", notExist("readdir", dirPath))
	}
	if !entry.info.isDir {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	var result []FileInfo
	for p, e := range mfs.entries {
		if p == dir || !strings.HasPrefix(p, prefix) {
			continue
		}
		if strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			continue
		}
		result = append(result, e.info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

// Stat implements FileSystemProvider.Stat
func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	entry, exists := mfs.entries[mfs.abs(statPath)]
	if !exists {
		return nil, notExist("stat", statPath)
	}
	return entry.info, nil
}

// MkdirAll implements FileSystemProvider.MkdirAll
func (mfs *MemoryFileSystem) MkdirAll(dirPath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	dir := mfs.abs(dirPath)
	if entry, exists := mfs.entries[dir]; exists && !entry.info.isDir {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	mfs.ensureDir(dir)
	return nil
}

// WriteFile implements FileSystemProvider.WriteFile
func (mfs *MemoryFileSystem) WriteFile(filePath string, data []byte) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	absPath := mfs.abs(filePath)
	parent, exists := mfs.entries[path.Dir(absPath)]
	if !exists {
		return notExist("write", filePath)
	}
	if !parent.info.isDir {
		return fmt.Errorf("parent is not a directory: %s", filePath)
	}
	if entry, exists := mfs.entries[absPath]; exists && entry.info.isDir {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	mfs.putFile(absPath, data)
	return nil
}

var _ FileSystemProvider = (*MemoryFileSystem)(nil)
