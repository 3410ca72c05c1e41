// Package filesystem provides the filesystem abstraction used for the raw and
// validated partition trees.
//
// Key interfaces:
//   - FileSystemProvider: read, list, stat and write operations on paths
//   - FileInfo: file metadata, an alias of fs.FileInfo
//
// Implementations:
//   - OSFileSystem: production implementation using the OS filesystem
//   - MemoryFileSystem: in-memory implementation for testing
package filesystem
