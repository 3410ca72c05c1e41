// Package files groups the partition file handling of the pipeline.
//
// Sub-packages:
//   - filesystem: filesystem abstraction with OS and in-memory implementations
//   - scanner: latest-date resolution, partition paths and file listing
//   - loader: reading raw API pages and validated volume arrays
//
// # Usage
//
//	fsys := filesystem.NewOSFileSystem()
//	s := scanner.NewScannerWithFS(fsys)
//	date, err := s.LatestDate(rawDir, "flowers")
//	files, err := s.ListFiles(scanner.PartitionDir(rawDir, "flowers", date))
//	items, err := loader.NewLoaderWithFS(fsys).ReadRawItems(files)
package files
