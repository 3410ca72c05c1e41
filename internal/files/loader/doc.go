// Package loader reads the JSON files of one partition.
//
// Raw partitions hold API pages, each an object whose "items" array carries
// the raw records. Validated partitions hold JSON arrays of canonical
// volumes. Files are read in name order and their records concatenated.
// Numbers are decoded as json.Number so decimal amounts keep their text.
package loader
