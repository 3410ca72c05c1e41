// Package scanner resolves the partition layout of the raw and validated trees.
//
// Both trees share one shape:
//
//	<root>/<keyword>/<YYYY-MM-DD>/<file>.json
//
// The raw tree holds one start_index_<n>.json page per API request, the
// validated tree a single output_0.json per partition. The scanner finds the
// latest date directory of a keyword and lists the files of a partition in
// name order.
package scanner
