// Package catalog defines the canonical form of a catalog volume.
//
// A Volume is what the validator emits and the only thing the loader reads.
// Its JSON encoding is stable: every known field is written, absent optional
// values as null, publication dates as YYYY-MM-DD and price amounts as the
// decimal text they were validated from. Decoding that output and validating
// it again yields the same Volume.
package catalog
