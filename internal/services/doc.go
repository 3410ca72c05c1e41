// Package services orchestrates the bookshelf stages over the raw,
// validated and relational stores.
//
// ValidationService gates each raw partition on its pass rate, LoadService
// moves validated partitions into the catalog database one transaction per
// partition, and Pipeline chains fetch, validate and load for a keyword list.
package services
