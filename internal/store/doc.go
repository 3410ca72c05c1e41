// Package store defines the relational model of the catalog and the
// operations the loader performs against it.
//
// Seven tables hold the data:
//
//	book                 one row per work, never updated
//	author, category     shared name tables, one row per distinct name
//	book_author          work to author junction
//	book_category        work to category junction
//	industry_identifier  external identifiers of a work
//	book_record          append-only observations, one per work per run
//
// Implementations live in the postgres and memory sub-packages.
package store
