// Package manager creates the catalog database on first use.
//
// Database names are quoted with pgx.Identifier.Sanitize, so names with
// spaces, quotes or semicolons are safe. The loader never drops a database.
//
//	mgr := manager.New()
//	created, err := mgr.EnsureDatabase(ctx, pool, "bookshelf")
package manager
