// Package pg provides the PostgreSQL plumbing for the Postgres-backed
// session store: pool construction with startup retries and goose
// migration application. The schema for the sessions table lives under
// the repository's migrations/ directory.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil { ... }
//	store := session.NewPGStore(pool)
package pg
