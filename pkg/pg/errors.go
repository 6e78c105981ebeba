package pg

import "errors"

var (
	ErrInvalidConfig    = errors.New("pg.invalid_config")
	ErrConnectionFailed = errors.New("pg.connection_failed")
	ErrMigrationFailed  = errors.New("pg.migration_failed")
	ErrNoMigrationsPath = errors.New("pg.no_migrations_path")
)
