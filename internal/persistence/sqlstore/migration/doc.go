// Package migration applies versioned schema files to SQLite and Postgres databases.
//
// Migration files are read from an fs.FS (usually an embedded directory) and must
// follow the naming convention {version}_{description}.sql, for example
// "001_initial_schema.sql". Applied versions are tracked in a schema_migrations
// table so each file runs exactly once.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(files), NewExecutor(db, DialectSQLite), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
