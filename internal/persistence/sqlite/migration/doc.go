// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are read from an fs.FS (normally an embed.FS compiled into
// the binary) and must be named {version}_{description}.sql, for example
// 001_directory.sql. Each file runs inside its own transaction and is recorded
// in the schema_migrations table together with its checksum, so a file that
// changes after it has been applied is reported instead of silently skipped.
//
//	manager := migration.NewManager(db, migrationsFS, ".", logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
