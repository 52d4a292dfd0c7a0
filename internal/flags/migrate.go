package flags

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// migrateDB runs pending migrations under a file lock so two hook processes
// opening a fresh database do not race on schema creation.
func migrateDB(db *sql.DB, dbPath string) error {
	lockF, err := lockFile(dbPath)
	if err != nil {
		return fmt.Errorf("migration lock: %w", err)
	}
	defer unlockFile(lockF)
	return runMigrations(db)
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetVerbose(false)
	goose.SetLogger(goose.NopLogger())

	// goose uses "sqlite3" as its dialect name regardless of the underlying driver.
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}
