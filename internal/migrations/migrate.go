package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

const sqliteDialect = "sqlite3"

// Up applies all pending SQL migrations found in migrationsDir and logs the
// resulting schema version.
func Up(database *sql.DB, migrationsDir string) error {
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(database, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	version, err := goose.GetDBVersion(database)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.Debug().Int64("version", version).Msg("database migrations applied")

	return nil
}
