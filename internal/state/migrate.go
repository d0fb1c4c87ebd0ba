package state

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseMu serializes use of goose's package-level configuration.
var gooseMu sync.Mutex

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn()
}

// Migrate brings the dataset schema up to date.
func (s *SQLiteStore) Migrate() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return MigrateWithDB(s.db)
}

// MigrateWithDB applies pending dataset migrations to db.
func MigrateWithDB(db *sql.DB) error {
	return withGoose(func() error {
		if err := goose.UpContext(context.Background(), db, "migrations"); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// GetMigrationVersion returns the version of the last applied migration.
func (s *SQLiteStore) GetMigrationVersion() (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var version int64
	err := withGoose(func() error {
		v, err := goose.GetDBVersionContext(context.Background(), s.db)
		version = v
		return err
	})
	return version, err
}
