package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func migrationsDir(dialect string) string {
	if dialect == "sqlite3" {
		return path.Join("migrations", "sqlite")
	}
	return path.Join("migrations", dialect)
}

func setupGoose(d Db) error {
	if d.Get() == nil {
		return fmt.Errorf("database not initialized")
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	return goose.SetDialect(d.Dialect())
}

// Migrate applies every pending embedded migration for the database dialect.
func Migrate(ctx context.Context, d Db) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(d); err != nil {
		return errors.Wrap(err, "error configuring migrations")
	}
	if err := gooseUpContext(ctx, d.Get().DB, migrationsDir(d.Dialect())); err != nil {
		return errors.Wrap(err, "error applying migrations")
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, d Db) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(d); err != nil {
		return errors.Wrap(err, "error configuring migrations")
	}
	return errors.Wrap(goose.DownContext(ctx, d.Get().DB, migrationsDir(d.Dialect())), "error rolling back migration")
}

// Version returns the current schema version.
func Version(ctx context.Context, d Db) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(d); err != nil {
		return 0, errors.Wrap(err, "error configuring migrations")
	}
	v, err := goose.GetDBVersionContext(ctx, d.Get().DB)
	return v, errors.Wrap(err, "error reading schema version")
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	dbLogger.Info().Str("component", "goose").Msgf(strings.TrimSpace(format), v...)
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	dbLogger.Error().Str("component", "goose").Msgf(strings.TrimSpace(format), v...)
}
