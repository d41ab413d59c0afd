package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

const failedToInitDB = "Failed to initialize database: %v"

func newMemoryDb(t *testing.T) *SQLite {
	t.Helper()
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	d := NewSQLite(":memory:")
	if err := d.InitDb(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name        string
		driver      string
		dialect     string
		expectError bool
	}{
		{"sqlite3", DriverSQLite, "sqlite3", false},
		{"empty defaults to sqlite", "", "sqlite3", false},
		{"pgx", DriverPgx, "postgres", false},
		{"lib/pq", DriverPostgres, "postgres", false},
		{"unknown", "oracle", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := New(config.DatabaseConfig{Driver: tc.driver, DSN: ":memory:"})
			if tc.expectError {
				if err == nil {
					t.Error("Expected error for unsupported driver")
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to build database: %v", err)
			}
			if d.Dialect() != tc.dialect {
				t.Errorf("Expected dialect %q, got %q", tc.dialect, d.Dialect())
			}
			if d.Get() != nil {
				t.Error("Expected connection to be nil before InitDb")
			}
		})
	}
}

func TestSQLiteMigrate(t *testing.T) {
	d := newMemoryDb(t)
	ctx := context.Background()

	if err := d.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := Migrate(ctx, d); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	for _, table := range []string{"users", "posts", "magic_links"} {
		var name string
		err := d.Get().QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %q to exist: %v", table, err)
		}
	}

	version, err := Version(ctx, d)
	if err != nil {
		t.Fatalf("Failed to read version: %v", err)
	}
	if version != 4 {
		t.Errorf("Expected schema version 4, got %d", version)
	}

	// Running again is a no-op.
	if err := Migrate(ctx, d); err != nil {
		t.Fatalf("Failed to re-run migrations: %v", err)
	}

	if err := Rollback(ctx, d); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}
	version, err = Version(ctx, d)
	if err != nil {
		t.Fatalf("Failed to read version: %v", err)
	}
	if version != 3 {
		t.Errorf("Expected schema version 3 after rollback, got %d", version)
	}
}

func TestMigrateUninitialized(t *testing.T) {
	if err := Migrate(context.Background(), NewSQLite(":memory:")); err == nil {
		t.Error("Expected error migrating an unopened database")
	}
}

func TestMigrateUsesDialectDirectory(t *testing.T) {
	d := newMemoryDb(t)

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	if err := Migrate(context.Background(), d); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if gotDir != "migrations/sqlite" {
		t.Errorf("Expected dir 'migrations/sqlite', got %q", gotDir)
	}

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	if err := Migrate(context.Background(), d); err == nil {
		t.Error("Expected migration error to propagate")
	}
}

func TestQueryAndExecRebind(t *testing.T) {
	d := newMemoryDb(t)
	if err := Migrate(context.Background(), d); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	now := time.Now().UTC()
	_, err := d.Exec(`INSERT INTO users (id, email, handle, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"u1", "test@example.com", "user_abcdef", now, now)
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	rows, err := d.Query(`SELECT handle FROM users WHERE email = ?`, "test@example.com")
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("Expected one row")
	}
	var handle string
	if err := rows.Scan(&handle); err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if handle != "user_abcdef" {
		t.Errorf("Expected handle 'user_abcdef', got %q", handle)
	}
}

func TestIsDuplicate(t *testing.T) {
	d := newMemoryDb(t)
	if err := Migrate(context.Background(), d); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	now := time.Now().UTC()
	insert := `INSERT INTO users (id, email, handle, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := d.Exec(insert, "u1", "dup@example.com", "h1", now, now); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	_, sqliteErr := d.Exec(insert, "u2", "dup@example.com", "h2", now, now)

	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"sqlite unique", sqliteErr, true},
		{"wrapped sqlite unique", errors.Wrap(sqliteErr, "insert"), true},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, true},
		{"pgx other", &pgconn.PgError{Code: "23503"}, false},
		{"lib/pq unique", &pq.Error{Code: "23505"}, true},
		{"plain error", errors.New("nope"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicate(tc.err); got != tc.expected {
				t.Errorf("Expected %v, got %v (err: %v)", tc.expected, got, tc.err)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	if Translate(nil, "msg") != nil {
		t.Error("Expected nil for nil error")
	}
	if err := Translate(sql.ErrNoRows, "get post"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := Translate(&pq.Error{Code: "23505"}, "insert"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
	other := errors.New("connection reset")
	if err := Translate(other, "query"); !errors.Is(err, other) {
		t.Errorf("Expected wrapped original error, got %v", err)
	}
}

func TestConnUninitialized(t *testing.T) {
	d := NewSQLite(":memory:")
	if err := d.Close(); err != nil {
		t.Errorf("Expected nil closing an unopened database, got %v", err)
	}
	if err := d.Ping(context.Background()); err == nil {
		t.Error("Expected error pinging an unopened database")
	}
}
