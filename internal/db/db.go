// Package db opens the relational store behind the post, user and magic link
// repositories and keeps its schema migrated.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

type Db interface {
	InitDb() error

	Get() *sqlx.DB
	Close() error
	Ping(ctx context.Context) error

	// Dialect is the goose dialect name of the underlying database.
	Dialect() string

	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}

// New builds the Db selected by cfg.Driver. The connection is not opened until InitDb.
func New(cfg config.DatabaseConfig) (Db, error) {
	switch cfg.Driver {
	case DriverSQLite, "sqlite", "":
		return NewSQLite(cfg.DSN), nil
	case DriverPgx, DriverPostgres:
		return NewPostgres(cfg.Driver, cfg.DSN, cfg.MaxOpenConns), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// conn holds what every dialect shares once the handle is open.
type conn struct {
	db *sqlx.DB
}

func (c *conn) Get() *sqlx.DB {
	return c.db
}

func (c *conn) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *conn) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.db.PingContext(ctx)
}

func (c *conn) Query(query string, args ...interface{}) (*sql.Rows, error) {
	dbLogger.Debug().Str("query", query).Msg("Query")
	return c.db.Query(c.db.Rebind(query), args...)
}

func (c *conn) Exec(query string, args ...interface{}) (sql.Result, error) {
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return c.db.Exec(c.db.Rebind(query), args...)
}

// Wrap adapts an already open handle, for callers that manage the connection themselves.
func Wrap(x *sqlx.DB, dialect string) Db {
	return &wrapped{conn: conn{db: x}, dialect: dialect}
}

type wrapped struct {
	conn
	dialect string
}

func (w *wrapped) InitDb() error   { return nil }
func (w *wrapped) Dialect() string { return w.dialect }
