package db

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	conn
	dsn string
}

func NewSQLite(dsn string) *SQLite {
	if dsn == "" {
		dsn = "./spawnwrite.db"
	}
	return &SQLite{dsn: dsn}
}

func (s *SQLite) InitDb() error {
	db, err := sqlx.Open(DriverSQLite, s.dsn)
	if err != nil {
		return err
	}

	// A single connection keeps :memory: databases shared and avoids SQLITE_BUSY on writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return err
	}

	s.db = db
	dbLogger.Info().Str("dsn", s.dsn).Msg("SQLite database initialized")
	return nil
}

func (s *SQLite) Dialect() string {
	return "sqlite3"
}
