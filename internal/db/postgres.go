package db

import (
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Postgres serves both the pgx stdlib driver and lib/pq; driverName picks one.
type Postgres struct {
	conn
	driverName   string
	dsn          string
	maxOpenConns int
}

func NewPostgres(driverName, dsn string, maxOpenConns int) *Postgres {
	if driverName == "" {
		driverName = DriverPgx
	}
	return &Postgres{driverName: driverName, dsn: dsn, maxOpenConns: maxOpenConns}
}

func (p *Postgres) InitDb() error {
	db, err := sqlx.Connect(p.driverName, p.dsn)
	if err != nil {
		return err
	}
	if p.maxOpenConns > 0 {
		db.SetMaxOpenConns(p.maxOpenConns)
		db.SetMaxIdleConns(p.maxOpenConns / 2)
	}

	p.db = db
	dbLogger.Info().Str("driver", p.driverName).Msg("Postgres database initialized")
	return nil
}

func (p *Postgres) Dialect() string {
	return "postgres"
}
