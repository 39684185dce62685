package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DriverName is the database/sql driver registered for d.
func DriverName(d Driver) (string, error) {
	switch d {
	case DriverSQLite:
		return "sqlite", nil
	case DriverPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", d)
	}
}

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	drvName, err := DriverName(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		switch driver {
		case DriverSQLite:
			dsn = "file:examsim.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		case DriverPostgres:
			dsn = "postgres://localhost:5432/examsim?sslmode=disable"
		}
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	schema := schemaSQLite
	if driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Times are unix milliseconds in both dialects.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS reports (
  session_id TEXT PRIMARY KEY,
  set_name TEXT NOT NULL,
  mode TEXT NOT NULL,
  score REAL NOT NULL,
  correct_count INTEGER NOT NULL,
  total INTEGER NOT NULL,
  elapsed_ms INTEGER NOT NULL,
  started_at INTEGER NOT NULL,
  finished_at INTEGER NOT NULL,
  report_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS reports_finished_at ON reports(finished_at);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                     -- e.g. SessionFinished
  key TEXT NOT NULL,                     -- session id
  data TEXT NOT NULL,                    -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS reports (
  session_id TEXT PRIMARY KEY,
  set_name TEXT NOT NULL,
  mode TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL,
  correct_count INTEGER NOT NULL,
  total INTEGER NOT NULL,
  elapsed_ms BIGINT NOT NULL,
  started_at BIGINT NOT NULL,
  finished_at BIGINT NOT NULL,
  report_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS reports_finished_at ON reports(finished_at);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
