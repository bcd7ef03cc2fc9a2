// Package repository implements the directory and reservation stores on top of sqlx.
// SQLite, MySQL and PostgreSQL are supported; the dialect is picked by driver name.
package repository

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// dialect holds the driver specific parts of the store.
type dialect struct {
	schema         []string // idempotent DDL, executed one statement at a time
	pragmas        []string // executed right after connecting
	insertReturnID bool     // INSERT ... RETURNING id instead of LastInsertId
	singleWriter   bool     // limit the pool to one connection
}

// dialectRegistry stores supported drivers.
var dialectRegistry = map[string]dialect{
	"sqlite3": {
		pragmas: []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		},
		singleWriter: true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS cooperators (
				id        INTEGER PRIMARY KEY,
				branch_id INTEGER NOT NULL,
				name      TEXT    NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS services (
				id            INTEGER PRIMARY KEY,
				branch_id     INTEGER NOT NULL,
				cooperator_id INTEGER NOT NULL REFERENCES cooperators(id),
				name          TEXT    NOT NULL,
				price         REAL    NOT NULL DEFAULT 0,
				duration      INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS reservations (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				rubitime_id  INTEGER,
				user_id      INTEGER  NOT NULL,
				scheduled_at DATETIME NOT NULL,
				name         TEXT     NOT NULL,
				phone        TEXT     NOT NULL,
				reminded_24h BOOLEAN  NOT NULL DEFAULT 0,
				reminded_12h BOOLEAN  NOT NULL DEFAULT 0,
				confirmed    BOOLEAN  NOT NULL DEFAULT 0,
				created_at   DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_user_time ON reservations (user_id, scheduled_at)`,
		},
	},
	"mysql": {
		schema: []string{
			`CREATE TABLE IF NOT EXISTS cooperators (
				id        BIGINT       PRIMARY KEY,
				branch_id BIGINT       NOT NULL,
				name      VARCHAR(255) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS services (
				id            BIGINT       PRIMARY KEY,
				branch_id     BIGINT       NOT NULL,
				cooperator_id BIGINT       NOT NULL,
				name          VARCHAR(255) NOT NULL,
				price         DOUBLE       NOT NULL DEFAULT 0,
				duration      INT          NOT NULL,
				FOREIGN KEY (cooperator_id) REFERENCES cooperators(id)
			)`,
			`CREATE TABLE IF NOT EXISTS reservations (
				id           BIGINT AUTO_INCREMENT PRIMARY KEY,
				rubitime_id  BIGINT       NULL,
				user_id      BIGINT       NOT NULL,
				scheduled_at DATETIME     NOT NULL,
				name         VARCHAR(255) NOT NULL,
				phone        VARCHAR(32)  NOT NULL,
				reminded_24h BOOLEAN      NOT NULL DEFAULT FALSE,
				reminded_12h BOOLEAN      NOT NULL DEFAULT FALSE,
				confirmed    BOOLEAN      NOT NULL DEFAULT FALSE,
				created_at   DATETIME     NOT NULL,
				INDEX idx_reservations_user_time (user_id, scheduled_at)
			)`,
		},
	},
	"postgres": {
		insertReturnID: true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS cooperators (
				id        BIGINT PRIMARY KEY,
				branch_id BIGINT NOT NULL,
				name      TEXT   NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS services (
				id            BIGINT           PRIMARY KEY,
				branch_id     BIGINT           NOT NULL,
				cooperator_id BIGINT           NOT NULL REFERENCES cooperators(id),
				name          TEXT             NOT NULL,
				price         DOUBLE PRECISION NOT NULL DEFAULT 0,
				duration      INTEGER          NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS reservations (
				id           BIGSERIAL PRIMARY KEY,
				rubitime_id  BIGINT,
				user_id      BIGINT      NOT NULL,
				scheduled_at TIMESTAMPTZ NOT NULL,
				name         TEXT        NOT NULL,
				phone        TEXT        NOT NULL,
				reminded_24h BOOLEAN     NOT NULL DEFAULT FALSE,
				reminded_12h BOOLEAN     NOT NULL DEFAULT FALSE,
				confirmed    BOOLEAN     NOT NULL DEFAULT FALSE,
				created_at   TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reservations_user_time ON reservations (user_id, scheduled_at)`,
		},
	},
}

// DB wraps sqlx.DB with the dialect of the opened driver.
type DB struct {
	*sqlx.DB
	dialect dialect
}

// Open connects to the database, applies driver pragmas and creates missing tables.
// MySQL DSNs must carry parseTime=true so DATETIME columns scan into time.Time.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	d, ok := dialectRegistry[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if d.singleWriter {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(25)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	db := &DB{DB: conn, dialect: d}
	for _, pragma := range d.pragmas {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if err = db.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logrus.Infof("Database %s opened", driver)
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range db.dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
