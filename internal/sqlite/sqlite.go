// Package sqlite owns the application's SQLite database: connection pools, schema migration and housekeeping.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/aitrainer/internal/errors"
)

//go:embed schema.sql
var schemaDefinition string

// Database pairs a single-connection writer pool with a reader pool.
//
// SQLite allows one writer at a time, so funnelling every write through ReadWrite avoids SQLITE_BUSY under load
// while readers run concurrently in WAL mode.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

const (
	driverName   = "sqlite3coaching"
	readerConns  = 10
	connLifetime = time.Hour
)

//nolint:gochecknoglobals // sql.Register panics when called twice for the same name.
var registerDriver sync.Once

// NewDatabase opens the database at url, brings its schema up to date with schema.sql and starts the periodic
// optimizer. Passing ":memory:" gives a private in-memory database, which is what the tests use.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}
	go db.runOptimizer(ctx)
	return db, nil
}

func register() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		Extensions: nil,
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// Keep temporary structures in memory and map the database file to cut down on read syscalls.
			if _, err := conn.Exec("PRAGMA temp_store = memory; PRAGMA mmap_size = 30000000000;", nil); err != nil {
				return errors.Wrap(err, "exec connection pragmas")
			}
			return nil
		},
	})
}

func dataSourceNames(url string) (string, string) {
	var memory string
	if strings.Contains(url, ":memory:") {
		// Shared cache lets both pools see the same in-memory database. The random name keeps parallel tests apart.
		url = rand.Text()
		memory = "&mode=memory&cache=shared"
	}
	// Underscore-prefixed options are go-sqlite3 DSN parameters, the rest are SQLite URI parameters.
	common := strings.Join([]string{
		"_loc=auto",
		"_defer_foreign_keys=1",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")
	reader := "file:" + url + "?mode=ro&_txlock=deferred&_query_only=true&" + common + memory
	writer := "file:" + url + "?mode=rwc&_txlock=immediate&" + common + memory
	return reader, writer
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	registerDriver.Do(register)
	readerDSN, writerDSN := dataSourceNames(url)

	writer, err := sql.Open(driverName, writerDSN)
	if err != nil {
		return nil, errors.Wrap(err, "open writer")
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)
	writer.SetConnMaxLifetime(connLifetime)
	writer.SetConnMaxIdleTime(connLifetime)
	// sql.Open is lazy. Pinging creates the database file, or the shared in-memory database, before readers attach.
	if err = writer.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping writer", slog.String("dsn", writerDSN))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("sqlDsn", writerDSN))

	reader, err := sql.Open(driverName, readerDSN)
	if err != nil {
		return nil, errors.Wrap(err, "open reader")
	}
	reader.SetMaxOpenConns(readerConns)
	reader.SetMaxIdleConns(readerConns)
	reader.SetConnMaxLifetime(connLifetime)
	reader.SetConnMaxIdleTime(connLifetime)

	return &Database{ReadWrite: writer, ReadOnly: reader, logger: logger}, nil
}

// Close closes both pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}

// Rollback returns a deferrable function rolling back tx, logging anything but an already finished transaction.
func (db *Database) Rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", errors.SlogError(err))
		}
	}
}
