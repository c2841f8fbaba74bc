package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/myrjola/aitrainer/internal/errors"
)

// migrateTo makes the live schema match schemaDefinition declaratively.
//
// The target schema is created in an attached in-memory database named target. Tables missing from the target are
// dropped, new ones created, and changed tables are rebuilt with the generalized ALTER TABLE procedure described in
// https://www.sqlite.org/lang_altertable.html#otheralter. Indexes and triggers are synchronized afterwards.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	start := time.Now()

	detach, err := db.attachTarget(ctx, schemaDefinition)
	if err != nil {
		return errors.Wrap(err, "attach target schema")
	}
	defer detach()

	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign keys")
	}
	defer db.enableForeignKeys(ctx)

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer db.Rollback(ctx, tx)()

	if err = db.syncTables(ctx, tx); err != nil {
		return errors.Wrap(err, "sync tables")
	}
	for _, kind := range []string{"trigger", "index"} {
		if err = db.syncObjects(ctx, tx, kind); err != nil {
			return errors.Wrap(err, "sync objects", slog.String("kind", kind))
		}
	}
	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// enableForeignKeys turns foreign key enforcement back on. Running without it risks silent data corruption, so
// failing here shuts the process down.
func (db *Database) enableForeignKeys(ctx context.Context) {
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "re-enable foreign keys, shutting down",
			errors.SlogError(err))
		if err = syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			os.Exit(1)
		}
	}
}

func (db *Database) attachTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	// The handle keeps the shared in-memory database alive until the writer has attached it.
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open target")
	}
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "close target database", errors.SlogError(closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, errors.Wrap(err, "create target schema")
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS target", dsn); err != nil {
		return nil, errors.Wrap(err, "attach")
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE target"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "detach target database", errors.SlogError(detachErr))
		}
	}, nil
}

const (
	// Internal SQLite tables are never touched.
	skipInternal = `AND %[1]s.name NOT LIKE 'sqlite_%%'`

	onlyLiveQuery = `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN target.sqlite_schema AS t ON live.name = t.name AND live.type = t.type
WHERE live.type = ?
  AND t.type IS NULL
  ` + skipInternal

	onlyTargetQuery = `SELECT t.sql
FROM target.sqlite_schema AS t
         LEFT JOIN sqlite_schema AS live ON live.name = t.name AND live.type = t.type
WHERE t.type = ?
  AND live.type IS NULL
  AND t.sql IS NOT NULL
  ` + skipInternal

	// Renaming a table quotes its name in sqlite_schema, so quotes are ignored in the comparison.
	changedQuery = `SELECT live.name, t.sql
FROM sqlite_schema AS live
         JOIN target.sqlite_schema AS t ON live.name = t.name AND live.type = t.type
WHERE live.type = ?
  AND REPLACE(live.sql, '"', '') <> REPLACE(t.sql, '"', '')
  ` + skipInternal

	// Column names are quoted because some of them might be keywords.
	commonColumnsQuery = `SELECT '"' || t.name || '"'
FROM PRAGMA_TABLE_INFO(:table) AS live
         JOIN PRAGMA_TABLE_INFO(:table, 'target') AS t ON t.name = live.name`
)

func (db *Database) syncTables(ctx context.Context, tx *sql.Tx) error {
	dropped, err := queryStrings(ctx, tx, fmt.Sprintf(onlyLiveQuery, "live"), "table")
	if err != nil {
		return errors.Wrap(err, "query dropped tables")
	}
	for _, name := range dropped {
		if err = db.exec(ctx, tx, "DROP TABLE "+name); err != nil {
			return err
		}
	}

	created, err := queryStrings(ctx, tx, fmt.Sprintf(onlyTargetQuery, "t"), "table")
	if err != nil {
		return errors.Wrap(err, "query created tables")
	}
	for _, stmt := range created {
		if err = db.exec(ctx, tx, stmt); err != nil {
			return err
		}
	}

	changed, err := queryChanged(ctx, tx, "table")
	if err != nil {
		return errors.Wrap(err, "query changed tables")
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return errors.Wrap(err, "rebuild table", slog.String("table", table.name))
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns over and swaps the
// tables.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table schemaObject) error {
	tmp := table.name + "_migration_tmp"
	if err := db.exec(ctx, tx, strings.Replace(table.sql, table.name, tmp, 1)); err != nil {
		return err
	}
	columns, err := queryStrings(ctx, tx, commonColumnsQuery, sql.Named("table", table.name))
	if err != nil {
		return errors.Wrap(err, "query common columns")
	}
	list := strings.Join(columns, ", ")
	for _, stmt := range []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tmp, list, list, table.name),
		"DROP TABLE " + table.name,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tmp, table.name),
	} {
		if err = db.exec(ctx, tx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// syncObjects drops, creates and recreates indexes or triggers so they match the target.
func (db *Database) syncObjects(ctx context.Context, tx *sql.Tx, kind string) error {
	dropped, err := queryStrings(ctx, tx, fmt.Sprintf(onlyLiveQuery, "live"), kind)
	if err != nil {
		return errors.Wrap(err, "query dropped")
	}
	for _, name := range dropped {
		if err = db.exec(ctx, tx, fmt.Sprintf("DROP %s %s", strings.ToUpper(kind), name)); err != nil {
			return err
		}
	}

	created, err := queryStrings(ctx, tx, fmt.Sprintf(onlyTargetQuery, "t"), kind)
	if err != nil {
		return errors.Wrap(err, "query created")
	}
	for _, stmt := range created {
		if err = db.exec(ctx, tx, stmt); err != nil {
			return err
		}
	}

	changed, err := queryChanged(ctx, tx, kind)
	if err != nil {
		return errors.Wrap(err, "query changed")
	}
	for _, obj := range changed {
		if err = db.exec(ctx, tx, fmt.Sprintf("DROP %s %s", strings.ToUpper(kind), obj.name)); err != nil {
			return err
		}
		if err = db.exec(ctx, tx, obj.sql); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, stmt string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migration statement", slog.String("query", stmt))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "exec migration statement", slog.String("query", stmt))
	}
	return nil
}

type schemaObject struct {
	name string
	sql  string
}

func queryChanged(ctx context.Context, tx *sql.Tx, kind string) ([]schemaObject, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(changedQuery, "live"), kind)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()
	var objects []schemaObject
	for rows.Next() {
		var obj schemaObject
		if err = rows.Scan(&obj.name, &obj.sql); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		objects = append(objects, obj)
	}
	return objects, errors.Wrap(rows.Err(), "rows")
}

// queryStrings collects the single string column returned by query.
func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}
