// Package store keeps build diagnostics in a normalised SQLite file.
//
// Repositories, files, messages and errors are append-only dimension tables;
// sessions and their occurrences (table Main) are the only rows ever deleted.
// A DB owns the in-memory identity cache and the session directory, both
// loaded once at open time.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Table names match files written by earlier versions of the tool.
const schema = `
CREATE TABLE IF NOT EXISTS Sessions(
    id        INTEGER PRIMARY KEY,
    timestamp TEXT,
    comments  TEXT
);

CREATE TABLE IF NOT EXISTS Repos(
    id   INTEGER PRIMARY KEY,
    repo TEXT
);

CREATE TABLE IF NOT EXISTS Files(
    id   INTEGER PRIMARY KEY,
    repo INTEGER REFERENCES Repos(id),
    file TEXT
);

CREATE TABLE IF NOT EXISTS Messages(
    id      INTEGER PRIMARY KEY,
    message TEXT
);

CREATE TABLE IF NOT EXISTS Errors(
    id      INTEGER PRIMARY KEY,
    file    INTEGER REFERENCES Files(id),
    message INTEGER REFERENCES Messages(id),
    notes   TEXT
);

CREATE TABLE IF NOT EXISTS Main(
    id      INTEGER PRIMARY KEY,
    session INTEGER REFERENCES Sessions(id),
    error   INTEGER REFERENCES Errors(id),
    line    INTEGER
);

CREATE INDEX IF NOT EXISTS idx_main_session ON Main(session);
CREATE INDEX IF NOT EXISTS idx_main_error ON Main(error);
`

// Natural-key indexes are additive. A file written by an older version may
// already hold duplicates, in which case the index is skipped.
var uniqueIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_repos_repo ON Repos(repo)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_files_repo_file ON Files(repo, file)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_message ON Messages(message)",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_errors_file_message ON Errors(file, message)",
}

var (
	ErrDuplicateSession = errors.New("session already exists")
	ErrUnknownSession   = errors.New("unknown session")
)

type Options struct {
	Logger *slog.Logger
}

type DB struct {
	db     *sqlx.DB
	path   string
	logger *slog.Logger
	hooks  storeHooks

	// writeMu serialises imports and removals; mu guards cache and dir.
	writeMu sync.Mutex
	mu      sync.RWMutex
	cache   *Cache
	dir     *Directory
}

// OpenDB opens or creates the store at dbPath. Any error here is fatal for
// the caller: nothing else works without the store.
func OpenDB(dbPath string, opts Options) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// foreign_keys is per connection, so it goes in the DSN
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{
		db:     db,
		path:   dbPath,
		logger: logger,
		hooks:  defaultStoreHooks(),
		cache:  newCache(),
		dir:    newDirectory(),
	}

	ctx := context.Background()
	if err := d.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) init(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := d.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}

	var fk int
	if err := d.db.GetContext(ctx, &fk, "PRAGMA foreign_keys"); err != nil {
		return fmt.Errorf("check foreign keys: %w", err)
	}
	if fk != 1 {
		return errors.New("foreign key enforcement could not be enabled")
	}

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	for _, stmt := range uniqueIndexes {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			if !isUniqueViolation(err) {
				return fmt.Errorf("init schema: %w", err)
			}
			d.logger.Warn("existing rows violate natural key, index skipped", "stmt", stmt, "error", err)
		}
	}

	if err := d.cache.load(ctx, d.db); err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	d.logger.Debug("identity cache loaded",
		"repos", len(d.cache.repos),
		"files", len(d.cache.files),
		"messages", len(d.cache.messages),
		"errors", len(d.cache.errors))

	return d.refreshDirectory(ctx)
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Raw exposes the connection for read queries outside this package.
func (d *DB) Raw() *sqlx.DB {
	return d.db
}

func (d *DB) Path() string {
	return d.path
}

func (d *DB) Logger() *slog.Logger {
	return d.logger
}

// Query runs a read statement. Callers close the rows.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return d.db.QueryxContext(ctx, query, args...)
}

// Select runs a read statement and scans every row into dest, a pointer to a slice.
func (d *DB) Select(ctx context.Context, dest any, query string, args ...any) error {
	return d.db.SelectContext(ctx, dest, query, args...)
}

// Exec runs a single write statement outside any explicit transaction.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.hooks.exec(ctx, d.db, query, args...)
}

type field struct {
	name  string
	value any
}

// insertRow inserts one row into table and returns its id. table and the
// field names are never user input.
func (d *DB) insertRow(ctx context.Context, tx sqlx.ExecerContext, table string, fields ...field) (int64, error) {
	columns := make([]string, len(fields))
	marks := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		columns[i] = f.name
		marks[i] = "?"
		args[i] = f.value
	}

	query := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)",
		table, strings.Join(columns, ","), strings.Join(marks, ","))

	res, err := d.hooks.exec(ctx, tx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

// Counts holds the number of rows per table.
type Counts struct {
	Repos       int `json:"repos" yaml:"repos"`
	Files       int `json:"files" yaml:"files"`
	Messages    int `json:"messages" yaml:"messages"`
	Errors      int `json:"errors" yaml:"errors"`
	Sessions    int `json:"sessions" yaml:"sessions"`
	Occurrences int `json:"occurrences" yaml:"occurrences"`
}

func (d *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := d.db.GetContext(ctx, &c.Repos, "SELECT COUNT(*) FROM Repos")
	if err == nil {
		err = d.db.GetContext(ctx, &c.Files, "SELECT COUNT(*) FROM Files")
	}
	if err == nil {
		err = d.db.GetContext(ctx, &c.Messages, "SELECT COUNT(*) FROM Messages")
	}
	if err == nil {
		err = d.db.GetContext(ctx, &c.Errors, "SELECT COUNT(*) FROM Errors")
	}
	if err == nil {
		err = d.db.GetContext(ctx, &c.Sessions, "SELECT COUNT(*) FROM Sessions")
	}
	if err == nil {
		err = d.db.GetContext(ctx, &c.Occurrences, "SELECT COUNT(*) FROM Main")
	}
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// Check runs SQLite's integrity and foreign key checks and returns one line
// per problem found.
func (d *DB) Check(ctx context.Context) ([]string, error) {
	var problems []string

	var integrity []string
	if err := d.db.SelectContext(ctx, &integrity, "PRAGMA integrity_check"); err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	for _, line := range integrity {
		if line != "ok" {
			problems = append(problems, "integrity: "+line)
		}
	}

	rows, err := d.db.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return nil, fmt.Errorf("foreign key check: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var table, parent string
		var rowid, fkid sql.NullInt64
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return nil, fmt.Errorf("foreign key check: %w", err)
		}
		problems = append(problems, fmt.Sprintf("foreign key: %s row %d references missing %s", table, rowid.Int64, parent))
	}
	return problems, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type storeHooks struct {
	exec   func(ctx context.Context, db sqlx.ExecerContext, query string, args ...any) (sql.Result, error)
	commit func(tx *sqlx.Tx) error
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		exec: func(ctx context.Context, db sqlx.ExecerContext, query string, args ...any) (sql.Result, error) {
			return db.ExecContext(ctx, query, args...)
		},
		commit: func(tx *sqlx.Tx) error {
			return tx.Commit()
		},
	}
}
