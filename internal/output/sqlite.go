// internal/output/sqlite.go
package output

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteWriter writes records into one table of a SQLite database
type SQLiteWriter struct {
	db    *sql.DB
	table string
}

// NewSQLiteWriter opens (or creates) the database at path
func NewSQLiteWriter(path, table string) (*SQLiteWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite database path is required")
	}
	if table == "" {
		table = DefaultOptions().Table
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	return &SQLiteWriter{db: db, table: table}, nil
}

// Write replaces the table with one TEXT column per export column and
// inserts every record in a single transaction. Missing values are NULL.
func (w *SQLiteWriter) Write(columns []string, records []Record) error {
	if len(columns) == 0 {
		return fmt.Errorf("no columns to write")
	}

	table := quoteIdentifier(w.table)
	defs := make([]string, len(columns))
	names := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		names[i] = quoteIdentifier(col)
		defs[i] = names[i] + " TEXT"
		placeholders[i] = "?"
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(columns))
	for n, r := range records {
		for i, col := range columns {
			if v, ok := r.Get(col); ok {
				args[i] = v
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// quoteIdentifier makes any column name, Cyrillic included, a valid SQL
// identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Close closes the database
func (w *SQLiteWriter) Close() error {
	if w.db != nil {
		err := w.db.Close()
		w.db = nil
		return err
	}
	return nil
}
