package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteLedger keeps the ledger in a SQLite table. Row order is insertion order (id).
type SQLiteLedger struct {
	db *sql.DB
}

var _ ledger.Ledger = (*SQLiteLedger)(nil)

func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the ledger has no concurrency story of its own.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

func (r *SQLiteLedger) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const (
	insertEntrySQL = `INSERT INTO entries (date, amount, category, description) VALUES (?, ?, ?, ?)`
	selectAllSQL   = `SELECT id, date, amount, category, description FROM entries ORDER BY id`
	deleteAllSQL   = `DELETE FROM entries`
)

// Append implements ledger.Ledger.
func (r *SQLiteLedger) Append(ctx context.Context, e core.Entry) error {
	res, err := r.db.ExecContext(ctx, insertEntrySQL, e.Date, e.Amount.String(), e.Category, e.Description)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	id, _ := res.LastInsertId()
	slog.DebugContext(ctx, "Entry saved to SQLite",
		"id", id,
		"amount", e.Amount.String(),
		"category", e.Category)
	return nil
}

// ReadAll implements ledger.Ledger.
func (r *SQLiteLedger) ReadAll(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		var id int64
		var date, amount, category, desc string
		if err := rows.Scan(&id, &date, &amount, &category, &desc); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		amt, err := core.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("entry id %d: amount %q: %w", id, amount, ledger.ErrMalformedRow)
		}
		out = append(out, core.Entry{Date: date, Amount: amt, Category: category, Description: desc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// RewriteAll implements ledger.Ledger. The delete and the inserts share one transaction.
func (r *SQLiteLedger) RewriteAll(ctx context.Context, entries []core.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rewrite: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteAllSQL); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Date, e.Amount.String(), e.Category, e.Description); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rewrite: %w", err)
	}

	slog.InfoContext(ctx, "Ledger rewritten", "entries", len(entries))
	return nil
}
