// Package mirror maintains the SQLite reporting replica of the ledger. The
// replica is derived state fed by ledger events; the JSON data file stays
// the source of truth.
package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"accounting/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertTransaction writes a mirrored transaction. Replays of the same
// event overwrite the row, so redelivery is harmless.
func (r *Repository) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, category, description, timestamp, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			category = excluded.category,
			description = excluded.description,
			timestamp = excluded.timestamp,
			tags = excluded.tags`,
		t.ID, t.Amount, t.Category, t.Description, t.Timestamp.UTC().Format(time.RFC3339), string(tags))
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes a mirrored transaction. Unknown ids are not an
// error: the delete event may arrive before the recorded one was consumed.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// CountTransactions returns the number of mirrored transactions.
func (r *Repository) CountTransactions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// MonthTotals returns income and expense magnitudes for a calendar month.
func (r *Repository) MonthTotals(ctx context.Context, year, month int) (income, expense float64, err error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0)
		FROM transactions
		WHERE substr(timestamp, 1, 7) = ?`, prefix).Scan(&income, &expense)
	if err != nil {
		return 0, 0, fmt.Errorf("month totals: %w", err)
	}
	return income, expense, nil
}
