// Package ledger implements the JSON-file-backed storage engine. The store
// owns the in-memory ledger for the lifetime of the process; the on-disk
// JSON documents are the durable source of truth and are replaced atomically
// on every mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"accounting/internal/core"
	applog "accounting/internal/log"
)

// ErrCorruptData marks a data file that exists but cannot be parsed. The
// file is left untouched for manual inspection; the caller decides whether
// to back up and reset or abort.
var ErrCorruptData = errors.New("corrupt ledger data")

// ErrNotFound is returned by Delete for unknown transaction ids.
var ErrNotFound = errors.New("transaction not found")

// Filter narrows a Query. Zero values mean "no constraint".
type Filter struct {
	Category string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// Store is the storage engine. All mutations take the write lock and end
// with an atomic file replace; reads take the read lock and return copies.
type Store struct {
	mu sync.RWMutex

	transactionsPath string
	categoriesPath   string

	transactions []core.Transaction
	categories   []core.Category
	known        map[string]bool

	logger *applog.Logger
}

// Open loads the ledger from dataDir, creating the directory and seeding
// empty transactions and default categories on first run.
func Open(dataDir string, logger *applog.Logger) (*Store, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLedger)
	}

	paths, err := prepareDataDir(dataDir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		transactionsPath: paths.transactions,
		categoriesPath:   paths.categories,
		logger:           logger,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	s.logger.Info("Ledger loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldCount, len(s.transactions),
		"categories", len(s.categories))

	return s, nil
}

// Append assigns an identifier and timestamp, validates the transaction,
// appends it to the ledger and persists the file atomically. The returned
// transaction carries the assigned fields.
func (s *Store) Append(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	} else {
		t.Timestamp = t.Timestamp.UTC()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, t)
	if err := s.persistTransactionsLocked(); err != nil {
		// Keep memory and disk consistent: the failed append is rolled back.
		s.transactions = s.transactions[:len(s.transactions)-1]
		return core.Transaction{}, fmt.Errorf("persist ledger: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction appended",
		applog.FieldOperation, applog.OpAppend,
		applog.FieldTransactionID, t.ID,
		applog.FieldAmount, t.Amount,
		applog.FieldCategory, t.Category)

	return t, nil
}

// Delete removes a transaction by id and persists the file atomically.
// Returns ErrNotFound if the id is unknown.
func (s *Store) Delete(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.transactions {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Transaction{}, ErrNotFound
	}

	removed := s.transactions[idx]
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)
	if err := s.persistTransactionsLocked(); err != nil {
		// Roll the removal back on persist failure.
		s.transactions = append(s.transactions[:idx], append([]core.Transaction{removed}, s.transactions[idx:]...)...)
		return core.Transaction{}, fmt.Errorf("persist ledger: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTransactionID, id)

	return removed, nil
}

// Query returns matching transactions in reverse-chronological order.
func (s *Store) Query(ctx context.Context, f Filter) []core.Transaction {
	s.mu.RLock()
	matched := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if !f.Since.IsZero() && t.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && t.Timestamp.After(f.Until) {
			continue
		}
		matched = append(matched, t)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched
}

// Balance sums all transaction amounts. O(n) over the in-memory ledger.
func (s *Store) Balance(ctx context.Context) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance float64
	for _, t := range s.transactions {
		balance += t.Amount
	}
	return balance
}

// Summary aggregates the whole ledger.
func (s *Store) Summary(ctx context.Context) core.AccountSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(s.transactions)
}

// MonthlySummary aggregates the given UTC calendar month.
func (s *Store) MonthlySummary(ctx context.Context, year, month int) core.MonthlySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.SummarizeMonth(s.transactions, year, month)
}

// Categories returns the seeded category list.
func (s *Store) Categories(ctx context.Context) []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.categories...)
}

// KnownCategory reports whether name is in the seeded category list.
func (s *Store) KnownCategory(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.known[strings.TrimSpace(name)]
}

// Count returns the number of transactions in the ledger.
func (s *Store) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// TransactionsPath returns the path of the transactions data file.
func (s *Store) TransactionsPath() string {
	return s.transactionsPath
}
