package mirror

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"accounting/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mirrorTx(id string, amount float64, category string, ts time.Time) core.Transaction {
	return core.Transaction{
		ID:        id,
		Amount:    amount,
		Category:  category,
		Timestamp: ts,
		Tags:      []string{"mirrored"},
	}
}

func TestUpsertTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	if err := repo.UpsertTransaction(ctx, mirrorTx("t1", -50, "food", ts)); err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}
	count, err := repo.CountTransactions(ctx)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	// Redelivered events overwrite instead of duplicating.
	if err := repo.UpsertTransaction(ctx, mirrorTx("t1", -75, "food", ts)); err != nil {
		t.Fatalf("redelivered upsert: %v", err)
	}
	count, err = repo.CountTransactions(ctx)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after redelivery = %d, want 1", count)
	}

	_, expense, err := repo.MonthTotals(ctx, 2024, 1)
	if err != nil {
		t.Fatalf("MonthTotals: %v", err)
	}
	if expense != 75 {
		t.Fatalf("expense = %v, want 75 after overwrite", expense)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.UpsertTransaction(ctx, mirrorTx("t1", -50, "food", time.Now().UTC())); err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}

	count, err := repo.CountTransactions(ctx)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}

	// Out-of-order delivery: deleting an id never seen is fine.
	if err := repo.DeleteTransaction(ctx, "never-seen"); err != nil {
		t.Fatalf("delete of unknown id: %v", err)
	}
}

func TestMonthTotals(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	jan := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC)

	seed := []core.Transaction{
		mirrorTx("t1", -30, "food", jan),
		mirrorTx("t2", -20, "food", jan.AddDate(0, 0, 3)),
		mirrorTx("t3", 3000, "salary", jan),
		mirrorTx("t4", -999, "shopping", feb),
	}
	for _, tx := range seed {
		if err := repo.UpsertTransaction(ctx, tx); err != nil {
			t.Fatalf("seed %s: %v", tx.ID, err)
		}
	}

	income, expense, err := repo.MonthTotals(ctx, 2024, 1)
	if err != nil {
		t.Fatalf("MonthTotals: %v", err)
	}
	if income != 3000 {
		t.Errorf("income = %v, want 3000", income)
	}
	if expense != 50 {
		t.Errorf("expense = %v, want 50", expense)
	}

	income, expense, err = repo.MonthTotals(ctx, 2024, 6)
	if err != nil {
		t.Fatalf("MonthTotals empty month: %v", err)
	}
	if income != 0 || expense != 0 {
		t.Errorf("empty month totals = %v/%v, want 0/0", income, expense)
	}
}
