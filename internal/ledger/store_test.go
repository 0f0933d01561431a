package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"accounting/internal/core"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, dir
}

func mustAppend(t *testing.T, s *Store, tx core.Transaction) core.Transaction {
	t.Helper()
	saved, err := s.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return saved
}

func TestOpen_SeedsFiles(t *testing.T) {
	s, dir := openTestStore(t)

	if got := s.Count(context.Background()); got != 0 {
		t.Fatalf("new store has %d transactions, want 0", got)
	}

	var txs []core.Transaction
	data, err := os.ReadFile(filepath.Join(dir, "transactions.json"))
	if err != nil {
		t.Fatalf("transactions file not seeded: %v", err)
	}
	if err := json.Unmarshal(data, &txs); err != nil {
		t.Fatalf("seeded transactions file does not parse: %v", err)
	}

	cats := s.Categories(context.Background())
	if len(cats) != len(core.DefaultCategories()) {
		t.Fatalf("got %d categories, want %d", len(cats), len(core.DefaultCategories()))
	}
	if !s.KnownCategory("food") {
		t.Errorf("food should be a known category")
	}
	if s.KnownCategory("yachts") {
		t.Errorf("yachts should not be a known category")
	}
}

func TestAppend_BalanceIsSumOfAmounts(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	amounts := []float64{-50, 5000, -120.25, 3.75, -1000}
	var want float64
	for _, a := range amounts {
		mustAppend(t, s, core.Transaction{Amount: a, Category: "food"})
		want += a
	}

	if got := s.Balance(ctx); got != want {
		t.Fatalf("Balance = %v, want %v", got, want)
	}
	// Idempotence: repeated reads without writes return the same value.
	if got := s.Balance(ctx); got != want {
		t.Fatalf("repeated Balance = %v, want %v", got, want)
	}
}

func TestAppend_AssignsIDAndTimestamp(t *testing.T) {
	s, _ := openTestStore(t)

	saved := mustAppend(t, s, core.Transaction{Amount: -9.5, Category: "transport"})
	if saved.ID == "" {
		t.Errorf("no id assigned")
	}
	if saved.Timestamp.IsZero() {
		t.Errorf("no timestamp assigned")
	}
	if saved.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not UTC: %v", saved.Timestamp.Location())
	}

	other := mustAppend(t, s, core.Transaction{Amount: -1, Category: "transport"})
	if other.ID == saved.ID {
		t.Errorf("duplicate id %q", other.ID)
	}
}

func TestAppend_RejectsInvalid(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, core.Transaction{Amount: 0, Category: "food"}); !errors.Is(err, core.ErrZeroAmount) {
		t.Fatalf("zero amount: err = %v, want ErrZeroAmount", err)
	}
	if _, err := s.Append(ctx, core.Transaction{Amount: 5}); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("empty category: err = %v, want ErrEmptyCategory", err)
	}
	if got := s.Count(ctx); got != 0 {
		t.Fatalf("rejected appends persisted: count = %d", got)
	}
}

func TestRoundTrip_ReloadPreservesLedger(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		mustAppend(t, s, core.Transaction{
			Amount:      float64(i+1) * 10,
			Category:    "salary",
			Description: fmt.Sprintf("payment %d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			Tags:        []string{"recurring"},
		})
	}

	reloaded, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	got := reloaded.Query(ctx, Filter{})
	want := s.Query(ctx, Filter{})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaded ledger differs:\ngot  %+v\nwant %+v", got, want)
	}
	if reloaded.Balance(ctx) != s.Balance(ctx) {
		t.Fatalf("reloaded balance %v != %v", reloaded.Balance(ctx), s.Balance(ctx))
	}
}

func TestQuery_Filters(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mustAppend(t, s, core.Transaction{Amount: -10, Category: "food", Timestamp: now.AddDate(0, 0, -40)})
	mustAppend(t, s, core.Transaction{Amount: -20, Category: "food", Timestamp: now.AddDate(0, 0, -10)})
	mustAppend(t, s, core.Transaction{Amount: -30, Category: "transport", Timestamp: now.AddDate(0, 0, -5)})
	mustAppend(t, s, core.Transaction{Amount: 100, Category: "salary", Timestamp: now.AddDate(0, 0, -1)})

	t.Run("since excludes older than 30 days", func(t *testing.T) {
		got := s.Query(ctx, Filter{Since: now.AddDate(0, 0, -30)})
		if len(got) != 3 {
			t.Fatalf("got %d transactions, want 3", len(got))
		}
		for _, tx := range got {
			if tx.Timestamp.Before(now.AddDate(0, 0, -30)) {
				t.Errorf("transaction %s older than bound", tx.ID)
			}
		}
	})

	t.Run("category exact match", func(t *testing.T) {
		got := s.Query(ctx, Filter{Category: "food"})
		if len(got) != 2 {
			t.Fatalf("got %d food transactions, want 2", len(got))
		}
	})

	t.Run("reverse chronological with limit", func(t *testing.T) {
		got := s.Query(ctx, Filter{Limit: 2})
		if len(got) != 2 {
			t.Fatalf("got %d transactions, want 2", len(got))
		}
		if got[0].Amount != 100 || got[1].Amount != -30 {
			t.Fatalf("wrong order: %+v", got)
		}
	})

	t.Run("until bound", func(t *testing.T) {
		got := s.Query(ctx, Filter{Until: now.AddDate(0, 0, -9)})
		if len(got) != 2 {
			t.Fatalf("got %d transactions, want 2", len(got))
		}
	})
}

func TestDelete(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()

	kept := mustAppend(t, s, core.Transaction{Amount: -10, Category: "food"})
	doomed := mustAppend(t, s, core.Transaction{Amount: -20, Category: "food"})

	removed, err := s.Delete(ctx, doomed.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.ID != doomed.ID {
		t.Fatalf("removed %q, want %q", removed.ID, doomed.ID)
	}
	if got := s.Count(ctx); got != 1 {
		t.Fatalf("count after delete = %d, want 1", got)
	}

	if _, err := s.Delete(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrNotFound", err)
	}

	// Deletion is persisted through the same atomic path as appends.
	reloaded, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reloaded.Count(ctx); got != 1 {
		t.Fatalf("reloaded count = %d, want 1", got)
	}
	if reloaded.Query(ctx, Filter{})[0].ID != kept.ID {
		t.Fatalf("wrong transaction survived")
	}
}

func TestConcurrentAppends(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()

	const goroutines = 8
	const perGoroutine = 25

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_, err := s.Append(ctx, core.Transaction{
					Amount:      1,
					Category:    "food",
					Description: fmt.Sprintf("g%d-%d", g, i),
				})
				if err != nil {
					t.Errorf("concurrent Append: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	want := goroutines * perGoroutine
	if got := s.Count(ctx); got != want {
		t.Fatalf("lost transactions: count = %d, want %d", got, want)
	}
	if got := s.Balance(ctx); got != float64(want) {
		t.Fatalf("balance = %v, want %v", got, float64(want))
	}

	// Post-condition: the file parses and holds exactly the expected count.
	data, err := os.ReadFile(filepath.Join(dir, "transactions.json"))
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	var onDisk []core.Transaction
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("data file corrupt after concurrent appends: %v", err)
	}
	if len(onDisk) != want {
		t.Fatalf("file holds %d transactions, want %d", len(onDisk), want)
	}

	ids := make(map[string]bool, len(onDisk))
	for _, tx := range onDisk {
		if ids[tx.ID] {
			t.Fatalf("duplicate id on disk: %s", tx.ID)
		}
		ids[tx.ID] = true
	}
}

func TestOpen_CorruptDataFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.json")
	if err := os.WriteFile(path, []byte(`{"this is": not json`), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	_, err := Open(dir, nil)
	if !errors.Is(err, ErrCorruptData) {
		t.Fatalf("Open corrupt file: err = %v, want ErrCorruptData", err)
	}

	// The broken file is left in place for manual inspection.
	after, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("corrupt file removed: %v", readErr)
	}
	if string(after) != `{"this is": not json` {
		t.Fatalf("corrupt file was modified")
	}
}

func TestOpen_CorruptCategoriesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "categories.json"), []byte("]["), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, err := Open(dir, nil); !errors.Is(err, ErrCorruptData) {
		t.Fatalf("err = %v, want ErrCorruptData", err)
	}
}

func TestMonthlySummary(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mustAppend(t, s, core.Transaction{Amount: -30, Category: "food", Timestamp: jan})
	mustAppend(t, s, core.Transaction{Amount: -20, Category: "food", Timestamp: jan.AddDate(0, 0, 5)})
	mustAppend(t, s, core.Transaction{Amount: -20, Category: "food", Timestamp: jan.AddDate(0, 1, 0)})

	sum := s.MonthlySummary(ctx, 2024, 1)
	if sum.ByCategory["food"] != -50 {
		t.Fatalf("ByCategory[food] = %v, want -50", sum.ByCategory["food"])
	}
	if sum.TotalExpense != 50 {
		t.Fatalf("TotalExpense = %v, want 50", sum.TotalExpense)
	}
}
