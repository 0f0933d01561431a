package tools

import (
	"context"
	"time"

	"accounting/internal/core"
	"accounting/internal/ledger"
)

type transactionsResource struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

type categoriesResource struct {
	Categories []core.Category `json:"categories"`
	Count      int             `json:"count"`
}

type summaryResource struct {
	Balance        float64             `json:"balance"`
	Account        core.AccountSummary `json:"account"`
	MonthlySummary core.MonthlySummary `json:"monthly_summary"`
}

// AllTransactions serves transactions://all: the full ledger, newest first.
func (h *Handlers) AllTransactions(ctx context.Context) (any, error) {
	transactions := h.svc.ListTransactions(ctx, ledger.Filter{})
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	return transactionsResource{
		Transactions: transactions,
		Count:        len(transactions),
	}, nil
}

// CategoryList serves categories://list and categories://all.
func (h *Handlers) CategoryList(ctx context.Context) (any, error) {
	categories := h.svc.Categories(ctx)
	if categories == nil {
		categories = []core.Category{}
	}
	return categoriesResource{
		Categories: categories,
		Count:      len(categories),
	}, nil
}

// CurrentSummary serves summary://current: balance, account totals and the
// running month's summary.
func (h *Handlers) CurrentSummary(ctx context.Context) (any, error) {
	now := time.Now().UTC()
	return summaryResource{
		Balance:        h.svc.Balance(ctx),
		Account:        h.svc.Summary(ctx),
		MonthlySummary: h.svc.MonthlySummary(ctx, now.Year(), int(now.Month())),
	}, nil
}
