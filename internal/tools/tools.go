// Package tools implements the JSON-RPC tools and resource providers
// exposed to the assistant, validating parameters and delegating to the
// ledger service.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"accounting/internal/core"
	"accounting/internal/ledger"
	"accounting/internal/rpc"
	"accounting/internal/services"
)

const defaultListDays = 30

// Handlers holds the tool and resource implementations.
type Handlers struct {
	svc *services.LedgerService
}

// Register wires every tool and resource into the registry and seals it.
// Called exactly once at process start.
func Register(reg *rpc.Registry, svc *services.LedgerService) {
	h := &Handlers{svc: svc}

	reg.RegisterTool(rpc.Tool{Name: "add_transaction", Mutating: true, Handler: h.AddTransaction})
	reg.RegisterTool(rpc.Tool{Name: "delete_transaction", Mutating: true, Handler: h.DeleteTransaction})
	reg.RegisterTool(rpc.Tool{Name: "get_balance", Handler: h.GetBalance})
	reg.RegisterTool(rpc.Tool{Name: "list_transactions", Handler: h.ListTransactions})
	reg.RegisterTool(rpc.Tool{Name: "get_monthly_summary", Handler: h.GetMonthlySummary})

	reg.RegisterResource("transactions://all", h.AllTransactions)
	// categories://all is the legacy spelling of the same resource.
	reg.RegisterResource("categories://list", h.CategoryList)
	reg.RegisterResource("categories://all", h.CategoryList)
	reg.RegisterResource("summary://current", h.CurrentSummary)

	reg.Seal()
}

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return rpc.NewInvalidParams(err.Error())
	}
	return nil
}

type addTransactionParams struct {
	Amount      *float64 `json:"amount"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type addTransactionResult struct {
	Success        bool             `json:"success"`
	Transaction    core.Transaction `json:"transaction"`
	CurrentBalance float64          `json:"current_balance"`
	CategoryKnown  bool             `json:"category_known"`
	Message        string           `json:"message"`
}

// AddTransaction records a transaction. Amount must be a non-zero number;
// unknown categories are accepted but flagged in the result.
func (h *Handlers) AddTransaction(ctx context.Context, params json.RawMessage) (any, error) {
	var p addTransactionParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Amount == nil {
		return nil, rpc.NewInvalidParams("amount is required")
	}
	if *p.Amount == 0 {
		return nil, rpc.NewInvalidParams("amount must be non-zero")
	}
	if strings.TrimSpace(p.Category) == "" {
		return nil, rpc.NewInvalidParams("category is required")
	}

	saved, err := h.svc.RecordTransaction(ctx, core.Transaction{
		Amount:      *p.Amount,
		Category:    strings.TrimSpace(p.Category),
		Description: p.Description,
		Tags:        p.Tags,
	})
	if err != nil {
		return nil, err
	}

	balance := h.svc.Balance(ctx)
	kind := "expense"
	if saved.IsIncome() {
		kind = "income"
	}

	return addTransactionResult{
		Success:        true,
		Transaction:    saved,
		CurrentBalance: balance,
		CategoryKnown:  h.svc.KnownCategory(saved.Category),
		Message: fmt.Sprintf("Recorded %s of %.2f in category %q; current balance: %.2f",
			kind, math.Abs(saved.Amount), saved.Category, balance),
	}, nil
}

type deleteTransactionParams struct {
	ID string `json:"id"`
}

type deleteTransactionResult struct {
	Success     bool             `json:"success"`
	Transaction core.Transaction `json:"transaction"`
	Message     string           `json:"message"`
}

// DeleteTransaction removes a transaction by id.
func (h *Handlers) DeleteTransaction(ctx context.Context, params json.RawMessage) (any, error) {
	var p deleteTransactionParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, rpc.NewInvalidParams("id is required")
	}

	removed, err := h.svc.DeleteTransaction(ctx, p.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, rpc.NewInvalidParams("unknown transaction id")
		}
		return nil, err
	}

	return deleteTransactionResult{
		Success:     true,
		Transaction: removed,
		Message:     fmt.Sprintf("Deleted transaction %s", removed.ID),
	}, nil
}

type balanceResult struct {
	Balance float64 `json:"balance"`
	Message string  `json:"message"`
}

// GetBalance returns the current balance. No parameters.
func (h *Handlers) GetBalance(ctx context.Context, _ json.RawMessage) (any, error) {
	balance := h.svc.Balance(ctx)
	return balanceResult{
		Balance: balance,
		Message: fmt.Sprintf("Current balance: %.2f", balance),
	}, nil
}

type listTransactionsParams struct {
	Days     *int   `json:"days"`
	Category string `json:"category"`
	Limit    *int   `json:"limit"`
}

type transactionListResult struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	Message      string             `json:"message"`
}

// ListTransactions queries recent transactions. days defaults to 30;
// days=0 disables the lower bound.
func (h *Handlers) ListTransactions(ctx context.Context, params json.RawMessage) (any, error) {
	var p listTransactionsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	days := defaultListDays
	if p.Days != nil {
		if *p.Days < 0 {
			return nil, rpc.NewInvalidParams("days must not be negative")
		}
		days = *p.Days
	}
	limit := 0
	if p.Limit != nil {
		if *p.Limit < 0 {
			return nil, rpc.NewInvalidParams("limit must not be negative")
		}
		limit = *p.Limit
	}

	f := ledger.Filter{
		Category: strings.TrimSpace(p.Category),
		Limit:    limit,
	}
	if days > 0 {
		f.Since = time.Now().UTC().AddDate(0, 0, -days)
	}

	transactions := h.svc.ListTransactions(ctx, f)
	if transactions == nil {
		transactions = []core.Transaction{}
	}

	return transactionListResult{
		Transactions: transactions,
		Count:        len(transactions),
		Message:      fmt.Sprintf("Found %d transactions", len(transactions)),
	}, nil
}

type monthlySummaryParams struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
}

type monthlySummaryResult struct {
	Summary core.MonthlySummary `json:"summary"`
	Message string              `json:"message"`
}

// GetMonthlySummary summarizes a calendar month, defaulting to the current
// UTC month. year and month must be supplied together.
func (h *Handlers) GetMonthlySummary(ctx context.Context, params json.RawMessage) (any, error) {
	var p monthlySummaryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if (p.Year == nil) != (p.Month == nil) {
		return nil, rpc.NewInvalidParams("year and month must be supplied together")
	}

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if p.Year != nil {
		year, month = *p.Year, *p.Month
	}
	if month < 1 || month > 12 {
		return nil, rpc.NewInvalidParams("month must be between 1 and 12")
	}

	summary := h.svc.MonthlySummary(ctx, year, month)
	return monthlySummaryResult{
		Summary: summary,
		Message: fmt.Sprintf("%s summary: income %.2f, expense %.2f, net %.2f",
			summary.Month, summary.TotalIncome, summary.TotalExpense, summary.Net),
	}, nil
}
