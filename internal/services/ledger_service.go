package services

import (
	"context"
	"fmt"

	"accounting/internal/core"
	"accounting/internal/ledger"
	applog "accounting/internal/log"
)

// EventPublisher publishes ledger events to the mirror pipeline.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, t core.Transaction) error
	PublishTransactionDeleted(ctx context.Context, id string) error
}

// LedgerService orchestrates ledger mutations and event publishing. The
// store write is authoritative; a publish failure is logged and never fails
// the request.
type LedgerService struct {
	store  *ledger.Store
	events EventPublisher
	logger *applog.Logger
}

func NewLedgerService(store *ledger.Store, events EventPublisher, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLedger)
	}
	return &LedgerService{
		store:  store,
		events: events,
		logger: logger,
	}
}

// RecordTransaction appends a transaction and publishes the recorded event.
func (s *LedgerService) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	saved, err := s.store.Append(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishTransactionRecorded(ctx, saved); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish recorded event",
				applog.FieldTransactionID, saved.ID,
				applog.FieldError, err.Error())
			// Don't fail the request - the transaction is persisted
		}
	}

	return saved, nil
}

// DeleteTransaction removes a transaction by id and publishes the deleted
// event. Returns ledger.ErrNotFound for unknown ids.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) (core.Transaction, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if s.events != nil {
		if err := s.events.PublishTransactionDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish deleted event",
				applog.FieldTransactionID, id,
				applog.FieldError, err.Error())
			// Don't fail the request - the deletion is persisted
		}
	}

	return removed, nil
}

// ListTransactions queries the ledger.
func (s *LedgerService) ListTransactions(ctx context.Context, f ledger.Filter) []core.Transaction {
	return s.store.Query(ctx, f)
}

// Balance returns the sum of all transaction amounts.
func (s *LedgerService) Balance(ctx context.Context) float64 {
	return s.store.Balance(ctx)
}

// MonthlySummary aggregates the given UTC calendar month.
func (s *LedgerService) MonthlySummary(ctx context.Context, year, month int) core.MonthlySummary {
	return s.store.MonthlySummary(ctx, year, month)
}

// Summary aggregates the whole account.
func (s *LedgerService) Summary(ctx context.Context) core.AccountSummary {
	return s.store.Summary(ctx)
}

// Categories returns the seeded category list.
func (s *LedgerService) Categories(ctx context.Context) []core.Category {
	return s.store.Categories(ctx)
}

// KnownCategory reports whether name is a seeded category.
func (s *LedgerService) KnownCategory(name string) bool {
	return s.store.KnownCategory(name)
}
