// Package worker consumes ledger events and applies them to the SQLite
// reporting mirror.
package worker

import (
	"context"
	"fmt"

	"accounting/internal/core"
	"accounting/internal/ledger/mirror"
	applog "accounting/internal/log"
)

type MirrorWorker struct {
	mirror *mirror.Repository
	logger *applog.Logger
}

func NewMirrorWorker(repo *mirror.Repository, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	}
	return &MirrorWorker{mirror: repo, logger: logger}
}

// HandleRecorded applies a transaction.recorded event to the mirror.
func (w *MirrorWorker) HandleRecorded(ctx context.Context, t core.Transaction) error {
	if err := w.mirror.UpsertTransaction(ctx, t); err != nil {
		return fmt.Errorf("mirror transaction %s: %w", t.ID, err)
	}

	w.logger.InfoContext(ctx, "Transaction mirrored",
		applog.FieldTransactionID, t.ID,
		applog.FieldAmount, t.Amount,
		applog.FieldCategory, t.Category)
	return nil
}

// HandleDeleted applies a transaction.deleted event to the mirror.
func (w *MirrorWorker) HandleDeleted(ctx context.Context, id string) error {
	if err := w.mirror.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("unmirror transaction %s: %w", id, err)
	}

	w.logger.InfoContext(ctx, "Transaction removed from mirror",
		applog.FieldTransactionID, id)
	return nil
}
