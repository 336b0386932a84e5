package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/mirror"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

// SyncWorker drains the event queue: it mirrors new ledger entries to the
// spreadsheet and refreshes holding prices on request.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    mirror.EntryWriter
	portfolio *services.PortfolioService
}

func NewSyncWorker(storage *storage.SQLiteRepository, entryWriter mirror.EntryWriter, portfolio *services.PortfolioService) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    entryWriter,
		portfolio: portfolio,
	}
}

// Handlers returns the AMQP dispatch table for this worker.
func (w *SyncWorker) Handlers(ctx context.Context) amqp.Handlers {
	return amqp.Handlers{
		LedgerEntry: func(msg *amqp.LedgerEntryMessage) error {
			return w.handleLedgerEntry(ctx, msg)
		},
		PriceRefresh: func(msg *amqp.PriceRefreshMessage) error {
			return w.handlePriceRefresh(ctx, msg)
		},
	}
}

// handleLedgerEntry mirrors one transaction to the spreadsheet. The message
// only carries the ID; the current row content comes from the database.
func (w *SyncWorker) handleLedgerEntry(ctx context.Context, msg *amqp.LedgerEntryMessage) error {
	slog.InfoContext(ctx, "Processing ledger entry message",
		"id", msg.ID,
		"owner", msg.Owner)

	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, skipping ledger entry", "id", msg.ID)
		return nil
	}

	t, err := w.storage.GetTransaction(ctx, msg.Owner, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.mirror.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored",
		"id", msg.ID,
		"owner", msg.Owner,
		"row_ref", ref)
	return nil
}

func (w *SyncWorker) handlePriceRefresh(ctx context.Context, msg *amqp.PriceRefreshMessage) error {
	slog.InfoContext(ctx, "Processing price refresh message",
		"holding_id", msg.HoldingID,
		"owner", msg.Owner)

	if w.portfolio == nil {
		slog.WarnContext(ctx, "No portfolio service configured, skipping price refresh",
			"holding_id", msg.HoldingID)
		return nil
	}

	return w.portfolio.RefreshPrice(ctx, msg.Owner, msg.HoldingID)
}
