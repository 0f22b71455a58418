package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
	"tesoreria/internal/sheets"
)

// SyncWorker keeps the spreadsheet mirror aligned with the primary store.
// It reacts to sync messages and also runs periodic full reconciles as a
// backup for lost messages.
type SyncWorker struct {
	store     ledger.TransactionStore
	mirror    sheets.TransactionMirror
	batchSize int
}

func NewSyncWorker(store ledger.TransactionStore, mirror sheets.TransactionMirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one sync message. The record is always
// reloaded from the store, so the mirror converges even when messages
// arrive out of order: a record missing from the store is removed from the
// mirror regardless of the message action.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"action", msg.Action)

	tx, err := w.findTransaction(ctx, msg.ID)
	if err != nil {
		return err
	}
	if tx == nil {
		if err := w.mirror.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove from mirror: %w", err)
		}
		return nil
	}

	if err := w.mirror.Upsert(ctx, *tx); err != nil {
		return fmt.Errorf("upsert to mirror: %w", err)
	}
	return nil
}

func (w *SyncWorker) findTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	records, err := w.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records from storage: %w", err)
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Reconcile mirrors every record in the store. It is the safety net for
// missed messages: run it at startup and on a timer.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	records, err := w.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load records for reconcile: %w", err)
	}

	if len(records) == 0 {
		slog.InfoContext(ctx, "No records to reconcile")
		return nil
	}

	successCount := 0
	errorCount := 0

	for i, tx := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror.Upsert(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror record",
				"id", tx.ID, "error", err)
			errorCount++
			continue
		}
		successCount++

		if w.batchSize > 0 && (i+1)%w.batchSize == 0 {
			slog.InfoContext(ctx, "Reconcile progress",
				"done", i+1, "total", len(records))
		}
	}

	slog.InfoContext(ctx, "Reconcile completed",
		"total", len(records),
		"mirrored", successCount,
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("reconcile finished with %d errors", errorCount)
	}
	return nil
}
