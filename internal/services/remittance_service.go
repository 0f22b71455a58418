package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
)

// SyncPublisher emits best-effort mirror messages after a successful
// mutation. A nil publisher disables mirroring.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string, action string) error
}

// Mirror message actions.
const (
	SyncActionCreate = "create"
	SyncActionUpdate = "update"
	SyncActionDelete = "delete"
	SyncActionRemit  = "remit"
)

// RemittanceService performs the one multi-record, must-be-atomic operation
// of the system: bundling pending donations into a transfer to the branch.
type RemittanceService struct {
	store     ledger.TransactionStore
	publisher SyncPublisher
}

func NewRemittanceService(store ledger.TransactionStore, publisher SyncPublisher) *RemittanceService {
	return &RemittanceService{store: store, publisher: publisher}
}

// RemittanceInput is the validated input of a remittance: the pending income
// records to settle plus the transfer being recorded.
type RemittanceInput struct {
	TransactionIDs []string
	Amount         core.Money
	Date           core.Date
	Description    string
}

// Remit marks every selected record remitted and inserts the branch transfer
// as one atomic batch. If the commit fails, no status changes and no
// transfer record are persisted.
//
// This is the only code path in the system that produces the remitted
// status.
func (s *RemittanceService) Remit(ctx context.Context, in RemittanceInput) error {
	if len(in.TransactionIDs) == 0 {
		return fmt.Errorf("%w: no transactions selected", core.ErrInvalidRemittance)
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}

	records, err := s.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	byID := make(map[string]core.Transaction, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	// Every selected id must reference an income record still pending; a
	// remittance never silently settles records that were not requested,
	// and never settles one twice.
	for _, id := range in.TransactionIDs {
		rec, ok := byID[id]
		if !ok {
			return fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
		}
		if !rec.IsPendingRemittance() {
			return fmt.Errorf("%w: transaction %s is not pending remittance", core.ErrInvalidRemittance, id)
		}
	}

	description := in.Description
	if description == "" {
		description = core.DefaultTransferDescription
	}

	remitted := core.StatusRemitted
	ops := make([]ledger.BatchOp, 0, len(in.TransactionIDs)+1)
	for _, id := range in.TransactionIDs {
		ops = append(ops, ledger.BatchOp{
			Update: &ledger.BatchUpdate{ID: id, Fields: ledger.Fields{Status: &remitted}},
		})
	}
	// The transfer itself carries no category and no status: it is the
	// outflow, not an income subject to remittance tracking. Its id is
	// assigned here so the mirror can be told about it right away.
	transferID := uuid.NewString()
	ops = append(ops, ledger.BatchOp{
		Insert: &core.Transaction{
			ID:          transferID,
			Type:        core.TypeBranchTransfer,
			Amount:      in.Amount,
			Date:        in.Date,
			Description: description,
		},
	})

	if err := s.store.ApplyBatch(ctx, ops); err != nil {
		return fmt.Errorf("commit remittance: %w", err)
	}

	slog.InfoContext(ctx, "Remittance committed",
		"transaction_count", len(in.TransactionIDs),
		"amount_cents", in.Amount.Cents,
		"date", in.Date.String())

	if s.publisher != nil {
		for _, id := range in.TransactionIDs {
			if err := s.publisher.PublishTransactionSync(ctx, id, SyncActionRemit); err != nil {
				slog.WarnContext(ctx, "Failed to publish remit sync message", "id", id, "error", err)
			}
		}
		if err := s.publisher.PublishTransactionSync(ctx, transferID, SyncActionCreate); err != nil {
			slog.WarnContext(ctx, "Failed to publish transfer sync message", "id", transferID, "error", err)
		}
	}

	return nil
}
