package services

import (
	"context"
	"fmt"
	"log/slog"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
)

// TransactionService handles single-record ledger mutations. The remitted
// status is out of its reach: updates always re-derive the status through
// the derivation rule, which never produces remitted on its own.
type TransactionService struct {
	store     ledger.TransactionStore
	publisher SyncPublisher
}

func NewTransactionService(store ledger.TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// IncomeInput is a validated income creation request.
type IncomeInput struct {
	Amount      core.Money
	Date        core.Date
	Description string
	Category    core.IncomeCategory
}

// ExpenseInput is a validated expense creation request.
type ExpenseInput struct {
	Amount      core.Money
	Date        core.Date
	Description string
}

// UpdateInput is a validated edit of an existing income or expense record.
type UpdateInput struct {
	ID          string
	Type        core.TransactionType
	Amount      core.Money
	Date        core.Date
	Description string
	// Category applies to income updates only.
	Category core.IncomeCategory
}

// AddIncome records a donation. The status comes from the derivation rule,
// never from the caller.
func (s *TransactionService) AddIncome(ctx context.Context, in IncomeInput) (string, error) {
	tx := core.Transaction{
		Type:        core.TypeIncome,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		Category:    in.Category,
		Status:      core.DeriveStatus(in.Category, ""),
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}

	id, err := s.store.Insert(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("insert income: %w", err)
	}

	slog.InfoContext(ctx, "Income recorded",
		"id", id,
		"amount_cents", tx.Amount.Cents,
		"category", string(tx.Category),
		"status", string(tx.Status))

	s.publish(ctx, id, SyncActionCreate)
	return id, nil
}

// AddExpense records an outgoing payment.
func (s *TransactionService) AddExpense(ctx context.Context, in ExpenseInput) (string, error) {
	tx := core.Transaction{
		Type:        core.TypeExpense,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}

	id, err := s.store.Insert(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded", "id", id, "amount_cents", tx.Amount.Cents)

	s.publish(ctx, id, SyncActionCreate)
	return id, nil
}

// Update edits an income or expense record. Branch transfers are immutable
// after creation, and a record never changes type. For income the status is
// re-derived from the (possibly changed) category and the current status, so
// a settled remittance can only leave the remitted state through an explicit
// recategorization to congregation.
func (s *TransactionService) Update(ctx context.Context, in UpdateInput) error {
	if in.Type != core.TypeIncome && in.Type != core.TypeExpense {
		return core.ErrInvalidType
	}

	current, err := s.find(ctx, in.ID)
	if err != nil {
		return err
	}
	if current.Type == core.TypeBranchTransfer {
		return fmt.Errorf("%w: branch transfers are immutable", core.ErrInvalidType)
	}
	if current.Type != in.Type {
		return fmt.Errorf("%w: type cannot change", core.ErrInvalidType)
	}

	next := current
	next.Amount = in.Amount
	next.Date = in.Date
	next.Description = in.Description
	if in.Type == core.TypeIncome {
		next.Category = in.Category
		next.Status = core.DeriveStatus(in.Category, current.Status)
	}
	if err := next.Validate(); err != nil {
		return err
	}

	fields := ledger.Fields{
		Amount:      &next.Amount,
		Date:        &next.Date,
		Description: &next.Description,
	}
	if in.Type == core.TypeIncome {
		fields.Category = &next.Category
		fields.Status = &next.Status
	}

	if err := s.store.UpdateFields(ctx, in.ID, fields); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		"id", in.ID,
		"type", string(in.Type),
		"status", string(next.Status))

	s.publish(ctx, in.ID, SyncActionUpdate)
	return nil
}

// Delete removes a record from the ledger.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, id, SyncActionDelete)
	return nil
}

// List returns the full ledger for display and aggregation.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return records, nil
}

func (s *TransactionService) find(ctx context.Context, id string) (core.Transaction, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load ledger: %w", err)
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
}

func (s *TransactionService) publish(ctx context.Context, id, action string) {
	if s.publisher == nil {
		return
	}
	// Mirroring is best effort; the primary write already succeeded.
	if err := s.publisher.PublishTransactionSync(ctx, id, action); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync message", "id", id, "action", action, "error", err)
	}
}
