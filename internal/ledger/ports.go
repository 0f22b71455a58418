// Package ledger defines the persistence boundary of the treasury core.
//
// The core depends only on these interfaces; concrete adapters exist for an
// in-memory store (tests, default backend) and SQLite (production). The
// system assumes a single logical writer: there is no optimistic or
// pessimistic concurrency control for simultaneous edits of the same record,
// and reads are not isolated from concurrent writes. ApplyBatch is the one
// grouped, all-or-nothing operation and exists solely for the remittance
// processor.
package ledger

import (
	"context"
	"errors"

	"tesoreria/internal/core"
)

var (
	// ErrNotFound reports an update or delete against an id no store row has.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable reports that the persistence layer could not be
	// reached. Operations fail closed: nothing was written.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type (
	// Fields is a partial update of a transaction. Nil members are left
	// untouched. Type is deliberately absent: a record's type never changes
	// after creation.
	Fields struct {
		Amount      *core.Money
		Date        *core.Date
		Description *string
		Category    *core.IncomeCategory
		Status      *core.TransactionStatus
	}

	// BatchOp is one operation of an atomic batch: exactly one of Insert or
	// Update is set. An Insert with a non-empty ID keeps it; the store
	// generates an id only when the caller left it blank.
	BatchOp struct {
		Insert *core.Transaction
		Update *BatchUpdate
	}

	// BatchUpdate applies Fields to the record with the given id.
	BatchUpdate struct {
		ID     string
		Fields Fields
	}

	// TransactionStore is the record store consumed by the core. ListAll
	// carries no ordering guarantee; reporting code sorts and filters for
	// itself.
	TransactionStore interface {
		Insert(ctx context.Context, tx core.Transaction) (string, error)
		UpdateFields(ctx context.Context, id string, fields Fields) error
		DeleteByID(ctx context.Context, id string) error
		ListAll(ctx context.Context) ([]core.Transaction, error)

		// ApplyBatch commits every operation or none of them.
		ApplyBatch(ctx context.Context, ops []BatchOp) error
	}

	// RequestStore persists auxiliary pioneer service requests.
	RequestStore interface {
		InsertRequest(ctx context.Context, r core.ServiceRequest) (string, error)
		ListRequests(ctx context.Context) ([]core.ServiceRequest, error)
		UpdateRequestStatus(ctx context.Context, id string, status core.RequestStatus) error
		DeleteRequest(ctx context.Context, id string) error
	}
)

// Apply merges the partial update into a transaction.
func (f Fields) Apply(tx *core.Transaction) {
	if f.Amount != nil {
		tx.Amount = *f.Amount
	}
	if f.Date != nil {
		tx.Date = *f.Date
	}
	if f.Description != nil {
		tx.Description = *f.Description
	}
	if f.Category != nil {
		tx.Category = *f.Category
	}
	if f.Status != nil {
		tx.Status = *f.Status
	}
}
