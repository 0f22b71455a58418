package sheets

import (
	"context"

	"tesoreria/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// TransactionMirror keeps a read-only copy of the ledger in an external
	// surface. Upsert is keyed by the record id, so replayed messages are
	// idempotent.
	TransactionMirror interface {
		Upsert(ctx context.Context, tx core.Transaction) error
		Remove(ctx context.Context, id string) error
	}
)
