package memory

import (
	"context"
	"errors"
	"testing"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
)

func income(cents int64, category core.IncomeCategory, status core.TransactionStatus) core.Transaction {
	return core.Transaction{
		Type:     core.TypeIncome,
		Amount:   core.Money{Cents: cents},
		Date:     core.NewDate(2024, 7, 5),
		Category: category,
		Status:   status,
	}
}

func TestInsertAssignsID(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Insert(ctx, income(5000, core.CategoryWorldwideWork, core.StatusPendingRemittance))
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if id == "" {
		t.Fatal("Insert returned empty id")
	}

	txs, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != id {
		t.Errorf("ListAll = %+v, want one record with id %s", txs, id)
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Insert(context.Background(), core.Transaction{Type: core.TypeExpense})
	if err == nil {
		t.Fatal("Insert accepted an invalid record")
	}
}

func TestUpdateFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.Insert(ctx, income(5000, core.CategoryRenovation, core.StatusPendingRemittance))

	amount := core.Money{Cents: 7500}
	desc := "corregido"
	if err := s.UpdateFields(ctx, id, ledger.Fields{Amount: &amount, Description: &desc}); err != nil {
		t.Fatalf("UpdateFields returned error: %v", err)
	}

	txs, _ := s.ListAll(ctx)
	if txs[0].Amount.Cents != 7500 || txs[0].Description != "corregido" {
		t.Errorf("record after update = %+v", txs[0])
	}
	// Untouched fields survive a partial update.
	if txs[0].Category != core.CategoryRenovation || txs[0].Status != core.StatusPendingRemittance {
		t.Errorf("partial update clobbered fields: %+v", txs[0])
	}

	if err := s.UpdateFields(ctx, "missing", ledger.Fields{Amount: &amount}); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("UpdateFields(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteByID(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.Insert(ctx, income(5000, core.CategoryCongregation, core.StatusCompleted))

	if err := s.DeleteByID(ctx, id); err != nil {
		t.Fatalf("DeleteByID returned error: %v", err)
	}
	if err := s.DeleteByID(ctx, id); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestApplyBatchAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.Insert(ctx, income(5000, core.CategoryWorldwideWork, core.StatusPendingRemittance))

	remitted := core.StatusRemitted
	transfer := core.Transaction{
		Type:        core.TypeBranchTransfer,
		Amount:      core.Money{Cents: 5000},
		Date:        core.NewDate(2024, 7, 6),
		Description: "Envío a la sucursal",
	}

	// One good update plus one update against a nonexistent id: nothing at
	// all may be applied.
	err := s.ApplyBatch(ctx, []ledger.BatchOp{
		{Update: &ledger.BatchUpdate{ID: id, Fields: ledger.Fields{Status: &remitted}}},
		{Update: &ledger.BatchUpdate{ID: "missing", Fields: ledger.Fields{Status: &remitted}}},
		{Insert: &transfer},
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("ApplyBatch = %v, want ErrNotFound", err)
	}

	txs, _ := s.ListAll(ctx)
	if len(txs) != 1 {
		t.Fatalf("failed batch inserted records: %d", len(txs))
	}
	if txs[0].Status != core.StatusPendingRemittance {
		t.Errorf("failed batch mutated status: %s", txs[0].Status)
	}

	// The same batch without the bad op commits both effects.
	err = s.ApplyBatch(ctx, []ledger.BatchOp{
		{Update: &ledger.BatchUpdate{ID: id, Fields: ledger.Fields{Status: &remitted}}},
		{Insert: &transfer},
	})
	if err != nil {
		t.Fatalf("ApplyBatch returned error: %v", err)
	}

	txs, _ = s.ListAll(ctx)
	if len(txs) != 2 {
		t.Fatalf("ListAll after batch = %d records, want 2", len(txs))
	}
	if txs[0].Status != core.StatusRemitted {
		t.Errorf("income status = %s, want remitted", txs[0].Status)
	}
	if txs[1].Type != core.TypeBranchTransfer || txs[1].ID == "" {
		t.Errorf("transfer record = %+v", txs[1])
	}
}

func TestApplyBatchKeepsCallerAssignedID(t *testing.T) {
	s := New()
	ctx := context.Background()

	transfer := core.Transaction{
		ID:          "transfer-42",
		Type:        core.TypeBranchTransfer,
		Amount:      core.Money{Cents: 5000},
		Date:        core.NewDate(2024, 7, 6),
		Description: "Envío a la sucursal",
	}
	if err := s.ApplyBatch(ctx, []ledger.BatchOp{{Insert: &transfer}}); err != nil {
		t.Fatalf("ApplyBatch returned error: %v", err)
	}

	txs, _ := s.ListAll(ctx)
	if len(txs) != 1 || txs[0].ID != "transfer-42" {
		t.Fatalf("stored records = %+v, want one with id transfer-42", txs)
	}
}

func TestRequestLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.InsertRequest(ctx, core.ServiceRequest{
		Name:        "Pedro Álvarez",
		RequestDate: core.NewDate(2024, 7, 1),
		Year:        2024,
		Months:      []string{"Septiembre"},
		Hours:       30,
		Status:      core.RequestPending,
	})
	if err != nil {
		t.Fatalf("InsertRequest returned error: %v", err)
	}

	if err := s.UpdateRequestStatus(ctx, id, core.RequestApproved); err != nil {
		t.Fatalf("UpdateRequestStatus returned error: %v", err)
	}
	reqs, _ := s.ListRequests(ctx)
	if len(reqs) != 1 || reqs[0].Status != core.RequestApproved {
		t.Errorf("ListRequests = %+v", reqs)
	}

	if err := s.UpdateRequestStatus(ctx, id, "Archivado"); err == nil {
		t.Error("UpdateRequestStatus accepted an unknown status")
	}

	if err := s.DeleteRequest(ctx, id); err != nil {
		t.Fatalf("DeleteRequest returned error: %v", err)
	}
	if err := s.DeleteRequest(ctx, id); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("second DeleteRequest = %v, want ErrNotFound", err)
	}
}

func TestNewSeededIsConsistent(t *testing.T) {
	s := NewSeeded()
	txs, _ := s.ListAll(context.Background())
	if len(txs) == 0 {
		t.Fatal("seeded store is empty")
	}
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			t.Errorf("seed record %q invalid: %v", tx.Description, err)
		}
	}
}
