package worker

import (
	"context"
	"errors"
	"testing"

	"tesoreria/internal/amqp"
	"tesoreria/internal/core"
	ledgermem "tesoreria/internal/ledger/memory"
	sheetsmem "tesoreria/internal/sheets/memory"
)

func seedIncome(t *testing.T, store *ledgermem.Store, desc string) core.Transaction {
	t.Helper()
	d, _ := core.ParseDate("2025-07-10")
	tx := core.Transaction{
		Date:        d,
		Type:        core.TypeIncome,
		Description: desc,
		Amount:      core.Money{Cents: 2500},
		Category:    core.CategoryCongregation,
		Status:      core.StatusCompleted,
	}
	id, err := store.Insert(context.Background(), tx)
	if err != nil {
		t.Fatalf("seed insert error = %v", err)
	}
	tx.ID = id
	return tx
}

func TestSyncWorker_HandleSyncMessage_Upsert(t *testing.T) {
	store := ledgermem.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 10)

	tx := seedIncome(t, store, "Donación")

	msg := amqp.NewTransactionSyncMessage(tx.ID, "create")
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	got, ok := mirror.Get(tx.ID)
	if !ok {
		t.Fatal("record not mirrored")
	}
	if got.Description != "Donación" {
		t.Errorf("mirrored description = %q, want Donación", got.Description)
	}
}

func TestSyncWorker_HandleSyncMessage_MissingRecordRemovesFromMirror(t *testing.T) {
	store := ledgermem.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 10)

	// Mirror holds a record the store no longer has.
	tx := seedIncome(t, store, "Donación")
	if err := mirror.Upsert(context.Background(), tx); err != nil {
		t.Fatalf("mirror seed error = %v", err)
	}
	if err := store.DeleteByID(context.Background(), tx.ID); err != nil {
		t.Fatalf("delete error = %v", err)
	}

	// Even an "update" message converges to removal when the record is gone.
	msg := amqp.NewTransactionSyncMessage(tx.ID, "update")
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	if _, ok := mirror.Get(tx.ID); ok {
		t.Error("deleted record still mirrored")
	}
}

func TestSyncWorker_HandleSyncMessage_Replay(t *testing.T) {
	store := ledgermem.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 10)

	tx := seedIncome(t, store, "Donación")
	msg := amqp.NewTransactionSyncMessage(tx.ID, "create")

	for i := 0; i < 3; i++ {
		if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
			t.Fatalf("HandleSyncMessage() replay %d error = %v", i, err)
		}
	}

	if got := len(mirror.Snapshot()); got != 1 {
		t.Errorf("mirror rows = %d, want 1 after replays", got)
	}
}

func TestSyncWorker_Reconcile(t *testing.T) {
	store := ledgermem.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, 2)

	seedIncome(t, store, "Donación A")
	seedIncome(t, store, "Donación B")
	seedIncome(t, store, "Donación C")

	if err := w.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if got := len(mirror.Snapshot()); got != 3 {
		t.Errorf("mirror rows = %d, want 3", got)
	}
}

func TestSyncWorker_Reconcile_EmptyStore(t *testing.T) {
	w := NewSyncWorker(ledgermem.New(), sheetsmem.New(), 10)
	if err := w.Reconcile(context.Background()); err != nil {
		t.Errorf("Reconcile() on empty store error = %v", err)
	}
}

type brokenMirror struct{}

func (brokenMirror) Upsert(context.Context, core.Transaction) error {
	return errors.New("mirror unavailable")
}
func (brokenMirror) Remove(context.Context, string) error {
	return errors.New("mirror unavailable")
}

func TestSyncWorker_Reconcile_ReportsErrors(t *testing.T) {
	store := ledgermem.New()
	seedIncome(t, store, "Donación")
	w := NewSyncWorker(store, brokenMirror{}, 10)

	if err := w.Reconcile(context.Background()); err == nil {
		t.Error("Reconcile() should report mirror errors")
	}
}
