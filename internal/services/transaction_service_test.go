package services

import (
	"context"
	"errors"
	"testing"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
	"tesoreria/internal/ledger/memory"
)

func findByID(t *testing.T, store *memory.Store, id string) core.Transaction {
	t.Helper()
	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec
		}
	}
	t.Fatalf("record %s not found", id)
	return core.Transaction{}
}

func TestAddIncomeDerivesStatus(t *testing.T) {
	tests := []struct {
		category core.IncomeCategory
		want     core.TransactionStatus
	}{
		{core.CategoryCongregation, core.StatusCompleted},
		{core.CategoryWorldwideWork, core.StatusPendingRemittance},
		{core.CategoryRenovation, core.StatusPendingRemittance},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			store := memory.New()
			svc := NewTransactionService(store, nil)

			id, err := svc.AddIncome(context.Background(), IncomeInput{
				Amount:   core.Money{Cents: 5000},
				Date:     core.NewDate(2024, 7, 5),
				Category: tt.category,
			})
			if err != nil {
				t.Fatalf("AddIncome: %v", err)
			}
			if got := findByID(t, store, id).Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAddIncomeRejectsInvalid(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil)
	ctx := context.Background()

	_, err := svc.AddIncome(ctx, IncomeInput{
		Amount:   core.Money{Cents: 0},
		Date:     core.NewDate(2024, 7, 5),
		Category: core.CategoryCongregation,
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero amount = %v, want ErrInvalidAmount", err)
	}

	_, err = svc.AddIncome(ctx, IncomeInput{
		Amount:   core.Money{Cents: 100},
		Date:     core.NewDate(2024, 7, 5),
		Category: "lottery",
	})
	if !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("bad category = %v, want ErrInvalidCategory", err)
	}
}

func TestAddExpenseHasNoStatus(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)

	id, err := svc.AddExpense(context.Background(), ExpenseInput{
		Amount:      core.Money{Cents: 8550},
		Date:        core.NewDate(2024, 7, 22),
		Description: "Factura de electricidad",
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	rec := findByID(t, store, id)
	if rec.Type != core.TypeExpense || rec.Category != "" || rec.Status != "" {
		t.Errorf("expense record = %+v", rec)
	}
}

func TestUpdateReDerivesStatus(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	id, _ := svc.AddIncome(ctx, IncomeInput{
		Amount:   core.Money{Cents: 5000},
		Date:     core.NewDate(2024, 7, 5),
		Category: core.CategoryWorldwideWork,
	})

	// Recategorizing to congregation completes the record.
	err := svc.Update(ctx, UpdateInput{
		ID: id, Type: core.TypeIncome,
		Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 7, 5),
		Category: core.CategoryCongregation,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := findByID(t, store, id).Status; got != core.StatusCompleted {
		t.Errorf("status = %s, want completed", got)
	}

	// And back to a branch-bound category makes it pending again.
	err = svc.Update(ctx, UpdateInput{
		ID: id, Type: core.TypeIncome,
		Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 7, 5),
		Category: core.CategoryRenovation,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := findByID(t, store, id).Status; got != core.StatusPendingRemittance {
		t.Errorf("status = %s, want pending_remittance", got)
	}
}

func TestUpdateKeepsRemittedSticky(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	id, _ := svc.AddIncome(ctx, IncomeInput{
		Amount:   core.Money{Cents: 5000},
		Date:     core.NewDate(2024, 7, 5),
		Category: core.CategoryWorldwideWork,
	})
	if err := NewRemittanceService(store, nil).Remit(ctx, RemittanceInput{
		TransactionIDs: []string{id},
		Amount:         core.Money{Cents: 5000},
		Date:           core.NewDate(2024, 7, 6),
	}); err != nil {
		t.Fatalf("Remit: %v", err)
	}

	// An amount edit must not regress a settled remittance to pending.
	err := svc.Update(ctx, UpdateInput{
		ID: id, Type: core.TypeIncome,
		Amount: core.Money{Cents: 6000}, Date: core.NewDate(2024, 7, 5),
		Category: core.CategoryWorldwideWork,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	rec := findByID(t, store, id)
	if rec.Status != core.StatusRemitted {
		t.Errorf("status = %s, want remitted", rec.Status)
	}
	if rec.Amount.Cents != 6000 {
		t.Errorf("amount = %d, want 6000", rec.Amount.Cents)
	}
}

func TestUpdateRejectsTypeChangeAndTransfers(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	incomeID, _ := svc.AddIncome(ctx, IncomeInput{
		Amount:   core.Money{Cents: 5000},
		Date:     core.NewDate(2024, 7, 5),
		Category: core.CategoryCongregation,
	})
	transferID, err := store.Insert(ctx, core.Transaction{
		Type:   core.TypeBranchTransfer,
		Amount: core.Money{Cents: 5000},
		Date:   core.NewDate(2024, 7, 28),
	})
	if err != nil {
		t.Fatalf("seed transfer: %v", err)
	}

	base := UpdateInput{
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 7, 5),
	}

	t.Run("income cannot become expense", func(t *testing.T) {
		in := base
		in.ID = incomeID
		in.Type = core.TypeExpense
		if err := svc.Update(ctx, in); !errors.Is(err, core.ErrInvalidType) {
			t.Errorf("Update = %v, want ErrInvalidType", err)
		}
	})

	t.Run("branch transfers are immutable", func(t *testing.T) {
		in := base
		in.ID = transferID
		in.Type = core.TypeExpense
		if err := svc.Update(ctx, in); !errors.Is(err, core.ErrInvalidType) {
			t.Errorf("Update = %v, want ErrInvalidType", err)
		}
	})

	t.Run("update target must exist", func(t *testing.T) {
		in := base
		in.ID = "missing"
		in.Type = core.TypeExpense
		if err := svc.Update(ctx, in); !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("Update = %v, want ErrNotFound", err)
		}
	})
}

func TestDelete(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	id, _ := svc.AddExpense(ctx, ExpenseInput{
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 7, 1),
	})
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestMutationsPublishSyncMessages(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)
	ctx := context.Background()

	id, _ := svc.AddIncome(ctx, IncomeInput{
		Amount:   core.Money{Cents: 5000},
		Date:     core.NewDate(2024, 7, 5),
		Category: core.CategoryCongregation,
	})
	_ = svc.Update(ctx, UpdateInput{
		ID: id, Type: core.TypeIncome,
		Amount: core.Money{Cents: 5100}, Date: core.NewDate(2024, 7, 5),
		Category: core.CategoryCongregation,
	})
	_ = svc.Delete(ctx, id)

	want := []string{SyncActionCreate, SyncActionUpdate, SyncActionDelete}
	got := pub.actions[id]
	if len(got) != len(want) {
		t.Fatalf("published actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d = %s, want %s", i, got[i], want[i])
		}
	}
}
