package services

import (
	"context"
	"errors"
	"testing"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
	"tesoreria/internal/ledger/memory"
)

func TestRequestCreateStartsPending(t *testing.T) {
	store := memory.New()
	svc := NewRequestService(store)
	ctx := context.Background()

	id, err := svc.Create(ctx, RequestInput{
		Name:        "Ana López",
		RequestDate: core.NewDate(2024, 7, 1),
		Year:        2024,
		Months:      []string{"Agosto", "Septiembre"},
		Hours:       30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reqs, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reqs) != 1 || reqs[0].ID != id {
		t.Fatalf("List = %+v", reqs)
	}
	if reqs[0].Status != core.RequestPending {
		t.Errorf("status = %s, want %s", reqs[0].Status, core.RequestPending)
	}
}

func TestRequestCreateValidation(t *testing.T) {
	svc := NewRequestService(memory.New())
	ctx := context.Background()

	_, err := svc.Create(ctx, RequestInput{
		Name:        "Jo",
		RequestDate: core.NewDate(2024, 7, 1),
		Year:        2024,
		Months:      []string{"Agosto"},
		Hours:       30,
	})
	if !errors.Is(err, core.ErrNameTooShort) {
		t.Errorf("short name = %v, want ErrNameTooShort", err)
	}

	_, err = svc.Create(ctx, RequestInput{
		Name:        "Ana López",
		RequestDate: core.NewDate(2024, 7, 1),
		Year:        2024,
	})
	if !errors.Is(err, core.ErrNoMonthsChosen) {
		t.Errorf("no months = %v, want ErrNoMonthsChosen", err)
	}

	// Continuous service needs neither months nor hours.
	if _, err := svc.Create(ctx, RequestInput{
		Name:         "Ana López",
		RequestDate:  core.NewDate(2024, 7, 1),
		Year:         2024,
		IsContinuous: true,
	}); err != nil {
		t.Errorf("continuous request = %v, want nil", err)
	}
}

func TestRequestListNewestFirst(t *testing.T) {
	store := memory.New()
	svc := NewRequestService(store)
	ctx := context.Background()

	older, _ := svc.Create(ctx, RequestInput{
		Name: "Primera Persona", RequestDate: core.NewDate(2024, 6, 1),
		Year: 2024, IsContinuous: true,
	})
	newer, _ := svc.Create(ctx, RequestInput{
		Name: "Segunda Persona", RequestDate: core.NewDate(2024, 7, 1),
		Year: 2024, IsContinuous: true,
	})

	reqs, _ := svc.List(ctx)
	if len(reqs) != 2 || reqs[0].ID != newer || reqs[1].ID != older {
		t.Errorf("List order = %+v, want newest first", reqs)
	}
}

func TestRequestApprovalFlow(t *testing.T) {
	store := memory.New()
	svc := NewRequestService(store)
	ctx := context.Background()

	id, _ := svc.Create(ctx, RequestInput{
		Name: "Ana López", RequestDate: core.NewDate(2024, 7, 1),
		Year: 2024, IsContinuous: true,
	})

	if err := svc.UpdateStatus(ctx, id, core.RequestApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := svc.UpdateStatus(ctx, id, "Escalado"); !errors.Is(err, core.ErrInvalidRequestStatus) {
		t.Errorf("unknown status = %v, want ErrInvalidRequestStatus", err)
	}
	if err := svc.UpdateStatus(ctx, "missing", core.RequestRejected); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("missing id = %v, want ErrNotFound", err)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	reqs, _ := svc.List(ctx)
	if len(reqs) != 0 {
		t.Errorf("List after delete = %+v, want empty", reqs)
	}
}
