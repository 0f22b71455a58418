package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
)

// RequestService manages auxiliary pioneer service requests: a plain CRUD
// flow with a three-state approval status.
type RequestService struct {
	store ledger.RequestStore
}

func NewRequestService(store ledger.RequestStore) *RequestService {
	return &RequestService{store: store}
}

// RequestInput is a validated request submission from the public form.
type RequestInput struct {
	Name         string
	RequestDate  core.Date
	Year         int
	Months       []string
	IsContinuous bool
	Hours        int
}

// Create records a new request. Every submission starts pending.
func (s *RequestService) Create(ctx context.Context, in RequestInput) (string, error) {
	req := core.ServiceRequest{
		Name:         in.Name,
		RequestDate:  in.RequestDate,
		Year:         in.Year,
		Months:       in.Months,
		IsContinuous: in.IsContinuous,
		Hours:        in.Hours,
		Status:       core.RequestPending,
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	id, err := s.store.InsertRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("insert request: %w", err)
	}

	slog.InfoContext(ctx, "Service request submitted",
		"id", id,
		"year", req.Year,
		"continuous", req.IsContinuous)
	return id, nil
}

// List returns all requests, newest request date first.
func (s *RequestService) List(ctx context.Context) ([]core.ServiceRequest, error) {
	reqs, err := s.store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].RequestDate.After(reqs[j].RequestDate.Time)
	})
	return reqs, nil
}

// UpdateStatus approves or rejects a request.
func (s *RequestService) UpdateStatus(ctx context.Context, id string, status core.RequestStatus) error {
	if !status.IsValid() {
		return core.ErrInvalidRequestStatus
	}
	if err := s.store.UpdateRequestStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	slog.InfoContext(ctx, "Service request status changed", "id", id, "status", string(status))
	return nil
}

// Delete removes a request.
func (s *RequestService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	slog.InfoContext(ctx, "Service request deleted", "id", id)
	return nil
}
