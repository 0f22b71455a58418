package core

import (
	"errors"
	"strings"
)

// Auxiliary pioneer service requests run alongside the financial records as
// a simpler CRUD flow with an approval status.

// RequestStatus values keep the legacy stored spellings: existing documents
// were written with the Spanish labels and the storage contract preserves
// them verbatim.
const (
	RequestPending  RequestStatus = "Pendiente"
	RequestApproved RequestStatus = "Aprobado"
	RequestRejected RequestStatus = "Rechazado"
)

type (
	RequestStatus string

	// ServiceRequest is a member's application for auxiliary pioneer service:
	// either a set of specific months with an hour commitment, or continuous
	// service with no month selection.
	ServiceRequest struct {
		ID           string
		Name         string
		RequestDate  Date
		Year         int
		Months       []string
		IsContinuous bool
		Hours        int
		Status       RequestStatus
	}
)

var (
	ErrNameTooShort    = errors.New("name must have at least 3 characters")
	ErrNoMonthsChosen  = errors.New("at least one month is required")
	ErrInvalidHours    = errors.New("hours must be positive")
	ErrInvalidRequestStatus = errors.New("invalid request status")
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

func (r ServiceRequest) Validate() error {
	if len(strings.TrimSpace(r.Name)) < 3 {
		return ErrNameTooShort
	}
	if err := r.RequestDate.Validate(); err != nil {
		return err
	}
	if !r.Status.IsValid() {
		return ErrInvalidRequestStatus
	}
	if !r.IsContinuous {
		if len(r.Months) == 0 {
			return ErrNoMonthsChosen
		}
		if r.Hours <= 0 {
			return ErrInvalidHours
		}
	}
	return nil
}
