// Package memory provides the in-memory ledger adapter used by tests and the
// default backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
)

type Store struct {
	mu   sync.Mutex
	txs  []core.Transaction
	reqs []core.ServiceRequest
}

var (
	_ ledger.TransactionStore = (*Store)(nil)
	_ ledger.RequestStore     = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// NewSeeded returns a store preloaded with a small demo ledger, mirroring
// the sample data the application shipped with before it had a real backend.
func NewSeeded() *Store {
	s := New()
	seed := []core.Transaction{
		{
			Type:        core.TypeIncome,
			Amount:      core.Money{Cents: 125075},
			Date:        core.NewDate(2024, 7, 15),
			Description: "Donaciones del mes - Caja A",
			Category:    core.CategoryCongregation,
			Status:      core.StatusCompleted,
		},
		{
			Type:        core.TypeIncome,
			Amount:      core.Money{Cents: 35000},
			Date:        core.NewDate(2024, 7, 20),
			Description: "Donación Obra Mundial",
			Category:    core.CategoryWorldwideWork,
			Status:      core.StatusRemitted,
		},
		{
			Type:        core.TypeExpense,
			Amount:      core.Money{Cents: 8550},
			Date:        core.NewDate(2024, 7, 22),
			Description: "Factura de electricidad",
		},
		{
			Type:        core.TypeBranchTransfer,
			Amount:      core.Money{Cents: 35000},
			Date:        core.NewDate(2024, 7, 28),
			Description: "Envío a sucursal - Julio",
		},
		{
			Type:        core.TypeIncome,
			Amount:      core.Money{Cents: 15000},
			Date:        core.NewDate(2024, 8, 5),
			Description: "Donación para renovación",
			Category:    core.CategoryRenovation,
			Status:      core.StatusPendingRemittance,
		},
	}
	for _, tx := range seed {
		tx.ID = uuid.NewString()
		s.txs = append(s.txs, tx)
	}
	return s
}

func (s *Store) Insert(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = uuid.NewString()
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *Store) UpdateFields(_ context.Context, id string, fields ledger.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	fields.Apply(&s.txs[i])
	return nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	return nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

// ApplyBatch validates every operation against the current state before
// touching anything, so a bad op leaves the store unchanged.
func (s *Store) ApplyBatch(_ context.Context, ops []ledger.BatchOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n, op := range ops {
		switch {
		case op.Insert != nil:
			if err := op.Insert.Validate(); err != nil {
				return fmt.Errorf("batch op %d: %w", n, err)
			}
		case op.Update != nil:
			if s.indexOf(op.Update.ID) < 0 {
				return fmt.Errorf("batch op %d: %w", n, ledger.ErrNotFound)
			}
		default:
			return fmt.Errorf("batch op %d: empty operation", n)
		}
	}

	for _, op := range ops {
		if op.Insert != nil {
			tx := *op.Insert
			if tx.ID == "" {
				tx.ID = uuid.NewString()
			}
			s.txs = append(s.txs, tx)
			continue
		}
		i := s.indexOf(op.Update.ID)
		op.Update.Fields.Apply(&s.txs[i])
	}
	return nil
}

func (s *Store) InsertRequest(_ context.Context, r core.ServiceRequest) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	s.reqs = append(s.reqs, r)
	return r.ID, nil
}

func (s *Store) ListRequests(_ context.Context) ([]core.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ServiceRequest, len(s.reqs))
	copy(out, s.reqs)
	return out, nil
}

func (s *Store) UpdateRequestStatus(_ context.Context, id string, status core.RequestStatus) error {
	if !status.IsValid() {
		return core.ErrInvalidRequestStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reqs {
		if s.reqs[i].ID == id {
			s.reqs[i].Status = status
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) DeleteRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reqs {
		if s.reqs[i].ID == id {
			s.reqs = append(s.reqs[:i], s.reqs[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) indexOf(id string) int {
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}
