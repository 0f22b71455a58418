package http

import (
	"log/slog"
	"net/http"

	"tesoreria/internal/core"
)

// transactionJSON is the wire shape of a ledger record. Amount travels as a
// decimal string so clients never do float math on money.
type transactionJSON struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status,omitempty"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Amount:      tx.Amount.String(),
		Date:        tx.Date.String(),
		Description: tx.Description,
		Category:    string(tx.Category),
		Status:      string(tx.Status),
	}
}

func toTransactionListJSON(records []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(records))
	for i, tx := range records {
		out[i] = toTransactionJSON(tx)
	}
	return out
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	records, err := s.transactions.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Data(toTransactionListJSON(records)).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	in, errs := parseIncome(r)
	if errs != nil {
		ValidationFailed(errs).Write(w)
		return
	}

	id, err := s.transactions.AddIncome(r.Context(), in)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add income failed", "error", err)
		ServiceError(err).Write(w)
		return
	}

	s.invalidateDashboard()
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Ingreso registrado").
		Data(map[string]string{"id": id}).
		Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, errs := parseExpense(r)
	if errs != nil {
		ValidationFailed(errs).Write(w)
		return
	}

	id, err := s.transactions.AddExpense(r.Context(), in)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add expense failed", "error", err)
		ServiceError(err).Write(w)
		return
	}

	s.invalidateDashboard()
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Gasto registrado").
		Data(map[string]string{"id": id}).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, errs := parseUpdate(r, id)
	if errs != nil {
		ValidationFailed(errs).Write(w)
		return
	}

	if err := s.transactions.Update(r.Context(), in); err != nil {
		slog.ErrorContext(r.Context(), "Update transaction failed", "error", err, "id", id)
		ServiceError(err).Write(w)
		return
	}

	s.invalidateDashboard()
	NewJSONResponse().Message("Transacción actualizada").Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "id", id)
		ServiceError(err).Write(w)
		return
	}

	s.invalidateDashboard()
	NewJSONResponse().Message("Transacción eliminada").Write(w)
}
