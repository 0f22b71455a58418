package http

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleCreateRemittance(w http.ResponseWriter, r *http.Request) {
	in, errs := parseRemittance(r)
	if errs != nil {
		ValidationFailed(errs).Write(w)
		return
	}

	if err := s.remittances.Remit(r.Context(), in); err != nil {
		slog.ErrorContext(r.Context(), "Remittance failed",
			"error", err,
			"selected", len(in.TransactionIDs))
		ServiceError(err).Write(w)
		return
	}

	s.invalidateDashboard()
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Envío a la sucursal registrado").
		Write(w)
}
