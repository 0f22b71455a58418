package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"tesoreria/internal/core"
)

type requestJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	RequestDate  string   `json:"requestDate"`
	Year         int      `json:"year"`
	Months       []string `json:"months"`
	IsContinuous bool     `json:"isContinuous"`
	Hours        int      `json:"hours"`
	Status       string   `json:"status"`
}

func toRequestJSON(r core.ServiceRequest) requestJSON {
	return requestJSON{
		ID:           r.ID,
		Name:         r.Name,
		RequestDate:  r.RequestDate.String(),
		Year:         r.Year,
		Months:       r.Months,
		IsContinuous: r.IsContinuous,
		Hours:        r.Hours,
		Status:       string(r.Status),
	}
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.requests.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List requests failed", "error", err)
		ServiceError(err).Write(w)
		return
	}
	out := make([]requestJSON, len(list))
	for i, req := range list {
		out[i] = toRequestJSON(req)
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	in, errs := parseRequest(r)
	if errs != nil {
		ValidationFailed(errs).Write(w)
		return
	}

	id, err := s.requests.Create(r.Context(), in)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create request failed", "error", err)
		ServiceError(err).Write(w)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Solicitud registrada").
		Data(map[string]string{"id": id}).
		Write(w)
}

func (s *Server) handleUpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var p struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		ValidationFailed(FieldErrors{"body": msgInvalidBody}).Write(w)
		return
	}

	status := core.RequestStatus(strings.TrimSpace(p.Status))
	if err := s.requests.UpdateStatus(r.Context(), id, status); err != nil {
		slog.ErrorContext(r.Context(), "Update request status failed", "error", err, "id", id)
		ServiceError(err).Write(w)
		return
	}

	NewJSONResponse().Message("Solicitud actualizada").Write(w)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.requests.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete request failed", "error", err, "id", id)
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Message("Solicitud eliminada").Write(w)
}
