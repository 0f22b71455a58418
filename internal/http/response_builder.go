// Package http exposes the treasury API over JSON endpoints.
//
// This file implements the Builder Pattern for constructing API responses.
// Every endpoint answers with the same envelope, and service errors map to
// a fixed status code per error kind.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
)

// apiEnvelope is the uniform response shape of the API.
type apiEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building API responses.
type JSONResponseBuilder struct {
	statusCode int
	envelope   apiEnvelope
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		envelope:   apiEnvelope{Success: true},
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Message sets the human-readable message of the envelope.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	b.envelope.Message = msg
	return b
}

// Data attaches a payload to the envelope.
func (b *JSONResponseBuilder) Data(data any) *JSONResponseBuilder {
	b.envelope.Data = data
	return b
}

// Failure marks the envelope unsuccessful.
func (b *JSONResponseBuilder) Failure() *JSONResponseBuilder {
	b.envelope.Success = false
	return b
}

// FieldErrors attaches per-field validation messages and marks failure.
func (b *JSONResponseBuilder) FieldErrors(errs FieldErrors) *JSONResponseBuilder {
	b.envelope.Success = false
	b.envelope.Errors = errs
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.envelope); err != nil {
		slog.Error("Failed writing response", "error", err)
	}
}

// ValidationFailed creates a 422 response carrying field messages.
func ValidationFailed(errs FieldErrors) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		FieldErrors(errs).
		Message("Los datos enviados no son válidos")
}

// validationMessages maps domain validation errors to the user-facing text.
var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrInvalidAmount, msgInvalidAmount},
	{core.ErrInvalidDate, msgInvalidDate},
	{core.ErrInvalidType, msgInvalidType},
	{core.ErrInvalidCategory, msgInvalidCategory},
	{core.ErrInvalidStatus, "El estado de la transacción no es válido"},
	{core.ErrDescriptionTooLong, msgDescTooLong},
	{core.ErrInvalidRemittance, "El envío no se puede procesar con la selección indicada"},
	{core.ErrNameTooShort, msgNameTooShort},
	{core.ErrNoMonthsChosen, msgNoMonths},
	{core.ErrInvalidHours, msgInvalidHours},
	{core.ErrInvalidRequestStatus, "El estado de la solicitud no es válido"},
}

// ServiceError maps an error from the service layer onto the response
// taxonomy: domain validation errors answer 422, a missing record answers
// 404, an unreachable store answers 503 and anything else answers 500.
func ServiceError(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return NewJSONResponse().
			Status(http.StatusNotFound).
			Failure().
			Message("Registro no encontrado")
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Failure().
			Message("El almacenamiento no está disponible, inténtalo de nuevo")
	}

	for _, vm := range validationMessages {
		if errors.Is(err, vm.err) {
			return NewJSONResponse().
				Status(http.StatusUnprocessableEntity).
				Failure().
				Message(vm.msg)
		}
	}

	return NewJSONResponse().
		Status(http.StatusInternalServerError).
		Failure().
		Message("Error interno del servidor")
}
