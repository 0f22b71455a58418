// Package http exposes the treasury API over JSON endpoints.
//
// This file parses and validates request payloads. Field-level validation
// messages are produced here, before any service call, so a bad submission
// never reaches the store.

package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"tesoreria/internal/core"
	"tesoreria/internal/services"
)

// Spanish field messages mirror the form validation the UI shows.
const (
	msgInvalidAmount   = "El importe debe ser un número mayor que cero"
	msgInvalidDate     = "La fecha no es válida (formato AAAA-MM-DD)"
	msgInvalidCategory = "La categoría no es válida"
	msgInvalidType     = "El tipo de transacción no es válido"
	msgDescTooLong     = "La descripción no puede superar los 100 caracteres"
	msgNameTooShort    = "El nombre debe tener al menos 3 caracteres"
	msgNoMonths        = "Selecciona al menos un mes"
	msgInvalidHours    = "Las horas deben ser mayores que cero"
	msgNoSelection     = "Selecciona al menos una transacción pendiente"
	msgInvalidBody     = "El cuerpo de la petición no es válido"
)

// flexString accepts a JSON string or number, so amounts can arrive either
// way from clients.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) trimmed() string { return strings.TrimSpace(string(f)) }

// FieldErrors maps payload field names to a validation message.
type FieldErrors map[string]string

func (e FieldErrors) add(field, msg string) { e[field] = msg }

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type incomePayload struct {
	Amount      flexString `json:"amount"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
}

func parseIncome(r *http.Request) (services.IncomeInput, FieldErrors) {
	errs := FieldErrors{}
	var p incomePayload
	if err := decodeJSON(r, &p); err != nil {
		errs.add("body", msgInvalidBody)
		return services.IncomeInput{}, errs
	}

	in := services.IncomeInput{Description: strings.TrimSpace(p.Description)}

	amount, err := core.ParseAmount(p.Amount.trimmed())
	if err != nil {
		errs.add("amount", msgInvalidAmount)
	} else {
		in.Amount = amount
	}

	date, err := core.ParseDate(strings.TrimSpace(p.Date))
	if err != nil {
		errs.add("date", msgInvalidDate)
	} else {
		in.Date = date
	}

	category := core.IncomeCategory(strings.TrimSpace(p.Category))
	if !category.IsValid() {
		errs.add("category", msgInvalidCategory)
	} else {
		in.Category = category
	}

	if utf8.RuneCountInString(in.Description) > core.MaxDescriptionLen {
		errs.add("description", msgDescTooLong)
	}

	if len(errs) > 0 {
		return services.IncomeInput{}, errs
	}
	return in, nil
}

type expensePayload struct {
	Amount      flexString `json:"amount"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
}

func parseExpense(r *http.Request) (services.ExpenseInput, FieldErrors) {
	errs := FieldErrors{}
	var p expensePayload
	if err := decodeJSON(r, &p); err != nil {
		errs.add("body", msgInvalidBody)
		return services.ExpenseInput{}, errs
	}

	in := services.ExpenseInput{Description: strings.TrimSpace(p.Description)}

	amount, err := core.ParseAmount(p.Amount.trimmed())
	if err != nil {
		errs.add("amount", msgInvalidAmount)
	} else {
		in.Amount = amount
	}

	date, err := core.ParseDate(strings.TrimSpace(p.Date))
	if err != nil {
		errs.add("date", msgInvalidDate)
	} else {
		in.Date = date
	}

	if utf8.RuneCountInString(in.Description) > core.MaxDescriptionLen {
		errs.add("description", msgDescTooLong)
	}

	if len(errs) > 0 {
		return services.ExpenseInput{}, errs
	}
	return in, nil
}

type updatePayload struct {
	Type        string     `json:"type"`
	Amount      flexString `json:"amount"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
}

func parseUpdate(r *http.Request, id string) (services.UpdateInput, FieldErrors) {
	errs := FieldErrors{}
	var p updatePayload
	if err := decodeJSON(r, &p); err != nil {
		errs.add("body", msgInvalidBody)
		return services.UpdateInput{}, errs
	}

	in := services.UpdateInput{
		ID:          id,
		Description: strings.TrimSpace(p.Description),
	}

	txType := core.TransactionType(strings.TrimSpace(p.Type))
	if txType != core.TypeIncome && txType != core.TypeExpense {
		errs.add("type", msgInvalidType)
	} else {
		in.Type = txType
	}

	amount, err := core.ParseAmount(p.Amount.trimmed())
	if err != nil {
		errs.add("amount", msgInvalidAmount)
	} else {
		in.Amount = amount
	}

	date, err := core.ParseDate(strings.TrimSpace(p.Date))
	if err != nil {
		errs.add("date", msgInvalidDate)
	} else {
		in.Date = date
	}

	if txType == core.TypeIncome {
		category := core.IncomeCategory(strings.TrimSpace(p.Category))
		if !category.IsValid() {
			errs.add("category", msgInvalidCategory)
		} else {
			in.Category = category
		}
	}

	if utf8.RuneCountInString(in.Description) > core.MaxDescriptionLen {
		errs.add("description", msgDescTooLong)
	}

	if len(errs) > 0 {
		return services.UpdateInput{}, errs
	}
	return in, nil
}

type remittancePayload struct {
	TransactionIDs []string   `json:"transactionIds"`
	Amount         flexString `json:"amount"`
	Date           string     `json:"date"`
	Description    string     `json:"description"`
}

func parseRemittance(r *http.Request) (services.RemittanceInput, FieldErrors) {
	errs := FieldErrors{}
	var p remittancePayload
	if err := decodeJSON(r, &p); err != nil {
		errs.add("body", msgInvalidBody)
		return services.RemittanceInput{}, errs
	}

	in := services.RemittanceInput{Description: strings.TrimSpace(p.Description)}

	ids := make([]string, 0, len(p.TransactionIDs))
	for _, id := range p.TransactionIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		errs.add("transactionIds", msgNoSelection)
	} else {
		in.TransactionIDs = ids
	}

	amount, err := core.ParseAmount(p.Amount.trimmed())
	if err != nil {
		errs.add("amount", msgInvalidAmount)
	} else {
		in.Amount = amount
	}

	date, err := core.ParseDate(strings.TrimSpace(p.Date))
	if err != nil {
		errs.add("date", msgInvalidDate)
	} else {
		in.Date = date
	}

	if len(errs) > 0 {
		return services.RemittanceInput{}, errs
	}
	return in, nil
}

type requestPayload struct {
	Name         string   `json:"name"`
	RequestDate  string   `json:"requestDate"`
	Year         int      `json:"year"`
	Months       []string `json:"months"`
	IsContinuous bool     `json:"isContinuous"`
	Hours        int      `json:"hours"`
}

func parseRequest(r *http.Request) (services.RequestInput, FieldErrors) {
	errs := FieldErrors{}
	var p requestPayload
	if err := decodeJSON(r, &p); err != nil {
		errs.add("body", msgInvalidBody)
		return services.RequestInput{}, errs
	}

	in := services.RequestInput{
		Name:         strings.TrimSpace(p.Name),
		Year:         p.Year,
		IsContinuous: p.IsContinuous,
		Hours:        p.Hours,
	}

	if len(in.Name) < 3 {
		errs.add("name", msgNameTooShort)
	}

	date, err := core.ParseDate(strings.TrimSpace(p.RequestDate))
	if err != nil {
		errs.add("requestDate", msgInvalidDate)
	} else {
		in.RequestDate = date
	}

	months := make([]string, 0, len(p.Months))
	for _, m := range p.Months {
		if m = strings.TrimSpace(m); m != "" {
			months = append(months, m)
		}
	}
	in.Months = months

	if !p.IsContinuous {
		if len(months) == 0 {
			errs.add("months", msgNoMonths)
		}
		if p.Hours <= 0 {
			errs.add("hours", msgInvalidHours)
		}
	}

	if len(errs) > 0 {
		return services.RequestInput{}, errs
	}
	return in, nil
}

// parsePeriod reads year/month query parameters, defaulting to the current
// calendar month.
func parsePeriod(r *http.Request, now time.Time) (year, month int) {
	year = now.Year()
	month = int(now.Month())
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}
