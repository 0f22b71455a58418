package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger/memory"
	"tesoreria/internal/services"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	s := NewServer(":0",
		services.NewTransactionService(store, nil),
		services.NewRemittanceService(store, nil),
		services.NewRequestService(store))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, store
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, r)
	return rec
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rec)
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v, want object with id", env.Data)
	}
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatal("created response has no id")
	}
	return id
}

func TestServer_HealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := do(s, "GET", "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := do(s, "GET", "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
}

func TestServer_IncomeLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "POST", "/api/transactions/income",
		`{"amount":"100","date":"2025-07-15","description":"Donación","category":"congregation"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	id := createdID(t, rec)

	rec = do(s, "GET", "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Data []transactionJSON `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 1 {
		t.Fatalf("list len = %d, want 1", len(list.Data))
	}
	got := list.Data[0]
	if got.ID != id {
		t.Errorf("id = %q, want %q", got.ID, id)
	}
	// Local congregation donations complete immediately.
	if got.Status != string(core.StatusCompleted) {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Amount != "100.00" {
		t.Errorf("amount = %q, want 100.00", got.Amount)
	}

	rec = do(s, "PUT", "/api/transactions/"+id,
		`{"type":"income","amount":"120","date":"2025-07-15","description":"Donación","category":"renovation"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, "DELETE", "/api/transactions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = do(s, "DELETE", "/api/transactions/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestServer_InvalidIncomeReportsFields(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "POST", "/api/transactions/income",
		`{"amount":"0","date":"nope","description":"x","category":"congregation"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Errors["amount"] == "" || env.Errors["date"] == "" {
		t.Errorf("errors = %v, want amount and date messages", env.Errors)
	}
}

func TestServer_RemittanceFlow(t *testing.T) {
	s, _ := newTestServer(t)

	var ids []string
	for i := 0; i < 2; i++ {
		rec := do(s, "POST", "/api/transactions/income",
			fmt.Sprintf(`{"amount":"50","date":"2025-07-%02d","description":"Donación mundial","category":"worldwide_work"}`, 10+i))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create income status = %d", rec.Code)
		}
		ids = append(ids, createdID(t, rec))
	}

	body := fmt.Sprintf(`{"transactionIds":["%s","%s"],"amount":"100","date":"2025-07-31","description":""}`, ids[0], ids[1])
	rec := do(s, "POST", "/api/remittances", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("remittance status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, "GET", "/api/transactions", "")
	var list struct {
		Data []transactionJSON `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}

	var transfers, remitted int
	for _, tx := range list.Data {
		switch {
		case tx.Type == string(core.TypeBranchTransfer):
			transfers++
			if tx.Description != core.DefaultTransferDescription {
				t.Errorf("transfer description = %q, want default", tx.Description)
			}
		case tx.Status == string(core.StatusRemitted):
			remitted++
		}
	}
	if transfers != 1 {
		t.Errorf("transfers = %d, want 1", transfers)
	}
	if remitted != 2 {
		t.Errorf("remitted records = %d, want 2", remitted)
	}

	// Dashboard no longer shows anything pending.
	rec = do(s, "GET", "/api/dashboard?year=2025&month=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	var dash struct {
		Data dashboardView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if len(dash.Data.Pending) != 0 {
		t.Errorf("pending = %d, want 0", len(dash.Data.Pending))
	}
	if dash.Data.Totals.Income != "100.00" {
		t.Errorf("income total = %q, want 100.00", dash.Data.Totals.Income)
	}
}

func TestServer_RemittanceRejectsUnknownID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "POST", "/api/remittances",
		`{"transactionIds":["missing"],"amount":"10","date":"2025-07-31"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
	}
}

func TestServer_DashboardCacheInvalidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "POST", "/api/transactions/income",
		`{"amount":"100","date":"2025-07-15","description":"Donación","category":"congregation"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	readIncome := func() string {
		rec := do(s, "GET", "/api/dashboard?year=2025&month=7", "")
		var dash struct {
			Data dashboardView `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
			t.Fatalf("decode dashboard: %v", err)
		}
		return dash.Data.Totals.Income
	}

	if got := readIncome(); got != "100.00" {
		t.Fatalf("income = %q, want 100.00", got)
	}

	// A second income must show up despite the cached first read.
	rec = do(s, "POST", "/api/transactions/income",
		`{"amount":"25","date":"2025-07-20","description":"Donación","category":"congregation"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second create status = %d", rec.Code)
	}
	if got := readIncome(); got != "125.00" {
		t.Errorf("income after mutation = %q, want 125.00", got)
	}
}

func TestServer_RequestLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "POST", "/api/requests",
		`{"name":"Ana García","requestDate":"2025-07-01","year":2025,"months":["Septiembre"],"isContinuous":false,"hours":30}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	id := createdID(t, rec)

	rec = do(s, "GET", "/api/requests", "")
	var list struct {
		Data []requestJSON `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].Status != string(core.RequestPending) {
		t.Fatalf("list = %+v, want one pending request", list.Data)
	}

	rec = do(s, "PUT", "/api/requests/"+id+"/status", `{"status":"Aprobado"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status update = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, "PUT", "/api/requests/"+id+"/status", `{"status":"Quizás"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid status update = %d, want 422", rec.Code)
	}

	rec = do(s, "DELETE", "/api/requests/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestServer_MutationRateLimit(t *testing.T) {
	s, _ := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		rec := do(s, "POST", "/api/transactions/expense",
			`{"amount":"1","date":"2025-07-15","description":"Gasto"}`)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("rate limiter never engaged for mutations")
	}

	// Reads stay unthrottled.
	if rec := do(s, "GET", "/api/transactions", ""); rec.Code != http.StatusOK {
		t.Errorf("read after limit status = %d, want 200", rec.Code)
	}
}
