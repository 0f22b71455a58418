package http

import (
	"log/slog"
	"net/http"
	"time"

	"tesoreria/internal/core"
	"tesoreria/internal/services"
)

// dashboardView aggregates everything the overview screen needs in one
// response: period totals, category breakdown, pending remittance list,
// the trailing monthly series and the selectable years.
type dashboardView struct {
	Year           int               `json:"year"`
	Month          int               `json:"month"`
	Totals         periodTotalsJSON  `json:"totals"`
	ByCategory     map[string]string `json:"byCategory"`
	Pending        []transactionJSON `json:"pendingRemittance"`
	AllTimeBalance string            `json:"allTimeBalance"`
	Monthly        []monthBucketJSON `json:"monthly"`
	Years          []int             `json:"years"`
}

type periodTotalsJSON struct {
	Income    string `json:"income"`
	Expenses  string `json:"expenses"`
	Transfers string `json:"transfers"`
	Balance   string `json:"balance"`
}

type monthBucketJSON struct {
	Month    string `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := parsePeriod(r, now)

	key := s.dashboardKey(year, month)
	if view, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "year", year, "month", month)
		NewJSONResponse().Data(view).Write(w)
		return
	}

	records, err := s.transactions.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard load failed", "error", err, "year", year, "month", month)
		ServiceError(err).Write(w)
		return
	}

	view := buildDashboardView(records, year, month, now)
	s.dashboardCache.Set(key, view)
	NewJSONResponse().Data(view).Write(w)
}

func buildDashboardView(records []core.Transaction, year, month int, now time.Time) dashboardView {
	totals := services.TotalsForPeriod(records, year, month)

	byCategory := make(map[string]string)
	for cat, amount := range services.IncomeByCategory(records, year, month) {
		byCategory[string(cat)] = amount.String()
	}

	monthly := services.TrailingMonthlySeries(records, services.DefaultTrailingWindow)
	buckets := make([]monthBucketJSON, len(monthly))
	for i, b := range monthly {
		buckets[i] = monthBucketJSON{
			Month:    b.MonthStart.Format("2006-01"),
			Income:   b.Income.String(),
			Expenses: b.Expenses.String(),
		}
	}

	return dashboardView{
		Year:  year,
		Month: month,
		Totals: periodTotalsJSON{
			Income:    totals.Income.String(),
			Expenses:  totals.Expenses.String(),
			Transfers: totals.Transfers.String(),
			Balance:   totals.Balance.String(),
		},
		ByCategory:     byCategory,
		Pending:        toTransactionListJSON(services.PendingForRemittance(records)),
		AllTimeBalance: services.AllTimeBalance(records).String(),
		Monthly:        buckets,
		Years:          services.AvailableYears(records, now),
	}
}
