// Package services holds the treasury business operations: reporting over
// the ledger, the remittance processor, transaction CRUD and the pioneer
// request workflow.
package services

import (
	"sort"
	"time"

	"tesoreria/internal/core"
)

// DefaultTrailingWindow is the number of months shown by the overview chart.
const DefaultTrailingWindow = 6

// The reporting functions are pure: they take the full record list as the
// store returns it, assume nothing about its order, and never mutate it.

// TotalsForPeriod sums amounts by type for one calendar month.
// An empty or out-of-period input yields all-zero totals.
func TotalsForPeriod(records []core.Transaction, year, month int) core.PeriodTotals {
	var t core.PeriodTotals
	for _, rec := range records {
		if !rec.Date.InPeriod(year, month) {
			continue
		}
		switch rec.Type {
		case core.TypeIncome:
			t.Income = t.Income.Add(rec.Amount)
		case core.TypeExpense:
			t.Expenses = t.Expenses.Add(rec.Amount)
		case core.TypeBranchTransfer:
			t.Transfers = t.Transfers.Add(rec.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expenses).Sub(t.Transfers)
	return t
}

// IncomeByCategory breaks the period's income down by category. Categories
// with no income in the period are absent from the map.
func IncomeByCategory(records []core.Transaction, year, month int) map[core.IncomeCategory]core.Money {
	out := make(map[core.IncomeCategory]core.Money)
	for _, rec := range records {
		if rec.Type != core.TypeIncome || !rec.Date.InPeriod(year, month) {
			continue
		}
		out[rec.Category] = out[rec.Category].Add(rec.Amount)
	}
	return out
}

// PendingForRemittance returns every income record still earmarked for the
// branch, across all time, in source order.
func PendingForRemittance(records []core.Transaction) []core.Transaction {
	var out []core.Transaction
	for _, rec := range records {
		if rec.IsPendingRemittance() {
			out = append(out, rec)
		}
	}
	return out
}

// AllTimeBalance is the account balance over the unfiltered record set:
// income minus expenses minus branch transfers.
func AllTimeBalance(records []core.Transaction) core.Money {
	var income, expenses, transfers core.Money
	for _, rec := range records {
		switch rec.Type {
		case core.TypeIncome:
			income = income.Add(rec.Amount)
		case core.TypeExpense:
			expenses = expenses.Add(rec.Amount)
		case core.TypeBranchTransfer:
			transfers = transfers.Add(rec.Amount)
		}
	}
	return income.Sub(expenses).Sub(transfers)
}

// TrailingMonthlySeries groups records by calendar month and returns the
// last window buckets in chronological order. Every record's month gets a
// bucket, so a month with only branch transfers still appears (with zero
// income and expenses). Buckets are keyed by the record's year/month at
// UTC, so the series is identical in every timezone.
func TrailingMonthlySeries(records []core.Transaction, window int) []core.MonthBucket {
	if window <= 0 {
		window = DefaultTrailingWindow
	}

	buckets := make(map[time.Time]*core.MonthBucket)
	for _, rec := range records {
		key := rec.Date.MonthStart()
		b, ok := buckets[key]
		if !ok {
			b = &core.MonthBucket{MonthStart: key}
			buckets[key] = b
		}
		switch rec.Type {
		case core.TypeIncome:
			b.Income = b.Income.Add(rec.Amount)
		case core.TypeExpense:
			b.Expenses = b.Expenses.Add(rec.Amount)
		}
	}

	out := make([]core.MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MonthStart.Before(out[j].MonthStart)
	})
	if len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}

// AvailableYears lists the distinct years present in the records, newest
// first. An empty ledger yields the current year so period selectors are
// never empty.
func AvailableYears(records []core.Transaction, now time.Time) []int {
	seen := make(map[int]struct{})
	for _, rec := range records {
		seen[rec.Date.Year()] = struct{}{}
	}
	if len(seen) == 0 {
		return []int{now.Year()}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
