package core

import "time"

// PeriodTotals are the headline figures for one calendar month.
type PeriodTotals struct {
	Income    Money
	Expenses  Money
	Transfers Money
	// Balance = Income - Expenses - Transfers.
	Balance Money
}

// MonthBucket is one entry of the trailing monthly series. MonthStart is the
// first day of the bucket's month at UTC midnight.
type MonthBucket struct {
	MonthStart time.Time
	Income     Money
	Expenses   Money
}
