package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Persisted enum spellings. These are part of the storage contract and must
// not change: existing documents were written with exactly these values.
const (
	TypeIncome         TransactionType = "income"
	TypeExpense        TransactionType = "expense"
	TypeBranchTransfer TransactionType = "branch_transfer"

	CategoryCongregation  IncomeCategory = "congregation"
	CategoryWorldwideWork IncomeCategory = "worldwide_work"
	CategoryRenovation    IncomeCategory = "renovation"

	StatusCompleted         TransactionStatus = "completed"
	StatusPendingRemittance TransactionStatus = "pending_remittance"
	StatusRemitted          TransactionStatus = "remitted"
)

// MaxDescriptionLen caps the free-text description of a transaction.
const MaxDescriptionLen = 100

// DefaultTransferDescription is the label used for a branch transfer when the
// treasurer leaves the description empty.
const DefaultTransferDescription = "Envío a la sucursal"

type (
	TransactionType   string
	IncomeCategory    string
	TransactionStatus string

	// Date is a calendar date at UTC midnight. Time of day is irrelevant for
	// this domain: a record's date is when the economic event happened.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is the sole persisted financial entity. Category and Status
	// are set if and only if Type is income; a branch transfer is the outflow
	// of previously pending funds and is never itself remitted.
	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      Money
		Date        Date
		Description string
		Category    IncomeCategory
		Status      TransactionStatus
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidCategory   = errors.New("invalid income category")
	ErrInvalidStatus     = errors.New("invalid transaction status")
	ErrDescriptionTooLong = errors.New("description too long")

	// ErrInvalidRemittance reports a remittance request that selects no
	// records or selects records that are not pending.
	ErrInvalidRemittance = errors.New("invalid remittance")
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeBranchTransfer:
		return true
	}
	return false
}

func (c IncomeCategory) IsValid() bool {
	switch c {
	case CategoryCongregation, CategoryWorldwideWork, CategoryRenovation:
		return true
	}
	return false
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPendingRemittance, StatusRemitted:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an external "2006-01-02" date string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month, 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// MonthStart returns the first day of the date's month at UTC midnight.
// The bucket is computed from the year/month fields, never from a localized
// string, so month boundaries hold in every timezone.
func (d Date) MonthStart() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// InPeriod reports whether the date falls within the given calendar month.
func (d Date) InPeriod(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	// Characters, not bytes: accented Spanish text must not shorten the cap.
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if t.Type == TypeIncome {
		if !t.Category.IsValid() {
			return ErrInvalidCategory
		}
		if !t.Status.IsValid() {
			return ErrInvalidStatus
		}
	} else {
		// Category and status exist only on income records.
		if t.Category != "" {
			return ErrInvalidCategory
		}
		if t.Status != "" {
			return ErrInvalidStatus
		}
	}
	return nil
}

// IsPendingRemittance reports whether the record is an income earmarked for
// the branch and not yet forwarded.
func (t Transaction) IsPendingRemittance() bool {
	return t.Type == TypeIncome && t.Status == StatusPendingRemittance
}
