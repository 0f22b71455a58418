// Package storage provides the SQLite ledger adapter.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tesoreria/internal/core"
	"tesoreria/internal/ledger"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.TransactionStore = (*SQLiteRepository)(nil)
	_ ledger.RequestStore     = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	tx.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount_cents, date, description, category, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, string(tx.Type), tx.Amount.Cents, tx.Date.String(), tx.Description,
		nullString(string(tx.Category)), nullString(string(tx.Status)))
	if err != nil {
		return "", unavailable("insert transaction", err)
	}
	return tx.ID, nil
}

func (r *SQLiteRepository) UpdateFields(ctx context.Context, id string, fields ledger.Fields) error {
	set, args := buildFieldUpdate(fields)
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return unavailable("update transaction", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return unavailable("delete transaction", err)
	}
	return rowsAffectedOrNotFound(res)
}

// ListAll returns every transaction, date descending. The aggregation layer
// does not rely on this ordering; it is the display convention only.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, amount_cents, date, description, category, status
		 FROM transactions ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, unavailable("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx               core.Transaction
			typ, date        string
			category, status sql.NullString
		)
		if err := rows.Scan(&tx.ID, &typ, &tx.Amount.Cents, &date, &tx.Description, &category, &status); err != nil {
			return nil, unavailable("scan transaction", err)
		}
		tx.Type = core.TransactionType(typ)
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		tx.Date = d
		tx.Category = core.IncomeCategory(category.String)
		tx.Status = core.TransactionStatus(status.String)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list transactions", err)
	}
	return out, nil
}

// ApplyBatch runs all operations inside one SQL transaction: the remittance
// processor relies on this being all-or-nothing.
func (r *SQLiteRepository) ApplyBatch(ctx context.Context, ops []ledger.BatchOp) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin batch", err)
	}
	defer dbTx.Rollback()

	for n, op := range ops {
		switch {
		case op.Insert != nil:
			rec := *op.Insert
			if err := rec.Validate(); err != nil {
				return fmt.Errorf("batch op %d: %w", n, err)
			}
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			_, err := dbTx.ExecContext(ctx,
				`INSERT INTO transactions (id, type, amount_cents, date, description, category, status)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, string(rec.Type), rec.Amount.Cents, rec.Date.String(), rec.Description,
				nullString(string(rec.Category)), nullString(string(rec.Status)))
			if err != nil {
				return unavailable(fmt.Sprintf("batch op %d insert", n), err)
			}

		case op.Update != nil:
			set, args := buildFieldUpdate(op.Update.Fields)
			if len(set) == 0 {
				continue
			}
			args = append(args, op.Update.ID)
			res, err := dbTx.ExecContext(ctx,
				"UPDATE transactions SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
			if err != nil {
				return unavailable(fmt.Sprintf("batch op %d update", n), err)
			}
			if err := rowsAffectedOrNotFound(res); err != nil {
				return fmt.Errorf("batch op %d: %w", n, err)
			}

		default:
			return fmt.Errorf("batch op %d: empty operation", n)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return unavailable("commit batch", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertRequest(ctx context.Context, req core.ServiceRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	req.ID = uuid.NewString()

	continuous := 0
	if req.IsContinuous {
		continuous = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests (id, name, request_date, year, months, is_continuous, hours, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Name, req.RequestDate.String(), req.Year,
		strings.Join(req.Months, ","), continuous, req.Hours, string(req.Status))
	if err != nil {
		return "", unavailable("insert request", err)
	}
	return req.ID, nil
}

func (r *SQLiteRepository) ListRequests(ctx context.Context) ([]core.ServiceRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, request_date, year, months, is_continuous, hours, status
		 FROM requests ORDER BY request_date DESC`)
	if err != nil {
		return nil, unavailable("list requests", err)
	}
	defer rows.Close()

	var out []core.ServiceRequest
	for rows.Next() {
		var (
			req              core.ServiceRequest
			date, months, st string
			continuous       int
		)
		if err := rows.Scan(&req.ID, &req.Name, &date, &req.Year, &months, &continuous, &req.Hours, &st); err != nil {
			return nil, unavailable("scan request", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("stored request date %q: %w", date, err)
		}
		req.RequestDate = d
		if months != "" {
			req.Months = strings.Split(months, ",")
		}
		req.IsContinuous = continuous != 0
		req.Status = core.RequestStatus(st)
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list requests", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateRequestStatus(ctx context.Context, id string, status core.RequestStatus) error {
	if !status.IsValid() {
		return core.ErrInvalidRequestStatus
	}
	res, err := r.db.ExecContext(ctx, "UPDATE requests SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return unavailable("update request status", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteRequest(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM requests WHERE id = ?", id)
	if err != nil {
		return unavailable("delete request", err)
	}
	return rowsAffectedOrNotFound(res)
}

func buildFieldUpdate(f ledger.Fields) (set []string, args []any) {
	if f.Amount != nil {
		set = append(set, "amount_cents = ?")
		args = append(args, f.Amount.Cents)
	}
	if f.Date != nil {
		set = append(set, "date = ?")
		args = append(args, f.Date.String())
	}
	if f.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *f.Description)
	}
	if f.Category != nil {
		set = append(set, "category = ?")
		args = append(args, nullString(string(*f.Category)))
	}
	if f.Status != nil {
		set = append(set, "status = ?")
		args = append(args, nullString(string(*f.Status)))
	}
	return set, args
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// unavailable tags a driver failure so callers can report a generic
// availability error without inspecting SQL details.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ledger.ErrStoreUnavailable, err))
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
