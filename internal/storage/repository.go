package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tagih/internal/core"
)

const debtColumns = `id, debtorName, phone, amount, dueDate, note, status, createdAt, updatedAt, lastReminderAt`

// DebtRepository is the only writer of the debts table.
type DebtRepository struct {
	handle *Handle
	opts   options
}

func NewDebtRepository(handle *Handle, opts ...Option) *DebtRepository {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &DebtRepository{handle: handle, opts: o}
}

// Create stores a new unpaid debt and returns it as persisted.
func (r *DebtRepository) Create(ctx context.Context, in core.NewDebt) (core.Debt, error) {
	if err := in.Validate(); err != nil {
		return core.Debt{}, err
	}

	db, err := r.handle.conn(ctx)
	if err != nil {
		return core.Debt{}, err
	}

	now := formatTime(r.opts.now())
	res, err := db.ExecContext(ctx,
		`INSERT INTO debts (debtorName, phone, amount, dueDate, note, status, createdAt, updatedAt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.DebtorName),
		strings.TrimSpace(in.Phone),
		in.Amount,
		formatTime(in.DueDate),
		nullString(in.Note),
		string(core.StatusUnpaid),
		now,
		now,
	)
	if err != nil {
		return core.Debt{}, storageErr("insert debt", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Debt{}, storageErr("read inserted debt id", err)
	}

	debt, ok, err := r.Get(ctx, id)
	if err != nil {
		return core.Debt{}, err
	}
	if !ok {
		return core.Debt{}, storageErr("read inserted debt", fmt.Errorf("debt %d not found after insert", id))
	}

	slog.InfoContext(ctx, "Debt created",
		"id", debt.ID,
		"debtor", debt.DebtorName,
		"amount", debt.Amount,
		"due_date", debt.DueDate.Format(time.RFC3339))

	return debt, nil
}

// List returns debts matching filter, ordered by due date ascending.
func (r *DebtRepository) List(ctx context.Context, filter core.DebtFilter) ([]core.Debt, error) {
	db, err := r.handle.conn(ctx)
	if err != nil {
		return nil, err
	}

	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		if err := filter.Status.Validate(); err != nil {
			return nil, err
		}
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + debtColumns + ` FROM debts`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY dueDate ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list debts", err)
	}
	defer rows.Close()

	debts := make([]core.Debt, 0)
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, storageErr("scan debt", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list debts", err)
	}

	return debts, nil
}

// Get returns the debt with id. A missing id yields ok == false and no error.
func (r *DebtRepository) Get(ctx context.Context, id int64) (core.Debt, bool, error) {
	db, err := r.handle.conn(ctx)
	if err != nil {
		return core.Debt{}, false, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, false, nil
	}
	if err != nil {
		return core.Debt{}, false, storageErr("get debt", err)
	}
	return d, true, nil
}

// Update applies the fields set in patch and bumps updatedAt. A stamp older
// than the stored lastReminderAt is ignored so the reminder time never moves
// backwards.
func (r *DebtRepository) Update(ctx context.Context, id int64, patch core.DebtPatch) (core.Debt, bool, error) {
	if err := patch.Validate(); err != nil {
		return core.Debt{}, false, err
	}
	if patch.IsEmpty() {
		return r.Get(ctx, id)
	}

	db, err := r.handle.conn(ctx)
	if err != nil {
		return core.Debt{}, false, err
	}

	var (
		sets []string
		args []any
	)
	if patch.DebtorName != nil {
		sets = append(sets, "debtorName = ?")
		args = append(args, strings.TrimSpace(*patch.DebtorName))
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, strings.TrimSpace(*patch.Phone))
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.DueDate != nil {
		sets = append(sets, "dueDate = ?")
		args = append(args, formatTime(*patch.DueDate))
	}
	if patch.Note.Set {
		sets = append(sets, "note = ?")
		args = append(args, nullString(patch.Note.Value))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.LastReminderAt != nil {
		stamp := formatTime(*patch.LastReminderAt)
		sets = append(sets, "lastReminderAt = CASE WHEN lastReminderAt IS NULL OR lastReminderAt < ? THEN ? ELSE lastReminderAt END")
		args = append(args, stamp, stamp)
	}
	sets = append(sets, "updatedAt = ?")
	args = append(args, formatTime(r.opts.now()), id)

	res, err := db.ExecContext(ctx, `UPDATE debts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Debt{}, false, storageErr("update debt", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Debt{}, false, storageErr("update debt", err)
	}
	if n == 0 {
		return core.Debt{}, false, nil
	}

	return r.Get(ctx, id)
}

// SetPaid marks the debt paid or unpaid.
func (r *DebtRepository) SetPaid(ctx context.Context, id int64, paid bool) (core.Debt, bool, error) {
	status := core.StatusUnpaid
	if paid {
		status = core.StatusPaid
	}

	d, ok, err := r.Update(ctx, id, core.DebtPatch{Status: &status})
	if err == nil && ok {
		slog.InfoContext(ctx, "Debt status changed", "id", id, "status", status)
	}
	return d, ok, err
}

// Delete removes the debt. Deleting a missing id is not an error.
func (r *DebtRepository) Delete(ctx context.Context, id int64) error {
	db, err := r.handle.conn(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete debt", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.InfoContext(ctx, "Debt deleted", "id", id)
	}
	return nil
}

// Totals sums unpaid amounts overall and those already past due.
func (r *DebtRepository) Totals(ctx context.Context) (core.Totals, error) {
	db, err := r.handle.conn(ctx)
	if err != nil {
		return core.Totals{}, err
	}

	var t core.Totals
	err = db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? AND dueDate < ? THEN amount ELSE 0 END), 0)
		FROM debts`,
		string(core.StatusUnpaid), string(core.StatusUnpaid), formatTime(r.opts.now()),
	).Scan(&t.Outstanding, &t.Overdue)
	if err != nil {
		return core.Totals{}, storageErr("sum debts", err)
	}
	return t, nil
}

// DeadlineBuckets groups unpaid debts into Overdue, Next 7 Days and Later.
func (r *DebtRepository) DeadlineBuckets(ctx context.Context) ([]core.Bucket, error) {
	unpaid, err := r.List(ctx, core.DebtFilter{Status: core.StatusUnpaid})
	if err != nil {
		return nil, err
	}
	return core.PartitionByDeadline(unpaid, r.opts.now(), r.opts.upcoming), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebt(s rowScanner) (core.Debt, error) {
	var (
		d                             core.Debt
		status                        string
		dueDate, createdAt, updatedAt string
		note, lastReminderAt          sql.NullString
	)
	if err := s.Scan(&d.ID, &d.DebtorName, &d.Phone, &d.Amount, &dueDate, &note, &status,
		&createdAt, &updatedAt, &lastReminderAt); err != nil {
		return core.Debt{}, err
	}

	var err error
	if d.DueDate, err = parseTime(dueDate); err != nil {
		return core.Debt{}, fmt.Errorf("parse dueDate of debt %d: %w", d.ID, err)
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Debt{}, fmt.Errorf("parse createdAt of debt %d: %w", d.ID, err)
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Debt{}, fmt.Errorf("parse updatedAt of debt %d: %w", d.ID, err)
	}
	if lastReminderAt.Valid {
		t, err := parseTime(lastReminderAt.String)
		if err != nil {
			return core.Debt{}, fmt.Errorf("parse lastReminderAt of debt %d: %w", d.ID, err)
		}
		d.LastReminderAt = &t
	}
	if note.Valid {
		n := note.String
		d.Note = &n
	}
	d.Status = core.DebtStatus(status)

	return d, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
