package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusUnpaid DebtStatus = "UNPAID"
	StatusPaid   DebtStatus = "PAID"
)

type (
	DebtStatus string

	Debt struct {
		ID             int64
		DebtorName     string
		Phone          string // digits with country code, checked by the caller
		Amount         int64  // whole currency units
		DueDate        time.Time
		Note           *string
		Status         DebtStatus
		CreatedAt      time.Time
		UpdatedAt      time.Time
		LastReminderAt *time.Time // nil means never reminded
	}

	// NewDebt is the input for creating a debt.
	NewDebt struct {
		DebtorName string
		Phone      string
		Amount     int64
		DueDate    time.Time
		Note       *string
	}

	// DebtPatch lists the fields to change on a debt. Nil fields are left
	// untouched.
	DebtPatch struct {
		DebtorName     *string
		Phone          *string
		Amount         *int64
		DueDate        *time.Time
		Note           Optional[string]
		Status         *DebtStatus
		LastReminderAt *time.Time
	}

	// DebtFilter narrows List. A zero filter matches every debt.
	DebtFilter struct {
		Status DebtStatus
	}

	QuickNote struct {
		ID        int64
		Content   string
		CreatedAt time.Time
	}

	Totals struct {
		Outstanding int64
		Overdue     int64
	}
)

// Optional distinguishes "leave as is" (Set false) from "set to null"
// (Set true, Value nil) for nullable columns.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

var (
	// ErrStorage marks failures reported by the underlying store.
	ErrStorage = errors.New("storage failure")

	ErrEmptyDebtor    = &ValidationError{Field: "debtorName", Reason: "must not be empty"}
	ErrEmptyPhone     = &ValidationError{Field: "phone", Reason: "must not be empty"}
	ErrInvalidAmount  = &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	ErrInvalidDueDate = &ValidationError{Field: "dueDate", Reason: "must be a valid date"}
	ErrInvalidStatus  = &ValidationError{Field: "status", Reason: "must be UNPAID or PAID"}
	ErrEmptyContent   = &ValidationError{Field: "content", Reason: "must not be empty"}
)

// ValidationError reports input that cannot be stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (s DebtStatus) Validate() error {
	switch s {
	case StatusUnpaid, StatusPaid:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (d NewDebt) Validate() error {
	if strings.TrimSpace(d.DebtorName) == "" {
		return ErrEmptyDebtor
	}
	if strings.TrimSpace(d.Phone) == "" {
		return ErrEmptyPhone
	}
	if d.Amount <= 0 {
		return ErrInvalidAmount
	}
	if d.DueDate.IsZero() {
		return ErrInvalidDueDate
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p DebtPatch) IsEmpty() bool {
	return p.DebtorName == nil && p.Phone == nil && p.Amount == nil &&
		p.DueDate == nil && !p.Note.Set && p.Status == nil && p.LastReminderAt == nil
}

func (p DebtPatch) Validate() error {
	if p.DebtorName != nil && strings.TrimSpace(*p.DebtorName) == "" {
		return ErrEmptyDebtor
	}
	if p.Phone != nil && strings.TrimSpace(*p.Phone) == "" {
		return ErrEmptyPhone
	}
	if p.Amount != nil && *p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return ErrInvalidDueDate
	}
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsPaid reports whether the debt has been settled.
func (d Debt) IsPaid() bool {
	return d.Status == StatusPaid
}
