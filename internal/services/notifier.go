package services

import (
	"context"
	"fmt"
	"time"

	"tagih/internal/core"
)

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// Permission is the answer of a notification backend to "may we notify?".
type Permission string

// Notification is derived from a debt at send time. It refers to the debt by
// id only.
type Notification struct {
	Title  string
	Body   string
	DebtID int64
}

// Notifier is the notification capability the reminder sweep talks to.
// Implementations live next to their transport (amqp, telegram); Unavailable
// stands in when none is configured.
type Notifier interface {
	// Available reports whether the backend exists in this process at all.
	Available() bool
	// PermissionStatus returns the current permission without prompting.
	PermissionStatus(ctx context.Context) (Permission, error)
	// RequestPermission asks for permission. It may block for a long time.
	RequestPermission(ctx context.Context) (Permission, error)
	// Schedule hands one notification to the backend for immediate delivery.
	Schedule(ctx context.Context, n Notification) error
}

// Unavailable is the Notifier used when no notification backend is wired.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) PermissionStatus(context.Context) (Permission, error) {
	return PermissionDenied, nil
}

func (Unavailable) RequestPermission(context.Context) (Permission, error) {
	return PermissionDenied, nil
}

func (Unavailable) Schedule(context.Context, Notification) error {
	return fmt.Errorf("notifications are not available")
}

// BuildNotification renders the reminder for d, formatting the due date in
// loc.
func BuildNotification(d core.Debt, loc *time.Location) Notification {
	if loc == nil {
		loc = time.Local
	}
	return Notification{
		Title:  "Reminder hutang: " + d.DebtorName,
		Body:   fmt.Sprintf("Tagihan sebesar Rp%s jatuh tempo pada %s", core.FormatAmount(d.Amount), core.FormatDueDateShort(d.DueDate.In(loc))),
		DebtID: d.ID,
	}
}
