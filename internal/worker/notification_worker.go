package worker

import (
	"context"
	"fmt"
	"time"

	"tagih/internal/amqp"
	"tagih/internal/contact"
	"tagih/internal/core"
	"tagih/internal/log"
	"tagih/internal/services"
)

// DebtReader looks up the current state of a debt.
type DebtReader interface {
	Get(ctx context.Context, id int64) (core.Debt, bool, error)
}

// NotificationWorker delivers reminder messages taken off the queue. The
// debt is re-read first so that reminders for debts paid or deleted after
// the sweep are dropped.
type NotificationWorker struct {
	debts    DebtReader
	notifier services.Notifier
	opener   contact.Opener
	location *time.Location
	logger   *log.Logger
}

func NewNotificationWorker(debts DebtReader, notifier services.Notifier, location *time.Location, logger *log.Logger) *NotificationWorker {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &NotificationWorker{
		debts:    debts,
		notifier: notifier,
		location: location,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// WithContactLink makes the worker follow each delivered reminder with the
// debtor's chat link, handed to opener.
func (w *NotificationWorker) WithContactLink(opener contact.Opener) *NotificationWorker {
	w.opener = opener
	return w
}

// HandleReminder processes a single reminder message from AMQP. A returned
// error asks the broker to redeliver.
func (w *NotificationWorker) HandleReminder(ctx context.Context, msg *amqp.ReminderMessage) error {
	w.logger.DebugContext(ctx, "Processing reminder message",
		log.FieldDebtID, msg.DebtID,
		"message_id", msg.ID)

	debt, ok, err := w.debts.Get(ctx, msg.DebtID)
	if err != nil {
		return fmt.Errorf("get debt %d: %w", msg.DebtID, err)
	}
	if !ok {
		w.logger.InfoContext(ctx, "Debt no longer exists, dropping reminder", log.FieldDebtID, msg.DebtID)
		return nil
	}
	if debt.IsPaid() {
		w.logger.InfoContext(ctx, "Debt already paid, dropping reminder", log.FieldDebtID, msg.DebtID)
		return nil
	}

	// Render from the stored record so edits made after the sweep are shown.
	note := services.BuildNotification(debt, w.location)
	if err := w.notifier.Schedule(ctx, note); err != nil {
		return fmt.Errorf("deliver reminder for debt %d: %w", msg.DebtID, err)
	}

	// The link is a convenience; failing to send it does not redeliver.
	if w.opener != nil {
		if err := contact.RemindDebtor(ctx, w.opener, debt, w.location); err != nil {
			w.logger.WarnContext(ctx, "Failed to send contact link", log.FieldDebtID, debt.ID, log.FieldError, err)
		}
	}

	w.logger.InfoContext(ctx, "Reminder forwarded",
		log.FieldOperation, log.OpDeliver,
		log.FieldDebtID, debt.ID,
		log.FieldDebtor, debt.DebtorName,
		"queued_at", msg.Timestamp.Format(time.RFC3339))
	return nil
}
