package amqp

import (
	"context"

	"tagih/internal/services"
)

// Publisher publishes reminder messages. *Client satisfies it.
type Publisher interface {
	PublishReminder(ctx context.Context, msg *ReminderMessage) error
}

// Notifier hands reminders to the broker for the notifier process to
// deliver. Permission is implied by a configured publisher.
type Notifier struct {
	publisher Publisher
}

func NewNotifier(publisher Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

func (n *Notifier) Available() bool {
	return n != nil && n.publisher != nil
}

func (n *Notifier) PermissionStatus(context.Context) (services.Permission, error) {
	if !n.Available() {
		return services.PermissionDenied, nil
	}
	return services.PermissionGranted, nil
}

func (n *Notifier) RequestPermission(ctx context.Context) (services.Permission, error) {
	return n.PermissionStatus(ctx)
}

func (n *Notifier) Schedule(ctx context.Context, note services.Notification) error {
	return n.publisher.PublishReminder(ctx, NewReminderMessage(note.DebtID, note.Title, note.Body))
}
