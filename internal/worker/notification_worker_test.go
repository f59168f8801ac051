package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tagih/internal/amqp"
	"tagih/internal/contact"
	"tagih/internal/core"
	"tagih/internal/services"
	"tagih/internal/storage"
)

type recordingNotifier struct {
	services.Unavailable
	sent []services.Notification
	err  error
}

func (r *recordingNotifier) Available() bool { return true }

func (r *recordingNotifier) Schedule(_ context.Context, n services.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func newTestRepo(t *testing.T) *storage.DebtRepository {
	t.Helper()
	h := storage.NewHandle(filepath.Join(t.TempDir(), "ledger.db"))
	t.Cleanup(func() { _ = h.Close() })
	return storage.NewDebtRepository(h)
}

func TestNotificationWorker_HandleReminder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	due := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	open, err := repo.Create(ctx, core.NewDebt{DebtorName: "Budi", Phone: "0812", Amount: 150000, DueDate: due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	paid, err := repo.Create(ctx, core.NewDebt{DebtorName: "Sari", Phone: "0813", Amount: 50000, DueDate: due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := repo.SetPaid(ctx, paid.ID, true); err != nil {
		t.Fatalf("SetPaid: %v", err)
	}

	tests := []struct {
		name     string
		debtID   int64
		wantSent int
	}{
		{"unpaid debt is delivered", open.ID, 1},
		{"paid debt is dropped", paid.ID, 0},
		{"deleted debt is dropped", 9999, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			w := NewNotificationWorker(repo, notifier, time.UTC, nil)

			msg := amqp.NewReminderMessage(tt.debtID, "stale title", "stale body")
			if err := w.HandleReminder(ctx, msg); err != nil {
				t.Fatalf("HandleReminder: %v", err)
			}
			if len(notifier.sent) != tt.wantSent {
				t.Fatalf("sent %d, want %d", len(notifier.sent), tt.wantSent)
			}
		})
	}
}

func TestNotificationWorker_RendersCurrentRecord(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d, err := repo.Create(ctx, core.NewDebt{
		DebtorName: "Budi",
		Phone:      "0812",
		Amount:     150000,
		DueDate:    time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	amount := int64(2500000)
	if _, _, err := repo.Update(ctx, d.ID, core.DebtPatch{Amount: &amount}); err != nil {
		t.Fatalf("update: %v", err)
	}

	notifier := &recordingNotifier{}
	w := NewNotificationWorker(repo, notifier, time.UTC, nil)
	if err := w.HandleReminder(ctx, amqp.NewReminderMessage(d.ID, "old", "old")); err != nil {
		t.Fatalf("HandleReminder: %v", err)
	}
	if got := notifier.sent[0].Body; got != "Tagihan sebesar Rp2.500.000 jatuh tempo pada 21/10/2026" {
		t.Errorf("Body = %q", got)
	}
}

func TestNotificationWorker_DeliveryFailureRequeues(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	d, err := repo.Create(ctx, core.NewDebt{DebtorName: "Budi", Phone: "0812", Amount: 10, DueDate: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	notifier := &recordingNotifier{err: errors.New("telegram down")}
	w := NewNotificationWorker(repo, notifier, time.UTC, nil)
	if err := w.HandleReminder(ctx, amqp.NewReminderMessage(d.ID, "", "")); err == nil {
		t.Fatal("delivery failure should be returned so the message is redelivered")
	}
}

func TestNotificationWorker_ContactLink(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	d, err := repo.Create(ctx, core.NewDebt{DebtorName: "Budi", Phone: "+62 812-3456", Amount: 150000, DueDate: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var links []string
	opener := contact.OpenerFunc(func(_ context.Context, link string) error {
		links = append(links, link)
		return errors.New("chat unavailable")
	})

	notifier := &recordingNotifier{}
	w := NewNotificationWorker(repo, notifier, time.UTC, nil).WithContactLink(opener)
	if err := w.HandleReminder(ctx, amqp.NewReminderMessage(d.ID, "", "")); err != nil {
		t.Fatalf("link failure must not fail the message: %v", err)
	}
	if len(notifier.sent) != 1 || len(links) != 1 {
		t.Fatalf("sent %d notifications and %d links", len(notifier.sent), len(links))
	}
	if !strings.HasPrefix(links[0], "https://wa.me/628123456?text=") {
		t.Errorf("link = %q", links[0])
	}
}
