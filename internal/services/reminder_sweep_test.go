package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tagih/internal/core"
	"tagih/internal/log"
	"tagih/internal/storage"
)

const day = 24 * time.Hour

var sweepNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu sync.Mutex

	available bool
	status    Permission
	requested Permission
	failFor   map[int64]bool

	requests int
	sent     []Notification
}

func grantedNotifier() *fakeNotifier {
	return &fakeNotifier{available: true, status: PermissionGranted, requested: PermissionGranted}
}

func (f *fakeNotifier) Available() bool { return f.available }

func (f *fakeNotifier) PermissionStatus(context.Context) (Permission, error) {
	return f.status, nil
}

func (f *fakeNotifier) RequestPermission(context.Context) (Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return f.requested, nil
}

func (f *fakeNotifier) Schedule(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[n.DebtID] {
		return errors.New("backend rejected notification")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) sentIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.sent))
	for _, n := range f.sent {
		ids = append(ids, n.DebtID)
	}
	return ids
}

func newTestRepo(t *testing.T) *storage.DebtRepository {
	t.Helper()
	h := storage.NewHandle(filepath.Join(t.TempDir(), "ledger.db"))
	t.Cleanup(func() { _ = h.Close() })
	return storage.NewDebtRepository(h, storage.WithClock(func() time.Time { return sweepNow }))
}

func seedDebt(t *testing.T, repo *storage.DebtRepository, name string, lastReminder *time.Time) core.Debt {
	t.Helper()
	ctx := context.Background()
	d, err := repo.Create(ctx, core.NewDebt{
		DebtorName: name,
		Phone:      "6281234567890",
		Amount:     150000,
		DueDate:    sweepNow.Add(2 * day),
	})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if lastReminder != nil {
		d, _, err = repo.Update(ctx, d.ID, core.DebtPatch{LastReminderAt: lastReminder})
		if err != nil {
			t.Fatalf("stamp %s: %v", name, err)
		}
	}
	return d
}

func newTestSweeper(store DebtStore, n Notifier) *ReminderSweeper {
	cfg := DefaultSweepConfig()
	cfg.Now = func() time.Time { return sweepNow }
	cfg.Location = time.UTC
	return NewReminderSweeper(store, n, cfg, log.Discard())
}

func ptr[T any](v T) *T { return &v }

func TestDueForReminder(t *testing.T) {
	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"never reminded", nil, true},
		{"one day ago", ptr(sweepNow.Add(-day)), false},
		{"just under cooldown", ptr(sweepNow.Add(-3*day + time.Second)), false},
		{"exactly cooldown", ptr(sweepNow.Add(-3 * day)), true},
		{"four days ago", ptr(sweepNow.Add(-4 * day)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dueForReminder(tt.last, sweepNow, DefaultReminderCooldown); got != tt.want {
				t.Errorf("dueForReminder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildNotification(t *testing.T) {
	d := core.Debt{
		ID:         42,
		DebtorName: "Budi",
		Amount:     2500000,
		DueDate:    time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC),
	}

	n := BuildNotification(d, time.UTC)
	if n.Title != "Reminder hutang: Budi" {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Body != "Tagihan sebesar Rp2.500.000 jatuh tempo pada 19/10/2026" {
		t.Errorf("Body = %q", n.Body)
	}
	if n.DebtID != 42 {
		t.Errorf("DebtID = %d, want 42", n.DebtID)
	}
}

func TestReminderSweeper_RespectsCooldown(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	recent := sweepNow.Add(-day)
	stale := sweepNow.Add(-4 * day)
	a := seedDebt(t, repo, "A", &recent)
	b := seedDebt(t, repo, "B", &stale)
	c := seedDebt(t, repo, "C", nil)

	notifier := grantedNotifier()
	report, err := newTestSweeper(repo, notifier).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Completed {
		t.Fatal("sweep should complete")
	}
	if report.Checked != 3 || report.Notified != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}

	ids := notifier.sentIDs()
	if len(ids) != 2 || ids[0] == a.ID || ids[1] == a.ID {
		t.Fatalf("notified %v, want B and C only", ids)
	}

	got, _, _ := repo.Get(ctx, a.ID)
	if !got.LastReminderAt.Equal(recent) {
		t.Errorf("A lastReminderAt changed to %v", got.LastReminderAt)
	}
	for _, id := range []int64{b.ID, c.ID} {
		got, _, _ := repo.Get(ctx, id)
		if got.LastReminderAt == nil || !got.LastReminderAt.Equal(sweepNow) {
			t.Errorf("debt %d lastReminderAt = %v, want %v", id, got.LastReminderAt, sweepNow)
		}
	}
}

func TestReminderSweeper_SkipsPaidDebts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	paid := seedDebt(t, repo, "Paid", nil)
	if _, _, err := repo.SetPaid(ctx, paid.ID, true); err != nil {
		t.Fatalf("SetPaid: %v", err)
	}

	notifier := grantedNotifier()
	report, err := newTestSweeper(repo, notifier).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Completed || report.Checked != 0 || len(notifier.sentIDs()) != 0 {
		t.Errorf("paid debt should not be considered: %+v", report)
	}
}

func TestReminderSweeper_NoCapability(t *testing.T) {
	tests := []struct {
		name         string
		notifier     Notifier
		wantRequests int
	}{
		{"no notifier", nil, 0},
		{"unavailable backend", Unavailable{}, 0},
		{"permission refused", &fakeNotifier{available: true, status: PermissionUndetermined, requested: PermissionDenied}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := newTestRepo(t)
			d := seedDebt(t, repo, "Sari", nil)

			report, err := newTestSweeper(repo, tt.notifier).Run(ctx)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if report.Completed {
				t.Error("sweep should report false without a usable notifier")
			}
			if f, ok := tt.notifier.(*fakeNotifier); ok && f.requests != tt.wantRequests {
				t.Errorf("permission requests = %d, want %d", f.requests, tt.wantRequests)
			}

			got, _, _ := repo.Get(ctx, d.ID)
			if got.LastReminderAt != nil {
				t.Errorf("debt must not be stamped, got %v", got.LastReminderAt)
			}
		})
	}
}

func TestReminderSweeper_RequestsPermissionOnce(t *testing.T) {
	repo := newTestRepo(t)
	seedDebt(t, repo, "Sari", nil)

	notifier := &fakeNotifier{available: true, status: PermissionUndetermined, requested: PermissionGranted}
	report, err := newTestSweeper(repo, notifier).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Completed || report.Notified != 1 {
		t.Errorf("report = %+v", report)
	}
	if notifier.requests != 1 {
		t.Errorf("permission requests = %d, want 1", notifier.requests)
	}
}

func TestReminderSweeper_FailedDeliveryIsNotStamped(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	bad := seedDebt(t, repo, "Bad", nil)
	good := seedDebt(t, repo, "Good", nil)

	notifier := grantedNotifier()
	notifier.failFor = map[int64]bool{bad.ID: true}

	report, err := newTestSweeper(repo, notifier).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Completed || report.Notified != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}

	got, _, _ := repo.Get(ctx, bad.ID)
	if got.LastReminderAt != nil {
		t.Error("failed delivery must leave lastReminderAt unset")
	}
	got, _, _ = repo.Get(ctx, good.ID)
	if got.LastReminderAt == nil {
		t.Error("successful delivery must be stamped")
	}
}

func TestReminderSweeper_SecondRunWithinCooldown(t *testing.T) {
	repo := newTestRepo(t)
	seedDebt(t, repo, "Sari", nil)

	notifier := grantedNotifier()
	sweeper := newTestSweeper(repo, notifier)
	for i := 0; i < 2; i++ {
		if _, err := sweeper.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if n := len(notifier.sentIDs()); n != 1 {
		t.Errorf("sent %d notifications, want 1", n)
	}
}

func TestReminderSweeper_ConcurrentRunsNotifyOnce(t *testing.T) {
	repo := newTestRepo(t)
	for _, name := range []string{"A", "B", "C"} {
		seedDebt(t, repo, name, nil)
	}

	notifier := grantedNotifier()
	sweeper := newTestSweeper(repo, notifier)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sweeper.Run(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Run: %v", err)
	}
	if n := len(notifier.sentIDs()); n != 3 {
		t.Errorf("sent %d notifications, want exactly one per debt", n)
	}
}

type failingStore struct {
	debts     []core.Debt
	listErr   error
	updateErr error
}

func (s *failingStore) List(context.Context, core.DebtFilter) ([]core.Debt, error) {
	return s.debts, s.listErr
}

func (s *failingStore) Update(context.Context, int64, core.DebtPatch) (core.Debt, bool, error) {
	return core.Debt{}, false, s.updateErr
}

func TestReminderSweeper_StorageFailures(t *testing.T) {
	t.Run("list failure", func(t *testing.T) {
		store := &failingStore{listErr: core.ErrStorage}
		report, err := newTestSweeper(store, grantedNotifier()).Run(context.Background())
		if !errors.Is(err, core.ErrStorage) {
			t.Fatalf("err = %v, want ErrStorage", err)
		}
		if report.Completed {
			t.Error("sweep should not complete when listing fails")
		}
	})

	t.Run("stamp failure", func(t *testing.T) {
		store := &failingStore{
			debts:     []core.Debt{{ID: 1, DebtorName: "A", Amount: 10, DueDate: sweepNow}},
			updateErr: core.ErrStorage,
		}
		notifier := grantedNotifier()
		report, err := newTestSweeper(store, notifier).Run(context.Background())
		if !errors.Is(err, core.ErrStorage) {
			t.Fatalf("err = %v, want ErrStorage", err)
		}
		if !report.Completed || report.Notified != 1 {
			t.Errorf("report = %+v", report)
		}
	})
}
