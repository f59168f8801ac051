// Package services provides business logic and orchestration services.
//
// This file implements the reminder sweep: one pass over unpaid debts that
// sends at most one notification per debt per cooldown window.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"tagih/internal/core"
	"tagih/internal/log"
)

// DefaultReminderCooldown is the minimum gap between two reminders for the
// same debt.
const DefaultReminderCooldown = 3 * 24 * time.Hour

// DebtStore is the slice of the debt repository the sweep needs. The sweep
// only ever writes lastReminderAt through Update.
type DebtStore interface {
	List(ctx context.Context, filter core.DebtFilter) ([]core.Debt, error)
	Update(ctx context.Context, id int64, patch core.DebtPatch) (core.Debt, bool, error)
}

// SweepConfig holds configuration for the reminder sweep
type SweepConfig struct {
	// Cooldown is the minimum time between reminders for one debt (default: 72h)
	Cooldown time.Duration

	// Location is used to format due dates in notification text (default: time.Local)
	Location *time.Location

	// Now returns the current time (default: time.Now)
	Now func() time.Time
}

// DefaultSweepConfig returns sensible defaults
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Cooldown: DefaultReminderCooldown,
		Location: time.Local,
		Now:      time.Now,
	}
}

// SweepReport summarises one sweep. Completed is false when the sweep did
// not scan at all (no notifier, permission denied, or the debt list could
// not be read).
type SweepReport struct {
	Completed bool
	Checked   int
	Notified  int
	Skipped   int
	Failed    int
}

// ReminderSweeper runs reminder sweeps. Concurrent Run calls share a single
// in-flight sweep and all receive its result.
type ReminderSweeper struct {
	store    DebtStore
	notifier Notifier
	config   SweepConfig
	logger   *log.Logger

	group singleflight.Group
}

// NewReminderSweeper creates a sweeper. A nil notifier behaves like
// Unavailable.
func NewReminderSweeper(store DebtStore, notifier Notifier, config SweepConfig, logger *log.Logger) *ReminderSweeper {
	if notifier == nil {
		notifier = Unavailable{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ReminderSweeper{
		store:    store,
		notifier: notifier,
		config:   config,
		logger:   logger.WithComponent(log.ComponentReminder),
	}
}

// Run performs a sweep, or joins the one already running.
func (s *ReminderSweeper) Run(ctx context.Context) (SweepReport, error) {
	v, err, shared := s.group.Do("sweep", func() (any, error) {
		return s.sweep(ctx)
	})
	if shared {
		s.logger.DebugContext(ctx, "Joined in-flight reminder sweep")
	}
	report, _ := v.(SweepReport)
	return report, err
}

func (s *ReminderSweeper) sweep(ctx context.Context) (SweepReport, error) {
	if !s.notifier.Available() {
		s.logger.InfoContext(ctx, "Notifications unavailable, skipping reminder sweep")
		return SweepReport{}, nil
	}
	if !s.ensurePermission(ctx) {
		s.logger.InfoContext(ctx, "Notification permission not granted, skipping reminder sweep")
		return SweepReport{}, nil
	}

	debts, err := s.store.List(ctx, core.DebtFilter{Status: core.StatusUnpaid})
	if err != nil {
		return SweepReport{}, fmt.Errorf("list unpaid debts: %w", err)
	}

	now := s.config.Now()
	report := SweepReport{Checked: len(debts)}
	var stampErrs []error

	for _, d := range debts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !dueForReminder(d.LastReminderAt, now, s.config.Cooldown) {
			report.Skipped++
			continue
		}

		if err := s.notifier.Schedule(ctx, BuildNotification(d, s.config.Location)); err != nil {
			report.Failed++
			s.logger.ErrorContext(ctx, "Failed to send reminder",
				log.FieldDebtID, d.ID,
				log.FieldError, err)
			continue
		}

		_, ok, err := s.store.Update(ctx, d.ID, core.DebtPatch{LastReminderAt: &now})
		if err != nil {
			stampErrs = append(stampErrs, fmt.Errorf("stamp reminder for debt %d: %w", d.ID, err))
			s.logger.ErrorContext(ctx, "Failed to record reminder time",
				log.FieldDebtID, d.ID,
				log.FieldError, err)
		} else if !ok {
			s.logger.WarnContext(ctx, "Debt removed while reminding", log.FieldDebtID, d.ID)
		}

		report.Notified++
		s.logger.InfoContext(ctx, "Reminder sent",
			log.FieldDebtID, d.ID,
			log.FieldDebtor, d.DebtorName,
			log.FieldAmount, d.Amount)
	}

	report.Completed = true
	s.logger.InfoContext(ctx, "Reminder sweep complete",
		log.FieldChecked, report.Checked,
		log.FieldNotified, report.Notified,
		log.FieldSkipped, report.Skipped,
		log.FieldFailed, report.Failed,
		log.FieldCooldown, s.config.Cooldown.String())

	return report, errors.Join(stampErrs...)
}

// ensurePermission checks the current permission and asks once if it is not
// granted yet. Errors from the backend count as a refusal.
func (s *ReminderSweeper) ensurePermission(ctx context.Context) bool {
	status, err := s.notifier.PermissionStatus(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read notification permission", log.FieldError, err)
		return false
	}
	if status == PermissionGranted {
		return true
	}

	status, err = s.notifier.RequestPermission(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Notification permission request failed", log.FieldError, err)
		return false
	}
	return status == PermissionGranted
}

// dueForReminder reports whether at least cooldown has passed since the last
// reminder. A debt that was never reminded is always due.
func dueForReminder(lastReminder *time.Time, now time.Time, cooldown time.Duration) bool {
	if lastReminder == nil {
		return true
	}
	return now.Sub(*lastReminder) >= cooldown
}
