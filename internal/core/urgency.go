package core

import "time"

// DefaultUrgentWindow is how close to its due date an unpaid debt is
// shown as urgent. It is unrelated to the reminder cooldown.
const DefaultUrgentWindow = 3 * 24 * time.Hour

const (
	UrgencyOverdue   Urgency = "overdue"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyScheduled Urgency = "scheduled"
)

// Urgency is the presentational classification of a debt. It is derived on
// read and never persisted.
type Urgency string

// Label returns the display copy for the urgency.
func (u Urgency) Label() string {
	switch u {
	case UrgencyOverdue:
		return "Terlambat"
	case UrgencyUrgent:
		return "Jatuh tempo"
	default:
		return "Terjadwal"
	}
}

// DeriveUrgency classifies d at now. Paid debts are always scheduled, even
// past their due date.
func DeriveUrgency(d Debt, now time.Time, urgentWindow time.Duration) Urgency {
	if d.IsPaid() {
		return UrgencyScheduled
	}
	if d.DueDate.Before(now) {
		return UrgencyOverdue
	}
	if !d.DueDate.After(now.Add(urgentWindow)) {
		return UrgencyUrgent
	}
	return UrgencyScheduled
}
