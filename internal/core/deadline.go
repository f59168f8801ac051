package core

import "time"

// DefaultUpcomingWindow bounds the "Next 7 Days" bucket.
const DefaultUpcomingWindow = 7 * 24 * time.Hour

const (
	BucketOverdue  = "Overdue"
	BucketNextWeek = "Next 7 Days"
	BucketLater    = "Later"
)

// Bucket is a named group of debts sharing a due-date horizon.
type Bucket struct {
	Title string
	Debts []Debt
}

// PartitionByDeadline splits unpaid debts into Overdue, Next 7 Days and
// Later, in that order. Input order is kept inside each bucket and empty
// buckets are dropped. Paid debts are ignored.
func PartitionByDeadline(debts []Debt, now time.Time, upcoming time.Duration) []Bucket {
	horizon := now.Add(upcoming)

	var overdue, next, later []Debt
	for _, d := range debts {
		if d.IsPaid() {
			continue
		}
		switch {
		case d.DueDate.Before(now):
			overdue = append(overdue, d)
		case !d.DueDate.After(horizon):
			next = append(next, d)
		default:
			later = append(later, d)
		}
	}

	buckets := make([]Bucket, 0, 3)
	for _, b := range []Bucket{
		{Title: BucketOverdue, Debts: overdue},
		{Title: BucketNextWeek, Debts: next},
		{Title: BucketLater, Debts: later},
	} {
		if len(b.Debts) > 0 {
			buckets = append(buckets, b)
		}
	}
	return buckets
}
