package services

import (
	"context"
	"fmt"
	"time"

	"tagih/internal/core"
)

// LedgerReader is what the digest reads from the debt repository.
type LedgerReader interface {
	List(ctx context.Context, filter core.DebtFilter) ([]core.Debt, error)
	Totals(ctx context.Context) (core.Totals, error)
	DeadlineBuckets(ctx context.Context) ([]core.Bucket, error)
}

// Digest is a point-in-time overview of the ledger, logged after each sweep.
type Digest struct {
	Totals    core.Totals
	Overdue   int
	Urgent    int
	Scheduled int
	Buckets   []core.Bucket
}

// BuildDigest summarises unpaid debts by urgency alongside the totals and
// deadline buckets.
func BuildDigest(ctx context.Context, ledger LedgerReader, now time.Time, urgentWindow time.Duration) (Digest, error) {
	totals, err := ledger.Totals(ctx)
	if err != nil {
		return Digest{}, fmt.Errorf("ledger totals: %w", err)
	}

	unpaid, err := ledger.List(ctx, core.DebtFilter{Status: core.StatusUnpaid})
	if err != nil {
		return Digest{}, fmt.Errorf("list unpaid debts: %w", err)
	}

	buckets, err := ledger.DeadlineBuckets(ctx)
	if err != nil {
		return Digest{}, fmt.Errorf("deadline buckets: %w", err)
	}

	d := Digest{Totals: totals, Buckets: buckets}
	for _, debt := range unpaid {
		switch core.DeriveUrgency(debt, now, urgentWindow) {
		case core.UrgencyOverdue:
			d.Overdue++
		case core.UrgencyUrgent:
			d.Urgent++
		default:
			d.Scheduled++
		}
	}
	return d, nil
}

// BucketSizes maps each non-empty bucket title to its debt count.
func (d Digest) BucketSizes() map[string]int {
	sizes := make(map[string]int, len(d.Buckets))
	for _, b := range d.Buckets {
		sizes[b.Title] = len(b.Debts)
	}
	return sizes
}
