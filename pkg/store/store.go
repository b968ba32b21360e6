// Package store persists sort runs behind an opaque key-value abstraction
// (spec.md §6): a run ID maps to its ticket batch, configuration, and the
// resulting plan, with a TTL so old runs are eventually reclaimed.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rosehill-valentines/ticket-sorter/internal/sorter"
)

// ErrNotFound is returned when a run ID has no stored record, either because
// it never existed or its TTL expired.
var ErrNotFound = errors.New("store: run not found")

// Run is everything needed to reproduce or re-render a sort: the original
// ticket batch (so a resort never requires the caller to resend it), the
// configuration it last ran with, and its outcome.
type Run struct {
	RunID       string
	Tickets     []sorter.TicketInput
	Request     sorter.SortRequest
	Plan        *sorter.DeliveryPlan
	Diagnostics []sorter.Diagnostic
	CreatedAt   time.Time
}

// PlanStore is the persistence boundary the sort service depends on. Both
// the in-memory and Redis implementations satisfy it identically, so the
// backend is a config switch (spec.md §6), never a code branch upstream.
type PlanStore interface {
	Save(ctx context.Context, run Run, ttl time.Duration) error
	Load(ctx context.Context, runID string) (Run, error)
}
