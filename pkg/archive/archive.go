// Package archive persists a durable audit trail of sort runs to Postgres,
// independent of pkg/store's TTL-bound plan cache (spec.md's Non-goals
// exclude a full audit log feature, but the ambient stack still wires
// lib/pq/sqlx into a concrete component rather than dropping them).
//
// Expects a table shaped like:
//
//	CREATE TABLE sort_run_archive (
//		id                TEXT PRIMARY KEY,
//		run_id            TEXT NOT NULL,
//		ticket_count      INT NOT NULL,
//		placed_count      INT NOT NULL,
//		diagnostic_count  INT NOT NULL,
//		invariant_failed  BOOLEAN NOT NULL DEFAULT FALSE,
//		archived_at       TIMESTAMPTZ NOT NULL
//	);
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Entry is one archived sort run, kept indefinitely unlike pkg/store's
// TTL-bound records.
type Entry struct {
	ID              string    `db:"id"`
	RunID           string    `db:"run_id"`
	TicketCount     int       `db:"ticket_count"`
	PlacedCount     int       `db:"placed_count"`
	DiagnosticCount int       `db:"diagnostic_count"`
	InvariantFailed bool      `db:"invariant_failed"`
	ArchivedAt      time.Time `db:"archived_at"`
}

// Repository writes and reads archive entries.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs a Repository over an already-connected database.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts one archive entry, assigning an ID and timestamp if unset.
func (r *Repository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ArchivedAt.IsZero() {
		entry.ArchivedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sort_run_archive
	(id, run_id, ticket_count, placed_count, diagnostic_count, invariant_failed, archived_at)
	VALUES (:id, :run_id, :ticket_count, :placed_count, :diagnostic_count, :invariant_failed, :archived_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("archive sort run: %w", err)
	}
	return nil
}

// GetByRunID retrieves the archived entry for one run ID.
func (r *Repository) GetByRunID(ctx context.Context, runID string) (*Entry, error) {
	const query = `SELECT id, run_id, ticket_count, placed_count, diagnostic_count, invariant_failed, archived_at
	FROM sort_run_archive WHERE run_id = $1`
	var entry Entry
	if err := r.db.GetContext(ctx, &entry, query, runID); err != nil {
		return nil, fmt.Errorf("get archived run: %w", err)
	}
	return &entry, nil
}

// RecentFailures returns the most recently archived runs whose elimination
// pass aborted on an invariant violation, most recent first.
func (r *Repository) RecentFailures(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, run_id, ticket_count, placed_count, diagnostic_count, invariant_failed, archived_at
	FROM sort_run_archive WHERE invariant_failed = TRUE ORDER BY archived_at DESC LIMIT $1`
	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list archived failures: %w", err)
	}
	return entries, nil
}
