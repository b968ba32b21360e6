package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosehill-valentines/ticket-sorter/internal/sorter"
)

func TestMemoryStoreSaveAndLoadRoundTrips(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	run := Run{RunID: "run-1", Tickets: []sorter.TicketInput{{ID: "t1"}}}

	require.NoError(t, s.Save(context.Background(), run, 0))

	loaded, err := s.Load(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Len(t, loaded.Tickets, 1)
}

func TestMemoryStoreLoadMissingReturnsErrNotFound(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	_, err := s.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLoadExpiredEvictsAndReturnsErrNotFound(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Save(context.Background(), Run{RunID: "run-1"}, time.Millisecond))

	time.Sleep(5 * time.Millisecond)

	_, err := s.Load(context.Background(), "run-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Sweep())
}

func TestMemoryStoreSweepEvictsOnlyExpired(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Save(context.Background(), Run{RunID: "fresh"}, time.Hour))
	require.NoError(t, s.Save(context.Background(), Run{RunID: "stale"}, time.Millisecond))

	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 1, s.Sweep())
	_, err := s.Load(context.Background(), "fresh")
	assert.NoError(t, err)
}
