package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternClassroomDeduplicates(t *testing.T) {
	arena := newSortArena()
	key := ClassroomKey{Period: Period1, CleanName: "A001"}
	h1 := arena.internClassroom(key, "A001", ValidityNormal)
	h2 := arena.internClassroom(key, "A001", ValidityNormal)
	assert.Equal(t, h1, h2)
	assert.Len(t, arena.classrooms, 1)
}

func TestInternClassroomSpecialKeyDoesNotCollide(t *testing.T) {
	arena := newSortArena()
	plain := ClassroomKey{Period: Period1, CleanName: "A001", Special: false}
	dup := ClassroomKey{Period: Period1, CleanName: "A001", Special: true}
	h1 := arena.internClassroom(plain, "A001", ValidityNormal)
	h2 := arena.internClassroom(dup, "A001", ValidityNormal)
	assert.NotEqual(t, h1, h2)
}

func TestLockToPeriodRemovesOtherCandidacies(t *testing.T) {
	arena := newSortArena()
	th := arena.newTicket("t1", "r1", ItemRose, 0)
	t1 := arena.ticket(th)
	names := [4]string{"A001", "A002", "A003", "A004"}
	for _, p := range Periods {
		ch := arena.internClassroom(ClassroomKey{Period: p, CleanName: names[p-1]}, "raw", ValidityNormal)
		t1.Candidates[p-1] = ch
	}
	t1.Available = fullMask
	populateClassrooms(arena, []TicketHandle{th})

	for _, p := range Periods {
		ch := t1.candidateAt(p)
		assert.Equal(t, 1, arena.classroom(ch).NumTickets())
	}

	arena.lockToPeriod(th, Period2)
	require.True(t, t1.Locked())
	assert.Equal(t, Period2, t1.ChosenPeriod())

	for _, p := range Periods {
		ch := t1.candidateAt(p)
		if p == Period2 {
			assert.Equal(t, 1, arena.classroom(ch).NumTickets())
		} else {
			assert.Equal(t, 0, arena.classroom(ch).NumTickets())
		}
	}
}

func TestEvictFromPeriodClearsOneBit(t *testing.T) {
	arena := newSortArena()
	th := arena.newTicket("t1", "r1", ItemRose, 0)
	t1 := arena.ticket(th)
	ch1 := arena.internClassroom(ClassroomKey{Period: Period1, CleanName: "A001"}, "A001", ValidityNormal)
	ch2 := arena.internClassroom(ClassroomKey{Period: Period2, CleanName: "A002"}, "A002", ValidityNormal)
	t1.Candidates[0] = ch1
	t1.Candidates[1] = ch2
	t1.Available = maskOf(Period1).Set(Period2)
	populateClassrooms(arena, []TicketHandle{th})

	arena.evictFromPeriod(th, Period1)
	assert.Equal(t, 1, t1.NumAvailable())
	assert.True(t, t1.Locked())
	assert.Equal(t, Period2, t1.ChosenPeriod())
	assert.Equal(t, 0, arena.classroom(ch1).NumTickets())
	assert.Equal(t, 1, arena.classroom(ch2).NumTickets())
}

func TestLiveClassroomsExcludesEmpty(t *testing.T) {
	arena := newSortArena()
	th := arena.newTicket("t1", "r1", ItemRose, 0)
	t1 := arena.ticket(th)
	ch1 := arena.internClassroom(ClassroomKey{Period: Period1, CleanName: "A001"}, "A001", ValidityNormal)
	arena.internClassroom(ClassroomKey{Period: Period1, CleanName: "A002"}, "A002", ValidityNormal) // never populated
	t1.Candidates[0] = ch1
	t1.Available = maskOf(Period1)
	populateClassrooms(arena, []TicketHandle{th})

	live := arena.liveClassrooms()
	assert.Equal(t, []ClassroomHandle{ch1}, live)
}
