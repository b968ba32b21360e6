package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newFullyAvailableTicket(arena *sortArena, id, recipientID string, itemType ItemType, names [4]string) TicketHandle {
	th := arena.newTicket(id, recipientID, itemType, 0)
	tk := arena.ticket(th)
	for _, p := range Periods {
		ch := arena.internClassroom(ClassroomKey{Period: p, CleanName: names[p-1]}, names[p-1], ValidityNormal)
		tk.Candidates[p-1] = ch
	}
	tk.Available = fullMask
	return th
}

func TestPickEmptiestPeriodPrefersLowestPeriodOnTie(t *testing.T) {
	tk := &Ticket{Available: fullMask}
	p := pickEmptiestPeriod(tk, nil, map[Period]int{Period1: 0, Period2: 0, Period3: 0, Period4: 0})
	assert.Equal(t, Period1, p)
}

func TestPickEmptiestPeriodRespectsPerRecipientThenGlobal(t *testing.T) {
	tk := &Ticket{Available: fullMask}
	perRecipient := map[Period]int{Period1: 1, Period2: 0, Period3: 0, Period4: 0}
	global := map[Period]int{Period1: 0, Period2: 5, Period3: 1, Period4: 1}
	p := pickEmptiestPeriod(tk, perRecipient, global)
	// Period1 is excluded by perRecipient (1 > 0); among the rest Period3
	// and Period4 tie on global count but Period3 is lower.
	assert.Equal(t, Period3, p)
}

func TestPickEmptiestPeriodSkipsUnavailablePeriods(t *testing.T) {
	tk := &Ticket{Available: maskOf(Period2).Set(Period4)}
	p := pickEmptiestPeriod(tk, nil, map[Period]int{Period1: 0, Period2: 0, Period3: 0, Period4: 0})
	assert.Equal(t, Period2, p)
}

func TestDistributeTicketsEnforcedSpreadsOneRecipientAcrossPeriods(t *testing.T) {
	arena := newSortArena()
	names := [4]string{"F101", "F202", "F303", "F404"}
	h1 := newFullyAvailableTicket(arena, "s1", "r1", ItemSerenade, names)
	h2 := newFullyAvailableTicket(arena, "s2", "r1", ItemSerenade, names)
	handles := []TicketHandle{h1, h2}
	populateClassrooms(arena, handles)

	distributeTickets(arena, handles, true)

	t1, t2 := arena.ticket(h1), arena.ticket(h2)
	assert.True(t, t1.Locked())
	assert.True(t, t2.Locked())
	assert.NotEqual(t, t1.ChosenPeriod(), t2.ChosenPeriod())
}

func TestDistributeTicketsOpportunisticSkipsOversubscribedGroup(t *testing.T) {
	arena := newSortArena()
	names := [4]string{"F101", "F202", "F303", "F404"}
	// Three same-recipient tickets all with 4 choices: g(4) > numTickets(3),
	// so the opportunistic pass must leave them all unlocked.
	h1 := newFullyAvailableTicket(arena, "s1", "r1", ItemSerenade, names)
	h2 := newFullyAvailableTicket(arena, "s2", "r1", ItemSerenade, names)
	h3 := newFullyAvailableTicket(arena, "s3", "r1", ItemSerenade, names)
	handles := []TicketHandle{h1, h2, h3}
	populateClassrooms(arena, handles)

	distributeTickets(arena, handles, false)

	for _, h := range handles {
		assert.False(t, arena.ticket(h).Locked())
	}
}

func TestDistributeTicketsOpportunisticProcessesGValuesInFixedOrder(t *testing.T) {
	arena := newSortArena()
	names := [4]string{"F101", "F202", "F303", "F404"}
	// Same recipient, three tickets: two span g=2 (Period1/Period2 only),
	// one spans g=3 (Period1/Period2/Period3). numTickets=3, so both the
	// g=2 and g=3 groups qualify (1 < g <= 3) and must be processed in a
	// fixed g-ascending order, not Go's unspecified map-range order.
	h1 := newFullyAvailableTicket(arena, "s1", "r1", ItemSerenade, names)
	h2 := newFullyAvailableTicket(arena, "s2", "r1", ItemSerenade, names)
	h3 := newFullyAvailableTicket(arena, "s3", "r1", ItemSerenade, names)
	arena.ticket(h1).Available = maskOf(Period1).Set(Period2)
	arena.ticket(h2).Available = maskOf(Period1).Set(Period2)
	arena.ticket(h3).Available = maskOf(Period1).Set(Period2).Set(Period3)
	handles := []TicketHandle{h1, h2, h3}
	populateClassrooms(arena, handles)

	distributeTickets(arena, handles, false)

	t1, t2, t3 := arena.ticket(h1), arena.ticket(h2), arena.ticket(h3)
	assert.True(t, t1.Locked())
	assert.True(t, t2.Locked())
	assert.True(t, t3.Locked())
	// g=2 processed before g=3: h1 takes Period1, h2 (seeing Period1 taken)
	// takes Period2, then h3 sees both taken and takes Period3.
	assert.Equal(t, Period1, t1.ChosenPeriod())
	assert.Equal(t, Period2, t2.ChosenPeriod())
	assert.Equal(t, Period3, t3.ChosenPeriod())
}

func TestGroupByRecipientPreservesFirstSeenOrder(t *testing.T) {
	arena := newSortArena()
	names := [4]string{"F101", "F202", "F303", "F404"}
	h1 := newFullyAvailableTicket(arena, "s1", "r2", ItemSerenade, names)
	h2 := newFullyAvailableTicket(arena, "s2", "r1", ItemSerenade, names)
	h3 := newFullyAvailableTicket(arena, "s3", "r2", ItemSerenade, names)

	_, order := groupByRecipient(arena, []TicketHandle{h1, h2, h3})
	assert.Equal(t, []string{"r2", "r1"}, order)
}
