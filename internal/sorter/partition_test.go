package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitConsecutiveDistributesRemainder(t *testing.T) {
	classrooms := make([]ClassroomHandle, 7)
	for i := range classrooms {
		classrooms[i] = ClassroomHandle(i)
	}
	groups := splitConsecutive(classrooms, 3)
	require.Len(t, groups, 3)
	// 7 = 3+2+2: base 2, remainder 1 -> first group gets the extra
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 2)
	assert.Len(t, groups[2], 2)

	var total int
	for _, g := range groups {
		total += len(g)
	}
	assert.Equal(t, 7, total)
}

func ticketWithNRooms(arena *sortArena, id string, n int, period Period) ClassroomHandle {
	ch := arena.internClassroom(ClassroomKey{Period: period, CleanName: id}, id, ValidityNormal)
	for i := 0; i < n; i++ {
		th := arena.newTicket(id, "r", ItemRose, 0)
		tk := arena.ticket(th)
		tk.Candidates[period-1] = ch
		tk.Available = maskOf(period)
		arena.classroom(ch).addTicket(th)
	}
	return ch
}

func TestRebalanceGroupsReducesRangeWithoutEmptyingAGroup(t *testing.T) {
	arena := newSortArena()
	// three classrooms with very uneven ticket counts, split 2/1 across two
	// delivery groups: group0 = [c1,c2] (heavy), group1 = [c3] (light)
	c1 := ticketWithNRooms(arena, "c1", 8, Period1)
	c2 := ticketWithNRooms(arena, "c2", 1, Period1)
	c3 := ticketWithNRooms(arena, "c3", 1, Period1)

	groups := [][]ClassroomHandle{{c1, c2}, {c3}}
	before := groupTicketTotal(arena, groups[0]) - groupTicketTotal(arena, groups[1])

	rebalanceGroups(arena, groups)

	after := groupTicketTotal(arena, groups[0]) - groupTicketTotal(arena, groups[1])
	assert.LessOrEqual(t, abs(after), abs(before))

	// no group was emptied out entirely by the rebalance
	assert.NotEmpty(t, groups[0])
	assert.NotEmpty(t, groups[1])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
