package sorter

// sortArena owns every Classroom and Ticket value for the duration of one
// Sort call, addressed by integer handle rather than pointer so the
// ticket<->classroom back-references (§9, "cyclic references") never need a
// garbage-collected pointer graph. Discarding the arena at the end of Sort
// releases the whole graph in one step; nothing here is package-level state,
// so concurrent Sort calls on disjoint arenas never interact (§5).
type sortArena struct {
	classrooms []Classroom
	tickets    []Ticket
	index      map[ClassroomKey]ClassroomHandle
}

func newSortArena() *sortArena {
	return &sortArena{index: make(map[ClassroomKey]ClassroomHandle)}
}

func (a *sortArena) classroom(h ClassroomHandle) *Classroom { return &a.classrooms[h] }

func (a *sortArena) ticket(h TicketHandle) *Ticket { return &a.tickets[h] }

// internClassroom returns the existing classroom for key, or allocates one.
func (a *sortArena) internClassroom(key ClassroomKey, originalName string, validity ClassroomValidity) ClassroomHandle {
	if h, ok := a.index[key]; ok {
		return h
	}
	h := ClassroomHandle(len(a.classrooms))
	a.classrooms = append(a.classrooms, Classroom{
		Handle:       h,
		Period:       key.Period,
		CleanName:    key.CleanName,
		OriginalName: originalName,
		Validity:     validity,
		IsSpecial:    key.Special,
	})
	a.index[key] = h
	return h
}

func (a *sortArena) newTicket(id, recipientID string, itemType ItemType, ssPeriod Period) TicketHandle {
	h := TicketHandle(len(a.tickets))
	a.tickets = append(a.tickets, Ticket{
		Handle:      h,
		ID:          id,
		RecipientID: recipientID,
		ItemType:    itemType,
		SSPeriod:    ssPeriod,
		Candidates:  [4]ClassroomHandle{noClassroom, noClassroom, noClassroom, noClassroom},
	})
	return h
}

// lockToPeriod makes ticket th available only at period p, removing it from
// every other candidate classroom it currently sits in and adding it to p's
// classroom if not already present. This is the Go equivalent of the
// original's TicketToSort.choose_period / Classroom.choose.
func (a *sortArena) lockToPeriod(th TicketHandle, p Period) {
	t := a.ticket(th)
	for _, q := range Periods {
		if q == p {
			continue
		}
		if t.Available.Has(q) {
			if ch := t.candidateAt(q); ch != noClassroom {
				a.classroom(ch).removeTicket(th)
			}
		}
	}
	t.Available = maskOf(p)
	if ch := t.candidateAt(p); ch != noClassroom {
		a.classroom(ch).addTicket(th)
	}
}

// evictFromPeriod removes ticket th's candidacy at period p entirely
// (used by elimination/limiting passes on tickets that still have other
// options). Caller must ensure th.NumAvailable() > 1 before calling.
func (a *sortArena) evictFromPeriod(th TicketHandle, p Period) {
	t := a.ticket(th)
	if ch := t.candidateAt(p); ch != noClassroom {
		a.classroom(ch).removeTicket(th)
	}
	t.Available = t.Available.Clear(p)
}

// liveClassrooms returns the handles of every classroom that still holds at
// least one ticket. Empty classrooms keep their arena slot (handles must stay
// stable) but are left out of the returned list.
func (a *sortArena) liveClassrooms() []ClassroomHandle {
	live := make([]ClassroomHandle, 0, len(a.classrooms))
	for i := range a.classrooms {
		if len(a.classrooms[i].ticketIDs) > 0 {
			live = append(live, ClassroomHandle(i))
		}
	}
	return live
}
