package sorter

// lockSpecialSerenades implements spec.md §4.4's first step (C4): every
// SpecialSerenade ticket is pinned to its ssPeriod immediately, before any
// other pass runs. If the pinned classroom is Bad, it is kept anyway — the
// one circumstance in which a Bad room is used — since lockToPeriod makes
// no validity distinction.
//
// Grounded in original_source/ticketing/ticket_sorter.py's
// TicketSorter.initialise_special_serenades.
func lockSpecialSerenades(arena *sortArena, handles []TicketHandle) {
	for _, th := range handles {
		t := arena.ticket(th)
		if t.ItemType != ItemSpecialSerenade {
			continue
		}
		arena.lockToPeriod(th, t.SSPeriod)
	}
}

// makeSpecialSerenadesExtraSpecial implements spec.md §4.4's second bullet
// (extraSpecialSerenades=true): for each SS ticket pinned to classroom C at
// period p, every other regular Serenade sharing C is either evicted (if it
// still has other candidates) or split off into a duplicate "special
// classroom" (if it's already locked to C, i.e. it has no other candidate).
//
// The duplicate-classroom behaviour is not present in the original Python
// (make_special_serenades_extra_special there only evicts evictable
// serenades; it never creates a duplicate room for an already-locked one).
// spec.md explicitly describes the duplicate as intended design, so it is
// implemented as spec.md states it (documented REDESIGN FLAG decision,
// SPEC_FULL.md §4), with the half-block shift on the duplicate kept as an
// unverified heuristic per spec.md §9 open question 1.
func makeSpecialSerenadesExtraSpecial(arena *sortArena, handles []TicketHandle) {
	for _, th := range handles {
		t := arena.ticket(th)
		if t.ItemType != ItemSpecialSerenade {
			continue
		}
		p := t.ChosenPeriod()
		ch := t.candidateAt(p)
		if ch == noClassroom {
			continue
		}
		c := arena.classroom(ch)

		// Snapshot: the classroom's ticket list mutates as we evict/split.
		others := append([]TicketHandle(nil), c.TicketHandles()...)
		for _, oh := range others {
			if oh == th {
				continue
			}
			o := arena.ticket(oh)
			if o.ItemType != ItemSerenade {
				continue
			}
			switch {
			case o.NumAvailable() > 1:
				arena.evictFromPeriod(oh, p)
			case o.Locked() && o.ChosenPeriod() == p:
				splitIntoSpecialClassroom(arena, th, c)
			}
		}
	}
}

// splitIntoSpecialClassroom moves special ticket th out of c into a new
// first-class duplicate classroom (same period, same clean name, IsSpecial
// true) so th no longer shares a physical visit with the already-locked
// regular serenade left behind in c. The duplicate's key includes the
// Special flag, so it never collides with the original classroom's key
// (spec.md §9).
func splitIntoSpecialClassroom(arena *sortArena, th TicketHandle, c *Classroom) {
	key := ClassroomKey{Period: c.Period, CleanName: c.CleanName, Special: true}
	dup := arena.internClassroom(key, c.OriginalName, c.Validity)
	c.removeTicket(th)
	arena.classroom(dup).addTicket(th)
	arena.ticket(th).Candidates[c.Period-1] = dup
}
