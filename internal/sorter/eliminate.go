package sorter

import "sort"

// eliminationPass implements spec.md §4.6 (C6): it walks every live
// classroom for the given period group in a controlled order, destroying
// each unless it must be kept, until no classroom remains to process.
// serenadeOnlyPass selects pass-1 semantics (operate on the serenade
// sub-population, enforce maxSerenadesPerClass) vs. pass-2 semantics
// (operate on the full population, enforce maxNonSerenadesPerSerenadingClass,
// apply the Bad-classroom rule).
//
// Grounded in original_source/ticketing/ticket_sorter.py's
// TicketSorter.eliminate_classrooms,
// ClassroomList.sorted_by_eliminated_period_distribution_then_length,
// Classroom.must_keep, limit_serenades and limit_non_serenades.
func eliminationPass(arena *sortArena, handles []ClassroomHandle, serenadeOnlyPass bool, maxSerenadesPerClass, maxNonSerenadesPerSerenadingClass int) {
	eliminatedPerPeriod := map[Period]int{Period1: 0, Period2: 0, Period3: 0, Period4: 0}
	active := map[Period]bool{Period1: true, Period2: true, Period3: true, Period4: true}

	work := append([]ClassroomHandle(nil), handles...)

	for len(work) > 0 && len(active) > 0 {
		p := emptiestActivePeriod(active, eliminatedPerPeriod)

		candidates := candidatesInPeriod(arena, work, p)
		if len(candidates) == 0 {
			delete(active, p)
			continue
		}

		chosen := pickClassroomToProcess(arena, candidates, serenadeOnlyPass)
		work = removeClassroom(work, chosen)

		c := arena.classroom(chosen)

		if !serenadeOnlyPass && c.Validity == ValidityBad && !pinnedBySpecialSerenade(arena, c) {
			// Any Bad classroom not holding a locked special serenade is
			// evicted of everything that still has somewhere else to go
			// before the normal must-keep test runs, per spec.md §4.6's
			// Bad-classroom rule. A ticket that genuinely has no other
			// candidate stays — forcing it out would violate totality
			// (spec.md §8 invariant 1), which the rule's wording doesn't
			// intend to break.
			evictAllEvictable(arena, c, p)
		}

		if mustKeep(arena, c, p) {
			if serenadeOnlyPass {
				if maxSerenadesPerClass > 0 {
					limitItems(arena, c, p, maxSerenadesPerClass, func(it ItemType) bool { return it == ItemSerenade })
				}
			} else if classroomHasSerenade(arena, c) {
				if maxNonSerenadesPerSerenadingClass > 0 {
					limitItems(arena, c, p, maxNonSerenadesPerSerenadingClass, func(it ItemType) bool {
						return it == ItemRose || it == ItemChocolate
					})
				}
			}
			lockRemaining(arena, c, p)
			continue
		}

		destroyed := destroyClassroom(arena, c, p)
		eliminatedPerPeriod[p] += destroyed
	}
}

func emptiestActivePeriod(active map[Period]bool, eliminatedPerPeriod map[Period]int) Period {
	best := Period(0)
	bestCount := 0
	for _, p := range Periods {
		if !active[p] {
			continue
		}
		if best == 0 || eliminatedPerPeriod[p] < bestCount {
			best = p
			bestCount = eliminatedPerPeriod[p]
		}
	}
	return best
}

func candidatesInPeriod(arena *sortArena, work []ClassroomHandle, p Period) []ClassroomHandle {
	var out []ClassroomHandle
	for _, h := range work {
		c := arena.classroom(h)
		if c.Period == p && c.NumTickets() > 0 {
			out = append(out, h)
		}
	}
	return out
}

func removeClassroom(work []ClassroomHandle, target ClassroomHandle) []ClassroomHandle {
	for i, h := range work {
		if h == target {
			return append(work[:i], work[i+1:]...)
		}
	}
	return work
}

// pickClassroomToProcess orders candidates by pool preference (serenade-
// bearing first in pass 1, non-serenade-only first in pass 2 — spec.md
// §4.6; the original Python always prefers serenade-bearing regardless of
// pass, a deviation documented in DESIGN.md), then fewest tickets,
// then clean name ascending. The clean-name tiebreak replaces the
// original's random.random() tertiary key so repeat sorts of the same
// input are byte-identical (spec.md §8 property 9).
func pickClassroomToProcess(arena *sortArena, candidates []ClassroomHandle, serenadeOnlyPass bool) ClassroomHandle {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := arena.classroom(candidates[i]), arena.classroom(candidates[j])
		pa, pb := poolPreferenceRank(arena, a, serenadeOnlyPass), poolPreferenceRank(arena, b, serenadeOnlyPass)
		if pa != pb {
			return pa < pb
		}
		if a.NumTickets() != b.NumTickets() {
			return a.NumTickets() < b.NumTickets()
		}
		return a.CleanName < b.CleanName
	})
	return candidates[0]
}

func poolPreferenceRank(arena *sortArena, c *Classroom, serenadeOnlyPass bool) int {
	hasSerenade := classroomHasSerenade(arena, c)
	if serenadeOnlyPass {
		if hasSerenade {
			return 0
		}
		return 1
	}
	if !hasSerenade {
		return 0
	}
	return 1
}

func classroomHasSerenade(arena *sortArena, c *Classroom) bool {
	for _, th := range c.TicketHandles() {
		if arena.ticket(th).ItemType.IsSerenade() {
			return true
		}
	}
	return false
}

func pinnedBySpecialSerenade(arena *sortArena, c *Classroom) bool {
	for _, th := range c.TicketHandles() {
		t := arena.ticket(th)
		if t.ItemType == ItemSpecialSerenade && t.Locked() && t.ChosenPeriod() == c.Period {
			return true
		}
	}
	return false
}

func mustKeep(arena *sortArena, c *Classroom, p Period) bool {
	for _, th := range c.TicketHandles() {
		t := arena.ticket(th)
		if t.Locked() && t.ChosenPeriod() == p {
			return true
		}
	}
	return false
}

// limitItems enforces a cap on the count of items matching itemFilter in
// classroom c, evicting evictable tickets (those with NumAvailable() > 1)
// in descending-NumAvailable order until the cap holds or nothing more can
// be evicted, matching Classroom.limit_serenades / limit_non_serenades.
func limitItems(arena *sortArena, c *Classroom, p Period, max int, itemFilter func(ItemType) bool) {
	count := 0
	for _, th := range c.TicketHandles() {
		if itemFilter(arena.ticket(th).ItemType) {
			count++
		}
	}
	if count <= max {
		return
	}

	byDescendingAvailability := append([]TicketHandle(nil), c.TicketHandles()...)
	sort.SliceStable(byDescendingAvailability, func(i, j int) bool {
		return arena.ticket(byDescendingAvailability[i]).NumAvailable() > arena.ticket(byDescendingAvailability[j]).NumAvailable()
	})

	for _, th := range byDescendingAvailability {
		t := arena.ticket(th)
		if !itemFilter(t.ItemType) || t.NumAvailable() <= 1 {
			continue
		}
		arena.evictFromPeriod(th, p)
		count--
		if count <= max {
			return
		}
	}
}

// evictAllEvictable removes every ticket with an alternative candidate from
// c at period p, leaving only tickets that have nowhere else to go.
func evictAllEvictable(arena *sortArena, c *Classroom, p Period) {
	for _, th := range append([]TicketHandle(nil), c.TicketHandles()...) {
		if t := arena.ticket(th); t.NumAvailable() > 1 {
			arena.evictFromPeriod(th, p)
		}
	}
}

func lockRemaining(arena *sortArena, c *Classroom, p Period) {
	for _, th := range append([]TicketHandle(nil), c.TicketHandles()...) {
		arena.lockToPeriod(th, p)
	}
}

// destroyClassroom evicts every remaining ticket from c at period p and
// returns how many tickets were removed.
func destroyClassroom(arena *sortArena, c *Classroom, p Period) int {
	tickets := append([]TicketHandle(nil), c.TicketHandles()...)
	for _, th := range tickets {
		t := arena.ticket(th)
		t.Available = t.Available.Clear(p)
		c.removeTicket(th)
	}
	return len(tickets)
}
