package sorter

import "sort"

// distributeTickets implements spec.md §4.5 (C5) over handles, a subset of
// the arena's tickets (pass 1: serenades only; pass 2: optionally the full
// population, gated by enforceDistribution per SPEC_FULL.md §12 decision 3
// — disabled by default, matching spec.md's stated default).
//
// Grounded in original_source/ticketing/ticket_sorter.py's
// TicketSorter.distribute_tickets / choose_emptiest_period, with one
// deliberate deviation: the original accumulates a single
// item_period_distribution counter across every recipient in iteration
// order, so an earlier recipient's choice can bias a later recipient's tie
// break. spec.md instead describes a `perRecipientUses` counter that is
// reset for each recipient, which is what's implemented here — a cleaner,
// order-independent per-recipient distribution preference layered on top of
// the shared global periodDistribution.
func distributeTickets(arena *sortArena, handles []TicketHandle, enforceDistribution bool) {
	periodDistribution := globalPeriodDistribution(arena, handles)
	byRecipient, order := groupByRecipient(arena, handles)

	for _, rid := range order {
		ticketsForRecipient := byRecipient[rid]
		ordered := orderByNumAvailableAscending(arena, ticketsForRecipient)

		if enforceDistribution {
			distributeRecipientEnforced(arena, ordered, periodDistribution)
			continue
		}
		distributeRecipientOpportunistic(arena, ordered, periodDistribution)
	}
}

func distributeRecipientEnforced(arena *sortArena, ordered []TicketHandle, periodDistribution map[Period]int) {
	perRecipientUses := map[Period]int{}
	for _, th := range ordered {
		if t := arena.ticket(th); t.Locked() {
			perRecipientUses[t.ChosenPeriod()]++
		}
	}
	for _, th := range ordered {
		t := arena.ticket(th)
		if t.Locked() {
			continue
		}
		p := pickEmptiestPeriod(t, perRecipientUses, periodDistribution)
		arena.lockToPeriod(th, p)
		perRecipientUses[p]++
		periodDistribution[p]++
	}
}

// distributeRecipientOpportunistic implements the enforceDistribution=false
// branch: distribution only happens when it costs nothing. A ticket group
// (tickets sharing the same NumAvailable value, g) is distributed iff
// 1 < g <= the recipient's total ticket count in this item subset — i.e.
// every ticket in the group has a genuine alternative, and there are at
// least as many tickets as choices to spread across them.
func distributeRecipientOpportunistic(arena *sortArena, ordered []TicketHandle, periodDistribution map[Period]int) {
	numTickets := len(ordered)
	groups := map[int][]TicketHandle{}
	for _, th := range ordered {
		g := arena.ticket(th).NumAvailable()
		groups[g] = append(groups[g], th)
	}
	for g := 1; g <= len(Periods); g++ {
		tickets, ok := groups[g]
		if !ok || g <= 1 || g > numTickets {
			continue
		}
		for _, th := range tickets {
			t := arena.ticket(th)
			p := pickEmptiestPeriod(t, nil, periodDistribution)
			arena.lockToPeriod(th, p)
			periodDistribution[p]++
		}
	}
}

// pickEmptiestPeriod chooses the available period minimising
// (perRecipientUses[p], periodDistribution[p]), ties broken by lowest
// period number (spec.md §4.5). perRecipientUses may be nil, in which case
// only the global distribution is considered.
func pickEmptiestPeriod(t *Ticket, perRecipientUses, periodDistribution map[Period]int) Period {
	best := Period(0)
	var bestKey [2]int
	for _, p := range Periods {
		if !t.Available.Has(p) {
			continue
		}
		key := [2]int{perRecipientUses[p], periodDistribution[p]}
		if best == 0 || key[0] < bestKey[0] || (key[0] == bestKey[0] && key[1] < bestKey[1]) {
			best = p
			bestKey = key
		}
	}
	return best
}

// globalPeriodDistribution counts, per period, how many of handles are
// already locked to it.
func globalPeriodDistribution(arena *sortArena, handles []TicketHandle) map[Period]int {
	dist := map[Period]int{Period1: 0, Period2: 0, Period3: 0, Period4: 0}
	for _, th := range handles {
		if t := arena.ticket(th); t.Locked() {
			dist[t.ChosenPeriod()]++
		}
	}
	return dist
}

// groupByRecipient buckets handles by RecipientID, returning the buckets
// plus the recipient order (first-seen order in handles) for deterministic
// iteration.
func groupByRecipient(arena *sortArena, handles []TicketHandle) (map[string][]TicketHandle, []string) {
	byRecipient := map[string][]TicketHandle{}
	var order []string
	for _, th := range handles {
		rid := arena.ticket(th).RecipientID
		if _, ok := byRecipient[rid]; !ok {
			order = append(order, rid)
		}
		byRecipient[rid] = append(byRecipient[rid], th)
	}
	return byRecipient, order
}

// orderByNumAvailableAscending returns handles sorted by NumAvailable
// ascending (most-constrained first), a stable sort so ties preserve
// insertion order — required for spec.md §8 property 9 (determinism).
func orderByNumAvailableAscending(arena *sortArena, handles []TicketHandle) []TicketHandle {
	ordered := append([]TicketHandle(nil), handles...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return arena.ticket(ordered[i]).NumAvailable() < arena.ticket(ordered[j]).NumAvailable()
	})
	return ordered
}
