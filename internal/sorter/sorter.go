package sorter

import (
	"fmt"
	"sort"
)

// SortRequest mirrors spec.md §3's configuration table. Zero for a Max*
// field means "no limit".
type SortRequest struct {
	NumSerenadingGroups               int
	NumNonSerenadingGroups            int
	MaxSerenadesPerClass              int
	MaxNonSerenadesPerSerenadingClass int
	ExtraSpecialSerenades             bool
	EnforceDistribution               bool
}

// Validate re-checks the request with plain Go, independent of whatever
// validation already ran at the HTTP boundary (internal/dto), so the
// algorithmic core never hard-depends on go-playground/validator.
func (r SortRequest) Validate() error {
	if r.NumSerenadingGroups < 1 {
		return fmt.Errorf("sorter: numSerenadingGroups must be >= 1")
	}
	if r.NumNonSerenadingGroups < 1 {
		return fmt.Errorf("sorter: numNonSerenadingGroups must be >= 1")
	}
	if r.MaxSerenadesPerClass < 0 {
		return fmt.Errorf("sorter: maxSerenadesPerClass must be >= 0")
	}
	if r.MaxNonSerenadesPerSerenadingClass < 0 {
		return fmt.Errorf("sorter: maxNonSerenadesPerSerenadingClass must be >= 0")
	}
	return nil
}

// PlacedTicket is one ticket as it appears inside a classroom visit in the
// output plan.
type PlacedTicket struct {
	TicketID    string
	RecipientID string
	ItemType    ItemType
}

// ClassroomVisit is one classroom a delivery group visits in a given
// period, with its tickets in stable output order (grouped by recipient,
// then item type — spec.md §6).
type ClassroomVisit struct {
	Period       Period
	CleanName    string
	OriginalName string
	IsSpecial    bool
	Tickets      []PlacedTicket
}

// DeliveryGroupPlan is the output shape of one delivery group: its visits,
// keyed by period.
type DeliveryGroupPlan struct {
	Code         string
	IsSerenading bool
	ByPeriod     map[Period][]ClassroomVisit
}

// DeliveryPlan is the pure-value output of Sort (spec.md §3/§6): no file or
// wire format is prescribed here, callers serialise it however they need.
type DeliveryPlan struct {
	SerenadingGroups    []DeliveryGroupPlan
	NonSerenadingGroups []DeliveryGroupPlan
}

// ErrInvariantViolation is returned, wrapping details, when Sort detects an
// internally inconsistent state (spec.md §7): a ticket ends up in no
// classroom or more than one after elimination. No partial plan is ever
// returned alongside this error.
type ErrInvariantViolation struct {
	Detail   string
	TicketID string
}

func (e *ErrInvariantViolation) Error() string {
	if e.TicketID != "" {
		return fmt.Sprintf("sorter: invariant violation for ticket %s: %s", e.TicketID, e.Detail)
	}
	return fmt.Sprintf("sorter: invariant violation: %s", e.Detail)
}

// Sort is the C8 driver (spec.md §4.3/§4.8): it orchestrates the
// special-serenade locker, distribution pass, elimination pass and
// delivery-group partitioner over two sub-passes — serenades only, then the
// full population reusing the serenade period locks — and returns the
// resulting DeliveryPlan plus any recoverable diagnostics.
//
// Sort is synchronous, single-threaded, and touches no package-level
// mutable state, so concurrent calls on disjoint inputs never interact
// (spec.md §5).
func Sort(inputs []TicketInput, req SortRequest) (*DeliveryPlan, []Diagnostic, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	arena, allHandles, diags := buildArena(inputs)

	serenadeHandles := filterByPredicate(arena, allHandles, func(t *Ticket) bool { return t.ItemType.IsSerenade() })
	nonSerenadeHandles := filterByPredicate(arena, allHandles, func(t *Ticket) bool { return !t.ItemType.IsSerenade() })

	// Pass 1: serenades only, grounded in TicketSorter.__init__'s "first
	// pass with only serenades".
	populateClassrooms(arena, serenadeHandles)

	lockSpecialSerenades(arena, serenadeHandles)
	if req.ExtraSpecialSerenades {
		makeSpecialSerenadesExtraSpecial(arena, serenadeHandles)
	}

	distributeTickets(arena, serenadeHandles, req.EnforceDistribution)
	if !req.EnforceDistribution {
		serenadeClassrooms := liveClassroomsForHandles(arena, serenadeHandles)
		eliminationPass(arena, serenadeClassrooms, true, req.MaxSerenadesPerClass, req.MaxNonSerenadesPerSerenadingClass)
	}

	if err := verifyAllLocked(arena, serenadeHandles); err != nil {
		return nil, nil, err
	}

	// Pass 2: every serenade ticket is now locked to one period; extend the
	// classroom index with the non-serenade candidates and run elimination
	// over the full population. Pass 2 never revisits a serenade ticket's
	// choice.
	populateClassrooms(arena, nonSerenadeHandles)
	if req.EnforceDistribution {
		distributeTickets(arena, allHandles, true)
	}
	fullClassrooms := liveClassroomsForHandles(arena, allHandles)
	eliminationPass(arena, fullClassrooms, false, req.MaxSerenadesPerClass, req.MaxNonSerenadesPerSerenadingClass)

	if err := verifyAllLocked(arena, allHandles); err != nil {
		return nil, nil, err
	}

	live := arena.liveClassrooms()
	insufficient := checkCapacity(arena, live, req)
	diags = append(diags, insufficient...)

	serenadingGroups, nonSerenadingGroups := partitionIntoGroups(arena, live, req.NumSerenadingGroups, req.NumNonSerenadingGroups)

	plan := &DeliveryPlan{
		SerenadingGroups:    renderGroups(arena, serenadingGroups),
		NonSerenadingGroups: renderGroups(arena, nonSerenadingGroups),
	}
	return plan, diags, nil
}

func filterByPredicate(arena *sortArena, handles []TicketHandle, pred func(*Ticket) bool) []TicketHandle {
	var out []TicketHandle
	for _, h := range handles {
		if pred(arena.ticket(h)) {
			out = append(out, h)
		}
	}
	return out
}

// liveClassroomsForHandles returns the set of classrooms currently
// candidates for any ticket in handles, deduplicated and in first-seen
// order — the classroom index used to drive one elimination pass.
func liveClassroomsForHandles(arena *sortArena, handles []TicketHandle) []ClassroomHandle {
	seen := map[ClassroomHandle]bool{}
	var out []ClassroomHandle
	for _, th := range handles {
		t := arena.ticket(th)
		for _, p := range Periods {
			if !t.Available.Has(p) {
				continue
			}
			ch := t.candidateAt(p)
			if ch == noClassroom || seen[ch] {
				continue
			}
			seen[ch] = true
			out = append(out, ch)
		}
	}
	return out
}

// verifyAllLocked implements spec.md §7's InvariantViolation check: after
// the elimination pass, every ticket must be locked to exactly one
// classroom.
func verifyAllLocked(arena *sortArena, handles []TicketHandle) error {
	for _, th := range handles {
		t := arena.ticket(th)
		if !t.Locked() {
			return &ErrInvariantViolation{
				Detail:   fmt.Sprintf("ticket has %d available periods after elimination, expected 1", t.NumAvailable()),
				TicketID: t.ID,
			}
		}
		ch := t.candidateAt(t.ChosenPeriod())
		if ch == noClassroom || !arena.classroom(ch).hasTicket(th) {
			return &ErrInvariantViolation{
				Detail:   "ticket not present in its locked classroom's ticket set",
				TicketID: t.ID,
			}
		}
	}
	return nil
}

// checkCapacity reports InsufficientCapacity diagnostics (spec.md §7) when
// fewer classrooms survived a period/pool than there are groups to fill it.
func checkCapacity(arena *sortArena, live []ClassroomHandle, req SortRequest) []Diagnostic {
	var diags []Diagnostic
	byPeriod := classroomsByPeriod(arena, live)
	for _, p := range Periods {
		seren, non := splitPools(arena, byPeriod[p])
		if len(seren) < req.NumSerenadingGroups {
			diags = append(diags, Diagnostic{
				Code:    DiagInsufficientCapacity,
				Message: fmt.Sprintf("period %d: only %d serenading classroom(s) survived for %d groups", p, len(seren), req.NumSerenadingGroups),
			})
		}
		if len(non) < req.NumNonSerenadingGroups {
			diags = append(diags, Diagnostic{
				Code:    DiagInsufficientCapacity,
				Message: fmt.Sprintf("period %d: only %d non-serenading classroom(s) survived for %d groups", p, len(non), req.NumNonSerenadingGroups),
			})
		}
	}
	return diags
}

func renderGroups(arena *sortArena, groups []DeliveryGroup) []DeliveryGroupPlan {
	out := make([]DeliveryGroupPlan, len(groups))
	for i, g := range groups {
		byPeriod := make(map[Period][]ClassroomVisit, len(g.ByPeriod))
		for p, classrooms := range g.ByPeriod {
			visits := make([]ClassroomVisit, 0, len(classrooms))
			for _, ch := range classrooms {
				c := arena.classroom(ch)
				visits = append(visits, ClassroomVisit{
					Period:       c.Period,
					CleanName:    c.CleanName,
					OriginalName: c.OriginalName,
					IsSpecial:    c.IsSpecial,
					Tickets:      renderTickets(arena, c),
				})
			}
			byPeriod[p] = visits
		}
		out[i] = DeliveryGroupPlan{Code: g.Code, IsSerenading: g.IsSerenading, ByPeriod: byPeriod}
	}
	return out
}

// renderTickets returns c's tickets in stable output order: grouped by
// recipient, then by item type (spec.md §6).
func renderTickets(arena *sortArena, c *Classroom) []PlacedTicket {
	handles := append([]TicketHandle(nil), c.TicketHandles()...)
	sort.SliceStable(handles, func(i, j int) bool {
		a, b := arena.ticket(handles[i]), arena.ticket(handles[j])
		if a.RecipientID != b.RecipientID {
			return a.RecipientID < b.RecipientID
		}
		return a.ItemType < b.ItemType
	})
	out := make([]PlacedTicket, len(handles))
	for i, h := range handles {
		t := arena.ticket(h)
		out[i] = PlacedTicket{TicketID: t.ID, RecipientID: t.RecipientID, ItemType: t.ItemType}
	}
	return out
}
