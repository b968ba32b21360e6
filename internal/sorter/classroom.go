package sorter

import "regexp"

// classroomSubstitutions are fixed name rewrites applied before any other
// normalisation rule, grounded in
// original_source/ticketing/ticket_sorter.py's Classroom.SUBSTITUTIONS.
var classroomSubstitutions = map[string]string{
	"LIBA": "B101",
	"LIBB": "B102",
	"LIBC": "B103",
	"LIBD": "B104",
}

// dotRE strips every '.' from a raw name before further cleaning.
var dotRE = regexp.MustCompile(`\.`)

// gPrefixRE rewrites a capital letter immediately followed by 'G' into that
// letter plus '0' (EG04 -> E004), matching Classroom.get_clean_name's
// re.sub("([A-Z])G", r"\g<1>0", ...).
var gPrefixRE = regexp.MustCompile(`([A-Z])G`)

// Validity classification regexes, grounded in
// original_source/ticketing/timetable_parser.py's room_format:
//
//	r"[A-Z][G\d].?\d\d\Z|LIB[A-D]\Z|OVAL[A-D]\Z|OVLJ|POOL"
//
// spec.md §4.1 states the Special branch as `LIB[A-D]Y?` (an optional
// trailing Y not present in the concrete regex above); the original source
// is silent on why, spec.md is the newer document, so the Y? is kept as
// spec.md states it (documented open-question decision, SPEC_FULL.md §4).
var (
	normalRE  = regexp.MustCompile(`^[A-Z][G0-9].?[0-9]{1,2}$`)
	specialRE = regexp.MustCompile(`^LIB[A-D]Y?$`)
	badRE     = regexp.MustCompile(`^(OVAL[A-D]|OVLJ|POOL)$`)
)

// normaliseClassroomName implements spec.md §4.1: it derives a clean name
// from a raw timetable string and classifies it. The original string is
// never consulted again after this point; only the clean name is used for
// keying and matching.
func normaliseClassroomName(raw string) (clean string, validity ClassroomValidity) {
	if sub, ok := classroomSubstitutions[raw]; ok {
		return sub, ValidityNormal
	}

	clean = dotRE.ReplaceAllString(raw, "")
	clean = gPrefixRE.ReplaceAllString(clean, "${1}0")

	switch {
	case normalRE.MatchString(clean):
		return clean, ValidityNormal
	case specialRE.MatchString(clean):
		return clean, ValiditySpecial
	case badRE.MatchString(clean):
		return clean, ValidityBad
	default:
		return clean, ValidityInvalid
	}
}

// resolveCandidate normalises one of a ticket's four raw classroom names and
// interns the resulting classroom in the arena, unless it's Invalid (in
// which case the ticket simply has no candidate at that period, per
// spec.md §4.2).
func resolveCandidate(a *sortArena, period Period, raw string) (ClassroomHandle, ClassroomValidity) {
	clean, validity := normaliseClassroomName(raw)
	if validity == ValidityInvalid {
		return noClassroom, validity
	}
	key := ClassroomKey{Period: period, CleanName: clean, Special: false}
	h := a.internClassroom(key, raw, validity)
	return h, validity
}

// TicketInput is the external-facing shape a caller supplies to Sort: a
// ticket plus its four raw candidate classroom names, one per period
// (spec.md §6).
type TicketInput struct {
	ID            string
	RecipientID   string
	ItemType      ItemType
	RawClassrooms [4]string // index 0 = period 1, ... index 3 = period 4
	SSPeriod      Period    // 0 unless ItemType == ItemSpecialSerenade
}

// buildArena constructs a fresh arena and ticket set from inputs, applying
// the normaliser to every raw candidate name (spec.md §4.2). Entirely
// invalid tickets (no available period after normalisation, or a
// SpecialSerenade with no legal ssPeriod) are reported via diagnostics and
// excluded from the returned handle list. A SpecialSerenade without a legal
// ssPeriod is rejected before any arena ticket is allocated; a ticket with no
// surviving candidate stays in the arena's memory, owning zero candidates.
//
// Classrooms are interned here but left with an empty ticket set: spec.md
// §4.3's two-pass orchestration needs a classroom's ticket membership to
// reflect only the population considered by the current pass (pass 1:
// serenades only), not every ticket that could ever candidate it. Call
// populateClassrooms for a pass's handle set before running distribution or
// elimination over it.
func buildArena(inputs []TicketInput) (*sortArena, []TicketHandle, []Diagnostic) {
	arena := newSortArena()
	handles := make([]TicketHandle, 0, len(inputs))
	var diags []Diagnostic

	for _, in := range inputs {
		if in.ItemType == ItemSpecialSerenade && !in.SSPeriod.valid() {
			diags = append(diags, Diagnostic{
				Code:     DiagInvalidTicket,
				Message:  "special serenade has no legal ssPeriod",
				TicketID: in.ID,
			})
			continue
		}

		th := arena.newTicket(in.ID, in.RecipientID, in.ItemType, in.SSPeriod)
		t := arena.ticket(th)

		var available PeriodMask
		for _, p := range Periods {
			raw := in.RawClassrooms[p-1]
			ch, validity := resolveCandidate(arena, p, raw)
			t.Candidates[p-1] = ch
			if validity != ValidityInvalid {
				available = available.Set(p)
			}
		}
		t.Available = available

		if available == 0 {
			diags = append(diags, Diagnostic{
				Code:     DiagInvalidTicket,
				Message:  "no candidate period survived normalisation",
				TicketID: in.ID,
			})
			continue
		}

		handles = append(handles, th)
	}

	return arena, handles, diags
}

// populateClassrooms adds each ticket in handles to every classroom it is
// currently available at. Grounded in
// ClassroomList.from_tickets' existing_tickets skip-and-extend behaviour:
// calling this once with the serenade subset, running pass 1, then again
// with the non-serenade remainder reproduces the original's two-pass
// classroom population exactly (a ticket already added is a no-op, since
// Classroom.addTicket dedupes).
func populateClassrooms(arena *sortArena, handles []TicketHandle) {
	for _, th := range handles {
		t := arena.ticket(th)
		for _, p := range Periods {
			if !t.Available.Has(p) {
				continue
			}
			if ch := t.candidateAt(p); ch != noClassroom {
				arena.classroom(ch).addTicket(th)
			}
		}
	}
}

// classroomsByPeriod groups the given classroom handles by period, matching
// ClassroomList.grouped_by_period. The returned map always has all four
// period keys (possibly with nil lists); callers iterate it via Periods for a
// fixed order.
func classroomsByPeriod(arena *sortArena, handles []ClassroomHandle) map[Period][]ClassroomHandle {
	grouped := map[Period][]ClassroomHandle{Period1: nil, Period2: nil, Period3: nil, Period4: nil}
	for _, h := range handles {
		c := arena.classroom(h)
		grouped[c.Period] = append(grouped[c.Period], h)
	}
	return grouped
}
