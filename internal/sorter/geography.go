package sorter

import "strings"

// geographicOrder lists classroom block letters in physical adjacency
// order (earlier = physically closer), grounded verbatim in
// original_source/ticketing/ticket_sorter.py's CLASSROOM_GEOGRAPHIC_ORDER.
const geographicOrder = "LBCDAEFGOPTJHIRX"

// blockOf returns the geographic block letter of a clean classroom name:
// its first character, matching Classroom.clean_name[0] in the original.
func blockOf(cleanName string) byte {
	if cleanName == "" {
		return 0
	}
	return cleanName[0]
}

// blockIndex returns the position of block in geographicOrder, or -1 if the
// block letter isn't part of the fixed order. No error is raised for an
// unknown block: orderByGeography sorts such classrooms ahead of every known
// block, and shiftedBlock returns them unshifted.
func blockIndex(block byte) int {
	return strings.IndexByte(geographicOrder, block)
}

// shiftedBlock returns the block letter half way around geographicOrder
// from block, wrapping. Used by the special-classroom duplicate heuristic
// (spec.md §4.4/§9 open question 1): a deliberately unverified heuristic,
// not claimed optimal, that exists only so a delivery group doesn't visit
// the same physical room twice back-to-back for an extra-special split.
func shiftedBlock(block byte) byte {
	idx := blockIndex(block)
	if idx < 0 {
		return block
	}
	shift := len(geographicOrder) / 2
	return geographicOrder[(idx+shift)%len(geographicOrder)]
}
