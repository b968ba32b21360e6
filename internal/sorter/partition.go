package sorter

import (
	"sort"
	"strconv"
)

// classroomSortBlock returns the geographic block a classroom sorts under.
// An extra-special duplicate classroom's block is shifted by half the
// geographic order (spec.md §4.4/§9) so a delivery group is less likely to
// visit the same physical room twice back-to-back for a split special
// serenade.
func classroomSortBlock(c *Classroom) byte {
	b := blockOf(c.CleanName)
	if c.IsSpecial {
		return shiftedBlock(b)
	}
	return b
}

// orderByGeography sorts classrooms by block (in geographicOrder), then by
// clean name ascending within a block — spec.md §4.7 step 2, grounded in
// ClassroomList.grouped_by_geography / sorted_by_geography.
func orderByGeography(arena *sortArena, classrooms []ClassroomHandle) []ClassroomHandle {
	ordered := append([]ClassroomHandle(nil), classrooms...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := arena.classroom(ordered[i]), arena.classroom(ordered[j])
		bi, bj := blockIndex(classroomSortBlock(ci)), blockIndex(classroomSortBlock(cj))
		if bi != bj {
			return bi < bj
		}
		return ci.CleanName < cj.CleanName
	})
	return ordered
}

// splitConsecutive splits an ordered classroom list into k consecutive
// sub-lists via divmod, the first (len mod k) sub-lists getting one extra
// element — spec.md §4.7 step 3, grounded in ClassroomList.split.
func splitConsecutive(classrooms []ClassroomHandle, k int) [][]ClassroomHandle {
	n := len(classrooms)
	base, extra := n/k, n%k
	out := make([][]ClassroomHandle, k)
	idx := 0
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		out[i] = append([]ClassroomHandle(nil), classrooms[idx:idx+size]...)
		idx += size
	}
	return out
}

func groupTicketTotal(arena *sortArena, group []ClassroomHandle) int {
	total := 0
	for _, h := range group {
		total += arena.classroom(h).NumTickets()
	}
	return total
}

func fullestGroupIndex(arena *sortArena, groups [][]ClassroomHandle) int {
	best, bestVal := 0, groupTicketTotal(arena, groups[0])
	for i := 1; i < len(groups); i++ {
		if v := groupTicketTotal(arena, groups[i]); v > bestVal {
			best, bestVal = i, v
		}
	}
	return best
}

func emptiestGroupIndex(arena *sortArena, groups [][]ClassroomHandle) int {
	best, bestVal := 0, groupTicketTotal(arena, groups[0])
	for i := 1; i < len(groups); i++ {
		if v := groupTicketTotal(arena, groups[i]); v < bestVal {
			best, bestVal = i, v
		}
	}
	return best
}

func cloneGroups(groups [][]ClassroomHandle) [][]ClassroomHandle {
	out := make([][]ClassroomHandle, len(groups))
	for i, g := range groups {
		out[i] = append([]ClassroomHandle(nil), g...)
	}
	return out
}

// rebalanceGroups implements spec.md §4.7 step 4: repeatedly shifts one
// classroom at a time from the fullest sub-list toward the emptiest,
// tracking the running minimum of (max-min) ticket range and accepting a
// move only when it strictly reduces that range. Once a local minimum is
// found the search continues 7 more iterations before giving up, then
// restores the best-seen partition by value — a deliberate guard against
// spurious early termination (spec.md §9), not a claim of optimality.
//
// Grounded in original_source/ticketing/ticket_sorter.py's
// PeriodGroupList.distribute_classrooms.
func rebalanceGroups(arena *sortArena, groups [][]ClassroomHandle) {
	searchDepth := 0
	minRange := -1
	best := cloneGroups(groups)

	for {
		fi := fullestGroupIndex(arena, groups)
		ei := emptiestGroupIndex(arena, groups)
		if minRange < 0 {
			minRange = groupTicketTotal(arena, groups[fi]) - groupTicketTotal(arena, groups[ei])
		}

		switch {
		case fi < ei:
			ok := true
			for idx := fi; idx < ei; idx++ {
				if len(groups[idx]) == 0 {
					ok = false
					break
				}
				last := groups[idx][len(groups[idx])-1]
				groups[idx] = groups[idx][:len(groups[idx])-1]
				groups[idx+1] = append([]ClassroomHandle{last}, groups[idx+1]...)
			}
			if !ok {
				searchDepth++
				if searchDepth >= 7 {
					goto restore
				}
				continue
			}
		case ei < fi:
			ok := true
			for idx := fi; idx > ei; idx-- {
				if len(groups[idx]) == 0 {
					ok = false
					break
				}
				first := groups[idx][0]
				groups[idx] = groups[idx][1:]
				groups[idx-1] = append(groups[idx-1], first)
			}
			if !ok {
				searchDepth++
				if searchDepth >= 7 {
					goto restore
				}
				continue
			}
		default:
			goto restore
		}

		{
			newFi := fullestGroupIndex(arena, groups)
			newEi := emptiestGroupIndex(arena, groups)
			newRange := groupTicketTotal(arena, groups[newFi]) - groupTicketTotal(arena, groups[newEi])
			if newRange < minRange {
				minRange = newRange
				searchDepth = 0
				best = cloneGroups(groups)
			} else {
				searchDepth++
				if searchDepth >= 7 {
					goto restore
				}
			}
		}
	}

restore:
	if best != nil {
		copy(groups, best)
	}
}

// partitionPeriod implements spec.md §4.7 steps 2-4 for one (period, pool):
// order by geography, split into k consecutive sub-lists, rebalance.
func partitionPeriod(arena *sortArena, classrooms []ClassroomHandle, k int) [][]ClassroomHandle {
	ordered := orderByGeography(arena, classrooms)
	groups := splitConsecutive(ordered, k)
	hasMultiClassroomGroup := false
	for _, g := range groups {
		if len(g) > 1 {
			hasMultiClassroomGroup = true
			break
		}
	}
	if hasMultiClassroomGroup {
		rebalanceGroups(arena, groups)
	}
	return groups
}

// splitPools partitions a period's live classrooms into the serenade-
// bearing pool and the non-serenade-only pool (spec.md §4.7 step 1).
func splitPools(arena *sortArena, classrooms []ClassroomHandle) (serenade, nonSerenade []ClassroomHandle) {
	for _, h := range classrooms {
		if classroomHasSerenade(arena, arena.classroom(h)) {
			serenade = append(serenade, h)
		} else {
			nonSerenade = append(nonSerenade, h)
		}
	}
	return
}

// DeliveryGroup is a team performing deliveries across all four periods.
type DeliveryGroup struct {
	Code         string
	IsSerenading bool
	ByPeriod     map[Period][]ClassroomHandle
}

func newDeliveryGroups(n int, serenading bool) []DeliveryGroup {
	prefix := "N"
	if serenading {
		prefix = "S"
	}
	groups := make([]DeliveryGroup, n)
	for i := range groups {
		groups[i] = DeliveryGroup{
			Code:         prefix + strconv.Itoa(i+1),
			IsSerenading: serenading,
			ByPeriod:     map[Period][]ClassroomHandle{},
		}
	}
	return groups
}

// assignPeriodGroups implements spec.md §4.7 step 5 for one period: the
// delivery group with the most tickets assigned so far (across prior
// periods) receives the emptiest remaining period group, second-fullest
// gets second-emptiest, and so on.
//
// Seen from the other end this is the same pairing: the least-loaded
// delivery group receives the heaviest period group. Grounded in the
// original's DeliveryGroupList.update / fullest_group / emptiest_group; it
// balances cumulative load across periods (a group that got a big period-1
// chunk is handed a small period-2 chunk).
func assignPeriodGroups(arena *sortArena, groups []DeliveryGroup, cumulative []int, periodGroups [][]ClassroomHandle, p Period) {
	dgOrder := make([]int, len(groups))
	for i := range dgOrder {
		dgOrder[i] = i
	}
	sort.SliceStable(dgOrder, func(i, j int) bool { return cumulative[dgOrder[i]] > cumulative[dgOrder[j]] })

	pgOrder := make([]int, len(periodGroups))
	for i := range pgOrder {
		pgOrder[i] = i
	}
	sort.SliceStable(pgOrder, func(i, j int) bool {
		return groupTicketTotal(arena, periodGroups[pgOrder[i]]) < groupTicketTotal(arena, periodGroups[pgOrder[j]])
	})

	for k := 0; k < len(groups); k++ {
		dgIdx, pgIdx := dgOrder[k], pgOrder[k]
		groups[dgIdx].ByPeriod[p] = periodGroups[pgIdx]
		cumulative[dgIdx] += groupTicketTotal(arena, periodGroups[pgIdx])
	}
}

// partitionIntoGroups implements all of C7: per-period pool splitting,
// geographic ordering, consecutive splitting, rebalancing, and delivery
// group assignment, for both the serenading and non-serenading group sets.
func partitionIntoGroups(arena *sortArena, live []ClassroomHandle, numSerenading, numNonSerenading int) (serenading, nonSerenading []DeliveryGroup) {
	serenading = newDeliveryGroups(numSerenading, true)
	nonSerenading = newDeliveryGroups(numNonSerenading, false)

	cumulS := make([]int, numSerenading)
	cumulN := make([]int, numNonSerenading)

	byPeriod := classroomsByPeriod(arena, live)
	for _, p := range Periods {
		serenPool, nonPool := splitPools(arena, byPeriod[p])

		serenPeriodGroups := partitionPeriod(arena, serenPool, numSerenading)
		assignPeriodGroups(arena, serenading, cumulS, serenPeriodGroups, p)

		nonPeriodGroups := partitionPeriod(arena, nonPool, numNonSerenading)
		assignPeriodGroups(arena, nonSerenading, cumulN, nonPeriodGroups, p)
	}

	return serenading, nonSerenading
}
