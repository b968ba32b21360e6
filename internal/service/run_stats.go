package service

import "github.com/rosehill-valentines/ticket-sorter/internal/sorter"

// GroupStats is one delivery group's visit/ticket breakdown, the Go
// equivalent of the original TicketSorter.print_statistics' per-group lines.
type GroupStats struct {
	Code         string
	Classrooms   int
	Serenades    int
	NonSerenades int
}

// RunStats is the structured counterpart of TicketSorter.print_statistics:
// classroom visits per period, ticket counts per item type, a classroom-size
// histogram, and per-group serenade/non-serenade totals for both pools.
type RunStats struct {
	VisitsPerPeriod     map[sorter.Period]int
	TicketsPerItemType  map[string]int
	ClassroomSizeHisto  map[int]int
	SerenadingGroups    []GroupStats
	NonSerenadingGroups []GroupStats
}

// RunResult bundles a computed plan with its diagnostics and the derived
// statistics logged after every run, mirroring the print_statistics call the
// original makes right after sorting.
type RunResult struct {
	Plan        *sorter.DeliveryPlan
	Stats       RunStats
	Diagnostics []sorter.Diagnostic
}

// computeRunStats walks plan once and tallies the same breakdowns the
// original prints: visits per period, tickets per item type, a histogram of
// classroom sizes, and per-group totals.
func computeRunStats(plan *sorter.DeliveryPlan) RunStats {
	stats := RunStats{
		VisitsPerPeriod:    make(map[sorter.Period]int),
		TicketsPerItemType: make(map[string]int),
		ClassroomSizeHisto: make(map[int]int),
	}

	tallyGroups := func(groups []sorter.DeliveryGroupPlan) []GroupStats {
		out := make([]GroupStats, 0, len(groups))
		for _, g := range groups {
			gs := GroupStats{Code: g.Code}
			for period, visits := range g.ByPeriod {
				stats.VisitsPerPeriod[period] += len(visits)
				for _, v := range visits {
					gs.Classrooms++
					stats.ClassroomSizeHisto[len(v.Tickets)]++
					for _, t := range v.Tickets {
						stats.TicketsPerItemType[t.ItemType.String()]++
						if t.ItemType.IsSerenade() {
							gs.Serenades++
						} else {
							gs.NonSerenades++
						}
					}
				}
			}
			out = append(out, gs)
		}
		return out
	}

	stats.SerenadingGroups = tallyGroups(plan.SerenadingGroups)
	stats.NonSerenadingGroups = tallyGroups(plan.NonSerenadingGroups)
	return stats
}
