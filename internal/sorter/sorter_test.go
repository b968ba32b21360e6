package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findPlacement scans every group/period/visit in plan for ticketID, returning
// the period it was delivered in, the classroom's clean name, and whether it
// was found at all.
func findPlacement(plan *DeliveryPlan, ticketID string) (period Period, cleanName string, found bool) {
	all := append(append([]DeliveryGroupPlan{}, plan.SerenadingGroups...), plan.NonSerenadingGroups...)
	for _, g := range all {
		for p, visits := range g.ByPeriod {
			for _, v := range visits {
				for _, pt := range v.Tickets {
					if pt.TicketID == ticketID {
						return p, v.CleanName, true
					}
				}
			}
		}
	}
	return 0, "", false
}

func groupByCode(groups []DeliveryGroupPlan, code string) (DeliveryGroupPlan, bool) {
	for _, g := range groups {
		if g.Code == code {
			return g, true
		}
	}
	return DeliveryGroupPlan{}, false
}

func TestSortS1TwoSerenadesSameRecipientDistinctPeriods(t *testing.T) {
	inputs := []TicketInput{
		{ID: "s1", RecipientID: "r1", ItemType: ItemSerenade, RawClassrooms: [4]string{"F101", "F202", "F303", "F404"}},
		{ID: "s2", RecipientID: "r1", ItemType: ItemSerenade, RawClassrooms: [4]string{"F101", "F202", "F303", "F404"}},
	}
	plan, diags, err := Sort(inputs, SortRequest{NumSerenadingGroups: 1, NumNonSerenadingGroups: 1})
	require.NoError(t, err)
	assert.Empty(t, diags)

	p1, _, found1 := findPlacement(plan, "s1")
	require.True(t, found1)
	p2, _, found2 := findPlacement(plan, "s2")
	require.True(t, found2)
	assert.NotEqual(t, p1, p2)
}

func TestSortS2SpecialSerenadePinnedToBadRoom(t *testing.T) {
	inputs := []TicketInput{
		{
			ID:            "ss1",
			RecipientID:   "r1",
			ItemType:      ItemSpecialSerenade,
			RawClassrooms: [4]string{"A101", "B202", "POOL", "D404"},
			SSPeriod:      Period3,
		},
	}
	plan, diags, err := Sort(inputs, SortRequest{
		NumSerenadingGroups:    1,
		NumNonSerenadingGroups: 1,
		ExtraSpecialSerenades:  true,
	})
	require.NoError(t, err)
	// Only capacity diagnostics: serenade pool empty in periods 1, 2 and 4,
	// non-serenade pool empty in all four periods.
	assert.Len(t, diags, 7)
	for _, d := range diags {
		assert.Equal(t, DiagInsufficientCapacity, d.Code)
	}

	period, cleanName, found := findPlacement(plan, "ss1")
	require.True(t, found)
	assert.Equal(t, Period3, period)
	assert.Equal(t, "POOL", cleanName)
}

func TestSortS6InvalidTicketReportedAndExcluded(t *testing.T) {
	inputs := []TicketInput{
		{ID: "bad1", RecipientID: "r1", ItemType: ItemRose, RawClassrooms: [4]string{"CANTEEN", "CANTEEN", "CANTEEN", "CANTEEN"}},
	}
	plan, diags, err := Sort(inputs, SortRequest{NumSerenadingGroups: 1, NumNonSerenadingGroups: 1})
	require.NoError(t, err)

	found := false
	for _, d := range diags {
		if d.TicketID == "bad1" {
			found = true
			assert.Equal(t, DiagInvalidTicket, d.Code)
		}
	}
	assert.True(t, found, "expected an InvalidTicket diagnostic for bad1")

	_, _, placed := findPlacement(plan, "bad1")
	assert.False(t, placed)
}

func TestSortTotalityGroupCountAndPoolPurity(t *testing.T) {
	inputs := []TicketInput{
		{ID: "rose1", RecipientID: "r1", ItemType: ItemRose, RawClassrooms: [4]string{"A101", "CANTEEN", "CANTEEN", "CANTEEN"}},
		{ID: "choc1", RecipientID: "r2", ItemType: ItemChocolate, RawClassrooms: [4]string{"CANTEEN", "B202", "CANTEEN", "CANTEEN"}},
		{ID: "ser1", RecipientID: "r3", ItemType: ItemSerenade, RawClassrooms: [4]string{"CANTEEN", "CANTEEN", "C303", "CANTEEN"}},
	}
	req := SortRequest{NumSerenadingGroups: 1, NumNonSerenadingGroups: 1}
	plan, diags, err := Sort(inputs, req)
	require.NoError(t, err)
	// Only capacity diagnostics: serenade pool empty in periods 1, 2 and 4,
	// non-serenade pool empty in periods 3 and 4.
	assert.Len(t, diags, 5)
	for _, d := range diags {
		assert.Equal(t, DiagInsufficientCapacity, d.Code)
	}

	// invariant 6: group count and codes
	require.Len(t, plan.SerenadingGroups, 1)
	require.Len(t, plan.NonSerenadingGroups, 1)
	s1, ok := groupByCode(plan.SerenadingGroups, "S1")
	require.True(t, ok)
	n1, ok := groupByCode(plan.NonSerenadingGroups, "N1")
	require.True(t, ok)

	// invariant 1: totality
	for _, id := range []string{"rose1", "choc1", "ser1"} {
		_, _, found := findPlacement(plan, id)
		assert.True(t, found, "ticket %s missing from plan", id)
	}

	// invariant 7: pool purity
	for _, visits := range s1.ByPeriod {
		for _, v := range visits {
			hasSerenade := false
			for _, pt := range v.Tickets {
				if pt.ItemType.IsSerenade() {
					hasSerenade = true
				}
			}
			assert.True(t, hasSerenade, "serenading group visit %q has no serenade ticket", v.CleanName)
		}
	}
	for _, visits := range n1.ByPeriod {
		for _, v := range visits {
			for _, pt := range v.Tickets {
				assert.False(t, pt.ItemType.IsSerenade(), "non-serenading group visit %q contains a serenade", v.CleanName)
			}
		}
	}
}

func TestSortIsDeterministic(t *testing.T) {
	inputs := []TicketInput{
		{ID: "s1", RecipientID: "r1", ItemType: ItemSerenade, RawClassrooms: [4]string{"F101", "F202", "F303", "F404"}},
		{ID: "s2", RecipientID: "r2", ItemType: ItemSerenade, RawClassrooms: [4]string{"F101", "F202", "F303", "F404"}},
		{ID: "r1t", RecipientID: "r3", ItemType: ItemRose, RawClassrooms: [4]string{"A101", "A102", "A103", "A104"}},
	}
	req := SortRequest{NumSerenadingGroups: 2, NumNonSerenadingGroups: 2}

	plan1, diags1, err1 := Sort(inputs, req)
	require.NoError(t, err1)
	plan2, diags2, err2 := Sort(inputs, req)
	require.NoError(t, err2)

	assert.Equal(t, plan1, plan2)
	assert.Equal(t, diags1, diags2)
}

func TestSortRequestValidate(t *testing.T) {
	assert.Error(t, SortRequest{NumSerenadingGroups: 0, NumNonSerenadingGroups: 1}.Validate())
	assert.Error(t, SortRequest{NumSerenadingGroups: 1, NumNonSerenadingGroups: 0}.Validate())
	assert.Error(t, SortRequest{NumSerenadingGroups: 1, NumNonSerenadingGroups: 1, MaxSerenadesPerClass: -1}.Validate())
	assert.NoError(t, SortRequest{NumSerenadingGroups: 1, NumNonSerenadingGroups: 1}.Validate())
}

func TestSortRejectsInvalidRequest(t *testing.T) {
	_, _, err := Sort(nil, SortRequest{})
	assert.Error(t, err)
}
