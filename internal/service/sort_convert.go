package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/rosehill-valentines/ticket-sorter/internal/dto"
	"github.com/rosehill-valentines/ticket-sorter/internal/sorter"
	"github.com/rosehill-valentines/ticket-sorter/pkg/store"
)

func itemTypeFromString(raw string) (sorter.ItemType, error) {
	switch raw {
	case "Rose":
		return sorter.ItemRose, nil
	case "Chocolate":
		return sorter.ItemChocolate, nil
	case "Serenade":
		return sorter.ItemSerenade, nil
	case "SpecialSerenade":
		return sorter.ItemSpecialSerenade, nil
	default:
		return 0, fmt.Errorf("unknown item type %q", raw)
	}
}

func ticketInputsFromDTO(in []dto.SortTicketRequest) ([]sorter.TicketInput, error) {
	out := make([]sorter.TicketInput, 0, len(in))
	for _, t := range in {
		itemType, err := itemTypeFromString(t.ItemType)
		if err != nil {
			return nil, fmt.Errorf("ticket %s: %w", t.ID, err)
		}
		input := sorter.TicketInput{
			ID:          t.ID,
			RecipientID: t.RecipientID,
			ItemType:    itemType,
			SSPeriod:    sorter.Period(t.SSPeriod),
		}
		copy(input.RawClassrooms[:], t.RawClassrooms)
		out = append(out, input)
	}
	return out, nil
}

func sortRequestFromDTO(req dto.SortRequest) sorter.SortRequest {
	return sorter.SortRequest{
		NumSerenadingGroups:               req.NumSerenadingGroups,
		NumNonSerenadingGroups:            req.NumNonSerenadingGroups,
		MaxSerenadesPerClass:              req.MaxSerenadesPerClass,
		MaxNonSerenadesPerSerenadingClass: req.MaxNonSerenadesPerSerenadingClass,
		ExtraSpecialSerenades:             req.ExtraSpecialSerenades,
		EnforceDistribution:               req.EnforceDistribution,
	}
}

func renderResponse(run store.Run, duration time.Duration) *dto.SortResponse {
	diagnostics := make([]dto.DiagnosticResponse, len(run.Diagnostics))
	for i, d := range run.Diagnostics {
		diagnostics[i] = dto.DiagnosticResponse{Code: string(d.Code), Message: d.Message, TicketID: d.TicketID}
	}

	placed := 0
	if run.Plan != nil {
		placed = countPlaced(run.Plan)
	}

	resp := &dto.SortResponse{
		RunID:       run.RunID,
		Diagnostics: diagnostics,
		Stats: dto.SortRunStats{
			TicketCount:     len(run.Tickets),
			PlacedCount:     placed,
			DiagnosticCount: len(diagnostics),
			DurationMillis:  duration.Milliseconds(),
		},
	}
	if run.Plan != nil {
		resp.SerenadingGroups = renderGroupsDTO(run.Plan.SerenadingGroups)
		resp.NonSerenadingGroups = renderGroupsDTO(run.Plan.NonSerenadingGroups)
	}
	return resp
}

func renderGroupsDTO(groups []sorter.DeliveryGroupPlan) []dto.DeliveryGroupResponse {
	out := make([]dto.DeliveryGroupResponse, len(groups))
	for i, g := range groups {
		byPeriod := make(map[string][]dto.ClassroomVisitResponse, len(g.ByPeriod))
		for p, visits := range g.ByPeriod {
			key := fmt.Sprintf("%d", int(p))
			rendered := make([]dto.ClassroomVisitResponse, len(visits))
			for j, v := range visits {
				tickets := make([]dto.PlacedTicketResponse, len(v.Tickets))
				for k, t := range v.Tickets {
					tickets[k] = dto.PlacedTicketResponse{
						TicketID:    t.TicketID,
						RecipientID: t.RecipientID,
						ItemType:    t.ItemType.String(),
					}
				}
				rendered[j] = dto.ClassroomVisitResponse{
					Period:       int(v.Period),
					CleanName:    v.CleanName,
					OriginalName: v.OriginalName,
					IsSpecial:    v.IsSpecial,
					Tickets:      tickets,
				}
			}
			byPeriod[key] = rendered
		}
		out[i] = dto.DeliveryGroupResponse{Code: g.Code, IsSerenading: g.IsSerenading, ByPeriod: byPeriod}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
