package dto

// SortTicketRequest is one purchased item as it arrives over the wire: a
// recipient, an item type, and its four timetabled candidate classrooms (one
// per period, raw/uncleaned names).
type SortTicketRequest struct {
	ID            string   `json:"id" validate:"required"`
	RecipientID   string   `json:"recipientId" validate:"required"`
	ItemType      string   `json:"itemType" validate:"required,oneof=Rose Chocolate Serenade SpecialSerenade"`
	RawClassrooms []string `json:"rawClassrooms" validate:"required,len=4"`
	SSPeriod      int      `json:"ssPeriod" validate:"omitempty,min=1,max=4"`
}

// SortRequest is the POST /sort request body: the ticket batch plus the
// run's configuration (spec.md §3).
type SortRequest struct {
	Tickets                           []SortTicketRequest `json:"tickets" validate:"required,min=1,dive"`
	NumSerenadingGroups               int                 `json:"numSerenadingGroups" validate:"required,min=1"`
	NumNonSerenadingGroups            int                 `json:"numNonSerenadingGroups" validate:"required,min=1"`
	MaxSerenadesPerClass              int                 `json:"maxSerenadesPerClass" validate:"omitempty,min=0"`
	MaxNonSerenadesPerSerenadingClass int                 `json:"maxNonSerenadesPerSerenadingClass" validate:"omitempty,min=0"`
	ExtraSpecialSerenades             bool                `json:"extraSpecialSerenades"`
	EnforceDistribution               bool                `json:"enforceDistribution"`
}

// PlacedTicketResponse is one ticket as it lands inside a classroom visit.
type PlacedTicketResponse struct {
	TicketID    string `json:"ticketId"`
	RecipientID string `json:"recipientId"`
	ItemType    string `json:"itemType"`
}

// ClassroomVisitResponse is one classroom a delivery group visits during one
// period.
type ClassroomVisitResponse struct {
	Period       int                    `json:"period"`
	CleanName    string                 `json:"cleanName"`
	OriginalName string                 `json:"originalName"`
	IsSpecial    bool                   `json:"isSpecial"`
	Tickets      []PlacedTicketResponse `json:"tickets"`
}

// DeliveryGroupResponse is one delivery group's full schedule, keyed by
// period (1-4) in the JSON object's string keys.
type DeliveryGroupResponse struct {
	Code         string                              `json:"code"`
	IsSerenading bool                                `json:"isSerenading"`
	ByPeriod     map[string][]ClassroomVisitResponse `json:"byPeriod"`
}

// DiagnosticResponse surfaces one recoverable diagnostic (spec.md §7).
type DiagnosticResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	TicketID string `json:"ticketId,omitempty"`
}

// SortRunStats summarises one sort run for the caller: how long it took and
// how many tickets landed where.
type SortRunStats struct {
	TicketCount     int   `json:"ticketCount"`
	PlacedCount     int   `json:"placedCount"`
	DiagnosticCount int   `json:"diagnosticCount"`
	DurationMillis  int64 `json:"durationMillis"`
}

// SortResponse is the POST /sort and GET /sort/{id} response body.
type SortResponse struct {
	RunID               string                  `json:"runId"`
	SerenadingGroups    []DeliveryGroupResponse `json:"serenadingGroups"`
	NonSerenadingGroups []DeliveryGroupResponse `json:"nonSerenadingGroups"`
	Diagnostics         []DiagnosticResponse    `json:"diagnostics"`
	Stats               SortRunStats            `json:"stats"`
}

// ResortRequest re-runs a previously stored ticket batch with a new
// configuration, without requiring the caller to resend every ticket
// (spec.md's Non-goals exclude incremental resorting; this re-runs the full
// algorithm from scratch over the stored batch, it does not patch a plan).
type ResortRequest struct {
	NumSerenadingGroups               int  `json:"numSerenadingGroups" validate:"required,min=1"`
	NumNonSerenadingGroups            int  `json:"numNonSerenadingGroups" validate:"required,min=1"`
	MaxSerenadesPerClass              int  `json:"maxSerenadesPerClass" validate:"omitempty,min=0"`
	MaxNonSerenadesPerSerenadingClass int  `json:"maxNonSerenadesPerSerenadingClass" validate:"omitempty,min=0"`
	ExtraSpecialSerenades             bool `json:"extraSpecialSerenades"`
	EnforceDistribution               bool `json:"enforceDistribution"`
}

// ResortAcceptedResponse is the POST /sort/{id}/resort response body: the
// resort runs as a queued background job (pkg/jobs.Queue), so the caller
// gets an acknowledgement, not the plan itself. Poll GET /sort/{id} for the
// updated result.
type ResortAcceptedResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}
