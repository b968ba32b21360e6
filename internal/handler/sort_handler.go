package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosehill-valentines/ticket-sorter/internal/dto"
	"github.com/rosehill-valentines/ticket-sorter/internal/service"
	appErrors "github.com/rosehill-valentines/ticket-sorter/pkg/errors"
	"github.com/rosehill-valentines/ticket-sorter/pkg/export"
	"github.com/rosehill-valentines/ticket-sorter/pkg/response"
	"github.com/rosehill-valentines/ticket-sorter/pkg/storage"
)

// SortHandler exposes the ticket-sorting engine over HTTP.
type SortHandler struct {
	service *service.SortService
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
}

// NewSortHandler constructs a sort handler.
func NewSortHandler(svc *service.SortService) *SortHandler {
	return &SortHandler{service: svc}
}

// WithExportStorage attaches an at-rest copy + signed-download-link layer
// to the export endpoints. Left unattached, ExportCSV/ExportPDF simply
// stream the rendered file without persisting or signing it.
func (h *SortHandler) WithExportStorage(store *storage.LocalStorage, signer *storage.SignedURLSigner) *SortHandler {
	h.storage = store
	h.signer = signer
	return h
}

// persistExport saves the rendered export under the run's ID and, when a
// signer is attached, sets an X-Download-Url response header carrying the
// signed, time-limited token from SignedURLSigner.Generate (the bare token,
// not a full URL). Storage or signing failures are silently skipped.
func (h *SortHandler) persistExport(c *gin.Context, runID, extension string, body []byte) {
	if h.storage == nil {
		return
	}
	filename := fmt.Sprintf("%s.%s", runID, extension)
	if _, err := h.storage.Save(filename, body); err != nil {
		return
	}
	if h.signer == nil {
		return
	}
	token, _, err := h.signer.Generate(runID, filename)
	if err != nil {
		return
	}
	c.Header("X-Download-Url", token)
}

// Run godoc
// @Summary Sort a ticket batch into a delivery plan
// @Tags Sort
// @Accept json
// @Produce json
// @Param payload body dto.SortRequest true "Ticket batch and run configuration"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /sort [post]
func (h *SortHandler) Run(c *gin.Context) {
	var req dto.SortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Get godoc
// @Summary Fetch a previously computed plan
// @Tags Sort
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sort/{runId} [get]
func (h *SortHandler) Get(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Resort godoc
// @Summary Enqueue a background re-run of the sort engine over a stored batch
// @Tags Sort
// @Accept json
// @Produce json
// @Param runId path string true "Run ID"
// @Param payload body dto.ResortRequest true "New run configuration"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sort/{runId}/resort [post]
func (h *SortHandler) Resort(c *gin.Context) {
	var req dto.ResortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.Resort(c.Request.Context(), c.Param("runId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, resp)
}

// ExportCSV godoc
// @Summary Export a plan's classroom visits as CSV
// @Tags Sort
// @Produce text/csv
// @Param runId path string true "Run ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /sort/{runId}/export.csv [get]
func (h *SortHandler) ExportCSV(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	dataset := visitDataset(resp)
	body, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
		return
	}
	h.persistExport(c, resp.RunID, "csv", body)
	c.Data(http.StatusOK, "text/csv", body)
}

// ExportPDF godoc
// @Summary Export a plan's classroom visits as PDF
// @Tags Sort
// @Produce application/pdf
// @Param runId path string true "Run ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /sort/{runId}/export.pdf [get]
func (h *SortHandler) ExportPDF(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	dataset := visitDataset(resp)
	body, err := export.NewPDFExporter().Render(dataset, "Delivery plan "+resp.RunID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
		return
	}
	h.persistExport(c, resp.RunID, "pdf", body)
	c.Data(http.StatusOK, "application/pdf", body)
}

// visitDataset flattens a sort response into one row per ticket, in the
// shape both the CSV and PDF exporters expect.
func visitDataset(resp *dto.SortResponse) export.Dataset {
	headers := []string{"group", "period", "classroom", "ticketId", "recipientId", "itemType"}
	rows := make([]map[string]string, 0)
	for _, groups := range [][]dto.DeliveryGroupResponse{resp.SerenadingGroups, resp.NonSerenadingGroups} {
		for _, g := range groups {
			for period, visits := range g.ByPeriod {
				for _, v := range visits {
					for _, t := range v.Tickets {
						rows = append(rows, map[string]string{
							"group":       g.Code,
							"period":      period,
							"classroom":   v.CleanName,
							"ticketId":    t.TicketID,
							"recipientId": t.RecipientID,
							"itemType":    t.ItemType,
						})
					}
				}
			}
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
