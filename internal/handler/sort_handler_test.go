package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosehill-valentines/ticket-sorter/internal/dto"
	"github.com/rosehill-valentines/ticket-sorter/internal/service"
	"github.com/rosehill-valentines/ticket-sorter/pkg/jobs"
	"github.com/rosehill-valentines/ticket-sorter/pkg/store"
)

func newTestSortHandler() *SortHandler {
	svc := service.NewSortService(store.NewMemoryStore(time.Hour), service.NewMetricsService(), nil, nil, time.Hour, jobs.QueueConfig{})
	return NewSortHandler(svc)
}

func validSortRequestBody() []byte {
	req := dto.SortRequest{
		Tickets: []dto.SortTicketRequest{
			{ID: "t1", RecipientID: "r1", ItemType: "Rose", RawClassrooms: []string{"A101", "B102", "C103", "D104"}},
		},
		NumSerenadingGroups:    1,
		NumNonSerenadingGroups: 1,
	}
	body, _ := json.Marshal(req)
	return body
}

func TestSortHandlerRunCreatesPlan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSortHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/sort", bytes.NewReader(validSortRequestBody()))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Run(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data dto.SortResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.RunID)
	assert.Equal(t, 1, envelope.Data.Stats.TicketCount)
}

func TestSortHandlerRunRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSortHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/sort", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Run(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSortHandlerGetUnknownRunReturnsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSortHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/sort/missing", nil)
	c.Params = gin.Params{{Key: "runId", Value: "missing"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSortHandlerRunThenGetRoundTrips(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSortHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/sort", bytes.NewReader(validSortRequestBody()))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Run(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data dto.SortResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/sort/"+envelope.Data.RunID, nil)
	c2.Params = gin.Params{{Key: "runId", Value: envelope.Data.RunID}}

	h.Get(c2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestSortHandlerExportCSVUnknownRunReturnsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestSortHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/sort/missing/export.csv", nil)
	c.Params = gin.Params{{Key: "runId", Value: "missing"}}

	h.ExportCSV(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
