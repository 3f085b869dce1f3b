package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/insights"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// InsightsHandler serves range-scoped aggregates over the pain history.
// Everything here is derived per request; nothing is persisted.
type InsightsHandler struct {
	store store.Store
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(st store.Store) *InsightsHandler {
	return &InsightsHandler{store: st}
}

func (h *InsightsHandler) load(c *gin.Context) ([]store.PainLogEntry, insights.Range, bool) {
	userID := middleware.GetUserID(c)

	start, end, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, insights.Range{}, false
	}

	entries, err := h.store.FetchRange(c.Request.Context(), userID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch entries"})
		return nil, insights.Range{}, false
	}

	return entries, insights.Range{Start: start, End: end}, true
}

// Summary returns the aggregate statistics for the window
func (h *InsightsHandler) Summary(c *gin.Context) {
	entries, rng, ok := h.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"range":   rng,
		"summary": insights.Summarize(entries, rng),
	})
}

// Series returns the chart points for the window
func (h *InsightsHandler) Series(c *gin.Context) {
	entries, rng, ok := h.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"range":  rng,
		"points": insights.ToSeries(entries, rng),
	})
}

// Report returns the doctor-summary as plain text for copy or print
func (h *InsightsHandler) Report(c *gin.Context) {
	entries, rng, ok := h.load(c)
	if !ok {
		return
	}

	summary := insights.Summarize(entries, rng)
	c.String(http.StatusOK, insights.FormatReport(summary, rng))
}
