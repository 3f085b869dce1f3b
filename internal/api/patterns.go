package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/patterns"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// PatternsHandler exposes the habit summaries behind entry pre-fill and
// typing suggestions.
type PatternsHandler struct {
	store store.Store
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(st store.Store) *PatternsHandler {
	return &PatternsHandler{store: st}
}

// history loads the trailing 90 days, the window pattern mining looks at.
func (h *PatternsHandler) history(c *gin.Context) ([]store.PainLogEntry, bool) {
	userID := middleware.GetUserID(c)

	now := time.Now()
	entries, err := h.store.FetchRange(c.Request.Context(), userID, now.AddDate(0, 0, -90), now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch entries"})
		return nil, false
	}
	return entries, true
}

// Get returns the user's mined patterns
func (h *PatternsHandler) Get(c *gin.Context) {
	entries, ok := h.history(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, patterns.ComputePatterns(entries))
}

// Suggestions returns typing suggestions for a draft message
func (h *PatternsHandler) Suggestions(c *gin.Context) {
	entries, ok := h.history(c)
	if !ok {
		return
	}

	draft := c.Query("draft")
	c.JSON(http.StatusOK, gin.H{
		"suggestions": patterns.ContextualSuggestions(draft, entries, time.Now()),
	})
}
