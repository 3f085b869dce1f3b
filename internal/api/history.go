package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// HistoryHandler serves the companion transcript
type HistoryHandler struct {
	store store.Store
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(st store.Store) *HistoryHandler {
	return &HistoryHandler{store: st}
}

// Get returns the most recent transcript lines in chronological order
func (h *HistoryHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}

	messages, err := h.store.RecentMessages(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
