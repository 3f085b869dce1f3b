package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// LogsHandler serves the pain log CRUD endpoints
type LogsHandler struct {
	store store.Store
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(st store.Store) *LogsHandler {
	return &LogsHandler{store: st}
}

// parseRange reads the start/end query parameters as RFC 3339 timestamps.
// The window is half-open: start inclusive, end exclusive. Defaults to the
// trailing 30 days.
func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now

	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, errors.New("invalid start: expected RFC 3339 timestamp")
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, errors.New("invalid end: expected RFC 3339 timestamp")
		}
		end = t
	}
	if !start.Before(end) {
		return start, end, errors.New("start must be before end")
	}
	return start, end, nil
}

// List returns the user's entries inside the requested window
func (h *LogsHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	start, end, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.store.FetchRange(c.Request.Context(), userID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"start":   start,
		"end":     end,
	})
}

// CreateLogRequest is the manual entry form. Medications accepts either
// plain names or {name, effective} objects.
type CreateLogRequest struct {
	LoggedAt         *time.Time    `json:"logged_at"`
	PainLevel        *int          `json:"pain_level" binding:"omitempty,min=0,max=10"`
	Locations        []string      `json:"locations"`
	Triggers         []string      `json:"triggers"`
	Medications      []interface{} `json:"medications"`
	Symptoms         []string      `json:"symptoms"`
	Notes            string        `json:"notes"`
	FunctionalImpact string        `json:"functional_impact"`
	ImpactTags       []string      `json:"impact_tags"`
	SideEffects      string        `json:"side_effects"`
}

// Create saves a manual entry
func (h *LogsHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	impact, ok := store.ParseFunctionalImpact(req.FunctionalImpact)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown functional_impact"})
		return
	}

	loggedAt := time.Now()
	if req.LoggedAt != nil {
		loggedAt = *req.LoggedAt
	}

	entry := &store.PainLogEntry{
		UserID:           userID,
		LoggedAt:         loggedAt,
		PainLevel:        req.PainLevel,
		Locations:        req.Locations,
		Triggers:         req.Triggers,
		Medications:      store.NormalizeMedications(req.Medications),
		Symptoms:         req.Symptoms,
		Notes:            req.Notes,
		FunctionalImpact: impact,
		ImpactTags:       req.ImpactTags,
		SideEffects:      req.SideEffects,
	}

	if err := h.store.SaveLog(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// UpdateLogRequest carries an explicit edit. Absent fields stay untouched.
type UpdateLogRequest struct {
	PainLevel        *int           `json:"pain_level" binding:"omitempty,min=0,max=10"`
	Locations        *[]string      `json:"locations"`
	Triggers         *[]string      `json:"triggers"`
	Medications      *[]interface{} `json:"medications"`
	Symptoms         *[]string      `json:"symptoms"`
	Notes            *string        `json:"notes"`
	FunctionalImpact *string        `json:"functional_impact"`
	ImpactTags       *[]string      `json:"impact_tags"`
	SideEffects      *string        `json:"side_effects"`
}

// Update applies a partial edit to one entry
func (h *LogsHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	entryID := c.Param("id")

	var req UpdateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := store.LogPatch{
		PainLevel:   req.PainLevel,
		Locations:   req.Locations,
		Triggers:    req.Triggers,
		Symptoms:    req.Symptoms,
		Notes:       req.Notes,
		ImpactTags:  req.ImpactTags,
		SideEffects: req.SideEffects,
	}
	if req.Medications != nil {
		meds := store.NormalizeMedications(*req.Medications)
		patch.Medications = &meds
	}
	if req.FunctionalImpact != nil {
		impact, ok := store.ParseFunctionalImpact(*req.FunctionalImpact)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown functional_impact"})
			return
		}
		patch.FunctionalImpact = &impact
	}

	err := h.store.UpdateLog(c.Request.Context(), userID, entryID, patch)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": entryID})
}

// Delete removes one entry
func (h *LogsHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	entryID := c.Param("id")

	err := h.store.DeleteLog(c.Request.Context(), userID, entryID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": entryID})
}
