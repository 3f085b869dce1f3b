package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// ProfileHandler serves the pain profile endpoints
type ProfileHandler struct {
	store store.Store
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(st store.Store) *ProfileHandler {
	return &ProfileHandler{store: st}
}

// Get returns the user's pain profile. A user who never filled one in
// gets an empty profile, not an error.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	profile, err := h.store.GetProfile(c.Request.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, &store.Profile{UserID: userID})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfileRequest replaces the profile snapshot
type UpdateProfileRequest struct {
	PainIsConsistent     bool                      `json:"pain_is_consistent"`
	DefaultPainLocations []string                  `json:"default_pain_locations"`
	CurrentMedications   []store.ProfileMedication `json:"current_medications"`
}

// Update replaces the user's pain profile
func (h *ProfileHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := &store.Profile{
		UserID:               userID,
		PainIsConsistent:     req.PainIsConsistent,
		DefaultPainLocations: req.DefaultPainLocations,
		CurrentMedications:   req.CurrentMedications,
	}

	if err := h.store.UpsertProfile(c.Request.Context(), profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// AddMedication appends one medication to the profile
func (h *ProfileHandler) AddMedication(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var med store.ProfileMedication
	if err := c.ShouldBindJSON(&med); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if med.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medication name is required"})
		return
	}

	if err := h.store.AppendMedication(c.Request.Context(), userID, med); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add medication"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": med.Name})
}
