package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/themobileprof/paintrack-be/internal/api/middleware"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// SessionsHandler serves the pain session endpoints. At most one session
// is unresolved per user at any time.
type SessionsHandler struct {
	store store.Store
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(st store.Store) *SessionsHandler {
	return &SessionsHandler{store: st}
}

// OpenSessionRequest starts a sustained-pain episode
type OpenSessionRequest struct {
	StartLevel int `json:"start_level" binding:"min=0,max=10"`
}

// Open starts a new session
func (h *SessionsHandler) Open(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.store.OpenSession(c.Request.Context(), userID, req.StartLevel)
	if errors.Is(err, store.ErrSessionOpen) {
		c.JSON(http.StatusConflict, gin.H{"error": "A session is already open"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// ResolveSessionRequest closes the open episode
type ResolveSessionRequest struct {
	EndLevel int `json:"end_level" binding:"min=0,max=10"`
}

// Resolve closes the user's open session
func (h *SessionsHandler) Resolve(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req ResolveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.store.ResolveSession(c.Request.Context(), userID, req.EndLevel)
	if errors.Is(err, store.ErrNoOpenSession) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No open session"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve session"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// Current returns the open session, if any
func (h *SessionsHandler) Current(c *gin.Context) {
	userID := middleware.GetUserID(c)

	session, err := h.store.UnresolvedSession(c.Request.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}
