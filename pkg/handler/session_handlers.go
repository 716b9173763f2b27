// Session HTTP handlers
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matprat/matprat/pkg/models"
	"github.com/matprat/matprat/pkg/service"
)

// SessionHandler handles session lifecycle requests
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// RegisterRoutes registers session routes
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.LoadSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.POST("/:id/clear", h.ClearSession)
	}
}

// CreateSession creates a new empty session and makes it current
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := h.sessionService.CreateSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, session)
}

// ListSessions lists all sessions, most recently active first
// GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionService.ListSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	currentID := h.sessionService.CurrentSessionID()
	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, models.NewSessionSummary(session, currentID))
	}
	c.JSON(http.StatusOK, summaries)
}

// LoadSession returns a session's full history and makes it current
// GET /api/v1/sessions/:id
func (h *SessionHandler) LoadSession(c *gin.Context) {
	session, err := h.sessionService.LoadSession(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// DeleteSession deletes a session; the current session is protected
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	err := h.sessionService.DeleteSession(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "cannot delete the active session"})
			return
		}
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ClearSession empties a session's history
// POST /api/v1/sessions/:id/clear
func (h *SessionHandler) ClearSession(c *gin.Context) {
	session, err := h.sessionService.ClearSession(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}
