// Meal plan export HTTP handlers
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matprat/matprat/pkg/service"
)

// MealPlanHandler handles meal plan export requests
type MealPlanHandler struct {
	sessionService  *service.SessionService
	mealPlanService *service.MealPlanService
}

// NewMealPlanHandler creates a new meal plan handler
func NewMealPlanHandler(sessionService *service.SessionService, mealPlanService *service.MealPlanService) *MealPlanHandler {
	return &MealPlanHandler{
		sessionService:  sessionService,
		mealPlanService: mealPlanService,
	}
}

// RegisterRoutes registers meal plan routes
func (h *MealPlanHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/mealplan/export", h.ExportMealPlan)
}

// ExportMealPlan extracts the latest complete meal plan from a session and
// returns it as a printable HTML document
// GET /api/v1/mealplan/export?session_id=xxx (defaults to the current session)
func (h *MealPlanHandler) ExportMealPlan(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = h.sessionService.CurrentSessionID()
	}
	if sessionID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	session, err := h.sessionService.LoadSession(sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.mealPlanService.ExportHTML(session.Messages)
	if err != nil {
		if errors.Is(err, service.ErrNoMealPlan) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ingen måltidsplan funnet i samtalehistorikken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="maltidsplan.html"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}
