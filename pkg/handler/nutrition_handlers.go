// Food reference data HTTP handlers
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/matprat/matprat/pkg/models"
	"github.com/matprat/matprat/pkg/service"
)

// NutritionHandler exposes the reference-data lookups
type NutritionHandler struct {
	nutritionService *service.NutritionService
}

// NewNutritionHandler creates a new nutrition handler
func NewNutritionHandler(nutritionService *service.NutritionService) *NutritionHandler {
	return &NutritionHandler{
		nutritionService: nutritionService,
	}
}

// RegisterRoutes registers food routes
func (h *NutritionHandler) RegisterRoutes(r *gin.RouterGroup) {
	foods := r.Group("/foods")
	{
		foods.GET("/search", h.SearchFoods)
		foods.GET("/categories", h.CategorizedFoods)
	}
}

// SearchFoods searches the foods dataset by name
// GET /api/v1/foods/search?q=kylling
func (h *NutritionHandler) SearchFoods(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	// Unavailable reference data degrades to an empty result set.
	results := h.nutritionService.SearchFoods(term)
	if results == nil {
		results = []models.NutritionFact{}
	}
	c.JSON(http.StatusOK, gin.H{"foods": results})
}

// CategorizedFoods returns foods in a calorie range bucketed by category
// GET /api/v1/foods/categories?min_calories=0&max_calories=1000
func (h *NutritionHandler) CategorizedFoods(c *gin.Context) {
	minCalories := queryFloat(c, "min_calories", 0)
	maxCalories := queryFloat(c, "max_calories", 1000)

	foods := h.nutritionService.FoodsByCalorieRange(minCalories, maxCalories)
	categories := h.nutritionService.CategorizeFoods(foods)
	if categories == nil {
		categories = []models.FoodCategory{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func queryFloat(c *gin.Context, key string, fallback float64) float64 {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
