// Norwegian food database (Matvaretabellen) client with a file cache
package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/matprat/matprat/pkg/models"
	"github.com/matprat/matprat/pkg/utils"
)

const (
	foodsURL      = "https://www.matvaretabellen.no/api/nb/foods.json"
	foodGroupsURL = "https://www.matvaretabellen.no/api/nb/food-groups.json"

	foodsCacheFile      = "nutritional_data.json"
	foodGroupsCacheFile = "food_groups.json"

	// The dataset is republished yearly, so the cache lives that long.
	CacheExpiry = 365 * 24 * time.Hour

	// UnknownCategory buckets foods whose group cannot be resolved.
	UnknownCategory = "Unknown"
)

// NutritionService fetches and caches the two reference datasets and
// derives prompt context from them. Fetch failures degrade to nil results;
// they never abort the enclosing operation.
type NutritionService struct {
	foodsURL      string
	foodGroupsURL string
	cacheDir      string
	expiry        time.Duration
	client        *http.Client
	logger        *slog.Logger
}

// NewNutritionService creates a nutrition service caching under dataDir
func NewNutritionService(dataDir string) *NutritionService {
	return &NutritionService{
		foodsURL:      foodsURL,
		foodGroupsURL: foodGroupsURL,
		cacheDir:      filepath.Join(dataDir, "cache"),
		expiry:        CacheExpiry,
		client:        &http.Client{Timeout: 30 * time.Second},
		logger:        utils.GetLogger(),
	}
}

// Foods returns the foods dataset, from cache when fresh, otherwise from a
// live fetch. Returns nil when neither is available.
func (s *NutritionService) Foods() *models.FoodsPayload {
	var payload models.FoodsPayload
	if !s.loadDataset(s.foodsURL, foodsCacheFile, &payload) {
		return nil
	}
	return &payload
}

// FoodGroups returns the food-group hierarchy, with the same cache policy
// and an independent cache slot.
func (s *NutritionService) FoodGroups() *models.FoodGroupsPayload {
	var payload models.FoodGroupsPayload
	if !s.loadDataset(s.foodGroupsURL, foodGroupsCacheFile, &payload) {
		return nil
	}
	return &payload
}

// loadDataset implements the shared cache-then-fetch policy for one slot.
func (s *NutritionService) loadDataset(url, cacheFile string, out interface{}) bool {
	path := filepath.Join(s.cacheDir, cacheFile)

	if s.cacheValid(path) {
		err := readJSONFile(path, out)
		if err == nil {
			return true
		}
		s.logger.Warn("Failed to read reference data cache", "path", path, "error", err)
	}

	raw, err := s.fetch(url)
	if err != nil {
		s.logger.Error("Failed to fetch reference data", "url", url, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Error("Failed to decode reference data", "url", url, "error", err)
		return false
	}

	if err := s.writeCache(path, raw); err != nil {
		// A failed cache write only costs the next caller a refetch.
		s.logger.Warn("Failed to write reference data cache", "path", path, "error", err)
	}
	return true
}

// cacheValid reports whether the cache file exists and was written less
// than the expiry window ago. The file is only written after a successful
// fetch, so its mtime is the age of the last good payload.
func (s *NutritionService) cacheValid(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < s.expiry
}

func (s *NutritionService) fetch(url string) ([]byte, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (s *NutritionService) writeCache(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func readJSONFile(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// ========== Normalization and filters ==========

// FormatFood normalizes a raw food record into a NutritionFact. Unknown
// nutrient ids are ignored; missing nutrients stay zero.
func FormatFood(food models.RawFood) models.NutritionFact {
	nutrition := models.Nutrition{Calories: food.Calories.Quantity}
	for _, nutrient := range food.Constituents {
		switch strings.ToLower(nutrient.NutrientID) {
		case "fett":
			nutrition.Fat = nutrient.Quantity
		case "protein":
			nutrition.Protein = nutrient.Quantity
		case "karbo":
			nutrition.Carbs = nutrient.Quantity
		case "fiber":
			nutrition.Fiber = nutrient.Quantity
		case "sukker":
			nutrition.Sugar = nutrient.Quantity
		}
	}
	return models.NutritionFact{
		ID:        food.FoodID,
		Name:      food.FoodName,
		GroupID:   food.FoodGroupID,
		URI:       food.URI,
		Nutrition: nutrition,
	}
}

// SearchFoods returns foods whose name contains the term,
// case-insensitively. Returns an empty slice when the dataset is
// unavailable.
func (s *NutritionService) SearchFoods(term string) []models.NutritionFact {
	payload := s.Foods()
	if payload == nil {
		return nil
	}
	term = strings.ToLower(term)
	var results []models.NutritionFact
	for _, food := range payload.Foods {
		if strings.Contains(strings.ToLower(food.FoodName), term) {
			results = append(results, FormatFood(food))
		}
	}
	return results
}

// FoodsByCalorieRange returns foods whose calories fall within [min, max].
func (s *NutritionService) FoodsByCalorieRange(min, max float64) []models.NutritionFact {
	payload := s.Foods()
	if payload == nil {
		return nil
	}
	var results []models.NutritionFact
	for _, food := range payload.Foods {
		if food.Calories.Quantity >= min && food.Calories.Quantity <= max {
			results = append(results, FormatFood(food))
		}
	}
	return results
}

// ========== Categorization ==========

// groupIndex resolves a food-group id to its category label: the parent
// group's name when one exists, the group's own name otherwise.
type groupIndex map[string]models.FoodGroup

func buildGroupIndex(payload *models.FoodGroupsPayload) groupIndex {
	if payload == nil {
		return nil
	}
	idx := make(groupIndex, len(payload.FoodGroups))
	for _, group := range payload.FoodGroups {
		idx[group.FoodGroupID] = group
	}
	return idx
}

// categoryLabel reports the label for a group id and whether it resolved.
func (idx groupIndex) categoryLabel(groupID string) (string, bool) {
	group, ok := idx[groupID]
	if !ok {
		return "", false
	}
	if group.ParentID != "" {
		if parent, ok := idx[group.ParentID]; ok {
			return parent.Name, true
		}
	}
	return group.Name, true
}

// CategorizeFoods buckets foods by their parent food-group name.
// Unresolvable groups land in the "Unknown" bucket rather than being
// dropped. Foods keep first-seen order inside a category; the categories
// themselves come back sorted alphabetically by label.
func (s *NutritionService) CategorizeFoods(foods []models.NutritionFact) []models.FoodCategory {
	idx := buildGroupIndex(s.FoodGroups())

	buckets := make(map[string][]models.NutritionFact)
	for _, food := range foods {
		label, ok := idx.categoryLabel(food.GroupID)
		if !ok {
			label = UnknownCategory
		}
		buckets[label] = append(buckets[label], food)
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	categories := make([]models.FoodCategory, 0, len(labels))
	for _, label := range labels {
		categories = append(categories, models.FoodCategory{Label: label, Foods: buckets[label]})
	}
	return categories
}
