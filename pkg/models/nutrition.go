// Types for the Matvaretabellen reference datasets
package models

// FoodsPayload is the raw foods.json document from matvaretabellen.no,
// kept verbatim so the cache stores exactly what the API returned.
type FoodsPayload struct {
	Foods []RawFood `json:"foods"`
}

// RawFood is one record of the foods dataset
type RawFood struct {
	FoodID       string           `json:"foodId"`
	FoodName     string           `json:"foodName"`
	FoodGroupID  string           `json:"foodGroupId"`
	URI          string           `json:"uri"`
	Calories     Quantity         `json:"calories"`
	Constituents []RawConstituent `json:"constituents"`
}

// Quantity wraps a numeric value in the API's {quantity: n} envelope
type Quantity struct {
	Quantity float64 `json:"quantity"`
}

// RawConstituent is one nutrient entry of a raw food record
type RawConstituent struct {
	NutrientID string  `json:"nutrientId"`
	Quantity   float64 `json:"quantity"`
}

// FoodGroupsPayload is the raw food-groups.json document
type FoodGroupsPayload struct {
	FoodGroups []FoodGroup `json:"foodGroups"`
}

// FoodGroup is a node of the food-group tree. Leaf groups reference a
// parent whose name is the externally visible category label.
type FoodGroup struct {
	FoodGroupID string `json:"foodGroupId"`
	Name        string `json:"name"`
	ParentID    string `json:"parentId,omitempty"`
}

// Nutrition holds the extracted per-100g nutrient values
type Nutrition struct {
	Calories float64 `json:"calories"`
	Fat      float64 `json:"fat"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
}

// NutritionFact is the normalized view of a raw food record
type NutritionFact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GroupID   string    `json:"group_id"`
	URI       string    `json:"uri"`
	Nutrition Nutrition `json:"nutrition"`
}

// FoodCategory groups foods under a category label. Categories are
// returned sorted alphabetically by label; foods keep first-seen order.
type FoodCategory struct {
	Label string          `json:"label"`
	Foods []NutritionFact `json:"foods"`
}
