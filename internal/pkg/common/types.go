package common

import (
	"fmt"
	"strings"
)

// Unit 食材單位
type Unit string

const (
	UnitPiece      Unit = "PIECE"
	UnitGram       Unit = "GRAM"
	UnitKilogram   Unit = "KILOGRAM"
	UnitLiter      Unit = "LITER"
	UnitMilliliter Unit = "MILLILITER"
	UnitCup        Unit = "CUP"
	UnitTablespoon Unit = "TABLESPOON"
	UnitTeaspoon   Unit = "TEASPOON"
	UnitPound      Unit = "POUND"
	UnitOunce      Unit = "OUNCE"
)

var validUnits = map[Unit]bool{
	UnitPiece: true, UnitGram: true, UnitKilogram: true, UnitLiter: true, UnitMilliliter: true,
	UnitCup: true, UnitTablespoon: true, UnitTeaspoon: true, UnitPound: true, UnitOunce: true,
}

// ParseUnit 不分大小寫解析單位，未知值回傳 PIECE
func ParseUnit(s string) Unit {
	u := Unit(strings.ToUpper(strings.TrimSpace(s)))
	if validUnits[u] {
		return u
	}
	return UnitPiece
}

// Category 食材分類
type Category string

const (
	CategoryVegetable Category = "VEGETABLE"
	CategoryFruit     Category = "FRUIT"
	CategoryMeat      Category = "MEAT"
	CategoryDairy     Category = "DAIRY"
	CategoryGrain     Category = "GRAIN"
	CategoryLiquid    Category = "LIQUID"
	CategorySpice     Category = "SPICE"
	CategoryOther     Category = "OTHER"
)

var validCategories = map[Category]bool{
	CategoryVegetable: true, CategoryFruit: true, CategoryMeat: true, CategoryDairy: true,
	CategoryGrain: true, CategoryLiquid: true, CategorySpice: true, CategoryOther: true,
}

// ParseCategory 不分大小寫解析分類，未知值回傳 OTHER
func ParseCategory(s string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if validCategories[c] {
		return c
	}
	return CategoryOther
}

// MealType 餐別
type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealSnack     MealType = "SNACK"
	MealDinner    MealType = "DINNER"
)

// MealTypes 依一天中的順序列出所有餐別
var MealTypes = []MealType{MealBreakfast, MealLunch, MealSnack, MealDinner}

// ParseMealType 解析餐別
func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range MealTypes {
		if m == known {
			return m, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("invalid meal type: %q", s))
}

// Label 西班牙文餐別名稱
func (m MealType) Label() string {
	switch m {
	case MealBreakfast:
		return "desayuno"
	case MealLunch:
		return "almuerzo"
	case MealSnack:
		return "merienda"
	case MealDinner:
		return "cena"
	default:
		return "comida"
	}
}

// InventoryIngredient 使用者庫存中的一項食材
type InventoryIngredient struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     Unit     `json:"unit"`
	Category Category `json:"category"`
}

// RecipeIngredient 食譜使用的食材
type RecipeIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
}

// GeneratedRecipe 正規化後的食譜，Instructions 一律為字串
type GeneratedRecipe struct {
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Ingredients          []RecipeIngredient `json:"ingredients"`
	Instructions         string             `json:"instructions"`
	CookingTime          int                `json:"cookingTime"`
	Difficulty           string             `json:"difficulty"`
	Servings             int                `json:"servings"`
	SuggestedIngredients []string           `json:"suggestedIngredients"`
}

// GeneratedRecipeWithInventory 由庫存生成的食譜及其選用食材
type GeneratedRecipeWithInventory struct {
	GeneratedRecipe
	MealType            MealType              `json:"mealType"`
	SelectedIngredients []InventoryIngredient `json:"selectedIngredients"`
	Attempts            int                   `json:"attempts"`
	ParseSource         string                `json:"parseSource"`
}

// DetectedIngredient 圖片辨識出的食材
type DetectedIngredient struct {
	Name       string   `json:"name"`
	Quantity   float64  `json:"quantity"`
	Unit       Unit     `json:"unit"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// ImageAnalysis 圖片食材分析結果
type ImageAnalysis struct {
	DetectedIngredients []DetectedIngredient `json:"detectedIngredients"`
	MissingIngredients  []DetectedIngredient `json:"missingIngredients"`
	Suggestions         []string             `json:"suggestions"`
}

// MealPlan 餐點計畫中的一餐
type MealPlan struct {
	Date     string          `json:"date"` // YYYY-MM-DD
	MealType MealType        `json:"mealType"`
	Recipe   GeneratedRecipe `json:"recipe"`
}

// RecipePreferences 簡易生成的偏好設定
type RecipePreferences struct {
	Cuisine             string   `json:"cuisine,omitempty"`
	MaxCookingTime      int      `json:"maxCookingTime,omitempty"`
	Servings            int      `json:"servings,omitempty"`
	Difficulty          string   `json:"difficulty,omitempty"`
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
}

// FormatInventory 將庫存格式化為提示詞用的條列
func FormatInventory(items []InventoryIngredient) string {
	if len(items) == 0 {
		return "- (sin ingredientes)"
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (%s %s)", item.Name, formatQuantity(item.Quantity), item.Unit))
	}
	return strings.Join(lines, "\n")
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}
