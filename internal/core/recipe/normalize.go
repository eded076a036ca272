package recipe

import (
	"strings"

	"meal-planner/internal/pkg/common"
)

// Normalize 補齊預設值，產生可直接回傳的食譜。
// servings 為模型未提供份量時使用的值，<= 0 時使用 DefaultServings。
func Normalize(parsed ParsedRecipe, servings int) common.GeneratedRecipe {
	if servings <= 0 {
		servings = DefaultServings
	}
	f := parsed.Fields

	recipe := common.GeneratedRecipe{
		Title:                strings.TrimSpace(f.Title),
		Description:          strings.TrimSpace(f.Description),
		Ingredients:          normalizeIngredients(f.Ingredients),
		Instructions:         f.Instructions,
		CookingTime:          f.CookingTime,
		Difficulty:           strings.TrimSpace(f.Difficulty),
		Servings:             f.Servings,
		SuggestedIngredients: normalizeNames(f.SuggestedIngredients),
	}

	if recipe.Title == "" {
		recipe.Title = DefaultTitle
	}
	if recipe.Description == "" {
		recipe.Description = DefaultDescription
	}
	if strings.TrimSpace(recipe.Instructions) == "" {
		recipe.Instructions = DefaultInstructions
	}
	if recipe.CookingTime <= 0 {
		recipe.CookingTime = DefaultCookingTime
	}
	if recipe.Difficulty == "" {
		recipe.Difficulty = DefaultDifficulty
	}
	if recipe.Servings <= 0 {
		recipe.Servings = servings
	}

	return recipe
}

// DefaultRecipe 完全無法解析時回傳的食譜
func DefaultRecipe() common.GeneratedRecipe {
	return Normalize(DefaultFallback(), DefaultServings)
}

// ParseAndNormalize 解析並正規化模型回應
func ParseAndNormalize(raw string, servings int) (common.GeneratedRecipe, ParseSource) {
	parsed := Parse(raw)
	return Normalize(parsed, servings), parsed.Source
}

func normalizeIngredients(in []common.RecipeIngredient) []common.RecipeIngredient {
	out := make([]common.RecipeIngredient, 0, len(in))
	for _, ing := range in {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		quantity := ing.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		out = append(out, common.RecipeIngredient{
			Name:     name,
			Quantity: quantity,
			Unit:     common.ParseUnit(string(ing.Unit)),
		})
	}
	return out
}

func normalizeNames(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
