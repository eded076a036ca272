package recipe

import (
	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"
)

// 預設值
const (
	DefaultTitle        = "Receta Generada"
	DefaultDescription  = "Una receta sencilla preparada con los ingredientes disponibles."
	DefaultInstructions = "1. Prepara y lava los ingredientes.\n\n2. Cocina a fuego medio hasta que estén listos.\n\n3. Sirve caliente."
	DefaultCookingTime  = 30
	DefaultDifficulty   = "Fácil"
	DefaultServings     = 4
)

// ParseSource 解析結果的來源
type ParseSource int

const (
	SourceDefault ParseSource = iota
	SourceJSON
	SourceMarkdown
)

func (s ParseSource) String() string {
	switch s {
	case SourceJSON:
		return "json"
	case SourceMarkdown:
		return "markdown"
	default:
		return "default"
	}
}

// RecipeFields 解析後、正規化前的欄位；零值代表模型未提供
type RecipeFields struct {
	Title                string
	Description          string
	Ingredients          []common.RecipeIngredient
	Instructions         string
	CookingTime          int
	Difficulty           string
	Servings             int
	SuggestedIngredients []string
}

// ParsedRecipe JSON、Markdown 或預設三選一
type ParsedRecipe struct {
	Source ParseSource
	Fields RecipeFields
}

// JSONParsed 由 JSON 解析出的結果
func JSONParsed(fields RecipeFields) ParsedRecipe {
	return ParsedRecipe{Source: SourceJSON, Fields: fields}
}

// MarkdownParsed 由 Markdown 啟發式解析出的結果
func MarkdownParsed(fields RecipeFields) ParsedRecipe {
	return ParsedRecipe{Source: SourceMarkdown, Fields: fields}
}

// DefaultFallback 完全無法解析時的結果
func DefaultFallback() ParsedRecipe {
	return ParsedRecipe{Source: SourceDefault}
}

// GenerationOptions 使用者自訂選項
type GenerationOptions struct {
	CustomTitle          string
	CustomDescription    string
	PreferredIngredients []string
	Image                *provider.ImageAttachment
}

// InventoryRequest 以庫存生成食譜的請求
type InventoryRequest struct {
	UserID             string
	Inventory          []common.InventoryIngredient
	MealType           common.MealType
	Servings           int
	SuggestIngredients bool
	Options            GenerationOptions
}
