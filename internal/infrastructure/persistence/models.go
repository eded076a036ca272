package persistence

import (
	"time"

	"meal-planner/internal/pkg/common"
)

// RecipeModel 已儲存的食譜；Ingredients 與 SuggestedIngredients 以 JSON 字串保存
type RecipeModel struct {
	ID                   string    `gorm:"primaryKey;size:36"`
	UserID               string    `gorm:"size:64;not null;index:idx_recipes_user_created,priority:1"`
	Title                string    `gorm:"size:255;not null"`
	Description          string    `gorm:"type:text"`
	Ingredients          string    `gorm:"type:text;not null"`
	Instructions         string    `gorm:"type:text;not null"`
	CookingTime          int       `gorm:"not null"`
	Difficulty           string    `gorm:"size:32"`
	Servings             int       `gorm:"not null"`
	MealType             string    `gorm:"size:16"`
	SuggestedIngredients string    `gorm:"type:text"`
	CreatedAt            time.Time `gorm:"index:idx_recipes_user_created,priority:2"`
	UpdatedAt            time.Time
}

// TableName 資料表名稱
func (RecipeModel) TableName() string {
	return "recipes"
}

// RecipeRecord 對外回傳的已儲存食譜
type RecipeRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	MealType  common.MealType `json:"mealType,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	common.GeneratedRecipe
}

func (m RecipeModel) toRecord() RecipeRecord {
	record := RecipeRecord{
		ID:        m.ID,
		UserID:    m.UserID,
		MealType:  common.MealType(m.MealType),
		CreatedAt: m.CreatedAt,
		GeneratedRecipe: common.GeneratedRecipe{
			Title:                m.Title,
			Description:          m.Description,
			Instructions:         m.Instructions,
			CookingTime:          m.CookingTime,
			Difficulty:           m.Difficulty,
			Servings:             m.Servings,
			Ingredients:          []common.RecipeIngredient{},
			SuggestedIngredients: []string{},
		},
	}
	if m.Ingredients != "" {
		_ = common.ParseJSON(m.Ingredients, &record.Ingredients)
	}
	if m.SuggestedIngredients != "" {
		_ = common.ParseJSON(m.SuggestedIngredients, &record.SuggestedIngredients)
	}
	return record
}
