package persistence

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultListLimit 列出食譜的預設筆數
const DefaultListLimit = 20

// FieldError 單一欄位的驗證錯誤
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CreateResult 建立食譜的結果；驗證失敗時 Success 為 false 並列出欄位錯誤
type CreateResult struct {
	Success bool         `json:"success"`
	ID      string       `json:"id,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type recipeInput struct {
	UserID       string `json:"userId" validate:"required,max=64"`
	Title        string `json:"title" validate:"required,max=255"`
	Instructions string `json:"instructions" validate:"required"`
	CookingTime  int    `json:"cookingTime" validate:"gt=0"`
	Servings     int    `json:"servings" validate:"gt=0"`
	MealType     string `json:"mealType" validate:"omitempty,oneof=BREAKFAST LUNCH SNACK DINNER"`
}

// RecipeRepository 食譜儲存，同時提供歷史讀取
type RecipeRepository struct {
	db       *gorm.DB
	validate *validator.Validate
	now      func() time.Time
}

// NewRecipeRepository 創建食譜儲存庫
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &RecipeRepository{
		db:       db,
		validate: validate,
		now:      time.Now,
	}
}

// Create 驗證必填欄位後儲存食譜。驗證失敗不回傳 error，而是回傳 Success=false 的結果。
func (r *RecipeRepository) Create(ctx context.Context, userID string, gen common.GeneratedRecipe, mealType common.MealType) (CreateResult, error) {
	input := recipeInput{
		UserID:       strings.TrimSpace(userID),
		Title:        strings.TrimSpace(gen.Title),
		Instructions: strings.TrimSpace(gen.Instructions),
		CookingTime:  gen.CookingTime,
		Servings:     gen.Servings,
		MealType:     string(mealType),
	}
	if fieldErrs := r.validateInput(input); len(fieldErrs) > 0 {
		return CreateResult{Success: false, Errors: fieldErrs}, nil
	}

	ingredients := gen.Ingredients
	if ingredients == nil {
		ingredients = []common.RecipeIngredient{}
	}
	ingredientsJSON, err := common.ToJSON(ingredients)
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to encode ingredients: %w", err)
	}
	suggested := gen.SuggestedIngredients
	if suggested == nil {
		suggested = []string{}
	}
	suggestedJSON, err := common.ToJSON(suggested)
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to encode suggested ingredients: %w", err)
	}

	now := r.now()
	model := RecipeModel{
		ID:                   common.GenerateUUID(),
		UserID:               input.UserID,
		Title:                input.Title,
		Description:          strings.TrimSpace(gen.Description),
		Ingredients:          ingredientsJSON,
		Instructions:         gen.Instructions,
		CookingTime:          gen.CookingTime,
		Difficulty:           gen.Difficulty,
		Servings:             gen.Servings,
		MealType:             input.MealType,
		SuggestedIngredients: suggestedJSON,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return CreateResult{}, fmt.Errorf("failed to save recipe: %w", err)
	}

	common.LogDebug("食譜已儲存",
		zap.String("id", model.ID),
		zap.String("user_id", model.UserID),
	)
	return CreateResult{Success: true, ID: model.ID}, nil
}

// ListByUser 依建立時間由新到舊列出使用者的食譜
func (r *RecipeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]RecipeRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var models []RecipeModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	records := make([]RecipeRecord, 0, len(models))
	for _, m := range models {
		records = append(records, m.toRecord())
	}
	return records, nil
}

// GetByID 讀取單一食譜
func (r *RecipeRepository) GetByID(ctx context.Context, userID, id string) (*RecipeRecord, error) {
	var model RecipeModel
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	record := model.toRecord()
	return &record, nil
}

// RecentRecipes 提供歷史提示所需的最近食譜
func (r *RecipeRepository) RecentRecipes(ctx context.Context, userID string, limit int) ([]recipe.HistoryRecipe, error) {
	var models []RecipeModel
	err := r.db.WithContext(ctx).
		Select("title", "ingredients", "instructions").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read recent recipes: %w", err)
	}

	history := make([]recipe.HistoryRecipe, 0, len(models))
	for _, m := range models {
		history = append(history, recipe.HistoryRecipe{
			Title:        m.Title,
			Ingredients:  m.Ingredients,
			Instructions: m.Instructions,
		})
	}
	return history, nil
}

// Ping 檢查資料庫連線
func (r *RecipeRepository) Ping(ctx context.Context) error {
	return PingDatabase(ctx, r.db)
}

func (r *RecipeRepository) validateInput(input recipeInput) []FieldError {
	err := r.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fieldErrs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrs = append(fieldErrs, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return fieldErrs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "max":
		return "supera el largo máximo de " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	default:
		return "no es válido"
	}
}
