package recipe

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"meal-planner/internal/api/middleware"
	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/image"
	recipeService "meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/persistence"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecipeStore 食譜儲存
type RecipeStore interface {
	Create(ctx context.Context, userID string, recipe common.GeneratedRecipe, mealType common.MealType) (persistence.CreateResult, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]persistence.RecipeRecord, error)
	GetByID(ctx context.Context, userID, id string) (*persistence.RecipeRecord, error)
}

// GenerateRequest 以庫存生成食譜
type GenerateRequest struct {
	Inventory            []InventoryItem `json:"inventory" binding:"required,min=1,dive"`
	MealType             string          `json:"meal_type" binding:"required"`
	Servings             int             `json:"servings" binding:"omitempty,min=1,max=20"`
	SuggestIngredients   bool            `json:"suggest_ingredients"`
	CustomTitle          string          `json:"custom_title,omitempty"`
	CustomDescription    string          `json:"custom_description,omitempty"`
	PreferredIngredients []string        `json:"preferred_ingredients,omitempty"`
	Image                string          `json:"image,omitempty"` // base64 或 data URI
	MimeType             string          `json:"mime_type,omitempty"`
	Save                 bool            `json:"save"`
}

// GenerateResponse 生成結果；save 為 true 時附上儲存結果
type GenerateResponse struct {
	Recipe *common.GeneratedRecipeWithInventory `json:"recipe"`
	Saved  *persistence.CreateResult            `json:"saved,omitempty"`
}

// SimpleRequest 只依食材清單生成
type SimpleRequest struct {
	Ingredients []string                  `json:"ingredients" binding:"required,min=1"`
	Preferences *common.RecipePreferences `json:"preferences,omitempty"`
}

// Handler 食譜相關處理程序
type Handler struct {
	generator *recipeService.Generator
	store     RecipeStore
	images    *image.Service
	debug     bool
}

// NewHandler 創建新的食譜處理程序
func NewHandler(generator *recipeService.Generator, store RecipeStore, images *image.Service, debug bool) *Handler {
	return &Handler{
		generator: generator,
		store:     store,
		images:    images,
		debug:     debug,
	}
}

// HandleGenerate POST /recipes/generate
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := requestid.Get(c)
	userID := c.GetHeader(middleware.UserIDHeader)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	mealType, err := common.ParseMealType(req.MealType)
	if err != nil {
		h.fail(c, toCustomError(err))
		return
	}

	opts := recipeService.GenerationOptions{
		CustomTitle:          strings.TrimSpace(req.CustomTitle),
		CustomDescription:    strings.TrimSpace(req.CustomDescription),
		PreferredIngredients: req.PreferredIngredients,
	}
	if req.Image != "" {
		att, err := h.images.Decode(req.Image, req.MimeType)
		if err != nil {
			h.fail(c, toCustomError(err))
			return
		}
		opts.Image = &att
	}

	common.LogInfo("開始生成食譜",
		zap.String("request_id", requestID),
		zap.String("user_id", userID),
		zap.String("meal_type", string(mealType)),
		zap.Int("inventory_size", len(req.Inventory)),
		zap.String("image_kind", imageKind(req.Image)),
	)

	result, err := h.generator.GenerateRecipeWithInventory(c.Request.Context(), recipeService.InventoryRequest{
		UserID:             userID,
		Inventory:          toInventory(req.Inventory),
		MealType:           mealType,
		Servings:           req.Servings,
		SuggestIngredients: req.SuggestIngredients,
		Options:            opts,
	})
	if err != nil {
		h.fail(c, toCustomError(err))
		return
	}

	resp := GenerateResponse{Recipe: result}
	if req.Save {
		saved, err := h.store.Create(c.Request.Context(), userID, result.GeneratedRecipe, result.MealType)
		if err != nil {
			h.fail(c, common.ErrInternalError.Wrap(err))
			return
		}
		resp.Saved = &saved
	}

	c.JSON(http.StatusOK, resp)
}

// HandleSimple POST /recipes/simple
func (h *Handler) HandleSimple(c *gin.Context) {
	var req SimpleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	result, err := h.generator.GenerateRecipe(c.Request.Context(), req.Ingredients, req.Preferences)
	if err != nil {
		h.fail(c, toCustomError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": result})
}

// HandleList GET /recipes
func (h *Handler) HandleList(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader(middleware.UserIDHeader))
	if userID == "" {
		h.fail(c, common.ErrInvalidRequest.WithMessage("missing "+middleware.UserIDHeader+" header"))
		return
	}

	limit := persistence.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			h.fail(c, common.ErrInvalidRequest.WithMessage("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	records, err := h.store.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.fail(c, common.ErrInternalError.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": records})
}

// HandleGet GET /recipes/:id，只能讀取自己的食譜
func (h *Handler) HandleGet(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader(middleware.UserIDHeader))
	if userID == "" {
		h.fail(c, common.ErrInvalidRequest.WithMessage("missing "+middleware.UserIDHeader+" header"))
		return
	}

	record, err := h.store.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.fail(c, toCustomError(err))
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) fail(c *gin.Context, err *common.CustomError) {
	_ = c.Error(err)
	common.WriteErrorResponse(c, err, h.debug)
}

// decodeImage 供圖片分析使用，缺圖時回傳 400
func (h *Handler) decodeImage(data, mimeType string) (provider.ImageAttachment, *common.CustomError) {
	if strings.TrimSpace(data) == "" {
		return provider.ImageAttachment{}, common.ErrInvalidRequest.WithMessage("image is required")
	}
	att, err := h.images.Decode(data, mimeType)
	if err != nil {
		return provider.ImageAttachment{}, toCustomError(err)
	}
	return att, nil
}
