package recipe

import (
	"net/http"
	"time"

	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MealPlanRequest 多日餐點計畫
type MealPlanRequest struct {
	Inventory []InventoryItem `json:"inventory" binding:"dive"`
	Days      int             `json:"days" binding:"required"`
	StartDate string          `json:"start_date" binding:"required"` // YYYY-MM-DD
}

// HandleMealPlan POST /meal-plans/generate
func (h *Handler) HandleMealPlan(c *gin.Context) {
	var req MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err).WithMessage("start_date must be YYYY-MM-DD"))
		return
	}

	common.LogInfo("開始生成餐點計畫",
		zap.Int("days", req.Days),
		zap.String("start_date", req.StartDate),
		zap.Int("inventory_size", len(req.Inventory)),
	)

	plan, err := h.generator.GenerateMealPlan(c.Request.Context(), toInventory(req.Inventory), req.Days, start)
	if err != nil {
		h.fail(c, toCustomError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
