package recipe

import (
	"net/http"

	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyzeRequest 圖片食材分析
type AnalyzeRequest struct {
	Image            string          `json:"image" binding:"required"` // base64 或 data URI
	MimeType         string          `json:"mime_type,omitempty"`
	CurrentInventory []InventoryItem `json:"current_inventory" binding:"dive"`
}

// HandleAnalyze POST /ingredients/analyze
func (h *Handler) HandleAnalyze(c *gin.Context) {
	requestID := requestid.Get(c)

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	att, cerr := h.decodeImage(req.Image, req.MimeType)
	if cerr != nil {
		common.LogWarn("圖片無效",
			zap.String("request_id", requestID),
			zap.String("image_kind", imageKind(req.Image)),
			zap.Error(cerr),
		)
		h.fail(c, cerr)
		return
	}

	common.LogInfo("開始分析食材圖片",
		zap.String("request_id", requestID),
		zap.String("image_kind", imageKind(req.Image)),
		zap.Int("image_bytes", len(att.Data)),
		zap.Int("inventory_size", len(req.CurrentInventory)),
	)

	analysis, err := h.generator.AnalyzeIngredientImage(c.Request.Context(), att, toInventory(req.CurrentInventory))
	if err != nil {
		h.fail(c, toCustomError(err))
		return
	}
	c.JSON(http.StatusOK, analysis)
}
