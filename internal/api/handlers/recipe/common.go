package recipe

import (
	"context"
	"errors"
	"strings"

	recipeService "meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"
)

// InventoryItem 請求中的庫存食材
type InventoryItem struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

func toInventory(items []InventoryItem) []common.InventoryIngredient {
	out := make([]common.InventoryIngredient, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		out = append(out, common.InventoryIngredient{
			Name:     name,
			Quantity: it.Quantity,
			Unit:     common.ParseUnit(it.Unit),
			Category: common.ParseCategory(it.Category),
		})
	}
	return out
}

// toCustomError 將核心錯誤對應為 HTTP 錯誤
func toCustomError(err error) *common.CustomError {
	var (
		ce      *common.CustomError
		connErr *recipeService.ConnectionError
		genErr  *recipeService.GenerationError
	)

	switch {
	case errors.As(err, &ce):
		return ce
	case common.IsValidationError(err):
		return common.ErrInvalidRequest.Wrap(err).WithMessage(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return common.ErrGatewayTimeout.Wrap(err)
	case errors.Is(err, context.Canceled):
		return common.ErrRequestTimeout.Wrap(err)
	case errors.As(err, &connErr):
		return common.ErrModelUnreachable.Wrap(err).WithMessage(connErr.Error())
	case errors.Is(err, recipeService.ErrRateLimited):
		return common.ErrModelRateLimited.Wrap(err).WithMessage(recipeService.ErrRateLimited.Error())
	case errors.As(err, &genErr):
		if recipeService.IsOverload(genErr.Err) {
			return common.ErrServiceUnavailable.Wrap(err).WithMessage(genErr.Error())
		}
		return common.ErrAIServiceError.Wrap(err).WithMessage(genErr.Error())
	default:
		return common.ErrInternalError.Wrap(err)
	}
}

// imageKind 只用於日誌，避免記錄圖片內容
func imageKind(image string) string {
	switch {
	case image == "":
		return "none"
	case strings.HasPrefix(image, "data:image/"):
		if mime, _, ok := strings.Cut(strings.TrimPrefix(image, "data:"), ";"); ok {
			return "data_uri:" + mime
		}
		return "invalid_data_uri"
	case strings.HasPrefix(image, "/9j/"):
		return "base64:jpeg"
	case strings.HasPrefix(image, "iVBORw0KGgo"):
		return "base64:png"
	default:
		return "base64"
	}
}
