package recipe

import (
	"context"
	"fmt"
	"strings"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

const maxSuggestions = 5

type looseDetected struct {
	Name       string    `json:"name"`
	Quantity   flexFloat `json:"quantity"`
	Unit       string    `json:"unit"`
	Category   string    `json:"category"`
	Confidence flexFloat `json:"confidence"`
}

type looseAnalysis struct {
	DetectedIngredients []looseDetected `json:"detectedIngredients"`
	MissingIngredients  []looseDetected `json:"missingIngredients"`
	Suggestions         flexNames       `json:"suggestions"`
}

// AnalyzeIngredientImage 辨識圖片中的食材，並依目前庫存分為已有與新增兩組。
// 解析失敗時回傳三個空清單，不回傳錯誤。
func (g *Generator) AnalyzeIngredientImage(ctx context.Context, img provider.ImageAttachment, currentInventory []common.InventoryIngredient) (*common.ImageAnalysis, error) {
	if len(img.Data) == 0 {
		return nil, common.NewValidationError("image is required")
	}

	prompt := provider.WithImage(buildImagePrompt(currentInventory), img).CacheableIf(analysisParses)
	raw, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		g.metrics.ObserveAttempt("failure")
		return nil, classifyFailure(1, err)
	}
	g.metrics.ObserveAttempt("success")

	analysis, err := parseAnalysis(raw)
	if err != nil {
		common.LogWarn("圖片分析結果無法解析，回傳空結果",
			zap.Error(err),
			zap.Int("response_length", len(raw)),
		)
		g.metrics.ObserveParse(SourceDefault.String())
		return emptyAnalysis(), nil
	}
	g.metrics.ObserveParse(SourceJSON.String())
	return partitionByInventory(analysis, currentInventory), nil
}

func buildImagePrompt(currentInventory []common.InventoryIngredient) string {
	var sb strings.Builder
	sb.WriteString("Analiza la imagen e identifica TODOS los alimentos visibles.\n\n")
	sb.WriteString("INVENTARIO ACTUAL DEL USUARIO:\n")
	sb.WriteString(common.FormatInventory(currentInventory))
	sb.WriteString("\n\nINSTRUCCIONES:\n")
	sb.WriteString("1. Para cada alimento estima una cantidad realista según lo que se ve; no uses cantidades genéricas ni inventes alimentos que no aparecen.\n")
	sb.WriteString("2. Pon en \"detectedIngredients\" los alimentos que ya están en el inventario (mismo nombre).\n")
	sb.WriteString("3. Pon en \"missingIngredients\" los alimentos visibles que NO están en el inventario.\n")
	fmt.Fprintf(&sb, "4. En \"suggestions\" propone hasta %d ingredientes básicos que suelen hacer falta y no se ven en la imagen.\n", maxSuggestions)
	sb.WriteString("5. \"unit\" debe ser uno de: PIECE, GRAM, KILOGRAM, LITER, MILLILITER, CUP, TABLESPOON, TEASPOON, POUND, OUNCE.\n")
	sb.WriteString("6. \"category\" debe ser uno de: VEGETABLE, FRUIT, MEAT, DAIRY, GRAIN, LIQUID, SPICE, OTHER.\n")
	sb.WriteString("7. \"confidence\" es un número entre 0 y 1.\n")
	sb.WriteString("8. Usa nombres en español.\n")
	sb.WriteString("\nResponde SOLO con un objeto JSON con este formato:\n")
	sb.WriteString(`{"detectedIngredients": [{"name": "Tomate", "quantity": 3, "unit": "PIECE", "category": "VEGETABLE", "confidence": 0.9}], ` +
		`"missingIngredients": [], "suggestions": ["Sal"]}`)
	return sb.String()
}

func analysisParses(raw string) bool {
	_, err := parseAnalysis(raw)
	return err == nil
}

// parseAnalysis 只走 JSON 路徑
func parseAnalysis(raw string) (looseAnalysis, error) {
	text := common.StripCodeFences(raw)
	span, ok := common.ExtractJSONObject(text)
	if !ok {
		return looseAnalysis{}, errNoJSONObject
	}
	var loose looseAnalysis
	if err := common.ParseJSON(span, &loose); err != nil {
		loose = looseAnalysis{}
		if err2 := common.ParseJSON(common.RepairJSON(span), &loose); err2 != nil {
			return looseAnalysis{}, fmt.Errorf("invalid analysis JSON: %w", err)
		}
	}
	return loose, nil
}

// partitionByInventory 以庫存名稱（不分大小寫）重新分組，避免模型分錯邊
func partitionByInventory(loose looseAnalysis, inventory []common.InventoryIngredient) *common.ImageAnalysis {
	owned := make(map[string]bool, len(inventory))
	for _, item := range inventory {
		if n := strings.ToLower(strings.TrimSpace(item.Name)); n != "" {
			owned[n] = true
		}
	}

	result := emptyAnalysis()
	seen := map[string]bool{}
	all := append(append([]looseDetected{}, loose.DetectedIngredients...), loose.MissingIngredients...)
	for _, d := range all {
		ing, ok := normalizeDetected(d)
		if !ok {
			continue
		}
		key := strings.ToLower(ing.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if owned[key] {
			result.DetectedIngredients = append(result.DetectedIngredients, ing)
		} else {
			result.MissingIngredients = append(result.MissingIngredients, ing)
		}
	}

	for _, s := range normalizeNames(loose.Suggestions) {
		if len(result.Suggestions) >= maxSuggestions {
			break
		}
		result.Suggestions = append(result.Suggestions, s)
	}
	return result
}

func normalizeDetected(d looseDetected) (common.DetectedIngredient, bool) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return common.DetectedIngredient{}, false
	}
	quantity := float64(d.Quantity)
	if quantity <= 0 {
		quantity = 1
	}
	confidence := float64(d.Confidence)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return common.DetectedIngredient{
		Name:       name,
		Quantity:   quantity,
		Unit:       common.ParseUnit(d.Unit),
		Category:   common.ParseCategory(d.Category),
		Confidence: confidence,
	}, true
}

func emptyAnalysis() *common.ImageAnalysis {
	return &common.ImageAnalysis{
		DetectedIngredients: []common.DetectedIngredient{},
		MissingIngredients:  []common.DetectedIngredient{},
		Suggestions:         []string{},
	}
}
