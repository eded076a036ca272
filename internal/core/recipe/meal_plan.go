package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// MaxPlanDays 餐點計畫最多天數
	MaxPlanDays = 14
	dateLayout  = "2006-01-02"
)

// PlanMealTypes 計畫中每天安排的餐別
var PlanMealTypes = []common.MealType{common.MealBreakfast, common.MealLunch, common.MealDinner}

type planEntry struct {
	Date     string      `json:"date"`
	MealType string      `json:"mealType"`
	Recipe   looseRecipe `json:"recipe"`
}

type planSlot struct {
	date     string
	mealType common.MealType
	filled   bool
	recipe   common.GeneratedRecipe
}

// WithMaxPlanDays 覆寫計畫天數上限
func (g *Generator) WithMaxPlanDays(n int) *Generator {
	if n > 0 {
		g.maxPlanDays = n
	}
	return g
}

func (g *Generator) planDaysLimit() int {
	if g.maxPlanDays > 0 {
		return g.maxPlanDays
	}
	return MaxPlanDays
}

// GenerateMealPlan 單次呼叫模型生成多日計畫；缺漏的餐點以預設食譜補齊
func (g *Generator) GenerateMealPlan(ctx context.Context, inventory []common.InventoryIngredient, days int, startDate time.Time) ([]common.MealPlan, error) {
	if limit := g.planDaysLimit(); days < 1 || days > limit {
		return nil, common.NewValidationError(fmt.Sprintf("days must be between 1 and %d", limit))
	}
	if startDate.IsZero() {
		return nil, common.NewValidationError("start date is required")
	}

	slots := planSlots(days, startDate)
	raw, err := g.completer.Complete(ctx, buildMealPlanPrompt(inventory, slots))
	if err != nil {
		g.metrics.ObserveAttempt("failure")
		return nil, classifyFailure(1, err)
	}
	g.metrics.ObserveAttempt("success")

	entries, err := parsePlanEntries(raw)
	if err != nil {
		common.LogWarn("餐點計畫解析失敗，使用預設食譜", zap.Error(err))
		g.metrics.ObserveParse(SourceDefault.String())
	} else {
		g.metrics.ObserveParse(SourceJSON.String())
	}
	fillSlots(slots, entries)

	plan := make([]common.MealPlan, 0, len(slots))
	for _, s := range slots {
		recipe := s.recipe
		if !s.filled {
			recipe = DefaultRecipe()
		}
		plan = append(plan, common.MealPlan{Date: s.date, MealType: s.mealType, Recipe: recipe})
	}
	return plan, nil
}

// buildMealPlanPrompt 餐點計畫提示詞，可快取
func buildMealPlanPrompt(inventory []common.InventoryIngredient, slots []*planSlot) provider.Prompt {
	var sb strings.Builder
	sb.WriteString("Eres un nutricionista y chef experto. Crea un plan de comidas en español.\n\n")
	sb.WriteString("INGREDIENTES DISPONIBLES:\n")
	sb.WriteString(common.FormatInventory(inventory))
	sb.WriteString("\n\nCOMIDAS A PLANIFICAR:\n")
	for _, s := range slots {
		fmt.Fprintf(&sb, "- %s %s (%s)\n", s.date, s.mealType, s.mealType.Label())
	}
	sb.WriteString("\nREGLAS:\n")
	sb.WriteString("1. Prioriza los ingredientes disponibles y varía las recetas entre días.\n")
	sb.WriteString("2. Cada receta debe ser sencilla, con máximo 4 pasos.\n")
	sb.WriteString("3. \"instructions\" debe ser un STRING, NUNCA un array.\n")
	sb.WriteString("\nResponde SOLO con un array JSON con este formato:\n")
	sb.WriteString(`[{"date": "YYYY-MM-DD", "mealType": "BREAKFAST", "recipe": {"title": "", "description": "", ` +
		`"ingredients": [{"name": "", "quantity": 1, "unit": "PIECE"}], "instructions": "", "cookingTime": 20, ` +
		`"difficulty": "Fácil", "servings": 2, "suggestedIngredients": []}}]`)
	return provider.TextOnly(sb.String()).CacheableIf(planParses)
}

// planParses 無法解析的回覆不寫入快取，重試時才會再問模型
func planParses(raw string) bool {
	entries, err := parsePlanEntries(raw)
	return err == nil && len(entries) > 0
}

func planSlots(days int, start time.Time) []*planSlot {
	slots := make([]*planSlot, 0, days*len(PlanMealTypes))
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format(dateLayout)
		for _, mt := range PlanMealTypes {
			slots = append(slots, &planSlot{date: date, mealType: mt})
		}
	}
	return slots
}

// parsePlanEntries 接受頂層陣列或包含 plan/mealPlan/meals 陣列的物件
func parsePlanEntries(raw string) ([]planEntry, error) {
	text := common.StripCodeFences(raw)
	arrayStart := strings.Index(text, "[")
	objectStart := strings.Index(text, "{")

	if arrayStart >= 0 && (objectStart < 0 || arrayStart < objectStart) {
		span, ok := common.ExtractJSONArray(text)
		if !ok {
			return nil, errNoJSONObject
		}
		var entries []planEntry
		if err := common.ParseJSON(span, &entries); err != nil {
			if err2 := common.ParseJSON(common.RepairJSON(span), &entries); err2 != nil {
				return nil, fmt.Errorf("invalid meal plan JSON: %w", err)
			}
		}
		return entries, nil
	}

	span, ok := common.ExtractJSONObject(text)
	if !ok {
		return nil, errNoJSONObject
	}
	var wrapper map[string]json.RawMessage
	if err := common.ParseJSON(span, &wrapper); err != nil {
		if err2 := common.ParseJSON(common.RepairJSON(span), &wrapper); err2 != nil {
			return nil, fmt.Errorf("invalid meal plan JSON: %w", err)
		}
	}
	for _, key := range []string{"plan", "mealPlan", "meals"} {
		body, ok := wrapper[key]
		if !ok {
			continue
		}
		var entries []planEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("invalid meal plan entries: %w", err)
		}
		return entries, nil
	}
	return nil, fmt.Errorf("meal plan JSON has no plan array")
}

// fillSlots 先依日期與餐別配對，剩餘項目依序補進同餐別的空位
func fillSlots(slots []*planSlot, entries []planEntry) {
	var leftovers []planEntry
	for _, e := range entries {
		mt, err := common.ParseMealType(e.MealType)
		if err != nil || !e.Recipe.hasRecipeField() {
			continue
		}
		date := strings.TrimSpace(e.Date)
		placed := false
		for _, s := range slots {
			if !s.filled && s.date == date && s.mealType == mt {
				s.recipe = Normalize(JSONParsed(e.Recipe.fields()), 0)
				s.filled = true
				placed = true
				break
			}
		}
		if !placed {
			e.MealType = string(mt)
			leftovers = append(leftovers, e)
		}
	}

	for _, e := range leftovers {
		for _, s := range slots {
			if !s.filled && string(s.mealType) == e.MealType {
				s.recipe = Normalize(JSONParsed(e.Recipe.fields()), 0)
				s.filled = true
				break
			}
		}
	}
}
