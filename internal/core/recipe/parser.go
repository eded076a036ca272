package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	errNoJSONObject  = errors.New("no JSON object found")
	errNoRecipeField = errors.New("JSON object has no recipe fields")

	firstIntPattern   = regexp.MustCompile(`\d+`)
	firstFloatPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// Parse 將模型回應轉為 ParsedRecipe：先試 JSON，再試 Markdown，最後回傳預設
func Parse(raw string) ParsedRecipe {
	text := common.StripCodeFences(raw)

	fields, err := parseJSONFields(text)
	if err == nil {
		return JSONParsed(fields)
	}
	common.LogDebug("JSON 解析失敗，改用 Markdown", zap.Error(err))

	fields, err = parseMarkdown(text)
	if err != nil {
		common.LogWarn("Markdown 解析失敗，使用預設食譜",
			zap.Error(err),
			zap.Int("response_length", len(raw)),
		)
		return DefaultFallback()
	}
	return MarkdownParsed(fields)
}

// parseJSONFields 取出 { ... } 區段解碼，失敗時修正常見瑕疵再試一次
func parseJSONFields(text string) (RecipeFields, error) {
	span, ok := common.ExtractJSONObject(text)
	if !ok {
		return RecipeFields{}, errNoJSONObject
	}

	var loose looseRecipe
	if err := common.ParseJSON(span, &loose); err != nil {
		loose = looseRecipe{}
		if err2 := common.ParseJSON(common.RepairJSON(span), &loose); err2 != nil {
			return RecipeFields{}, fmt.Errorf("invalid recipe JSON: %w", err)
		}
	}

	if !loose.hasRecipeField() {
		return RecipeFields{}, errNoRecipeField
	}
	return loose.fields(), nil
}

// looseRecipe 寬鬆的中繼結構，容忍模型輸出的型別差異
type looseRecipe struct {
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	Ingredients          []looseIngredient `json:"ingredients"`
	Instructions         flexSteps         `json:"instructions"`
	CookingTime          flexInt           `json:"cookingTime"`
	Difficulty           string            `json:"difficulty"`
	Servings             flexInt           `json:"servings"`
	SuggestedIngredients flexNames         `json:"suggestedIngredients"`
}

func (l looseRecipe) hasRecipeField() bool {
	return strings.TrimSpace(l.Title) != "" ||
		strings.TrimSpace(l.Description) != "" ||
		len(l.Ingredients) > 0 ||
		len(l.Instructions) > 0
}

func (l looseRecipe) fields() RecipeFields {
	ingredients := make([]common.RecipeIngredient, 0, len(l.Ingredients))
	for _, ing := range l.Ingredients {
		ingredients = append(ingredients, common.RecipeIngredient{
			Name:     ing.Name,
			Quantity: float64(ing.Quantity),
			Unit:     common.Unit(ing.Unit),
		})
	}
	return RecipeFields{
		Title:                l.Title,
		Description:          l.Description,
		Ingredients:          ingredients,
		Instructions:         joinSteps(l.Instructions),
		CookingTime:          int(l.CookingTime),
		Difficulty:           l.Difficulty,
		Servings:             int(l.Servings),
		SuggestedIngredients: []string(l.SuggestedIngredients),
	}
}

// joinSteps 陣列以空行連接；單一字串原樣回傳
func joinSteps(steps flexSteps) string {
	return strings.Join(steps, "\n\n")
}

// looseIngredient 接受 "Huevos" 或 {"name": "Huevos", "quantity": 2, "unit": "PIECE"}
type looseIngredient struct {
	Name     string
	Quantity flexFloat
	Unit     string
}

func (i *looseIngredient) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		i.Name = name
		return nil
	}
	var obj struct {
		Name     string    `json:"name"`
		Quantity flexFloat `json:"quantity"`
		Unit     string    `json:"unit"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	i.Name, i.Quantity, i.Unit = obj.Name, obj.Quantity, obj.Unit
	return nil
}

// flexSteps 接受字串、字串陣列或 {"step": 1, "description": "..."} 陣列
type flexSteps []string

func (s *flexSteps) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*s = flexSteps{text}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		if string(b) == "null" {
			*s = nil
			return nil
		}
		return fmt.Errorf("instructions must be a string or an array: %w", err)
	}
	steps := make(flexSteps, 0, len(items))
	for _, item := range items {
		var step string
		if err := json.Unmarshal(item, &step); err == nil {
			steps = append(steps, step)
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("unsupported instruction item: %s", string(item))
		}
		for _, key := range []string{"description", "text", "instruction", "step"} {
			if v, ok := obj[key].(string); ok && v != "" {
				steps = append(steps, v)
				break
			}
		}
	}
	*s = steps
	return nil
}

// flexNames 接受字串陣列、{"name": ...} 陣列或逗號分隔字串
type flexNames []string

func (n *flexNames) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*n = splitNames(text)
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*n = nil
		return nil
	}
	names := make(flexNames, 0, len(items))
	for _, item := range items {
		var ing looseIngredient
		if err := json.Unmarshal(item, &ing); err == nil && strings.TrimSpace(ing.Name) != "" {
			names = append(names, strings.TrimSpace(ing.Name))
		}
	}
	*n = names
	return nil
}

func splitNames(text string) []string {
	var names []string
	for _, part := range strings.Split(text, ",") {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// flexInt 接受 20、20.5、"20 minutos"；無數字時為 0
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if m := firstIntPattern.FindString(string(b)); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			*f = flexInt(n)
		}
	}
	return nil
}

// flexFloat 接受 2、0.5、"1,5 tazas"；無數字時為 0
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if m := firstFloatPattern.FindString(string(b)); m != "" {
		v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
		if err == nil {
			*f = flexFloat(v)
		}
	}
	return nil
}
