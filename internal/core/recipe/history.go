package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultHistorySample 每次生成讀取的歷史食譜數
const DefaultHistorySample = 3

// HistoryRecipe 歷史食譜；Ingredients 為 JSON 字串 [{"name": ...}]
type HistoryRecipe struct {
	Title        string
	Ingredients  string
	Instructions string
}

// HistoryReader 依建立時間由新到舊讀取使用者的食譜
type HistoryReader interface {
	RecentRecipes(ctx context.Context, userID string, limit int) ([]HistoryRecipe, error)
}

// CookingMethod 烹調方式標籤與對應關鍵字
type CookingMethod struct {
	Label    string
	Keywords []string
}

// DefaultCookingMethods 內建烹調方式表
func DefaultCookingMethods() []CookingMethod {
	return []CookingMethod{
		{Label: "horneado", Keywords: []string{"hornea", "horno"}},
		{Label: "plancha", Keywords: []string{"sartén", "plancha"}},
		{Label: "hervido", Keywords: []string{"hervido", "hervir"}},
		{Label: "salteado", Keywords: []string{"salteado", "saltear"}},
	}
}

// HistorySample 從近期食譜取出的食材、標題與烹調方式（皆已排序）
type HistorySample struct {
	Ingredients []string
	Titles      []string
	Methods     []string
	Skipped     int
}

// Empty 沒有任何可用資訊
func (s HistorySample) Empty() bool {
	return len(s.Ingredients) == 0 && len(s.Titles) == 0 && len(s.Methods) == 0
}

// Render 產生注入提示詞的排除說明，無資訊時為空字串
func (s HistorySample) Render() string {
	if s.Empty() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("HISTORIAL RECIENTE DEL USUARIO (evita repetir):\n")
	if len(s.Ingredients) > 0 {
		sb.WriteString("- Ingredientes usados recientemente: " + strings.Join(s.Ingredients, ", ") + "\n")
	}
	if len(s.Titles) > 0 {
		sb.WriteString("- Títulos recientes: " + strings.Join(s.Titles, ", ") + "\n")
	}
	if len(s.Methods) > 0 {
		sb.WriteString("- Métodos de cocción recientes: " + strings.Join(s.Methods, ", ") + "\n")
	}
	sb.WriteString("Crea una receta distinta: no repitas esos títulos, da protagonismo a otra combinación de ingredientes y usa otro método de cocción.")
	return sb.String()
}

// HistoryContextBuilder 由使用者的歷史食譜建立排除提示
type HistoryContextBuilder struct {
	reader  HistoryReader
	limit   int
	methods []CookingMethod
	metrics *monitoring.Metrics
}

// NewHistoryContextBuilder reader 可為 nil，此時一律回傳空提示
func NewHistoryContextBuilder(reader HistoryReader, limit int, metrics *monitoring.Metrics) *HistoryContextBuilder {
	if limit <= 0 {
		limit = DefaultHistorySample
	}
	return &HistoryContextBuilder{
		reader:  reader,
		limit:   limit,
		methods: DefaultCookingMethods(),
		metrics: metrics,
	}
}

// Sample 讀取並彙整歷史；單筆解析失敗只略過該筆
func (b *HistoryContextBuilder) Sample(ctx context.Context, userID string) (HistorySample, error) {
	if b.reader == nil || strings.TrimSpace(userID) == "" {
		return HistorySample{}, nil
	}

	recipes, err := b.reader.RecentRecipes(ctx, userID, b.limit)
	if err != nil {
		return HistorySample{}, fmt.Errorf("failed to read recipe history: %w", err)
	}

	ingredients := map[string]bool{}
	titles := map[string]bool{}
	methods := map[string]bool{}
	skipped := 0

	for _, r := range recipes {
		names, err := ingredientNames(r.Ingredients)
		if err != nil {
			skipped++
			common.LogWarn("略過無法解析的歷史食譜",
				zap.String("title", r.Title),
				zap.Error(err),
			)
			continue
		}
		for _, n := range names {
			ingredients[n] = true
		}
		if t := strings.ToLower(strings.TrimSpace(r.Title)); t != "" {
			titles[t] = true
		}
		instructions := strings.ToLower(r.Instructions)
		for _, m := range b.methods {
			for _, kw := range m.Keywords {
				if strings.Contains(instructions, kw) {
					methods[m.Label] = true
					break
				}
			}
		}
	}

	return HistorySample{
		Ingredients: sortedKeys(ingredients),
		Titles:      sortedKeys(titles),
		Methods:     sortedKeys(methods),
		Skipped:     skipped,
	}, nil
}

// BuildExclusionContext 回傳排除提示；任何失敗都只記錄並回傳空字串
func (b *HistoryContextBuilder) BuildExclusionContext(ctx context.Context, userID string) string {
	sample, err := b.Sample(ctx, userID)
	if err != nil {
		b.metrics.ObserveHistoryFailure()
		common.LogWarn("無法建立歷史提示，繼續生成",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return ""
	}
	return sample.Render()
}

func ingredientNames(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var items []looseIngredient
	if err := common.ParseJSON(raw, &items); err != nil {
		return nil, fmt.Errorf("invalid ingredients JSON: %w", err)
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		if n := strings.ToLower(strings.TrimSpace(it.Name)); n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
