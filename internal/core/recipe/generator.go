package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Generator 食譜生成流程：預選、歷史提示、提示詞、模型呼叫、解析與重試
type Generator struct {
	completer   provider.Completer
	tables      AffinityTables
	preselector *Preselector
	history     *HistoryContextBuilder
	policy      RetryPolicy
	metrics     *monitoring.Metrics
	maxPlanDays int
}

// NewGenerator 創建食譜生成器；history 與 metrics 可為 nil
func NewGenerator(completer provider.Completer, tables AffinityTables, history *HistoryContextBuilder, policy RetryPolicy, metrics *monitoring.Metrics) *Generator {
	if tables == nil {
		tables = DefaultAffinityTables()
	}
	if history == nil {
		history = NewHistoryContextBuilder(nil, DefaultHistorySample, metrics)
	}
	return &Generator{
		completer:   completer,
		tables:      tables,
		preselector: NewPreselector(tables),
		history:     history,
		policy:      policy,
		metrics:     metrics,
	}
}

// GenerateRecipeWithInventory 依庫存與餐別生成食譜，暫時性過載時以指數退避重試
func (g *Generator) GenerateRecipeWithInventory(ctx context.Context, req InventoryRequest) (*common.GeneratedRecipeWithInventory, error) {
	mealType, err := common.ParseMealType(string(req.MealType))
	if err != nil {
		return nil, err
	}
	servings := req.Servings
	if servings <= 0 {
		servings = DefaultServings
	}

	selected := g.preselector.Preselect(req.Inventory, mealType)
	exclusion := g.history.BuildExclusionContext(ctx, req.UserID)

	prompt := BuildPrompt(PromptInput{
		Ingredients:        selected,
		MealType:           mealType,
		Style:              g.tables.Style(mealType),
		ExclusionContext:   exclusion,
		Servings:           servings,
		SuggestIngredients: req.SuggestIngredients,
		Options:            req.Options,
	})

	common.LogDebug("開始生成食譜",
		zap.String("user_id", req.UserID),
		zap.String("meal_type", string(mealType)),
		zap.Int("inventory", len(req.Inventory)),
		zap.Int("selected", len(selected)),
		zap.Bool("history", exclusion != ""),
	)

	var (
		recipe common.GeneratedRecipe
		source ParseSource
	)
	attempts, err := g.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		raw, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			g.logAttemptFailure(attempt, err)
			return err
		}
		recipe, source = ParseAndNormalize(raw, servings)
		return nil
	})
	if err != nil {
		g.metrics.ObserveAttempt("failure")
		common.LogError("食譜生成失敗",
			zap.String("meal_type", string(mealType)),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, classifyFailure(attempts, err)
	}

	g.metrics.ObserveAttempt("success")
	g.metrics.ObserveParse(source.String())
	if attempts > 1 {
		common.LogInfo("重試後生成成功", zap.Int("attempts", attempts))
	}

	return &common.GeneratedRecipeWithInventory{
		GeneratedRecipe:     recipe,
		MealType:            mealType,
		SelectedIngredients: selected,
		Attempts:            attempts,
		ParseSource:         source.String(),
	}, nil
}

// GenerateRecipe 只依食材清單生成，不預選、不讀歷史、不重試
func (g *Generator) GenerateRecipe(ctx context.Context, ingredients []string, prefs *common.RecipePreferences) (*common.GeneratedRecipe, error) {
	names := make([]string, 0, len(ingredients))
	for _, name := range ingredients {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, common.NewValidationError("ingredients must not be empty")
	}

	servings := DefaultServings
	if prefs != nil && prefs.Servings > 0 {
		servings = prefs.Servings
	}

	raw, err := g.completer.Complete(ctx, BuildSimplePrompt(names, prefs))
	if err != nil {
		g.metrics.ObserveAttempt("failure")
		switch {
		case isRateLimit(err):
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		case IsConnectionFailure(err):
			return nil, &ConnectionError{Err: err}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, &GenerationError{Attempts: 1, Err: err}
		}
	}

	recipe, source := ParseAndNormalize(raw, servings)
	g.metrics.ObserveAttempt("success")
	g.metrics.ObserveParse(source.String())
	return &recipe, nil
}

func (g *Generator) logAttemptFailure(attempt int, err error) {
	maxAttempts := g.policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryable := g.policy.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	if attempt < maxAttempts && retryable(err) {
		g.metrics.ObserveAttempt("retry")
		common.LogWarn("模型過載，稍後重試",
			zap.Int("attempt", attempt),
			zap.Duration("delay", g.policy.Delay(attempt)),
			zap.Error(err),
		)
		return
	}
	common.LogWarn("模型呼叫失敗",
		zap.Int("attempt", attempt),
		zap.Error(err),
	)
}
