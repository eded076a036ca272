package recipe

import (
	"context"
	"testing"
	"time"

	"meal-planner/internal/core/ai/cache"
	"meal-planner/internal/core/ai/service"
	"meal-planner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cachedGenerator 以真實記憶體快取包住 fake 模型
func cachedGenerator(t *testing.T, backend *fakeCompleter) *Generator {
	t.Helper()
	store := cache.NewManager(&config.CacheConfig{MaxSize: 10, TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close() })
	svc := service.NewService(backend, store, nil, nil, nil)
	return NewGenerator(svc, nil, nil, DefaultRetryPolicy(), nil)
}

func TestAnalyzeIngredientImageDoesNotCacheUnparseableReply(t *testing.T) {
	backend := newFakeCompleter(
		reply{text: "Veo una cocina muy ordenada."},
		reply{text: `{"missingIngredients": [{"name": "Pimiento", "quantity": 2, "unit": "PIECE"}]}`},
	)
	g := cachedGenerator(t, backend)
	ctx := context.Background()

	first, err := g.AnalyzeIngredientImage(ctx, photo, nil)
	require.NoError(t, err)
	assert.Empty(t, first.MissingIngredients)

	second, err := g.AnalyzeIngredientImage(ctx, photo, nil)
	require.NoError(t, err)
	require.Len(t, second.MissingIngredients, 1)
	assert.Equal(t, "Pimiento", second.MissingIngredients[0].Name)
	assert.Equal(t, 2, backend.calls())

	third, err := g.AnalyzeIngredientImage(ctx, photo, nil)
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Equal(t, 2, backend.calls())
}

func TestGenerateMealPlanDoesNotCacheUnparseableReply(t *testing.T) {
	backend := newFakeCompleter(
		reply{text: "Lo siento, hoy no."},
		reply{text: `[{"date": "2026-03-02", "mealType": "DINNER", "recipe": {"title": "Sopa de fideos"}}]`},
	)
	g := cachedGenerator(t, backend)
	ctx := context.Background()

	first, err := g.GenerateMealPlan(ctx, nil, 1, planStart)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecipe(), first[2].Recipe)

	for i := 0; i < 2; i++ {
		plan, err := g.GenerateMealPlan(ctx, nil, 1, planStart)
		require.NoError(t, err)
		assert.Equal(t, "Sopa de fideos", plan[2].Recipe.Title)
	}
	assert.Equal(t, 2, backend.calls())
}
