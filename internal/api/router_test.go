package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meal-planner/internal/api/middleware"
	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/image"
	recipeService "meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/infrastructure/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCompleter struct{}

func (echoCompleter) Complete(context.Context, provider.Prompt) (string, error) {
	return `{"title": "Ensalada rápida", "instructions": "Mezclar todo", "cookingTime": 15}`, nil
}

func (echoCompleter) Name() string { return "echo" }

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Env: "test", Version: "test"},
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 10},
		RateLimit:   config.RateLimitConfig{Enabled: true, Requests: 3, Window: time.Minute},
		DedupWindow: time.Minute,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	db, err := persistence.OpenDatabase(&config.DatabaseConfig{Driver: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = persistence.CloseDatabase(db) })

	metrics := monitoring.NewMetrics()
	repo := persistence.NewRecipeRepository(db)
	generator := recipeService.NewGenerator(echoCompleter{}, nil, nil, recipeService.DefaultRetryPolicy(), metrics)

	return SetupRouter(cfg, Dependencies{
		Generator: generator,
		Store:     repo,
		Images:    image.NewService(1<<20, 512),
		Metrics:   metrics,
	})
}

func send(h http.Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, testConfig())

	for _, path := range []string{"/health", "/ready", "/live"} {
		w := send(router, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}
}

func TestRouterSimpleRecipeAndMetrics(t *testing.T) {
	router := newTestRouter(t, testConfig())

	w := send(router, http.MethodPost, "/api/v1/recipes/simple", `{"ingredients": ["lechuga", "tomate"]}`, "user-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Ensalada rápida")

	w = send(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `meal_planner_generation_attempts_total{outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), `meal_planner_parse_total{source="json"} 1`)
}

func TestRouterRejectsDuplicates(t *testing.T) {
	router := newTestRouter(t, testConfig())
	body := `{"ingredients": ["arroz"]}`

	assert.Equal(t, http.StatusOK, send(router, http.MethodPost, "/api/v1/recipes/simple", body, "user-1").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodPost, "/api/v1/recipes/simple", body, "user-1").Code)
}

func TestRouterRateLimit(t *testing.T) {
	router := newTestRouter(t, testConfig())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, send(router, http.MethodGet, "/api/v1/recipes", "", "user-1").Code)
	}
	w := send(router, http.MethodGet, "/api/v1/recipes", "", "user-1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 探針不受限流影響
	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/live", "", "user-1").Code)
}

func TestRouterBodyLimit(t *testing.T) {
	router := newTestRouter(t, testConfig())

	body := `{"ingredients": ["` + strings.Repeat("a", 2048) + `"]}`
	w := send(router, http.MethodPost, "/api/v1/recipes/simple", body, "user-1")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
