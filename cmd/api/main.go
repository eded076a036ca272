package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-planner/internal/api"
	"meal-planner/internal/core/ai/cache"
	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/core/ai/service"
	"meal-planner/internal/core/image"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/infrastructure/persistence"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	db, err := persistence.OpenDatabase(&cfg.Database)
	if err != nil {
		common.LogFatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := persistence.CloseDatabase(db); err != nil {
			common.LogWarn("Failed to close database", zap.Error(err))
		}
	}()

	cacheStore, err := cache.NewStore(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if cacheStore != nil {
		defer cacheStore.Close()
	}

	gate := queue.NewManager(&cfg.Queue)
	defer gate.Close()

	metrics := monitoring.NewMetrics()
	imageSvc := image.NewService(cfg.Image.MaxSizeBytes, cfg.Image.MaxDimension)

	backend, err := service.NewBackend(context.Background(), cfg)
	if err != nil {
		common.LogFatal("Failed to initialize model backend", zap.Error(err))
	}
	aiService := service.NewService(backend, cacheStore, gate, imageSvc, metrics)
	defer func() {
		if err := aiService.Close(); err != nil {
			common.LogWarn("Failed to close model backend", zap.Error(err))
		}
	}()

	repo := persistence.NewRecipeRepository(db)
	history := recipe.NewHistoryContextBuilder(repo, cfg.Generation.HistorySample, metrics)

	tables := recipe.DefaultAffinityTables()
	if cfg.Generation.AffinityFile != "" {
		tables, err = recipe.LoadAffinityTables(cfg.Generation.AffinityFile)
		if err != nil {
			common.LogFatal("Failed to load affinity tables",
				zap.String("path", cfg.Generation.AffinityFile),
				zap.Error(err),
			)
		}
	}

	policy := recipe.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Generation.MaxAttempts
	policy.BaseDelay = cfg.Generation.BaseDelay
	policy.Multiplier = cfg.Generation.Multiplier

	generator := recipe.NewGenerator(aiService, tables, history, policy, metrics).
		WithMaxPlanDays(cfg.Generation.MaxPlanDays)

	router := api.SetupRouter(cfg, api.Dependencies{
		Generator: generator,
		Store:     repo,
		Model:     aiService,
		Images:    imageSvc,
		Metrics:   metrics,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.String("model", aiService.Name()),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
