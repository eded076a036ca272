package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"meal-planner/internal/core/ai/cache"
	"meal-planner/internal/core/ai/gemini"
	"meal-planner/internal/core/ai/ollama"
	"meal-planner/internal/core/ai/openrouter"
	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/core/image"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 模型補全服務：圖片正規化、快取、併發閘門、日誌與指標
type Service struct {
	backend  provider.Completer
	cache    cache.Store
	gate     *queue.Manager
	imageSvc *image.Service
	metrics  *monitoring.Metrics
}

// NewBackend 依設定建立模型後端
func NewBackend(ctx context.Context, cfg *config.Config) (provider.Completer, error) {
	switch cfg.AI.Provider {
	case "ollama":
		return ollama.NewClient(cfg), nil
	case "openrouter":
		return openrouter.NewClient(cfg), nil
	case "gemini":
		return gemini.NewClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
}

// NewService 創建模型補全服務，cacheStore 可為 nil
func NewService(backend provider.Completer, cacheStore cache.Store, gate *queue.Manager, imageSvc *image.Service, metrics *monitoring.Metrics) *Service {
	return &Service{
		backend:  backend,
		cache:    cacheStore,
		gate:     gate,
		imageSvc: imageSvc,
		metrics:  metrics,
	}
}

// Name 回傳後端名稱
func (s *Service) Name() string {
	return s.backend.Name()
}

// Complete 統一對外方法
func (s *Service) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	var imageKey string
	if img, ok := prompt.Image(); ok && s.imageSvc != nil {
		normalized, err := s.imageSvc.Normalize(img)
		if err != nil {
			return "", fmt.Errorf("failed to process image: %w", err)
		}
		prompt = prompt.ReplaceImage(normalized)
		imageKey = normalized.Base64()
	}

	useCache := prompt.IsCacheable() && s.cache != nil
	if useCache {
		if val, err := s.cache.Get(ctx, prompt.Text(), imageKey); err == nil && val != "" {
			return val, nil
		}
	}

	if s.gate != nil {
		release, err := s.gate.Acquire(ctx)
		if err != nil {
			return "", err
		}
		defer release()
	}

	start := time.Now()
	content, err := s.backend.Complete(ctx, prompt)
	duration := time.Since(start)
	common.LogAICall(s.backend.Name(), duration, err)
	s.metrics.ObserveModelCall(s.backend.Name(), duration, err)
	if err != nil {
		return "", err
	}

	if useCache && prompt.ShouldCache(content) {
		if err := s.cache.Set(ctx, prompt.Text(), imageKey, content); err != nil && !errors.Is(err, common.ErrCacheFull) {
			common.LogWarn("快取寫入失敗", zap.Error(err))
		}
	}
	return content, nil
}

// Close 釋放後端持有的連線，例如 Gemini 的 gRPC client
func (s *Service) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Ping 檢查後端是否可用；後端不支援時視為可用
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.backend.(provider.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// QueueStatus 回傳閘門狀態
func (s *Service) QueueStatus() *queue.Status {
	if s.gate == nil {
		return nil
	}
	return s.gate.GetQueueStatus()
}

// CacheStats 回傳快取統計
func (s *Service) CacheStats() map[string]interface{} {
	if s.cache == nil {
		return nil
	}
	return s.cache.Stats()
}
