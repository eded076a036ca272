package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultReadyTimeout 就緒檢查中每個依賴的期限
const DefaultReadyTimeout = 3 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Model     string                 `json:"model,omitempty"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// ModelBackend 健康檢查需要的模型服務能力
type ModelBackend interface {
	Name() string
	Ping(ctx context.Context) error
	QueueStatus() *queue.Status
	CacheStats() map[string]interface{}
}

// Pinger 可檢查連線的依賴，例如資料庫
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 健康檢查處理器
type Handler struct {
	version      string
	model        ModelBackend
	store        Pinger
	readyTimeout time.Duration
}

// NewHandler 創建健康檢查處理器，model 與 store 可為 nil
func NewHandler(version string, model ModelBackend, store Pinger) *Handler {
	return &Handler{
		version:      version,
		model:        model,
		store:        store,
		readyTimeout: DefaultReadyTimeout,
	}
}

// HealthCheck 回傳版本、運行時與模型閘門狀態
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.model != nil {
		response.Model = h.model.Name()
		response.Queue = h.model.QueueStatus()
		response.Cache = h.model.CacheStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 檢查資料庫與模型服務，任一失敗回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	checks := map[string]string{}
	ready := true

	if h.store != nil {
		if err := h.ping(c.Request.Context(), h.store); err != nil {
			common.LogWarn("資料庫未就緒", zap.Error(err))
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.model != nil {
		if err := h.ping(c.Request.Context(), h.model); err != nil {
			common.LogWarn("模型服務未就緒", zap.String("model", h.model.Name()), zap.Error(err))
			checks["model"] = err.Error()
			ready = false
		} else {
			checks["model"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *Handler) ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, h.readyTimeout)
	defer cancel()
	return p.Ping(ctx)
}
