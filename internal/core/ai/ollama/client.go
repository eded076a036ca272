package ollama

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ChatMessage Ollama 對話訊息，Images 為不含前綴的 base64
type ChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ChatRequest /api/chat 請求
type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// ChatResponse /api/chat 回應
type ChatResponse struct {
	Model         string      `json:"model"`
	Message       ChatMessage `json:"message"`
	Done          bool        `json:"done"`
	TotalDuration int64       `json:"total_duration,omitempty"`
	EvalCount     int         `json:"eval_count,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client 本地 Ollama 客戶端
type Client struct {
	client      *resty.Client
	model       string
	visionModel string
	options     map[string]interface{}
}

// NewClient 創建 Ollama 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Ollama.BaseURL).
		SetTimeout(cfg.AI.Timeout).
		SetHeader("Content-Type", "application/json")

	common.LogInfo("Ollama client initialized",
		zap.String("base_url", cfg.Ollama.BaseURL),
		zap.String("model", cfg.Ollama.Model),
		zap.String("vision_model", cfg.Ollama.VisionModel),
	)

	return &Client{
		client:      client,
		model:       cfg.Ollama.Model,
		visionModel: cfg.Ollama.VisionModel,
		options: map[string]interface{}{
			"temperature": cfg.AI.Temperature,
			"num_predict": cfg.AI.MaxTokens,
			"num_ctx":     cfg.Ollama.NumCtx,
		},
	}
}

// Name 回傳後端名稱
func (c *Client) Name() string {
	return "ollama/" + c.model
}

// Complete 呼叫 /api/chat；附圖時改用視覺模型
func (c *Client) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	model := c.model
	msg := ChatMessage{Role: "user", Content: prompt.Text()}
	if img, ok := prompt.Image(); ok {
		model = c.visionModel
		msg.Images = []string{img.Base64()}
	}

	req := ChatRequest{
		Model:    model,
		Messages: []ChatMessage{msg},
		Stream:   false,
		Options:  c.options,
	}

	var result ChatResponse
	var apiErr errorResponse
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("failed to send request to Ollama: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		detail := apiErr.Error
		if detail == "" {
			detail = resp.String()
		}
		return "", fmt.Errorf("Ollama returned status %d %s: %s", resp.StatusCode(), http.StatusText(resp.StatusCode()), detail)
	}

	common.LogDebug("Ollama chat completed",
		zap.String("model", model),
		zap.Int("eval_count", result.EvalCount),
		zap.Duration("latency", time.Since(start)),
	)

	if result.Message.Content == "" {
		return "", fmt.Errorf("empty response from Ollama")
	}
	return result.Message.Content, nil
}

// Ping 透過 /api/tags 檢查服務是否可用
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return fmt.Errorf("failed to reach Ollama: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Ollama health check returned status %d", resp.StatusCode())
	}
	return nil
}
