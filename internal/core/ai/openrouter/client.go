package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Message 對話訊息，Content 為 string 或 []ContentPart
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart 多模態內容區塊
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 圖片 URL 結構
type ImageURL struct {
	URL string `json:"url"`
}

// Request chat/completions 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response chat/completions 回應
type Response struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage UsageInfo `json:"usage"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client OpenAI 相容 API 客戶端（OpenRouter、LM Studio、vLLM）
type Client struct {
	client *resty.Client
	config provider.Config
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.OpenRouter.BaseURL).
		SetTimeout(cfg.AI.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", cfg.OpenRouter.Referer).
		SetHeader("X-Title", cfg.OpenRouter.Title)
	if cfg.OpenRouter.APIKey != "" {
		client.SetAuthToken(cfg.OpenRouter.APIKey)
	}

	return &Client{
		client: client,
		config: provider.Config{
			Model:       cfg.OpenRouter.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		},
	}
}

// Name 回傳後端名稱
func (c *Client) Name() string {
	return "openrouter/" + c.config.Model
}

// buildMessages 純文字送字串內容，附圖時送文字加 image_url 區塊
func buildMessages(prompt provider.Prompt) []Message {
	img, ok := prompt.Image()
	if !ok {
		return []Message{{Role: "user", Content: prompt.Text()}}
	}
	return []Message{{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt.Text()},
			{Type: "image_url", ImageURL: &ImageURL{URL: img.DataURI()}},
		},
	}}
}

// Complete 發送 chat/completions 請求
func (c *Client) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	req := Request{
		Model:       c.config.Model,
		Messages:    buildMessages(prompt),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", req.Model),
		zap.String("prompt_kind", prompt.Kind().String()),
	)

	var result Response
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		body := sanitizeResponse(resp.String())
		common.LogError("AI service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", req.Model),
			zap.String("response", body),
		)
		return "", fmt.Errorf("AI service error (status %d %s): %s", resp.StatusCode(), http.StatusText(resp.StatusCode()), body)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty content in OpenRouter response")
	}

	common.LogDebug("OpenRouter usage",
		zap.Int("prompt_tokens", result.Usage.PromptTokens),
		zap.Int("completion_tokens", result.Usage.CompletionTokens),
	)
	return content, nil
}

// Ping 透過 /models 檢查服務是否可用
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return fmt.Errorf("failed to reach OpenRouter: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("OpenRouter health check returned status %d", resp.StatusCode())
	}
	return nil
}

var dataURIPattern = regexp.MustCompile(`data:image/[a-zA-Z+.-]+;base64,[A-Za-z0-9+/=]+`)

const maxErrorBodyLength = 500

// sanitizeResponse 移除錯誤內容中的圖片數據並截斷
func sanitizeResponse(body string) string {
	body = dataURIPattern.ReplaceAllString(body, "[IMAGE_DATA_REMOVED]")
	body = strings.TrimSpace(body)
	if len(body) > maxErrorBodyLength {
		body = body[:maxErrorBodyLength] + "..."
	}
	return body
}
