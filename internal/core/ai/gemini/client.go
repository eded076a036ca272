package gemini

import (
	"context"
	"fmt"
	"strings"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client Google Gemini 客戶端
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewClient 創建 Gemini 客戶端
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Gemini.Model)
	model.SetTemperature(float32(cfg.AI.Temperature))
	if cfg.AI.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.AI.MaxTokens))
	}

	return &Client{client: client, model: model, modelName: cfg.Gemini.Model}, nil
}

// Name 回傳後端名稱
func (c *Client) Name() string {
	return "gemini/" + c.modelName
}

// Complete 以文字或圖片 + 文字呼叫 GenerateContent
func (c *Client) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	parts := []genai.Part{}
	if img, ok := prompt.Image(); ok {
		parts = append(parts, genai.ImageData(img.Format(), img.Data))
	}
	parts = append(parts, genai.Text(prompt.Text()))

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("Gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return sb.String(), nil
}

// Close 關閉連線
func (c *Client) Close() error {
	return c.client.Close()
}
