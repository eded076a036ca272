package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.Config{
		AI: config.AIConfig{MaxTokens: 800, Temperature: 0.5, Timeout: 5 * time.Second},
		OpenRouter: config.OpenRouterConfig{
			BaseURL: srv.URL,
			APIKey:  "sk-test",
			Model:   "qwen/qwen2.5-vl-72b-instruct:free",
			Title:   "Meal Planner",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestCompleteTextOnly(t *testing.T) {
	var got map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "Meal Planner", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"id": "1", "choices": [{"message": {"role": "assistant", "content": "{\"title\": \"Sopa\"}"}}]}`)
	})

	content, err := client.Complete(context.Background(), provider.TextOnly("Genera una receta"))
	require.NoError(t, err)
	assert.Equal(t, `{"title": "Sopa"}`, content)

	assert.Equal(t, "qwen/qwen2.5-vl-72b-instruct:free", got["model"])
	assert.EqualValues(t, 800, got["max_tokens"])
	messages := got["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "Genera una receta", messages[0].(map[string]interface{})["content"])
}

func TestCompleteWithImage(t *testing.T) {
	var parts []ContentPart
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			Messages []struct {
				Content []ContentPart `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		require.Len(t, raw.Messages, 1)
		parts = raw.Messages[0].Content
		writeJSON(w, http.StatusOK, `{"choices": [{"message": {"content": "ok"}}]}`)
	})

	img := provider.ImageAttachment{Data: []byte{1, 2, 3}, MIMEType: "image/png"}
	_, err := client.Complete(context.Background(), provider.WithImage("¿Qué ingredientes ves?", img))
	require.NoError(t, err)

	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/png;base64,AQID", parts[1].ImageURL.URL)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "overloaded", status: http.StatusServiceUnavailable, body: `{"error": "model overloaded"}`, wantErr: "status 503"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error": "slow down"}`, wantErr: "status 429"},
		{name: "no choices", status: http.StatusOK, body: `{"choices": []}`, wantErr: "no choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices": [{"message": {"content": ""}}]}`, wantErr: "empty content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := client.Complete(context.Background(), provider.TextOnly("hola"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"data": []}`)
	})
	assert.NoError(t, client.Ping(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	assert.Error(t, down.Ping(context.Background()))
}

func TestSanitizeResponse(t *testing.T) {
	body := `{"error": "bad image data:image/jpeg;base64,/9j/4AAQSkZJRg=="}`
	assert.Equal(t, `{"error": "bad image [IMAGE_DATA_REMOVED]"}`, sanitizeResponse(body))

	long := sanitizeResponse(strings.Repeat("x", 600))
	assert.Len(t, long, maxErrorBodyLength+3)
	assert.True(t, strings.HasSuffix(long, "..."))
}
