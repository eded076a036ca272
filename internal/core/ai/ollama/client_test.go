package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
		AI: config.AIConfig{MaxTokens: 1000, Temperature: 0.7, Timeout: 5 * time.Second},
		Ollama: config.OllamaConfig{
			BaseURL:     srv.URL,
			Model:       "llama3.2",
			VisionModel: "llava",
			NumCtx:      4096,
		},
	})
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name       string
		prompt     provider.Prompt
		wantModel  string
		wantImages []string
	}{
		{
			name:      "text uses chat model",
			prompt:    provider.TextOnly("Receta con arroz"),
			wantModel: "llama3.2",
		},
		{
			name:       "image uses vision model",
			prompt:     provider.WithImage("¿Qué hay en la nevera?", provider.ImageAttachment{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"}),
			wantModel:  "llava",
			wantImages: []string{"AQID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ChatRequest
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/chat", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				reply(w, http.StatusOK, `{"model": "x", "message": {"role": "assistant", "content": "receta"}, "done": true, "eval_count": 42}`)
			})

			content, err := client.Complete(context.Background(), tt.prompt)
			require.NoError(t, err)
			assert.Equal(t, "receta", content)

			assert.Equal(t, tt.wantModel, got.Model)
			assert.False(t, got.Stream)
			require.Len(t, got.Messages, 1)
			assert.Equal(t, tt.prompt.Text(), got.Messages[0].Content)
			assert.Equal(t, tt.wantImages, got.Messages[0].Images)
			assert.EqualValues(t, 4096, got.Options["num_ctx"])
		})
	}
}

func TestCompleteErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusServiceUnavailable, `{"error": "server overloaded, please retry shortly"}`)
	})
	_, err := client.Complete(context.Background(), provider.TextOnly("hola"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "overloaded")

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"message": {"role": "assistant", "content": ""}, "done": true}`)
	})
	_, err = empty.Complete(context.Background(), provider.TextOnly("hola"))
	assert.EqualError(t, err, "empty response from Ollama")
}

func TestCompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(&config.Config{
		AI:     config.AIConfig{Timeout: time.Second},
		Ollama: config.OllamaConfig{BaseURL: url, Model: "llama3.2"},
	})
	_, err := client.Complete(context.Background(), provider.TextOnly("hola"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		reply(w, http.StatusOK, `{"models": []}`)
	})
	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "ollama/llama3.2", client.Name())
}
