package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 3, cfg.Generation.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Generation.BaseDelay)
	assert.Equal(t, 2.0, cfg.Generation.Multiplier)
	assert.Equal(t, 14, cfg.Generation.MaxPlanDays)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.GreaterOrEqual(t, cfg.Server.MaxBodyBytes, MinBodyBytes(cfg.Image.MaxSizeBytes))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("AI_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-1234567890")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_GENERATION_BASE_DELAY", "500ms")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("DATABASE_URL", "file:test.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "openrouter", cfg.AI.Provider)
	assert.Equal(t, "sk-or-1234567890", cfg.OpenRouter.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Generation.BaseDelay)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
}

func TestLoadConfigInvalidProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "gemini")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini api key is required")
}

func validConfig() Config {
	return Config{
		Server:     ServerConfig{Port: 8080},
		AI:         AIConfig{Provider: "ollama"},
		Ollama:     OllamaConfig{BaseURL: "http://localhost:11434"},
		Generation: GenerationConfig{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2},
		Cache:      CacheConfig{Enabled: true, Backend: "memory", MaxSize: 10, TTL: time.Hour, CleanupInterval: time.Minute},
		Queue:      QueueConfig{Workers: 1, MaxSize: 1},
		Database:   DatabaseConfig{Driver: "sqlite"},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server port"},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "mistral" }, wantErr: "unknown ai provider"},
		{name: "no attempts", mutate: func(c *Config) { c.Generation.MaxAttempts = 0 }, wantErr: "max attempts"},
		{name: "shrinking backoff", mutate: func(c *Config) { c.Generation.Multiplier = 0.5 }, wantErr: "backoff"},
		{name: "unknown cache backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: "cache backend"},
		{name: "disabled cache skips checks", mutate: func(c *Config) { c.Cache = CacheConfig{} }},
		{name: "no workers", mutate: func(c *Config) { c.Queue.Workers = 0 }, wantErr: "queue workers"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database driver"},
		{
			name: "body limit smaller than encoded image",
			mutate: func(c *Config) {
				c.Image.MaxSizeBytes = 10 << 20
				c.Server.MaxBodyBytes = 10 << 20
			},
			wantErr: "max body bytes",
		},
		{
			name: "body limit fits encoded image",
			mutate: func(c *Config) {
				c.Image.MaxSizeBytes = 3 << 20
				c.Server.MaxBodyBytes = 4<<20 + 4<<10
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-o...7890", maskAPIKey("sk-or-1234567890"))
}

func TestMinBodyBytes(t *testing.T) {
	assert.Equal(t, int64(0), MinBodyBytes(0))
	assert.Equal(t, int64(4+4096), MinBodyBytes(3))
	assert.Equal(t, int64(4<<20+4<<10), MinBodyBytes(3<<20))
}
