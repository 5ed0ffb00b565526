package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"HTTP_PORT", "LOG_LEVEL", "LOG_DEVELOPMENT",
	"COMPLETION_PROVIDER", "COMPLETION_ENDPOINT", "COMPLETION_API_KEY", "COMPLETION_CUSTOMER_ID",
	"GEMINI_API_KEY", "GEMINI_MODEL", "VIDEO_MODEL", "AUDIO_MODEL", "AUDIO_TIMEOUT",
	"FALLBACK_MEDIA_BASE_URL", "VIDEO_PLACEHOLDER_URL", "TEMPLATES_FILE",
	"ORDER_STORE", "POSTGRES_DSN", "LIBSQL_URL", "LIBSQL_AUTH_TOKEN", "REDIS_URL", "ORDER_TTL",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SHUTDOWN_DRAIN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		// t.Setenv restores the previous value on cleanup; Unsetenv then removes it for this test.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogDevelopment)
	assert.Equal(t, ProviderChat, cfg.CompletionProvider)
	assert.Equal(t, "https://oi-server.onrender.com/chat/completions", cfg.CompletionEndpoint)
	assert.Equal(t, "replicate/google/veo-3", cfg.VideoModel)
	assert.Equal(t, "replicate/black-forest-labs/flux-1.1-pro", cfg.AudioModel)
	assert.Equal(t, 90*time.Second, cfg.AudioTimeout)
	assert.Equal(t, "https://example.com", cfg.FallbackMediaBaseURL)
	assert.Equal(t, StoreMemory, cfg.OrderStore)
	assert.Equal(t, 24*time.Hour, cfg.OrderTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownDrainTimeout)
	assert.False(t, cfg.TelegramEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "3000")
	t.Setenv("LOG_DEVELOPMENT", "true")
	t.Setenv("COMPLETION_PROVIDER", "GEMINI")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("AUDIO_TIMEOUT", "45")
	t.Setenv("FALLBACK_MEDIA_BASE_URL", "https://cdn.test/")
	t.Setenv("ORDER_STORE", "redis")
	t.Setenv("ORDER_TTL", "1h")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg := Load()

	assert.Equal(t, 3000, cfg.Port)
	assert.True(t, cfg.LogDevelopment)
	assert.Equal(t, ProviderGemini, cfg.CompletionProvider)
	assert.Equal(t, 45*time.Second, cfg.AudioTimeout)
	assert.Equal(t, "https://cdn.test", cfg.FallbackMediaBaseURL)
	assert.Equal(t, StoreRedis, cfg.OrderStore)
	assert.Equal(t, time.Hour, cfg.OrderTTL)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.True(t, cfg.TelegramEnabled())
	require.NoError(t, cfg.Validate())
}

func TestInvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "not-a-number")
	t.Setenv("AUDIO_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.AudioTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown store", mutate: func(c *Config) { c.OrderStore = "mongo" }, wantErr: "unknown ORDER_STORE"},
		{name: "unknown provider", mutate: func(c *Config) { c.CompletionProvider = "bard" }, wantErr: "unknown COMPLETION_PROVIDER"},
		{name: "gemini without key", mutate: func(c *Config) { c.CompletionProvider = ProviderGemini }, wantErr: "GEMINI_API_KEY"},
		{name: "libsql without url", mutate: func(c *Config) { c.OrderStore = StoreLibSQL }, wantErr: "LIBSQL_URL"},
		{name: "telegram without chat", mutate: func(c *Config) { c.TelegramBotToken = "tg" }, wantErr: "TELEGRAM_CHAT_ID"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "HTTP_PORT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
