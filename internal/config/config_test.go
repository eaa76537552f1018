package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"BOT_TOKEN", "ENVIRONMENT", "QUIZ_DATA_DIR", "QUESTION_DB", "QUESTION_FEED_URL",
	"DELIVERY_MODE", "RENDER", "WEBHOOK_URL", "RENDER_EXTERNAL_URL", "WEBHOOK_PATH",
	"PORT", "REDIS_URL", "REVIEW_TTL", "REVIEW_CAPACITY", "EVENTS_PUBLISHER",
	"KAFKA_BROKERS", "EVENTS_TOPIC", "POLL_TIMEOUT", "WEBHOOK_SECRET", "CORS_ALLOW_ORIGINS",
}

// clearEnv empties every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "quizzes", cfg.QuizDataDir)
	assert.Equal(t, DeliveryPolling, cfg.DeliveryMode)
	assert.Equal(t, "/telegram/webhook", cfg.WebhookPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.ReviewTTL)
	assert.Equal(t, 1000, cfg.ReviewCapacity)
	assert.Equal(t, 10*time.Second, cfg.PollTimeout)
	assert.Equal(t, "gochannel", cfg.EventsPublisher)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "quiz.attempts", cfg.EventsTopic)
	assert.Empty(t, cfg.WebhookSecret)
	assert.Empty(t, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
	assert.Error(t, cfg.RequireBotToken())
}

func TestLoadWebhookSecretAndOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://gate.example.com, http://localhost:3000")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.WebhookSecret)
	assert.Equal(t, []string{"https://gate.example.com", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadRenderImpliesWebhook(t *testing.T) {
	clearEnv(t)
	t.Setenv("RENDER", "true")
	t.Setenv("RENDER_EXTERNAL_URL", "https://quiz.onrender.com/")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, DeliveryWebhook, cfg.DeliveryMode)
	assert.Equal(t, "https://quiz.onrender.com/telegram/webhook", cfg.PublicWebhookURL())
}

func TestLoadWebhookWithoutURLFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("DELIVERY_MODE", "webhook")

	_, err := Load(missingEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_URL")
}

func TestLoadReadsEnvFileWithoutOverriding(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))
	require.NoError(t, os.Unsetenv("PORT"))
	t.Setenv("ENVIRONMENT", "production")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BOT_TOKEN=123:abc\nPORT=9090\nENVIRONMENT=staging\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("BOT_TOKEN")
		_ = os.Unsetenv("PORT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.NoError(t, cfg.RequireBotToken())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "REVIEW_TTL", value: "soon"},
		{name: "negative ttl", key: "REVIEW_TTL", value: "-1h"},
		{name: "bad capacity", key: "REVIEW_CAPACITY", value: "many"},
		{name: "zero capacity", key: "REVIEW_CAPACITY", value: "0"},
		{name: "unknown delivery", key: "DELIVERY_MODE", value: "carrier-pigeon"},
		{name: "unknown publisher", key: "EVENTS_PUBLISHER", value: "rabbitmq"},
		{name: "non numeric port", key: "PORT", value: "http"},
		{name: "relative webhook path", key: "WEBHOOK_PATH", value: "hook"},
		{name: "bad feed url", key: "QUESTION_FEED_URL", value: "not a url"},
		{name: "bad cors origin", key: "CORS_ALLOW_ORIGINS", value: "https://ok.example.com,nope"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:1", "b:2"}, splitList(" a:1, ,b:2 "))
	assert.Nil(t, splitList(""))
}
