package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DeliveryPolling = "polling"
	DeliveryWebhook = "webhook"
)

type Config struct {
	BotToken    string
	Environment string `validate:"required"`

	QuizDataDir     string
	QuestionDB      string
	QuestionFeedURL string `validate:"omitempty,url"`

	DeliveryMode string `validate:"oneof=polling webhook"`
	WebhookURL   string `validate:"omitempty,url"`
	WebhookPath  string `validate:"required,startswith=/"`
	PollTimeout  time.Duration
	Port         string `validate:"required,numeric"`

	// WebhookSecret is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	WebhookSecret string

	RedisURL       string
	ReviewTTL      time.Duration
	ReviewCapacity int `validate:"gt=0"`

	EventsPublisher string `validate:"oneof=gochannel kafka none"`
	KafkaBrokers    []string
	EventsTopic     string `validate:"required"`

	CORSOrigins []string `validate:"dive,url"`
}

// Load reads the optional .env files (default ".env") and then the
// environment. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		BotToken:        getEnv("BOT_TOKEN", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		QuizDataDir:     getEnv("QUIZ_DATA_DIR", "quizzes"),
		QuestionDB:      getEnv("QUESTION_DB", ""),
		QuestionFeedURL: getEnv("QUESTION_FEED_URL", ""),
		WebhookPath:     getEnv("WEBHOOK_PATH", "/telegram/webhook"),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		Port:            getEnv("PORT", "8080"),
		RedisURL:        getEnv("REDIS_URL", ""),
		EventsPublisher: strings.ToLower(getEnv("EVENTS_PUBLISHER", "gochannel")),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		EventsTopic:     getEnv("EVENTS_TOPIC", "quiz.attempts"),
		CORSOrigins:     splitList(getEnv("CORS_ALLOW_ORIGINS", "")),
	}

	defaultMode := DeliveryPolling
	if getEnv("RENDER", "") != "" {
		defaultMode = DeliveryWebhook
	}
	cfg.DeliveryMode = strings.ToLower(getEnv("DELIVERY_MODE", defaultMode))
	cfg.WebhookURL = getEnv("WEBHOOK_URL", getEnv("RENDER_EXTERNAL_URL", ""))

	var err error
	if cfg.PollTimeout, err = getDuration("POLL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReviewTTL, err = getDuration("REVIEW_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReviewCapacity, err = getInt("REVIEW_CAPACITY", 1000); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.DeliveryMode == DeliveryWebhook && c.WebhookURL == "" {
		return errors.New("invalid config: WEBHOOK_URL or RENDER_EXTERNAL_URL is required in webhook mode")
	}
	if c.PollTimeout <= 0 {
		return errors.New("invalid config: POLL_TIMEOUT must be positive")
	}
	if c.ReviewTTL <= 0 {
		return errors.New("invalid config: REVIEW_TTL must be positive")
	}
	if c.EventsPublisher == "kafka" && len(c.KafkaBrokers) == 0 {
		return errors.New("invalid config: KAFKA_BROKERS is required for the kafka publisher")
	}
	return nil
}

// RequireBotToken is checked by processes that talk to Telegram.
func (c *Config) RequireBotToken() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return errors.New("BOT_TOKEN environment variable is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	}
	return false
}

// PublicWebhookURL joins the public base URL with the webhook route.
func (c *Config) PublicWebhookURL() string {
	return strings.TrimRight(c.WebhookURL, "/") + c.WebhookPath
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
