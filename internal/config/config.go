package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// OpenRouter
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	// Ordered model preference list tried in sequence before probing the
	// gateway's model listing.
	EvaluationModels       []string
	PreferredModelFamilies []string
	EvaluationMaxTokens    int
	EvaluationTimeout      time.Duration

	// Submission limits
	CodeCharLimit int // truncation ceiling applied before prompt construction
	MaxCodeChars  int // hard rejection ceiling at the API boundary

	// Razorpay
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayBaseURL       string
	RazorpayWebhookSecret string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Redis (optional, enables the evaluation rate limiter)
	RedisAddr          string
	EvaluateRateLimit  int
	EvaluateRateWindow time.Duration

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	// Best effort; production sets real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1/"),

		EvaluationModels: getEnvList("EVALUATION_MODELS", []string{
			"meta-llama/llama-3.3-70b-instruct:free",
			"google/gemma-3-27b-it:free",
			"qwen/qwen-2.5-coder-32b-instruct:free",
			"mistralai/mistral-small-3.1-24b-instruct:free",
		}),
		PreferredModelFamilies: getEnvList("PREFERRED_MODEL_FAMILIES", []string{
			"llama", "qwen", "gemma", "mistral",
		}),
		EvaluationMaxTokens: getEnvInt("EVALUATION_MAX_TOKENS", 2048),
		EvaluationTimeout:   getEnvDuration("EVALUATION_TIMEOUT", 90*time.Second),

		CodeCharLimit: getEnvInt("CODE_CHAR_LIMIT", 8000),
		MaxCodeChars:  getEnvInt("MAX_CODE_CHARS", 100000),

		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayBaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1/"),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "avatars"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		EvaluateRateLimit:  getEnvInt("EVALUATE_RATE_LIMIT", 10),
		EvaluateRateWindow: getEnvDuration("EVALUATE_RATE_WINDOW", time.Minute),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if len(c.EvaluationModels) == 0 {
		return fmt.Errorf("EVALUATION_MODELS must list at least one model")
	}
	if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}
	// Signature verification fail-closes on an empty secret, which would
	// silently reject every webhook delivery.
	if c.RazorpayWebhookSecret == "" {
		return fmt.Errorf("RAZORPAY_WEBHOOK_SECRET is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.CodeCharLimit <= 0 || c.MaxCodeChars < c.CodeCharLimit {
		return fmt.Errorf("MAX_CODE_CHARS must be >= CODE_CHAR_LIMIT and both positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
