package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codecritic-backend/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		OpenRouterAPIKey:       "or-key",
		EvaluationModels:       []string{"meta-llama/llama-3.3-70b-instruct:free"},
		RazorpayKeyID:          "key_id",
		RazorpayKeySecret:      "key_secret",
		RazorpayWebhookSecret:  "whsec",
		SupabaseURL:            "https://project.supabase.co",
		SupabasePublishableKey: "publishable",
		SupabaseJWTSecret:      "jwt-secret",
		CodeCharLimit:          8000,
		MaxCodeChars:           100000,
	}
}

func TestValidate_Complete(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"openrouter api key", func(c *config.Config) { c.OpenRouterAPIKey = "" }},
		{"evaluation models", func(c *config.Config) { c.EvaluationModels = nil }},
		{"razorpay key id", func(c *config.Config) { c.RazorpayKeyID = "" }},
		{"razorpay key secret", func(c *config.Config) { c.RazorpayKeySecret = "" }},
		{"razorpay webhook secret", func(c *config.Config) { c.RazorpayWebhookSecret = "" }},
		{"supabase url", func(c *config.Config) { c.SupabaseURL = "" }},
		{"supabase publishable key", func(c *config.Config) { c.SupabasePublishableKey = "" }},
		{"supabase jwt secret", func(c *config.Config) { c.SupabaseJWTSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_CodeLimits(t *testing.T) {
	cfg := validConfig()
	cfg.CodeCharLimit = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.MaxCodeChars = cfg.CodeCharLimit - 1
	assert.Error(t, cfg.Validate())
}
