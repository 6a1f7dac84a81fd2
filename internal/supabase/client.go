package supabase

import (
	"codecritic-backend/internal/config"

	"github.com/supabase-community/supabase-go"
)

// Client wraps the configured Supabase platform client. Constructed once
// in main and injected; nothing in this codebase reaches for a lazily
// built global.
type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
