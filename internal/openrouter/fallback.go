package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codecritic-backend/internal/logger"
)

// ErrNoAvailableModel is returned when every configured model and the
// availability-probe fallback all failed to produce output.
var ErrNoAvailableModel = errors.New("no available model produced a completion")

// Caller obtains a completion despite individual model unavailability.
// It walks an ordered preference list, then probes the gateway's model
// listing for one last candidate.
type Caller struct {
	client    *Client
	models    []string
	preferred []string
	maxTokens int
	log       *logger.Logger
}

func NewCaller(client *Client, models, preferredFamilies []string, maxTokens int, log *logger.Logger) *Caller {
	return &Caller{
		client:    client,
		models:    models,
		preferred: preferredFamilies,
		maxTokens: maxTokens,
		log:       log,
	}
}

// Complete returns the raw completion text and the model that produced it.
// Per-model failures, including 200 responses with missing or unparseable
// bodies, are recorded and fallback continues.
func (f *Caller) Complete(ctx context.Context, prompt string) (string, string, error) {
	var failures []string

	for _, model := range f.models {
		content, err := f.client.ChatCompletion(ctx, model, prompt, f.maxTokens)
		if err == nil {
			return content, model, nil
		}
		if ctx.Err() != nil {
			return "", "", fmt.Errorf("completion aborted: %w", ctx.Err())
		}
		f.log.Warn("model failed, falling back", "model", model, "error", err)
		failures = append(failures, fmt.Sprintf("%s: %v", model, err))
	}

	// Last resort: ask the gateway what is actually available.
	model, err := f.probeAvailableModel(ctx)
	if err != nil {
		f.log.Error("model availability probe failed", "error", err)
		return "", "", fmt.Errorf("%w (tried: %s)", ErrNoAvailableModel, strings.Join(failures, "; "))
	}

	content, err := f.client.ChatCompletion(ctx, model, prompt, f.maxTokens)
	if err != nil {
		failures = append(failures, fmt.Sprintf("%s: %v", model, err))
		return "", "", fmt.Errorf("%w (tried: %s)", ErrNoAvailableModel, strings.Join(failures, "; "))
	}

	return content, model, nil
}

// probeAvailableModel queries the model listing, filters to known-good
// families, and returns the highest-ranked candidate by the configured
// family preference order.
func (f *Caller) probeAvailableModel(ctx context.Context) (string, error) {
	available, err := f.client.ListModels(ctx)
	if err != nil {
		return "", err
	}

	candidates := make([]string, 0, len(available))
	for _, id := range available {
		if f.isKnownGood(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("gateway listed %d models, none from a known-good family", len(available))
	}

	for _, family := range f.preferred {
		for _, id := range candidates {
			if strings.Contains(id, family) {
				return id, nil
			}
		}
	}
	return candidates[0], nil
}

func (f *Caller) isKnownGood(modelID string) bool {
	for _, family := range f.preferred {
		if strings.Contains(modelID, family) {
			return true
		}
	}
	return false
}
