// Package llm provides a provider-agnostic interface for asking a vision-language
// model which movie or show a set of images comes from. Gemini, Claude and OpenAI
// implement the same small interface so the provider is a config change, not a code change.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleveque/scene-finder/internal/model"
)

// ErrNotConfigured is returned when no API key is available for the selected provider.
var ErrNotConfigured = errors.New("vision model not configured")

// ErrNoImages is returned when a client is called without any image.
var ErrNoImages = errors.New("no images to identify")

// Client is the interface for vision providers that can identify a title from images.
//
// Keep interfaces small: one behaviour plus two names for logging and cost tracking.
type Client interface {
	IdentifyMovie(ctx context.Context, images []model.ImageInput) (*model.MovieInfo, error)
	ProviderName() string
	ModelName() string
}

// Settings carries what every provider constructor needs.
type Settings struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // optional API endpoint override
}

// New builds the client for the configured provider.
// It returns ErrNotConfigured when the provider has no API key.
func New(ctx context.Context, s Settings) (Client, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", s.Provider, ErrNotConfigured)
	}

	switch s.Provider {
	case "gemini":
		c, err := NewGeminiClient(ctx, s.APIKey, s.Model, s.BaseURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "anthropic":
		return NewAnthropicClient(s.APIKey, s.Model, s.BaseURL), nil
	case "openai":
		return NewOpenAIClient(s.APIKey, s.Model, s.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown vision provider: %s", s.Provider)
	}
}
