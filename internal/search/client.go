// Package search wraps the web-search provider used to find streaming pages.
package search

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no search API key is available.
var ErrNotConfigured = errors.New("search provider not configured")

// Query is a single search request.
type Query struct {
	Text           string
	IncludeDomains []string // restricts results to these sites
	MaxResults     int
	SearchDepth    string // "basic" or "advanced"
}

// Result is one ranked hit. Content is nil when the provider sent no snippet.
type Result struct {
	Title   string
	URL     string
	Content *string
	Score   float64
}

// Client searches the web. Results come back in provider ranking order.
type Client interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}
