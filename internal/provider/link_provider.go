package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/metrics"
	"github.com/fleveque/scene-finder/internal/model"
	"github.com/fleveque/scene-finder/internal/search"
)

// LinkOptions shapes the search sent to the provider.
type LinkOptions struct {
	IncludeDomains []string
	MaxResults     int
	SearchDepth    string
}

// LinkProvider searches streaming sites for a title and keeps one link per service.
type LinkProvider struct {
	client search.Client // nil when no API key is configured
	opts   LinkOptions
	logger *zap.Logger
}

// NewLinkProvider creates the adapter. client may be nil, in which case every lookup is empty.
func NewLinkProvider(client search.Client, opts LinkOptions, logger *zap.Logger) *LinkProvider {
	if client == nil {
		logger.Warn("no search provider configured, streaming links will be empty")
	}
	return &LinkProvider{
		client: client,
		opts:   opts,
		logger: logger,
	}
}

// Configured reports whether a search client is wired in.
func (p *LinkProvider) Configured() bool {
	return p.client != nil
}

// BuildQuery formats the search query for a title. Empty parts are kept as-is.
func BuildQuery(title, year string) string {
	return fmt.Sprintf("watch %s %s movie streaming online legal", title, year)
}

// FindLinks returns at most one streaming link per domain, in provider ranking order.
// It never fails: errors and a missing client both produce an empty (non-nil) list.
func (p *LinkProvider) FindLinks(ctx context.Context, title, year string) []model.StreamingLink {
	links := []model.StreamingLink{}

	if p.client == nil {
		metrics.SearchCallsTotal.WithLabelValues("skipped").Inc()
		return links
	}

	results, err := p.client.Search(ctx, search.Query{
		Text:           BuildQuery(title, year),
		IncludeDomains: p.opts.IncludeDomains,
		MaxResults:     p.opts.MaxResults,
		SearchDepth:    p.opts.SearchDepth,
	})
	if err != nil {
		status := "error"
		if errors.Is(err, search.ErrNotConfigured) {
			status = "skipped"
		}
		metrics.SearchCallsTotal.WithLabelValues(status).Inc()
		p.logger.Warn("streaming link search failed",
			zap.String("title", title),
			zap.String("year", year),
			zap.Error(err),
		)
		return links
	}

	links = DedupeByDomain(results)
	metrics.SearchCallsTotal.WithLabelValues("success").Inc()
	metrics.StreamingLinksReturned.Observe(float64(len(links)))

	fields := []zap.Field{
		zap.String("title", title),
		zap.Int("results", len(results)),
		zap.Int("links", len(links)),
	}
	if len(results) > 0 {
		fields = append(fields, zap.Float64("top_score", results[0].Score))
	}
	p.logger.Debug("streaming links found", fields...)
	return links
}

// DedupeByDomain keeps the first result for each registrable domain, preserving order.
func DedupeByDomain(results []search.Result) []model.StreamingLink {
	links := make([]model.StreamingLink, 0, len(results))
	seen := make(map[string]struct{}, len(results))

	for _, r := range results {
		domain := RegistrableDomain(r.URL)
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}

		links = append(links, model.StreamingLink{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}
	return links
}
