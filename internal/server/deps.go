package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/config"
	"github.com/fleveque/scene-finder/internal/handler"
	"github.com/fleveque/scene-finder/internal/llm"
	"github.com/fleveque/scene-finder/internal/provider"
	"github.com/fleveque/scene-finder/internal/search"
	"github.com/fleveque/scene-finder/internal/service"
	"github.com/fleveque/scene-finder/internal/storage"
)

// Deps holds everything the routes need. Build it with NewDeps, or by hand in tests.
type Deps struct {
	MovieService     handler.MovieIdentifier
	CallRepo         storage.CallRepository // nil when the call log is disabled
	VisionProvider   string
	SearchConfigured bool

	db *sqlx.DB
}

// NewDeps wires the pipeline from configuration.
// Missing API keys are not fatal: the affected stage degrades and a warning is logged.
func NewDeps(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	deps := &Deps{}

	if cfg.Storage.DatabasePath != "" {
		db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		deps.db = db
		deps.CallRepo = storage.NewCallRepository(db)
	}

	visionClient, err := llm.New(ctx, VisionSettings(cfg.Vision))
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			_ = deps.Close()
			return nil, fmt.Errorf("creating vision client: %w", err)
		}
		logger.Warn("vision model not configured", zap.String("provider", cfg.Vision.Provider))
		visionClient = nil
	}

	var searchClient search.Client
	if cfg.Search.Tavily.APIKey != "" {
		searchClient = search.NewTavilyClient(cfg.Search.Tavily.APIKey, cfg.Search.Tavily.BaseURL)
	}

	identifier := provider.NewIdentificationProvider(visionClient, deps.CallRepo, logger)
	links := provider.NewLinkProvider(searchClient, provider.LinkOptions{
		IncludeDomains: cfg.Search.IncludeDomains,
		MaxResults:     cfg.Search.MaxResults,
		SearchDepth:    cfg.Search.SearchDepth,
	}, logger)

	deps.MovieService = service.NewMovieService(identifier, links, service.NewImageProcessor(cfg.Vision.MaxImageDimension), logger)
	deps.VisionProvider = identifier.Name()
	deps.SearchConfigured = links.Configured()

	return deps, nil
}

// Close releases the database, if one was opened.
func (d *Deps) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// VisionSettings picks the credentials and model of the selected provider.
func VisionSettings(v config.VisionConfig) llm.Settings {
	s := llm.Settings{Provider: v.Provider}
	switch v.Provider {
	case "gemini":
		s.APIKey, s.Model, s.BaseURL = v.Gemini.APIKey, v.Gemini.Model, v.Gemini.BaseURL
	case "anthropic":
		s.APIKey, s.Model, s.BaseURL = v.Anthropic.APIKey, v.Anthropic.Model, v.Anthropic.BaseURL
	case "openai":
		s.APIKey, s.Model, s.BaseURL = v.OpenAI.APIKey, v.OpenAI.Model, v.OpenAI.BaseURL
	}
	return s
}
