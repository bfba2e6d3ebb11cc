package provider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/llm"
	"github.com/fleveque/scene-finder/internal/metrics"
	"github.com/fleveque/scene-finder/internal/model"
	"github.com/fleveque/scene-finder/internal/storage"
)

// IdentificationProvider asks the configured vision model what the images show.
// It makes exactly one call per request: no retries, no fallback provider.
type IdentificationProvider struct {
	client   llm.Client             // nil when no API key is configured
	callRepo storage.CallRepository // nil disables the call log
	logger   *zap.Logger
}

// NewIdentificationProvider creates the adapter. client and callRepo may be nil.
func NewIdentificationProvider(client llm.Client, callRepo storage.CallRepository, logger *zap.Logger) *IdentificationProvider {
	if client == nil {
		logger.Warn("no vision model configured, identification requests will fail")
	}
	return &IdentificationProvider{
		client:   client,
		callRepo: callRepo,
		logger:   logger,
	}
}

// Name returns the configured provider name, or "none".
func (p *IdentificationProvider) Name() string {
	if p.client == nil {
		return "none"
	}
	return p.client.ProviderName()
}

// Identify sends every image to the vision model in one request.
func (p *IdentificationProvider) Identify(ctx context.Context, images []model.ImageInput) (result model.IdentifyResult) {
	if p.client == nil {
		metrics.VisionCallsTotal.WithLabelValues("none", "error").Inc()
		return model.Failed(llm.ErrNotConfigured)
	}

	// A misbehaving SDK must not take the request down with it.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("vision client panicked", zap.Any("panic", r))
			result = model.Failed(fmt.Errorf("vision client panic: %v", r))
		}
	}()

	start := time.Now()
	info, err := p.client.IdentifyMovie(ctx, images)
	elapsed := time.Since(start)

	provider := p.client.ProviderName()
	metrics.VisionCallDuration.WithLabelValues(provider).Observe(elapsed.Seconds())

	if err == nil && info == nil {
		err = fmt.Errorf("%s returned an empty answer", provider)
	}

	p.recordCall(ctx, len(images), info, err, elapsed.Milliseconds())

	if err != nil {
		metrics.VisionCallsTotal.WithLabelValues(provider, "error").Inc()
		p.logger.Error("identification failed",
			zap.String("provider", provider),
			zap.Int("images", len(images)),
			zap.Error(err),
		)
		return model.Failed(err)
	}

	metrics.VisionCallsTotal.WithLabelValues(provider, "success").Inc()
	p.logger.Debug("identification result",
		zap.String("provider", provider),
		zap.String("title", info.Title),
		zap.String("year", info.Year),
		zap.Float64("confidence", info.Confidence),
		zap.Bool("is_movie", info.IsMovie),
	)

	return model.Identified(*info)
}

// recordCall stores call metadata for cost tracking. Errors are logged, never returned.
func (p *IdentificationProvider) recordCall(ctx context.Context, imageCount int, info *model.MovieInfo, callErr error, durationMs int64) {
	if p.callRepo == nil {
		return
	}

	call := &model.IdentificationCall{
		Provider:   p.client.ProviderName(),
		Model:      p.client.ModelName(),
		ImageCount: imageCount,
		Success:    callErr == nil,
		IsMovie:    callErr == nil && info != nil && info.IsMovie,
	}
	call.DurationMs = &durationMs
	if callErr != nil {
		msg := callErr.Error()
		call.ErrorMessage = &msg
	}

	if err := p.callRepo.Create(ctx, call); err != nil {
		p.logger.Error("recording identification call", zap.Error(err))
	}
}
