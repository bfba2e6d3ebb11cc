package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/model"
	"github.com/fleveque/scene-finder/internal/provider"
)

// MovieService runs the identification pipeline for a set of already-validated images:
//
//	IDENTIFYING: one vision model call for all images
//	DISCOVERING: one search for streaming links, skipped when nothing was recognised
//
// It holds no per-request state, so one instance serves every request.
type MovieService struct {
	identifier provider.MovieIdentifier
	links      provider.LinkFinder
	processor  *ImageProcessor // nil disables resizing
	logger     *zap.Logger
}

// NewMovieService wires the two adapters together. processor may be nil.
func NewMovieService(
	identifier provider.MovieIdentifier,
	links provider.LinkFinder,
	processor *ImageProcessor,
	logger *zap.Logger,
) *MovieService {
	return &MovieService{
		identifier: identifier,
		links:      links,
		processor:  processor,
		logger:     logger,
	}
}

// Identify returns the response envelope for the given images.
// A negative identification short-circuits: discovery is never called and no links key is sent.
func (s *MovieService) Identify(ctx context.Context, images []model.ImageInput) model.ResponseEnvelope {
	result := s.identifier.Identify(ctx, s.prepare(images))

	if !result.IsMovie() {
		return model.ResponseEnvelope{
			Success: false,
			Message: model.NotIdentifiedMessage,
			Data:    result.Info(),
		}
	}

	info := result.Info()
	links := s.links.FindLinks(ctx, info.Title, info.Year)
	if links == nil {
		links = []model.StreamingLink{}
	}

	s.logger.Info("movie identified",
		zap.String("title", info.Title),
		zap.String("year", info.Year),
		zap.Int("images", len(images)),
		zap.Int("links", len(links)),
	)

	return model.ResponseEnvelope{
		Success: true,
		Data: model.MovieWithLinks{
			MovieInfo: info,
			Links:     links,
		},
	}
}

// prepare downsizes oversized images. An image that can't be processed is sent as uploaded.
func (s *MovieService) prepare(images []model.ImageInput) []model.ImageInput {
	if s.processor == nil {
		return images
	}

	out := make([]model.ImageInput, 0, len(images))
	for i, img := range images {
		normalized, err := s.processor.Normalize(img)
		if err != nil {
			s.logger.Debug("keeping original image",
				zap.Int("index", i),
				zap.String("media_type", img.MediaType),
				zap.Error(err),
			)
		}
		out = append(out, normalized)
	}
	return out
}
