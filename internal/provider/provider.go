// Package provider holds the two adapters the request pipeline is built from:
// the identification provider (vision model) and the link provider (web search).
// Both absorb their upstream failures so the caller only ever branches on the result.
package provider

import (
	"context"

	"github.com/fleveque/scene-finder/internal/model"
)

// MovieIdentifier turns images into an identification result. It never returns an error;
// failures are carried inside the result.
type MovieIdentifier interface {
	Identify(ctx context.Context, images []model.ImageInput) model.IdentifyResult
}

// LinkFinder finds legal streaming links for a title. Failures yield an empty list.
type LinkFinder interface {
	FindLinks(ctx context.Context, title, year string) []model.StreamingLink
}
