// Package service contains the identification pipeline: image preparation and
// the identify → discover orchestration.
package service

import (
	"fmt"

	"github.com/h2non/bimg"

	"github.com/fleveque/scene-finder/internal/model"
)

// ImageProcessor shrinks oversized uploads before they are sent to the vision model.
// It uses bimg (Go bindings for libvips), so libvips must be installed on the host.
type ImageProcessor struct {
	maxDimension int
	quality      int
}

// NewImageProcessor creates a processor that bounds the longest edge to maxDimension pixels.
// A maxDimension of 0 or less disables resizing.
func NewImageProcessor(maxDimension int) *ImageProcessor {
	return &ImageProcessor{maxDimension: maxDimension, quality: 85}
}

// Normalize returns the image unchanged when it already fits, or a JPEG re-encode
// that fits inside a maxDimension × maxDimension box with the aspect ratio kept.
func (p *ImageProcessor) Normalize(img model.ImageInput) (model.ImageInput, error) {
	if p.maxDimension <= 0 {
		return img, nil
	}

	size, err := bimg.NewImage(img.Data).Size()
	if err != nil {
		return img, fmt.Errorf("reading image size: %w", err)
	}

	width, height, ok := fitWithin(size.Width, size.Height, p.maxDimension)
	if !ok {
		return img, nil
	}

	resized, err := bimg.NewImage(img.Data).Process(bimg.Options{
		Width:          width,
		Height:         height,
		Type:           bimg.JPEG,
		Quality:        p.quality,
		Interpretation: bimg.InterpretationSRGB,
	})
	if err != nil {
		return img, fmt.Errorf("resizing to %dx%d: %w", width, height, err)
	}

	return model.ImageInput{Data: resized, MediaType: "image/jpeg"}, nil
}

// fitWithin scales (w, h) down so the longest edge equals max.
// ok is false when the image already fits.
func fitWithin(w, h, max int) (int, int, bool) {
	if w <= max && h <= max {
		return w, h, false
	}
	if w >= h {
		return max, scaled(h, max, w), true
	}
	return scaled(w, max, h), max, true
}

func scaled(edge, target, longest int) int {
	v := edge * target / longest
	if v < 1 {
		return 1
	}
	return v
}
