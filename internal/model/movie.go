// Package model defines the core data types for scene-finder.
// Struct tags (`json:"..."` and `db:"..."`) tell serialization libraries how to map fields.
package model

import (
	"strings"
	"time"
)

// NotIdentifiedMessage is returned to clients when the vision model did not recognise a title.
const NotIdentifiedMessage = "Could not identify a movie in this image."

// ImageInput is one uploaded image. It lives only for the duration of a request.
type ImageInput struct {
	Data      []byte
	MediaType string // e.g. "image/jpeg"
}

// IsImageMediaType reports whether a declared media type is an image type.
func IsImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// MovieInfo is what the vision model tells us about the images.
type MovieInfo struct {
	Title      string  `json:"title"`
	Year       string  `json:"year"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
	IsMovie    bool    `json:"is_movie"`
	Error      string  `json:"error,omitempty"`
}

// StreamingLink is a single legal streaming destination for a title.
// Content is nil when the search provider returned no snippet; it serialises as null.
type StreamingLink struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content *string `json:"content"`
}

// MovieWithLinks is the payload of a successful identification.
// Go struct embedding flattens MovieInfo's fields into the same JSON object.
type MovieWithLinks struct {
	MovieInfo
	Links []StreamingLink `json:"links"`
}

// ResponseEnvelope is the body of every 200 response from POST /api/identify.
// Data is a MovieInfo when Success is false and a MovieWithLinks when it is true.
type ResponseEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// IdentifyResult is the outcome of one identification call.
// Exactly one of Movie and Err is set.
type IdentifyResult struct {
	Movie *MovieInfo
	Err   error
}

// Identified builds a successful result.
func Identified(info MovieInfo) IdentifyResult {
	return IdentifyResult{Movie: &info}
}

// Failed builds a failed result.
func Failed(err error) IdentifyResult {
	return IdentifyResult{Err: err}
}

// IsMovie reports whether the call succeeded and the model recognised a title.
func (r IdentifyResult) IsMovie() bool {
	return r.Err == nil && r.Movie != nil && r.Movie.IsMovie
}

// Info folds the result into the MovieInfo shape sent to clients.
// Failures become {error: <message>, is_movie: false}.
func (r IdentifyResult) Info() MovieInfo {
	if r.Err != nil {
		return MovieInfo{Error: r.Err.Error(), IsMovie: false}
	}
	if r.Movie == nil {
		return MovieInfo{IsMovie: false}
	}
	return *r.Movie
}

// IdentificationCall tracks each call to a vision provider for cost monitoring.
// Only call metadata is stored; the identified title never leaves the request.
type IdentificationCall struct {
	ID           int64     `db:"id" json:"id"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	ImageCount   int       `db:"image_count" json:"image_count"`
	Success      bool      `db:"success" json:"success"`
	IsMovie      bool      `db:"is_movie" json:"is_movie"`
	DurationMs   *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CallStats summarises the identification call log.
type CallStats struct {
	Total      int64 `db:"total" json:"total"`
	Succeeded  int64 `db:"succeeded" json:"succeeded"`
	Failed     int64 `db:"failed" json:"failed"`
	Identified int64 `db:"identified" json:"identified"`
}
