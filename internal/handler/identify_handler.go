package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/metrics"
	"github.com/fleveque/scene-finder/internal/model"
)

// Client-facing messages for rejected uploads.
const (
	msgNoFiles       = "No image files supplied"
	msgNotAnImage    = "File must be an image"
	msgUploadTooBig  = "Upload exceeds the maximum allowed size"
	msgMalformedForm = "Request must be a multipart form with image files"
)

// MovieIdentifier runs the identify → discover pipeline on validated images.
// *service.MovieService satisfies it; tests pass a fake.
type MovieIdentifier interface {
	Identify(ctx context.Context, images []model.ImageInput) model.ResponseEnvelope
}

// IdentifyHandler serves POST /api/identify.
type IdentifyHandler struct {
	service        MovieIdentifier
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewIdentifyHandler creates the handler. maxUploadBytes ≤ 0 means no body limit.
func NewIdentifyHandler(service MovieIdentifier, maxUploadBytes int64, logger *zap.Logger) *IdentifyHandler {
	return &IdentifyHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Identify validates the uploaded files and returns the response envelope.
// Route: POST /api/identify (multipart, one or more image file parts)
//
// 400 when no file is supplied or none is an image, 200 with the envelope otherwise,
// 500 when an upload can't be read.
func (h *IdentifyHandler) Identify(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		// Not multipart, or no boundary: nothing that could hold a file.
		h.reject(c, msgNoFiles)
		return
	}

	images, fileCount, err := h.readImageParts(reader)
	if err != nil {
		var tooBig *http.MaxBytesError
		var readErr *partReadError
		switch {
		case errors.As(err, &tooBig):
			h.reject(c, msgUploadTooBig)
		case errors.As(err, &readErr):
			metrics.IdentifyRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			h.logger.Error("reading upload", zap.String("filename", readErr.filename), zap.Error(readErr.err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": readErr.Error()})
		default:
			h.reject(c, msgMalformedForm)
		}
		return
	}

	if fileCount == 0 {
		h.reject(c, msgNoFiles)
		return
	}
	if len(images) == 0 {
		h.reject(c, msgNotAnImage)
		return
	}

	env := h.service.Identify(c.Request.Context(), images)

	outcome := metrics.OutcomeNotIdentified
	if env.Success {
		outcome = metrics.OutcomeIdentified
	}
	metrics.IdentifyRequestsTotal.WithLabelValues(outcome).Inc()

	c.JSON(http.StatusOK, env)
}

func (h *IdentifyHandler) reject(c *gin.Context, msg string) {
	metrics.IdentifyRequestsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	c.JSON(http.StatusBadRequest, gin.H{"detail": msg})
}

// partReadError is a failure while reading the body of one uploaded file.
type partReadError struct {
	filename string
	err      error
}

func (e *partReadError) Error() string {
	return fmt.Sprintf("reading upload %s: %v", e.filename, e.err)
}

func (e *partReadError) Unwrap() error { return e.err }

// readImageParts streams the multipart body and keeps the image file parts in the
// order they were sent, whatever their field names. Plain form fields are ignored.
// fileCount includes the non-image files that were skipped.
func (h *IdentifyHandler) readImageParts(reader *multipart.Reader) ([]model.ImageInput, int, error) {
	var images []model.ImageInput
	fileCount := 0
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return images, fileCount, nil
		}
		if err != nil {
			return nil, fileCount, fmt.Errorf("next part: %w", err)
		}

		filename := part.FileName()
		if filename == "" {
			part.Close()
			continue
		}
		fileCount++

		mediaType := part.Header.Get("Content-Type")
		if !model.IsImageMediaType(mediaType) {
			h.logger.Debug("skipping non-image upload",
				zap.String("filename", filename),
				zap.String("media_type", mediaType),
			)
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fileCount, &partReadError{filename: filename, err: err}
		}
		images = append(images, model.ImageInput{Data: data, MediaType: mediaType})
	}
}
