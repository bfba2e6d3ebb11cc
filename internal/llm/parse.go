package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fleveque/scene-finder/internal/model"
)

// rawMovie mirrors the structured answer. Year and confidence stay raw because
// models are not consistent about quoting numbers.
type rawMovie struct {
	Title      string          `json:"title"`
	Year       json.RawMessage `json:"year"`
	Summary    string          `json:"summary"`
	Confidence json.RawMessage `json:"confidence"`
	IsMovie    bool            `json:"is_movie"`
}

// ParseMovieInfo decodes a model's JSON answer into a MovieInfo.
// It accepts answers wrapped in a ```json fence, numeric or string years,
// and numeric or string confidences. Confidence is clamped to [0, 1].
func ParseMovieInfo(body []byte) (*model.MovieInfo, error) {
	body = stripCodeFence(bytes.TrimSpace(body))
	if len(body) == 0 {
		return nil, fmt.Errorf("empty model response")
	}

	var raw rawMovie
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	year, err := decodeYear(raw.Year)
	if err != nil {
		return nil, err
	}
	confidence, err := decodeConfidence(raw.Confidence)
	if err != nil {
		return nil, err
	}

	return &model.MovieInfo{
		Title:      strings.TrimSpace(raw.Title),
		Year:       year,
		Summary:    strings.TrimSpace(raw.Summary),
		Confidence: confidence,
		IsMovie:    raw.IsMovie,
	}, nil
}

func stripCodeFence(body []byte) []byte {
	if !bytes.HasPrefix(body, []byte("```")) {
		return body
	}
	// Drop the opening fence line (``` or ```json) and the closing fence.
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		return nil
	}
	body = bytes.TrimSpace(body)
	body = bytes.TrimSuffix(body, []byte("```"))
	return bytes.TrimSpace(body)
}

func decodeYear(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("parsing year %s", string(raw))
}

func decodeConfidence(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("parsing confidence %s", string(raw))
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing confidence %q: %w", s, err)
		}
	}

	switch {
	case f < 0:
		return 0, nil
	case f > 1:
		return 1, nil
	default:
		return f, nil
	}
}
