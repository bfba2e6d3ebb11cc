package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/fleveque/scene-finder/internal/model"
)

// GeminiClient implements the Client interface using Google's Gemini models.
// Gemini supports a response schema directly, so structured output needs no tool call.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini-powered identifier.
func NewGeminiClient(ctx context.Context, apiKey string, model string, baseURL string) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiClient) ProviderName() string { return "gemini" }
func (g *GeminiClient) ModelName() string     { return g.model }

func (g *GeminiClient) IdentifyMovie(ctx context.Context, images []model.ImageInput) (*model.MovieInfo, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(identifyPrompt))
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MediaType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiMovieSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned no text")
	}

	return ParseMovieInfo([]byte(text))
}

func geminiMovieSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":      {Type: genai.TypeString},
			"year":       {Type: genai.TypeString},
			"summary":    {Type: genai.TypeString},
			"confidence": {Type: genai.TypeNumber},
			"is_movie":   {Type: genai.TypeBoolean},
		},
		Required: movieSchemaRequired,
	}
}
