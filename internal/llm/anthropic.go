package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/fleveque/scene-finder/internal/model"
)

// AnthropicClient implements the Client interface using Claude's vision input.
// Claude is forced to call a submit tool so the answer comes back as structured JSON
// instead of free-form text.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Claude-powered identifier.
func NewAnthropicClient(apiKey string, model string, baseURL string) *AnthropicClient {
	// One-shot: the SDK's automatic retries are turned off.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client: &client,
		model:  model,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }
func (a *AnthropicClient) ModelName() string     { return a.model }

func (a *AnthropicClient) IdentifyMovie(ctx context.Context, images []model.ImageInput) (*model.MovieInfo, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	submitTool := anthropic.ToolParam{
		Name:        submitToolName,
		Description: param.NewOpt("Submit what the images show. Always call this tool exactly once."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: movieSchemaProperties(),
			Required:   movieSchemaRequired,
		},
	}

	// Instruction first, then every image in upload order.
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	blocks = append(blocks, anthropic.NewTextBlock(identifyPrompt))
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, base64.StdEncoding.EncodeToString(img.Data)))
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Tools:     []anthropic.ToolUnionParam{{OfTool: &submitTool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: submitToolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			if b.Name != submitToolName {
				continue
			}
			inputBytes, err := json.Marshal(b.Input)
			if err != nil {
				return nil, fmt.Errorf("marshaling tool input: %w", err)
			}
			return ParseMovieInfo(inputBytes)
		case anthropic.TextBlock:
			// Without the tool call, a JSON text answer is still usable.
			if info, err := ParseMovieInfo([]byte(b.Text)); err == nil {
				return info, nil
			}
		}
	}

	return nil, fmt.Errorf("Claude returned no structured answer (stop reason %s)", message.StopReason)
}
