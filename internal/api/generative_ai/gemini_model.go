package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const DefaultGeminiModel = "gemini-2.0-flash"

var _ Model = (*GeminiModel)(nil)

// GeminiModel completes conversations with the Gemini API.
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

func NewGeminiModel(ctx context.Context, apiKey, model string, temperature float32, logger *slog.Logger) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiModel{client: client, model: model, temperature: temperature, logger: logger}, nil
}

func (g *GeminiModel) Name() string { return "gemini/" + g.model }

func (g *GeminiModel) Complete(ctx context.Context, systemPrompt string, conversation []types.Turn) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](g.temperature),
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(conversation), config)
	if err != nil {
		return "", geminiError(err)
	}
	text := result.Text()
	if text == "" {
		return "", &ProviderError{Provider: "gemini", Op: "GenerateContent", Err: errEmptyCompletion}
	}
	return text, nil
}

func geminiContents(conversation []types.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(conversation))
	for _, turn := range conversation {
		role := genai.Role(genai.RoleUser)
		if turn.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return contents
}

func geminiError(err error) error {
	pe := &ProviderError{Provider: "gemini", Op: "GenerateContent", Err: err}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.Code
	}
	return pe
}
