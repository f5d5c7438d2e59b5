package generativeAI

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const DefaultOpenAIModel = "gpt-4o-mini"

var _ Model = (*OpenAIModel)(nil)

// OpenAIModel completes conversations with the OpenAI chat completions API.
type OpenAIModel struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

func NewOpenAIModel(apiKey, model string, temperature float64, logger *slog.Logger, opts ...option.RequestOption) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is not set")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIModel{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}, nil
}

func (o *OpenAIModel) Name() string { return "openai/" + o.model }

func (o *OpenAIModel) Complete(ctx context.Context, systemPrompt string, conversation []types.Turn) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    openAIMessages(systemPrompt, conversation),
		Temperature: openai.Float(o.temperature),
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ProviderError{Provider: "openai", Op: "ChatCompletion", Err: errEmptyCompletion}
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIMessages(systemPrompt string, conversation []types.Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	for _, turn := range conversation {
		if turn.Role == types.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(turn.Content))
			continue
		}
		msgs = append(msgs, openai.UserMessage(turn.Content))
	}
	return msgs
}

func openAIError(err error) error {
	pe := &ProviderError{Provider: "openai", Op: "ChatCompletion", Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.StatusCode
	}
	return pe
}
