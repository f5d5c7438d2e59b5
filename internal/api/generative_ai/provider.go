package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-travel-assistant/app/retry"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderSimulated = "simulated"
)

type ProviderConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float64
}

// NewModel builds the configured provider wrapped in the retry policy.
func NewModel(ctx context.Context, cfg ProviderConfig, policy retry.Policy, logger *slog.Logger) (Model, error) {
	var base Model
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini:
		m, err := NewGeminiModel(ctx, cfg.APIKey, cfg.Model, float32(cfg.Temperature), logger)
		if err != nil {
			return nil, err
		}
		base = m
	case ProviderOpenAI:
		m, err := NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.Temperature, logger)
		if err != nil {
			return nil, err
		}
		base = m
	case ProviderSimulated, "":
		base = NewSimulatedModel()
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	logger.Info("Language model configured", slog.String("model", base.Name()))
	return NewRetryingModel(base, policy, logger), nil
}
