package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/app/retry"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Model is a text completion backend. The conversation's final user turn
// carries the instructions for the current step.
type Model interface {
	Complete(ctx context.Context, systemPrompt string, conversation []types.Turn) (string, error)
	Name() string
}

// ProviderError ties an SDK failure to the provider, operation and HTTP
// status that produced it. StatusCode is 0 for transport errors.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether a failed model call may succeed if repeated:
// rate limits, server errors, timeouts and network failures. Auth and request
// errors are deterministic.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		return pe.StatusCode == http.StatusTooManyRequests ||
			pe.StatusCode == http.StatusRequestTimeout ||
			pe.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// errEmptyCompletion marks a successful call that produced no text. It is
// deterministic and never retried.
var errEmptyCompletion = errors.New("empty completion")

var _ Model = (*RetryingModel)(nil)

// RetryingModel applies a retry policy around another Model and reports a
// final failure as types.ErrModelUnavailable.
type RetryingModel struct {
	next   Model
	policy retry.Policy
	logger *slog.Logger
}

func NewRetryingModel(next Model, policy retry.Policy, logger *slog.Logger) *RetryingModel {
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	return &RetryingModel{next: next, policy: policy, logger: logger}
}

func (m *RetryingModel) Name() string { return m.next.Name() }

func (m *RetryingModel) Complete(ctx context.Context, systemPrompt string, conversation []types.Turn) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("llm.model", m.next.Name()),
		attribute.Int("llm.turns", len(conversation)),
	))
	defer span.End()
	l := m.logger.With(slog.String("method", "Complete"), slog.String("model", m.next.Name()))

	start := time.Now()
	attempt := 0
	var reply string
	err := m.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		out, err := m.next.Complete(ctx, systemPrompt, conversation)
		if err != nil {
			l.WarnContext(ctx, "Model call failed", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model unavailable")
		l.ErrorContext(ctx, "Giving up on model call", slog.Int("attempts", attempt), slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", types.ErrModelUnavailable, err)
	}
	span.SetAttributes(attribute.Int("response.length", len(reply)), attribute.Int("llm.attempts", attempt))
	span.SetStatus(codes.Ok, "completion received")
	l.DebugContext(ctx, "Model replied", slog.Duration("latency", time.Since(start)), slog.Int("attempts", attempt))
	return reply, nil
}
