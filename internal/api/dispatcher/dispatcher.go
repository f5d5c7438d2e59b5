package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-assistant/app/retry"
	generativeAI "github.com/FACorreiaa/go-travel-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Request is one turn handed to the dispatcher.
type Request struct {
	// SystemPrompt sets tone and link rules for the whole conversation.
	SystemPrompt string
	// History holds the earlier turns, oldest first.
	History []types.Turn
	// Prompt is the tool-selection prompt sent as the final user turn.
	Prompt string
	// Query is the user's own text, echoed in some fallbacks.
	Query string
}

// Outcome is the result of a dispatch. Text is always user-safe and non-empty.
type Outcome struct {
	Text  string
	State types.DispatchState
	// Path lists every state visited, starting with StateAwaitingModelReply.
	Path []types.DispatchState
	Tool string
	// Err is the internal cause of a fallback. It is never shown to users.
	Err error
}

// Dispatcher drives one turn: model call, tool selection, tool execution and formatting.
type Dispatcher struct {
	model      generativeAI.Model
	registry   tools.Registry
	formatter  *Formatter
	toolPolicy retry.Policy
	logger     *slog.Logger
}

// ToolPolicy is the default policy around tool calls: three attempts bounded
// by timeout each, retrying only transient failures.
func ToolPolicy(timeout time.Duration) retry.Policy {
	p := retry.DefaultPolicy(IsTransientToolError)
	p.AttemptTimeout = timeout
	return p
}

// IsTransientToolError reports whether a tool failure may be retried.
func IsTransientToolError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, types.ErrToolUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

func New(model generativeAI.Model, registry tools.Registry, formatter *Formatter, toolPolicy retry.Policy, logger *slog.Logger) *Dispatcher {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return &Dispatcher{
		model:      model,
		registry:   registry,
		formatter:  formatter,
		toolPolicy: toolPolicy,
		logger:     logger,
	}
}

type run struct {
	out Outcome
}

func (r *run) enter(s types.DispatchState) {
	r.out.State = s
	r.out.Path = append(r.out.Path, s)
}

func (r *run) finish(text string) Outcome {
	r.out.Text = text
	r.enter(types.StateDone)
	return r.out
}

func (r *run) fallback(text string, err error) Outcome {
	r.out.Text = text
	r.out.Err = err
	r.enter(types.StateFallback)
	return r.out
}

// Dispatch never returns an error: every failure becomes a fallback Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Outcome {
	ctx, span := otel.Tracer("Dispatcher").Start(ctx, "Dispatch", trace.WithAttributes(
		attribute.Int("history.turns", len(req.History)),
	))
	defer span.End()
	l := d.logger.With(slog.String("method", "Dispatch"))
	m := metrics.Get()
	start := time.Now()

	out := d.dispatch(ctx, l, req)

	span.SetAttributes(
		attribute.String("dispatch.state", string(out.State)),
		attribute.String("dispatch.tool", out.Tool),
	)
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, "fallback reply")
		m.FallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", fallbackReason(out.Err))))
	} else {
		span.SetStatus(codes.Ok, "reply ready")
	}
	m.DispatchDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("state", string(out.State))))
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, l *slog.Logger, req Request) Outcome {
	r := &run{}
	r.enter(types.StateAwaitingModelReply)

	conversation := append(append(make([]types.Turn, 0, len(req.History)+1), req.History...),
		types.Turn{Role: types.RoleUser, Content: req.Prompt})

	modelStart := time.Now()
	reply, err := d.model.Complete(ctx, req.SystemPrompt, conversation)
	metrics.Get().ModelCallDurationSecs.Record(ctx, time.Since(modelStart).Seconds())
	if err != nil {
		l.ErrorContext(ctx, "Model call failed", slog.Any("error", err))
		if !errors.Is(err, types.ErrModelUnavailable) {
			err = fmt.Errorf("%w: %w", types.ErrModelUnavailable, err)
		}
		return r.fallback(modelUnavailableMessage, err)
	}
	if strings.TrimSpace(reply) == "" {
		return r.fallback(modelUnavailableMessage, fmt.Errorf("%w: empty reply", types.ErrModelUnavailable))
	}

	candidate, ok := ParseToolCall(reply)
	if !ok {
		l.DebugContext(ctx, "Model answered directly")
		r.enter(types.StateDirectAnswer)
		return r.finish(reply)
	}
	r.out.Tool = candidate.Tool
	l = l.With(slog.String("tool", candidate.Tool))

	if !d.isRegistered(candidate.Tool) {
		l.WarnContext(ctx, "Model proposed an unknown tool")
		return r.fallback(unknownToolMessage(req.Query), &types.ToolError{Tool: candidate.Tool, Err: types.ErrUnknownTool})
	}
	r.enter(types.StateToolSelected)

	call, err := tools.DecodeCall(candidate)
	if err != nil {
		l.WarnContext(ctx, "Tool call failed validation", slog.Any("error", err), slog.Any("arguments", candidate.Arguments))
		return r.fallback(missingInfoMessage(candidate.Tool), &types.ToolError{Tool: candidate.Tool, Err: err})
	}

	raw, err := d.invoke(ctx, call)
	if err != nil {
		l.ErrorContext(ctx, "Tool execution failed", slog.Any("error", err))
		if errors.Is(err, types.ErrInvalidArguments) {
			return r.fallback(missingInfoMessage(call.ToolName()), err)
		}
		return r.fallback(toolFailureMessage(call.ToolName()), err)
	}
	r.enter(types.StateToolExecuted)

	res, err := normalizeResult(raw)
	if err != nil {
		l.ErrorContext(ctx, "Tool returned unusable data", slog.Any("error", err))
		return r.fallback(toolFailureMessage(call.ToolName()), &types.ToolError{Tool: call.ToolName(), Err: err})
	}
	if res.Empty() {
		l.InfoContext(ctx, "Tool found nothing")
		r.enter(types.StateFormatted)
		return r.finish(noResultsMessage(call))
	}

	text, ok := d.formatter.Format(call, res)
	if !ok || strings.TrimSpace(text) == "" {
		l.WarnContext(ctx, "No renderer for tool")
		return r.fallback(unsupportedToolMessage, &types.ToolError{Tool: call.ToolName(), Err: types.ErrToolExecution})
	}
	r.enter(types.StateFormatted)
	return r.finish(text)
}

func (d *Dispatcher) invoke(ctx context.Context, call tools.Call) (any, error) {
	ctx, span := otel.Tracer("Dispatcher").Start(ctx, "InvokeTool", trace.WithAttributes(
		attribute.String("tool.name", call.ToolName()),
	))
	defer span.End()
	start := time.Now()

	var result any
	err := d.toolPolicy.Do(ctx, func(ctx context.Context) error {
		res, err := d.registry.CallTool(ctx, call.ToolName(), call.Arguments())
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, types.ErrToolUnavailable) {
				err = fmt.Errorf("%w: %w", types.ErrToolUnavailable, err)
			}
			return err
		}
		result = res
		return nil
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool failed")
	}
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("tool", call.ToolName()), attribute.String("outcome", outcome))
	m.ToolCallsTotal.Add(ctx, 1, attrs)
	m.ToolCallDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	return result, err
}

func (d *Dispatcher) isRegistered(name string) bool {
	if name == "" {
		return false
	}
	for _, t := range d.registry.ListTools() {
		if t.Name == name {
			return true
		}
	}
	return false
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, types.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, types.ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, types.ErrInvalidArguments):
		return "invalid_arguments"
	default:
		return "tool_execution"
	}
}
