package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Registry is the external tool surface the dispatcher talks to. Results are
// a types.Record, a []types.Record or a plain string depending on the tool.
type Registry interface {
	ListTools() []types.ToolDescriptor
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// Handler executes one validated call.
type Handler func(ctx context.Context, call Call) (any, error)

// Tool pairs a descriptor with its implementation.
type Tool struct {
	Descriptor types.ToolDescriptor
	Handler    Handler
}

var _ Registry = (*StaticRegistry)(nil)

// StaticRegistry serves a fixed, in-process set of tools.
type StaticRegistry struct {
	logger *slog.Logger
	tools  map[string]Tool
	order  []string
}

func NewStaticRegistry(logger *slog.Logger, tools ...Tool) *StaticRegistry {
	r := &StaticRegistry{logger: logger, tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, dup := r.tools[t.Descriptor.Name]; !dup {
			r.order = append(r.order, t.Descriptor.Name)
		}
		r.tools[t.Descriptor.Name] = t
	}
	return r
}

// NewMockRegistry returns the six deterministic travel tools.
func NewMockRegistry(logger *slog.Logger) *StaticRegistry {
	return NewMockRegistryAt(logger, time.Now)
}

// NewMockRegistryAt is NewMockRegistry with an injectable clock for default date ranges.
func NewMockRegistryAt(logger *slog.Logger, now func() time.Time) *StaticRegistry {
	return NewStaticRegistry(logger,
		flightSearchTool(now),
		hotelTool(),
		attractionsTool(),
		restaurantsTool(),
		transportTool(),
		seasonalAdviceTool(),
	)
}

func (r *StaticRegistry) ListTools() []types.ToolDescriptor {
	out := make([]types.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// Names returns the registered tool names in sorted order.
func (r *StaticRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *StaticRegistry) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	ctx, span := otel.Tracer("ToolRegistry").Start(ctx, "CallTool", trace.WithAttributes(
		attribute.String("tool.name", name),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "CallTool"), slog.String("tool", name))

	tool, ok := r.tools[name]
	if !ok {
		span.SetStatus(codes.Error, "unknown tool")
		return nil, &types.ToolError{Tool: name, Err: types.ErrUnknownTool}
	}
	call, err := DecodeCall(types.ToolCallRequest{Tool: name, Arguments: args})
	if err != nil {
		l.WarnContext(ctx, "Rejected tool arguments", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid arguments")
		return nil, &types.ToolError{Tool: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &types.ToolError{Tool: name, Err: fmt.Errorf("%w: %w", types.ErrToolUnavailable, err)}
	}

	result, err := tool.Handler(ctx, call)
	if err != nil {
		l.ErrorContext(ctx, "Tool failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool failed")
		return nil, &types.ToolError{Tool: name, Err: err}
	}
	l.DebugContext(ctx, "Tool executed")
	span.SetStatus(codes.Ok, "tool executed")
	return result, nil
}
