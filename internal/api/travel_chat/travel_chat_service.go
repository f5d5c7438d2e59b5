package travelChat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/dispatcher"
	promptBuilder "github.com/FACorreiaa/go-travel-assistant/internal/api/prompt_builder"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	travelContext "github.com/FACorreiaa/go-travel-assistant/internal/api/travel_context"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Dispatcher is the part of the dispatcher the service depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatcher.Request) dispatcher.Outcome
}

type Service interface {
	// HandleQuery runs one turn over a caller-owned context snapshot and
	// returns the reply with the updated context and history.
	HandleQuery(ctx context.Context, query string, snapshot types.SerializableContext, history []types.Turn) (*types.QueryResult, error)

	CreateSession(ctx context.Context, req types.CreateSessionRequest) (*types.ChatSession, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*types.ChatSession, error)
	SendMessage(ctx context.Context, sessionID uuid.UUID, message string) (*types.ChatMessageResponse, error)
	UpdateLocation(ctx context.Context, sessionID uuid.UUID, location string) (*types.ChatSession, error)
	UpdatePreferences(ctx context.Context, sessionID uuid.UUID, prefs map[string]any) (*types.ChatSession, error)
	ClearSession(ctx context.Context, sessionID uuid.UUID) (*types.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	ListInteractions(ctx context.Context, sessionID uuid.UUID, limit int) ([]types.LlmInteraction, error)
	ListTools(ctx context.Context) []types.ToolDescriptor
}

type Options struct {
	FallbackOrigin      string
	IncludeToolSchema   bool
	RequireBookingLinks bool
	// HistoryLimit caps the number of turns kept and sent to the model. Zero keeps everything.
	HistoryLimit int
	ModelName    string
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger           *slog.Logger
	dispatcher       Dispatcher
	registry         tools.Registry
	messageExtractor travelContext.FactExtractor
	replyExtractor   travelContext.FactExtractor
	sessions         SessionStore
	repo             Repository
	opts             Options
	now              func() time.Time
}

func NewService(d Dispatcher, registry tools.Registry, sessions SessionStore, repo Repository, opts Options, logger *slog.Logger) *ServiceImpl {
	if repo == nil {
		repo = NoopRepository{}
	}
	return &ServiceImpl{
		logger:           logger,
		dispatcher:       d,
		registry:         registry,
		messageExtractor: travelContext.NewMessageExtractor(),
		replyExtractor:   travelContext.NewReplyExtractor(),
		sessions:         sessions,
		repo:             repo,
		opts:             opts,
		now:              time.Now,
	}
}

func (s *ServiceImpl) HandleQuery(ctx context.Context, query string, snapshot types.SerializableContext, history []types.Turn) (*types.QueryResult, error) {
	return s.handleQuery(ctx, uuid.Nil, query, snapshot, history)
}

func (s *ServiceImpl) handleQuery(ctx context.Context, sessionID uuid.UUID, query string, snapshot types.SerializableContext, history []types.Turn) (*types.QueryResult, error) {
	ctx, span := otel.Tracer("TravelChatService").Start(ctx, "HandleQuery", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.Int("query.length", len(query)),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "HandleQuery"), slog.String("sessionID", sessionID.String()))

	query = strings.TrimSpace(query)
	if query == "" {
		span.SetStatus(codes.Error, "empty query")
		return nil, types.ErrEmptyQuery
	}
	start := s.now()

	store := travelContext.FromSerializable(snapshot)
	travelContext.Apply(store, s.messageExtractor.ExtractFacts(query))
	store.AddSearch(query)
	sc := store.ToSerializable()

	req := dispatcher.Request{
		SystemPrompt: promptBuilder.BuildResponseStylePrompt(s.opts.RequireBookingLinks),
		History:      trimHistory(history, s.opts.HistoryLimit),
		Prompt: promptBuilder.BuildToolSelectionPrompt(s.registry.ListTools(), sc, query, promptBuilder.Options{
			Now:            start,
			FallbackOrigin: s.opts.FallbackOrigin,
			IncludeSchema:  s.opts.IncludeToolSchema,
		}),
		Query: query,
	}
	out := s.dispatcher.Dispatch(ctx, req)

	if out.State == types.StateDone {
		travelContext.Apply(store, s.replyExtractor.ExtractFacts(out.Text))
	}

	newHistory := append(append([]types.Turn{}, history...),
		types.Turn{Role: types.RoleUser, Content: query},
		types.Turn{Role: types.RoleAssistant, Content: out.Text},
	)
	result := &types.QueryResult{
		Response: out.Text,
		Context:  store.ToSerializable(),
		History:  trimHistory(newHistory, s.opts.HistoryLimit),
		State:    out.State,
		Tool:     out.Tool,
	}

	latency := s.now().Sub(start)
	if out.Err != nil {
		l.WarnContext(ctx, "Turn answered with a fallback", slog.Any("error", out.Err), slog.String("tool", out.Tool))
	}
	l.InfoContext(ctx, "Query handled",
		slog.String("state", string(out.State)),
		slog.String("tool", out.Tool),
		slog.Duration("latency", latency))
	metrics.Get().QueriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(out.State))))
	span.SetAttributes(attribute.String("dispatch.state", string(out.State)))

	if err := s.repo.SaveInteraction(ctx, types.LlmInteraction{
		SessionID:    sessionID,
		Query:        query,
		ResponseText: out.Text,
		ModelUsed:    s.opts.ModelName,
		ToolName:     out.Tool,
		FinalState:   out.State,
		LatencyMs:    int(latency.Milliseconds()),
	}); err != nil {
		l.WarnContext(ctx, "Failed to record interaction", slog.Any("error", err))
	}
	span.SetStatus(codes.Ok, "query handled")
	return result, nil
}

// trimHistory keeps the most recent limit turns.
func trimHistory(history []types.Turn, limit int) []types.Turn {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

func (s *ServiceImpl) CreateSession(ctx context.Context, req types.CreateSessionRequest) (*types.ChatSession, error) {
	l := s.logger.With(slog.String("method", "CreateSession"))

	store := travelContext.NewStore()
	if req.Location != "" {
		store.SetLocation(req.Location)
	}
	if len(req.Preferences) > 0 {
		store.SetPreferences(req.Preferences)
	}
	now := s.now()
	session := &types.ChatSession{
		ID:        uuid.New(),
		Context:   store.ToSerializable(),
		History:   []types.Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !s.sessions.Create(session) {
		return nil, fmt.Errorf("session %s already exists", session.ID)
	}
	l.InfoContext(ctx, "Chat session created", slog.String("sessionID", session.ID.String()))
	return session, nil
}

func (s *ServiceImpl) GetSession(_ context.Context, sessionID uuid.UUID) (*types.ChatSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	return session, nil
}

func (s *ServiceImpl) SendMessage(ctx context.Context, sessionID uuid.UUID, message string) (*types.ChatMessageResponse, error) {
	unlock, ok := s.sessions.Lock(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	defer unlock()

	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	result, err := s.handleQuery(ctx, sessionID, message, session.Context, session.History)
	if err != nil {
		return nil, err
	}
	session.Context = result.Context
	session.History = result.History
	session.UpdatedAt = s.now()
	if !s.sessions.Update(session) {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}

	return &types.ChatMessageResponse{
		SessionID: session.ID,
		Response:  result.Response,
		Context:   result.Context,
		Tool:      result.Tool,
	}, nil
}

// mutate applies fn to the session's context store under the session lock.
func (s *ServiceImpl) mutate(sessionID uuid.UUID, fn func(*travelContext.Store, *types.ChatSession)) (*types.ChatSession, error) {
	unlock, ok := s.sessions.Lock(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	defer unlock()

	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	store := travelContext.FromSerializable(session.Context)
	fn(store, session)
	session.Context = store.ToSerializable()
	session.UpdatedAt = s.now()
	if !s.sessions.Update(session) {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	return session, nil
}

func (s *ServiceImpl) UpdateLocation(ctx context.Context, sessionID uuid.UUID, location string) (*types.ChatSession, error) {
	s.logger.DebugContext(ctx, "Updating location", slog.String("sessionID", sessionID.String()))
	return s.mutate(sessionID, func(store *travelContext.Store, _ *types.ChatSession) {
		store.SetLocation(location)
	})
}

func (s *ServiceImpl) UpdatePreferences(ctx context.Context, sessionID uuid.UUID, prefs map[string]any) (*types.ChatSession, error) {
	s.logger.DebugContext(ctx, "Updating preferences", slog.String("sessionID", sessionID.String()))
	return s.mutate(sessionID, func(store *travelContext.Store, _ *types.ChatSession) {
		store.SetPreferences(prefs)
	})
}

// ClearSession resets the context and wipes the conversation history.
func (s *ServiceImpl) ClearSession(ctx context.Context, sessionID uuid.UUID) (*types.ChatSession, error) {
	s.logger.InfoContext(ctx, "Clearing conversation", slog.String("sessionID", sessionID.String()))
	return s.mutate(sessionID, func(store *travelContext.Store, session *types.ChatSession) {
		store.Clear()
		session.History = []types.Turn{}
	})
}

func (s *ServiceImpl) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	unlock, ok := s.sessions.Lock(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	defer unlock()
	s.sessions.Delete(sessionID)
	s.logger.InfoContext(ctx, "Chat session deleted", slog.String("sessionID", sessionID.String()))
	return nil
}

func (s *ServiceImpl) ListInteractions(ctx context.Context, sessionID uuid.UUID, limit int) ([]types.LlmInteraction, error) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSessionNotFound, sessionID)
	}
	return s.repo.ListInteractions(ctx, sessionID, limit)
}

func (s *ServiceImpl) ListTools(_ context.Context) []types.ToolDescriptor {
	return s.registry.ListTools()
}
