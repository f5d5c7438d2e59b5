package travelChat

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/internal/api"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger, err error, action string) {
	span.RecordError(err)
	switch {
	case errors.Is(err, types.ErrSessionNotFound):
		l.WarnContext(r.Context(), "Chat session not found", slog.Any("error", err))
		span.SetStatus(codes.Error, "session not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Chat session not found")
	case errors.Is(err, types.ErrEmptyQuery):
		span.SetStatus(codes.Error, "empty query")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Message must not be empty")
	default:
		l.ErrorContext(r.Context(), "Failed to "+action, slog.Any("error", err))
		span.SetStatus(codes.Error, action+" failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to "+action)
	}
}

// sessionIDParam reads {sessionID}, writing a 400 when it is not a UUID.
func sessionIDParam(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger) (uuid.UUID, bool) {
	id, err := api.URLParamUUID(r, "sessionID")
	if err != nil {
		l.WarnContext(r.Context(), "Invalid session ID", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid session id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	span.SetAttributes(attribute.String("session.id", id.String()))
	return id, true
}

// HandleQuery answers a single stateless turn. The caller owns the context and
// history and sends them back with every request.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "HandleQuery", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/query"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "HandleQuery"))

	var req types.HandleQueryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.HandleQuery(ctx, req.Query, req.Context, req.History)
	if err != nil {
		writeServiceError(w, r, span, l, err, "handle query")
		return
	}
	span.SetStatus(codes.Ok, "query handled")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "CreateSession", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateSession"))

	// The body is optional.
	var req types.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := api.DecodeJSONBody(w, r, &req); err != nil {
			l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
			span.SetStatus(codes.Error, "invalid request body")
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	session, err := h.service.CreateSession(ctx, req)
	if err != nil {
		writeServiceError(w, r, span, l, err, "create session")
		return
	}
	span.SetAttributes(attribute.String("session.id", session.ID.String()))
	span.SetStatus(codes.Ok, "session created")
	api.WriteJSONResponse(w, r, http.StatusCreated, session)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "GetSession", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions/{sessionID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetSession"))

	sessionID, ok := sessionIDParam(w, r, span, l)
	if !ok {
		return
	}
	session, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		writeServiceError(w, r, span, l, err, "get session")
		return
	}
	span.SetStatus(codes.Ok, "session retrieved")
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "SendMessage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions/{sessionID}/messages"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "SendMessage"))

	sessionID, ok := sessionIDParam(w, r, span, l)
	if !ok {
		return
	}
	l = l.With(slog.String("sessionID", sessionID.String()))

	var req types.ChatMessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.SendMessage(ctx, sessionID, req.Message)
	if err != nil {
		writeServiceError(w, r, span, l, err, "send message")
		return
	}
	span.SetStatus(codes.Ok, "message answered")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "UpdateLocation", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions/{sessionID}/location"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateLocation"))

	sessionID, ok := sessionIDParam(w, r, span, l)
	if !ok {
		return
	}

	var req types.UpdateLocationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.UpdateLocation(ctx, sessionID, req.Location)
	if err != nil {
		writeServiceError(w, r, span, l, err, "update location")
		return
	}
	span.SetStatus(codes.Ok, "location updated")
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "UpdatePreferences", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions/{sessionID}/preferences"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdatePreferences"))

	sessionID, ok := sessionIDParam(w, r, span, l)
	if !ok {
		return
	}

	var req types.UpdatePreferencesRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.UpdatePreferences(ctx, sessionID, req.Preferences)
	if err != nil {
		writeServiceError(w, r, span, l, err, "update preferences")
		return
	}
	span.SetStatus(codes.Ok, "preferences updated")
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "ClearSession", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions/{sessionID}/clear"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ClearSession"))

	sessionID, ok := sessionIDParam(w, r, span, l)
	if !ok {
		return
	}
	session, err := h.service.ClearSession(ctx, sessionID)
	if err != nil {
		writeServiceError(w, r, span, l, err, "clear session")
		return
	}
	span.SetStatus(codes.Ok, "session cleared")
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "DeleteSession", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions/{sessionID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteSession"))

	sessionID, ok := sessionIDParam(w, r, span, l)
	if !ok {
		return
	}
	if err := h.service.DeleteSession(ctx, sessionID); err != nil {
		writeServiceError(w, r, span, l, err, "delete session")
		return
	}
	span.SetStatus(codes.Ok, "session deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *Handler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "ListInteractions", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/chat/sessions/{sessionID}/interactions"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListInteractions"))

	sessionID, ok := sessionIDParam(w, r, span, l)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			span.SetStatus(codes.Error, "invalid limit")
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	interactions, err := h.service.ListInteractions(ctx, sessionID, limit)
	if err != nil {
		writeServiceError(w, r, span, l, err, "list interactions")
		return
	}
	if interactions == nil {
		interactions = []types.LlmInteraction{}
	}
	span.SetStatus(codes.Ok, "interactions listed")
	api.WriteJSONResponse(w, r, http.StatusOK, interactions)
}

func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelChatHandler").Start(r.Context(), "ListTools", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/tools"),
	))
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.ListTools(ctx))
}
