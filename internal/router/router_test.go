package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-assistant/app/retry"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/dispatcher"
	generativeAI "github.com/FACorreiaa/go-travel-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	travelChat "github.com/FACorreiaa/go-travel-assistant/internal/api/travel_chat"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

func newTestRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := tools.NewMockRegistry(logger)
	d := dispatcher.New(generativeAI.NewSimulatedModel(), registry, nil, retry.Policy{}, logger)
	svc := travelChat.NewService(d, registry, travelChat.NewMemorySessionStore(time.Hour, time.Hour), nil, travelChat.Options{}, logger)
	return SetupRouter(&Config{ChatHandler: travelChat.NewHandler(svc, logger)})
}

func TestSetupRouter_Ping(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestSetupRouter_SessionRoutes(t *testing.T) {
	h := newTestRouter()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var session types.ChatSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"message":"What is the best time to visit Greece?"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat/sessions/"+session.ID.String()+"/messages", body))
	require.Equal(t, http.StatusOK, rec.Code)
	var msg types.ChatMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, tools.SeasonalTravelAdvice, msg.Tool)
	assert.Contains(t, msg.Response, "Greece")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat/sessions/"+session.ID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), tools.TransportOptions)
}
