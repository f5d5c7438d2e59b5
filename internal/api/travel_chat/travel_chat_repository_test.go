package travelChat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

func TestPostgresInteractionRepo_SaveInteraction(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewPostgresInteractionRepo(pool, testLogger())

	sessionID := uuid.New()
	interaction := types.LlmInteraction{
		SessionID:    sessionID,
		Query:        "hotels in Rome",
		ResponseText: "Here are some hotels in Rome",
		ModelUsed:    "gemini/gemini-2.0-flash",
		ToolName:     "recommend_hotels",
		FinalState:   types.StateDone,
		LatencyMs:    120,
	}

	t.Run("generates an id and inserts", func(t *testing.T) {
		pool.ExpectExec("INSERT INTO travel_interactions").
			WithArgs(pgxmock.AnyArg(), sessionID, "hotels in Rome", "Here are some hotels in Rome",
				"gemini/gemini-2.0-flash", "recommend_hotels", "done", 120).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.SaveInteraction(context.Background(), interaction))
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		pool.ExpectExec("INSERT INTO travel_interactions").
			WillReturnError(errors.New("connection reset"))

		err := repo.SaveInteraction(context.Background(), interaction)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save interaction")
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestPostgresInteractionRepo_ListInteractions(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewPostgresInteractionRepo(pool, testLogger())

	sessionID := uuid.New()
	columns := []string{"id", "session_id", "query", "response_text", "model_used", "tool_name", "final_state", "latency_ms", "created_at"}
	created := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	t.Run("scans rows", func(t *testing.T) {
		id := uuid.New()
		pool.ExpectQuery("SELECT (.+) FROM travel_interactions").
			WithArgs(sessionID, 50).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(id, sessionID, "flights to Tokyo", "Here are flights", "simulated", "search_flights", "done", 42, created))

		got, err := repo.ListInteractions(context.Background(), sessionID, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
		assert.Equal(t, types.StateDone, got[0].FinalState)
		assert.Equal(t, 42, got[0].LatencyMs)
		assert.Equal(t, created, got[0].CreatedAt)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		pool.ExpectQuery("SELECT (.+) FROM travel_interactions").
			WithArgs(sessionID, 5).
			WillReturnError(errors.New("boom"))

		_, err := repo.ListInteractions(context.Background(), sessionID, 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list interactions")
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestNoopRepository(t *testing.T) {
	var repo Repository = NoopRepository{}
	require.NoError(t, repo.SaveInteraction(context.Background(), types.LlmInteraction{}))
	got, err := repo.ListInteractions(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
