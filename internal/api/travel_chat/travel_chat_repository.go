package travelChat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Repository records how each turn was answered. It is an audit log only;
// session state never depends on it.
type Repository interface {
	SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error
	ListInteractions(ctx context.Context, sessionID uuid.UUID, limit int) ([]types.LlmInteraction, error)
}

// DBPool is the subset of *pgxpool.Pool the repository uses.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Repository = (*PostgresInteractionRepo)(nil)

type PostgresInteractionRepo struct {
	logger *slog.Logger
	pgpool DBPool
}

func NewPostgresInteractionRepo(pgpool DBPool, logger *slog.Logger) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresInteractionRepo) SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error {
	ctx, span := otel.Tracer("TravelChatRepo").Start(ctx, "SaveInteraction", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "travel_interactions"),
		attribute.String("session.id", interaction.SessionID.String()),
	))
	defer span.End()

	query := `
        INSERT INTO travel_interactions (
            id, session_id, query, response_text, model_used, tool_name, final_state, latency_ms
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	start := time.Now()
	_, err := r.pgpool.Exec(ctx, query,
		interaction.ID, interaction.SessionID, interaction.Query, interaction.ResponseText,
		interaction.ModelUsed, interaction.ToolName, string(interaction.FinalState), interaction.LatencyMs,
	)
	recordQuery(ctx, "insert_interaction", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to save interaction: %w", err)
	}
	span.SetStatus(codes.Ok, "interaction saved")
	return nil
}

func (r *PostgresInteractionRepo) ListInteractions(ctx context.Context, sessionID uuid.UUID, limit int) ([]types.LlmInteraction, error) {
	ctx, span := otel.Tracer("TravelChatRepo").Start(ctx, "ListInteractions", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "travel_interactions"),
		attribute.String("session.id", sessionID.String()),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "ListInteractions"), slog.String("sessionID", sessionID.String()))

	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, session_id, query, response_text, model_used, tool_name, final_state, latency_ms, created_at
        FROM travel_interactions
        WHERE session_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, sessionID, limit)
	if err != nil {
		recordQuery(ctx, "list_interactions", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var out []types.LlmInteraction
	for rows.Next() {
		var (
			it    types.LlmInteraction
			state string
		)
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Query, &it.ResponseText, &it.ModelUsed,
			&it.ToolName, &state, &it.LatencyMs, &it.CreatedAt); err != nil {
			recordQuery(ctx, "list_interactions", start, err)
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		it.FinalState = types.DispatchState(state)
		out = append(out, it)
	}
	err = rows.Err()
	recordQuery(ctx, "list_interactions", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	l.DebugContext(ctx, "Listed interactions", slog.Int("count", len(out)))
	return out, nil
}

func recordQuery(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("db.operation", op))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

var _ Repository = NoopRepository{}

// NoopRepository is used when Postgres is disabled.
type NoopRepository struct{}

func (NoopRepository) SaveInteraction(context.Context, types.LlmInteraction) error { return nil }

func (NoopRepository) ListInteractions(context.Context, uuid.UUID, int) ([]types.LlmInteraction, error) {
	return []types.LlmInteraction{}, nil
}
