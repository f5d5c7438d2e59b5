package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	QueriesTotal            metric.Int64Counter
	DispatchDurationSeconds metric.Float64Histogram
	ModelCallDurationSecs   metric.Float64Histogram
	ToolCallsTotal          metric.Int64Counter
	ToolCallDurationSeconds metric.Float64Histogram
	FallbacksTotal          metric.Int64Counter
	ActiveSessions          metric.Int64UpDownCounter
	DbQueryDurationSeconds  metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments once, from the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TravelAssistant")
		var err error
		m := &AppMetrics{}

		m.QueriesTotal, err = meter.Int64Counter(
			"assistant_queries_total",
			metric.WithDescription("Total number of user queries handled, by final dispatch state"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create assistant_queries_total: %v", err)
		}

		m.DispatchDurationSeconds, err = meter.Float64Histogram(
			"assistant_dispatch_duration_seconds",
			metric.WithDescription("Duration of one dispatch from model call to formatted reply"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create assistant_dispatch_duration_seconds: %v", err)
		}

		m.ModelCallDurationSecs, err = meter.Float64Histogram(
			"llm_call_duration_seconds",
			metric.WithDescription("Duration of language model calls including retries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create llm_call_duration_seconds: %v", err)
		}

		m.ToolCallsTotal, err = meter.Int64Counter(
			"tool_calls_total",
			metric.WithDescription("Total number of tool invocations, by tool and outcome"),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create tool_calls_total: %v", err)
		}

		m.ToolCallDurationSeconds, err = meter.Float64Histogram(
			"tool_call_duration_seconds",
			metric.WithDescription("Duration of tool invocations in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create tool_call_duration_seconds: %v", err)
		}

		m.FallbacksTotal, err = meter.Int64Counter(
			"assistant_fallbacks_total",
			metric.WithDescription("Total number of fallback replies, by reason"),
			metric.WithUnit("{reply}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create assistant_fallbacks_total: %v", err)
		}

		m.ActiveSessions, err = meter.Int64UpDownCounter(
			"chat_sessions_active",
			metric.WithDescription("Number of chat sessions currently held in memory"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_sessions_active: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it against the current
// MeterProvider on first use.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
