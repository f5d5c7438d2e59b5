package container

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-travel-assistant/app/db"
	"github.com/FACorreiaa/go-travel-assistant/app/retry"
	"github.com/FACorreiaa/go-travel-assistant/config"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/dispatcher"
	generativeAI "github.com/FACorreiaa/go-travel-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	travelChat "github.com/FACorreiaa/go-travel-assistant/internal/api/travel_chat"
)

var errDatabaseNotReady = errors.New("database not ready after waiting")

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Model       generativeAI.Model
	Registry    *tools.CachedRegistry
	Sessions    *travelChat.MemorySessionStore
	ChatService travelChat.Service
	ChatHandler *travelChat.Handler
}

// NewContainer wires the assistant. Postgres is only touched when enabled in
// the config; without it interactions are not recorded.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	var repo travelChat.Repository = travelChat.NoopRepository{}
	if cfg.Repositories.Postgres.Enabled {
		pool, err := initDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		repo = travelChat.NewPostgresInteractionRepo(pool, logger)
	}

	modelPolicy := retryPolicy(cfg.LLM.Retry, generativeAI.IsTransient)
	modelPolicy.AttemptTimeout = cfg.LLM.CallTimeout
	model, err := generativeAI.NewModel(ctx, generativeAI.ProviderConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      apiKeyFor(cfg.LLM.Provider),
		Temperature: cfg.LLM.Temperature,
	}, modelPolicy, logger)
	if err != nil {
		logger.Error("Failed to configure language model", slog.Any("error", err))
		c.Close()
		return nil, err
	}
	c.Model = model

	c.Registry = tools.NewCachedRegistry(tools.NewMockRegistry(logger), cfg.Tools.CacheTTL, cfg.Tools.CacheTTL*2, logger)

	toolPolicy := retryPolicy(cfg.Tools.Retry, dispatcher.IsTransientToolError)
	toolPolicy.AttemptTimeout = cfg.Tools.Timeout
	d := dispatcher.New(model, c.Registry, nil, toolPolicy, logger)

	c.Sessions = travelChat.NewMemorySessionStore(cfg.Sessions.TTL, cfg.Sessions.Cleanup)
	c.ChatService = travelChat.NewService(d, c.Registry, c.Sessions, repo, travelChat.Options{
		FallbackOrigin:      cfg.Assistant.FallbackOrigin,
		IncludeToolSchema:   cfg.Tools.IncludeSchema,
		RequireBookingLinks: cfg.Assistant.RequireBookingLinks,
		HistoryLimit:        cfg.Assistant.HistoryLimit,
		ModelName:           model.Name(),
	}, logger)
	c.ChatHandler = travelChat.NewHandler(c.ChatService, logger)

	return c, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		return nil, err
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		return nil, err
	}

	waitCtx := ctx
	if dbConfig.MaxConnWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, dbConfig.MaxConnWait)
		defer cancel()
	}
	if !database.WaitForDB(waitCtx, pool, logger) {
		pool.Close()
		return nil, errDatabaseNotReady
	}
	return pool, nil
}

// retryPolicy maps configured retry settings onto a policy, keeping the
// defaults for anything left unset.
func retryPolicy(rc config.RetryConfig, retryable func(error) bool) retry.Policy {
	p := retry.DefaultPolicy(retryable)
	if rc.MaxAttempts > 0 {
		p.MaxAttempts = rc.MaxAttempts
	}
	if rc.InitialBackoff > 0 {
		p.InitialBackoff = rc.InitialBackoff
	}
	if rc.MaxBackoff > 0 {
		p.MaxBackoff = rc.MaxBackoff
	}
	if rc.Multiplier > 0 {
		p.Multiplier = rc.Multiplier
	}
	return p
}

func apiKeyFor(provider string) string {
	switch provider {
	case generativeAI.ProviderGemini:
		return os.Getenv("GOOGLE_GEMINI_API_KEY")
	case generativeAI.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
		c.Logger.Info("Database connection pool closed")
	}
}
