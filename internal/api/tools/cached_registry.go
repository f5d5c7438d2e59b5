package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

var _ Registry = (*CachedRegistry)(nil)

// CachedRegistry memoizes successful tool results per tool name and argument
// set. Concurrent identical calls share one execution. Failures are never cached.
type CachedRegistry struct {
	next   Registry
	cache  *cache.Cache
	group  singleflight.Group
	logger *slog.Logger
}

func NewCachedRegistry(next Registry, ttl, cleanup time.Duration, logger *slog.Logger) *CachedRegistry {
	return &CachedRegistry{
		next:   next,
		cache:  cache.New(ttl, cleanup),
		logger: logger,
	}
}

func (r *CachedRegistry) ListTools() []types.ToolDescriptor {
	return r.next.ListTools()
}

func (r *CachedRegistry) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	key, err := cacheKey(name, args)
	if err != nil {
		return r.next.CallTool(ctx, name, args)
	}
	if v, found := r.cache.Get(key); found {
		r.logger.DebugContext(ctx, "Tool cache hit", slog.String("tool", name))
		return v, nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, found := r.cache.Get(key); found {
			return v, nil
		}
		res, err := r.next.CallTool(ctx, name, args)
		if err != nil {
			return nil, err
		}
		r.cache.Set(key, res, cache.DefaultExpiration)
		return res, nil
	})
	return v, err
}

// Flush drops every cached result.
func (r *CachedRegistry) Flush() {
	r.cache.Flush()
}

// cacheKey relies on encoding/json sorting map keys.
func cacheKey(name string, args map[string]any) (string, error) {
	if name == "" {
		return "", errors.New("empty tool name")
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return name + ":" + string(b), nil
}
