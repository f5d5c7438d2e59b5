package travelChat

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// SessionStore keeps chat sessions between requests. Each session is only
// ever mutated while its lock is held.
type SessionStore interface {
	Get(id uuid.UUID) (*types.ChatSession, bool)
	// Create stores a new session. It reports false when the ID is taken.
	Create(session *types.ChatSession) bool
	// Update replaces a live session. It reports false when the session was
	// deleted or has expired.
	Update(session *types.ChatSession) bool
	Delete(id uuid.UUID)
	// Lock serializes work on one existing session and returns the unlock
	// function. It reports false when the session does not exist.
	Lock(id uuid.UUID) (func(), bool)
}

var _ SessionStore = (*MemorySessionStore)(nil)

// sessionEntry is what the cache holds. The mutex lives and dies with the
// session, so unknown IDs never allocate a lock.
type sessionEntry struct {
	mu      sync.Mutex
	session atomic.Pointer[types.ChatSession]
}

// MemorySessionStore holds sessions in process memory with sliding expiry.
type MemorySessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemorySessionStore(ttl, cleanup time.Duration) *MemorySessionStore {
	s := &MemorySessionStore{cache: cache.New(ttl, cleanup), ttl: ttl}
	s.cache.OnEvicted(func(string, any) {
		metrics.Get().ActiveSessions.Add(context.Background(), -1)
	})
	return s
}

func cloneSession(session *types.ChatSession) *types.ChatSession {
	cp := *session
	cp.History = slices.Clone(session.History)
	return &cp
}

func (s *MemorySessionStore) entry(id uuid.UUID) (*sessionEntry, bool) {
	v, ok := s.cache.Get(id.String())
	if !ok {
		return nil, false
	}
	return v.(*sessionEntry), true
}

// Get returns a copy of the stored session.
func (s *MemorySessionStore) Get(id uuid.UUID) (*types.ChatSession, bool) {
	e, ok := s.entry(id)
	if !ok {
		return nil, false
	}
	return cloneSession(e.session.Load()), true
}

func (s *MemorySessionStore) Create(session *types.ChatSession) bool {
	e := &sessionEntry{}
	e.session.Store(cloneSession(session))
	if err := s.cache.Add(session.ID.String(), e, s.ttl); err != nil {
		return false
	}
	metrics.Get().ActiveSessions.Add(context.Background(), 1)
	return true
}

// Update stores session and restarts its expiry. An expired entry the
// janitor has not collected yet is not revived.
func (s *MemorySessionStore) Update(session *types.ChatSession) bool {
	e, ok := s.entry(session.ID)
	if !ok {
		return false
	}
	e.session.Store(cloneSession(session))
	return s.cache.Replace(session.ID.String(), e, s.ttl) == nil
}

func (s *MemorySessionStore) Delete(id uuid.UUID) {
	// OnEvicted fires for explicit deletes too.
	s.cache.Delete(id.String())
}

func (s *MemorySessionStore) Lock(id uuid.UUID) (func(), bool) {
	e, ok := s.entry(id)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	// The session may have been deleted while we waited.
	if current, ok := s.entry(id); !ok || current != e {
		e.mu.Unlock()
		return nil, false
	}
	return e.mu.Unlock, true
}

// Count returns the number of live sessions.
func (s *MemorySessionStore) Count() int {
	return s.cache.ItemCount()
}
