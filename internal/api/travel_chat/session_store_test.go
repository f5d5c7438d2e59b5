package travelChat

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

func TestMemorySessionStore_GetReturnsCopy(t *testing.T) {
	s := NewMemorySessionStore(time.Hour, time.Hour)
	session := &types.ChatSession{ID: uuid.New(), History: []types.Turn{{Role: types.RoleUser, Content: "hi"}}}
	require.True(t, s.Create(session))

	got, ok := s.Get(session.ID)
	require.True(t, ok)
	got.History = append(got.History, types.Turn{Role: types.RoleAssistant, Content: "hello"})
	got.History[0].Content = "changed"

	again, _ := s.Get(session.ID)
	require.Len(t, again.History, 1)
	assert.Equal(t, "hi", again.History[0].Content)
}

func TestMemorySessionStore_CreateUpdateDelete(t *testing.T) {
	s := NewMemorySessionStore(time.Hour, time.Hour)
	id := uuid.New()
	require.True(t, s.Create(&types.ChatSession{ID: id}))
	assert.False(t, s.Create(&types.ChatSession{ID: id}), "IDs are not reused")
	assert.True(t, s.Update(&types.ChatSession{ID: id, History: []types.Turn{{Role: types.RoleUser, Content: "hi"}}}))
	assert.Equal(t, 1, s.Count())

	got, _ := s.Get(id)
	assert.Len(t, got.History, 1)

	s.Delete(id)
	_, ok := s.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
	assert.False(t, s.Update(got), "a deleted session is not brought back")
	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	s := NewMemorySessionStore(20*time.Millisecond, time.Hour)
	id := uuid.New()
	require.True(t, s.Create(&types.ChatSession{ID: id}))

	assert.Eventually(t, func() bool {
		_, ok := s.Get(id)
		return !ok
	}, time.Second, 10*time.Millisecond)
	assert.False(t, s.Update(&types.ChatSession{ID: id}), "an expired session is not revived")
	_, ok := s.Lock(id)
	assert.False(t, ok)
}

func TestMemorySessionStore_LockSerializes(t *testing.T) {
	s := NewMemorySessionStore(time.Hour, time.Hour)
	id := uuid.New()
	require.True(t, s.Create(&types.ChatSession{ID: id}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, ok := s.Lock(id)
			if !assert.True(t, ok) {
				return
			}
			defer unlock()
			session, _ := s.Get(id)
			session.History = append(session.History, types.Turn{Role: types.RoleUser, Content: "x"})
			assert.True(t, s.Update(session))
		}()
	}
	wg.Wait()

	session, _ := s.Get(id)
	assert.Len(t, session.History, 20)
}

func TestMemorySessionStore_LockUnknownSession(t *testing.T) {
	s := NewMemorySessionStore(time.Hour, time.Hour)
	for i := 0; i < 100; i++ {
		unlock, ok := s.Lock(uuid.New())
		assert.False(t, ok)
		assert.Nil(t, unlock)
	}
	assert.Equal(t, 0, s.Count())
}

func TestMemorySessionStore_LockFailsAfterDelete(t *testing.T) {
	s := NewMemorySessionStore(time.Hour, time.Hour)
	id := uuid.New()
	require.True(t, s.Create(&types.ChatSession{ID: id}))

	unlock, ok := s.Lock(id)
	require.True(t, ok)

	waiter := make(chan bool, 1)
	go func() {
		next, ok := s.Lock(id)
		if ok {
			next()
		}
		waiter <- ok
	}()

	s.Delete(id)
	unlock()
	assert.False(t, <-waiter, "a waiter must not get the lock of a deleted session")
}
