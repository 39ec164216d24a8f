package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetOrCreate_NewSessionIsEmpty(t *testing.T) {
	store := NewStore(0)

	sess := store.GetOrCreate("fresh")
	require.NotNil(t, sess)
	assert.Equal(t, "fresh", sess.ID)
	assert.Empty(t, sess.History())
	assert.Equal(t, "", sess.Document())
}

func TestStore_GetOrCreate_ReturnsSameSession(t *testing.T) {
	store := NewStore(0)

	first := store.GetOrCreate("s1")
	first.AppendTurn(Turn{Role: RoleUser, Content: "hello"})

	second := store.GetOrCreate("s1")
	assert.Same(t, first, second)
	assert.Len(t, second.History(), 1)
}

func TestStore_GetOrCreate_DefaultID(t *testing.T) {
	store := NewStore(0)

	anon := store.GetOrCreate("")
	assert.Equal(t, DefaultSessionID, anon.ID)

	// All anonymous callers share one session
	assert.Same(t, anon, store.GetOrCreate(""))
	assert.Same(t, anon, store.GetOrCreate(DefaultSessionID))
	assert.Equal(t, 1, store.Len())
}

func TestSession_AppendTurn_SlidingWindow(t *testing.T) {
	store := NewStore(10)
	sess := store.GetOrCreate("s1")

	for i := 1; i <= 10; i++ {
		sess.AppendTurn(Turn{Role: RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}
	require.Len(t, sess.History(), 10)

	// The 11th turn drops exactly the oldest and preserves order
	sess.AppendTurn(Turn{Role: RoleUser, Content: "turn 11"})

	history := sess.History()
	require.Len(t, history, 10)
	assert.Equal(t, "turn 2", history[0].Content)
	assert.Equal(t, "turn 11", history[9].Content)
	for i := 1; i < len(history); i++ {
		assert.Equal(t, fmt.Sprintf("turn %d", i+2), history[i].Content)
	}
}

func TestSession_AppendTurn_EmptyContentDropped(t *testing.T) {
	store := NewStore(0)
	sess := store.GetOrCreate("s1")

	sess.AppendTurn(Turn{Role: RoleUser, Content: ""})
	assert.Empty(t, sess.History())
}

func TestSession_SetDocument_Overwrites(t *testing.T) {
	store := NewStore(0)
	sess := store.GetOrCreate("s1")

	sess.SetDocument("first document")
	sess.SetDocument("second document")

	assert.Equal(t, "second document", sess.Document())
}

func TestSession_Snapshot_IsACopy(t *testing.T) {
	store := NewStore(0)
	sess := store.GetOrCreate("s1")
	sess.AppendTurn(Turn{Role: RoleUser, Content: "hello"})

	snap := sess.Snapshot()
	snap.History[0].Content = "mutated"

	assert.Equal(t, "hello", sess.History()[0].Content)
}

func TestStore_Exchange_SerializesPerSession(t *testing.T) {
	store := NewStore(100)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.Exchange(context.Background(), "shared", func(s *Session) error {
				s.AppendTurn(Turn{Role: RoleUser, Content: fmt.Sprintf("msg %d", n)})
				s.AppendTurn(Turn{Role: RoleAssistant, Content: fmt.Sprintf("reply %d", n)})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sess := store.GetOrCreate("shared")
	history := sess.History()
	require.Len(t, history, workers*2)

	// Each exchange's pair stayed adjacent: appends were not interleaved
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, RoleUser, history[i].Role)
		assert.Equal(t, RoleAssistant, history[i+1].Role)
		assert.Equal(t, "msg", history[i].Content[:3])
		assert.Equal(t, history[i].Content[4:], history[i+1].Content[6:])
	}
}

func TestStore_Exchange_NotLostToConcurrentEviction(t *testing.T) {
	store := NewStore(0)

	stale := store.GetOrCreate("s1")

	// Hold the session so the exchange below parks between its GetOrCreate
	// and taking the session lock.
	stale.mu.Lock()

	done := make(chan error, 1)
	go func() {
		done <- store.Exchange(context.Background(), "s1", func(s *Session) error {
			s.AppendTurn(Turn{Role: RoleUser, Content: "hello"})
			return nil
		})
	}()

	// Evict the record the exchange is about to acquire, as a sweep winning
	// that window would, then let the exchange proceed.
	time.Sleep(50 * time.Millisecond)
	store.mu.Lock()
	delete(store.sessions, "s1")
	store.mu.Unlock()
	stale.mu.Unlock()

	require.NoError(t, <-done)

	// The turn must land in the store's current session, never the
	// detached record.
	assert.Empty(t, stale.History())

	current := store.GetOrCreate("s1")
	assert.NotSame(t, stale, current)
	assert.Len(t, current.History(), 1)
}

func TestStore_Exchange_DifferentSessionsIndependent(t *testing.T) {
	store := NewStore(0)

	err := store.Exchange(context.Background(), "a", func(a *Session) error {
		// Holding session "a" must not block session "b"
		done := make(chan error, 1)
		go func() {
			done <- store.Exchange(context.Background(), "b", func(b *Session) error {
				b.AppendTurn(Turn{Role: RoleUser, Content: "hi"})
				return nil
			})
		}()
		return <-done
	})

	require.NoError(t, err)
	assert.Len(t, store.GetOrCreate("b").History(), 1)
}
