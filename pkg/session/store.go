package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/andika/docchat/internal/observability"
	"github.com/andika/docchat/internal/tracing"
)

// Store is a process-wide collection of sessions keyed by id. Construct one
// per service instance (or per test); there is no package-level singleton.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	historyLimit int
}

// NewStore creates an empty session store. historyLimit <= 0 selects
// DefaultHistoryLimit.
func NewStore(historyLimit int) *Store {
	observability.EnsureRegistered()

	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	return &Store{
		sessions:     make(map[string]*Session),
		historyLimit: historyLimit,
	}
}

// ResolveID maps an externally supplied session id to a store key. Absent
// ids share the default session.
func ResolveID(id string) string {
	if id == "" {
		return DefaultSessionID
	}
	return id
}

// GetOrCreate returns the session for id, creating it with empty history
// and empty document on first sight. It never fails.
func (st *Store) GetOrCreate(id string) *Session {
	id = ResolveID(id)

	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[id]; ok {
		return sess
	}

	sess := newSession(id, st.historyLimit)
	st.sessions[id] = sess
	observability.SetActiveSessions(len(st.sessions))

	log.Debug().Str("session_id", id).Msg("Session created")

	return sess
}

// Exchange runs fn with exclusive access to the session for id. Appends,
// document updates, and the surrounding completion call appear atomic to
// concurrent callers on the same id; other ids proceed independently.
func (st *Store) Exchange(ctx context.Context, id string, fn func(*Session) error) error {
	id = ResolveID(id)
	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		"docchat.session",
		"session.exchange",
		attribute.String("session_id", id),
	)
	defer span.End()

	sess := st.acquire(id)
	defer sess.mu.Unlock()

	sess.touch()
	return fn(sess)
}

// acquire returns the live session for id with its mutex held. A sweep can
// evict the session between GetOrCreate returning and the lock being taken,
// leaving the caller with a detached record; re-check map membership under
// the lock and start over if that happened.
func (st *Store) acquire(id string) *Session {
	for {
		sess := st.GetOrCreate(id)
		sess.mu.Lock()

		st.mu.RLock()
		live := st.sessions[id] == sess
		st.mu.RUnlock()

		if live {
			return sess
		}
		sess.mu.Unlock()
	}
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// IDs returns the ids of all live sessions.
func (st *Store) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	return ids
}

// EvictIdle removes sessions whose last access is older than ttl. Sessions
// currently inside an Exchange are skipped. Returns the number evicted.
func (st *Store) EvictIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, sess := range st.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		idle := sess.lastAccess.Before(cutoff)
		sess.mu.Unlock()

		if idle {
			delete(st.sessions, id)
			evicted++
			log.Debug().Str("session_id", id).Msg("Session evicted")
		}
	}

	if evicted > 0 {
		observability.RecordSessionsEvicted(evicted)
	}
	observability.SetActiveSessions(len(st.sessions))

	return evicted
}
