// Package session manages in-memory conversation state: a bounded turn
// history plus the most recently extracted document text, keyed by an
// opaque client-supplied id.
//
// Invariants:
// - One Session per id; unknown ids are created lazily with empty state.
// - History never exceeds the configured limit; oldest turns drop first.
// - The document blob is overwritten wholesale, never merged.
// - Turns with empty content are never stored.
// - Mutations for one session are serialized through Store.Exchange.
//
// Usage:
//
//	store := session.NewStore(session.DefaultHistoryLimit)
//	_ = store.Exchange(ctx, "session:1", func(s *session.Session) error {
//		s.AppendTurn(session.Turn{Role: session.RoleUser, Content: "hello"})
//		return nil
//	})
package session
