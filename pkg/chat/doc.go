// Package chat coordinates one conversational request: session resolution,
// document memory updates, prompt assembly, the completion call, and
// history bookkeeping.
//
// Invariants:
// - Every failure becomes a degraded textual reply; nothing propagates as
//   a transport error.
// - History is only mutated for real user exchanges: the user turn when a
//   message was supplied, the assistant turn on success. Document-only
//   requests leave history untouched.
// - A failed extraction never overwrites the session's document.
// - The full exchange for one session id is serialized; different ids
//   proceed concurrently.
package chat
