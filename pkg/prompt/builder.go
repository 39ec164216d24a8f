// Package prompt assembles the completion prompt from session state.
package prompt

import (
	"strings"

	"github.com/andika/docchat/pkg/session"
)

// DefaultPersona is the built-in system preamble. A persona file can
// override the wording; the section framing around it is fixed.
const DefaultPersona = "You are a helpful assistant. Answer the user's questions clearly and " +
	"concisely. When document content is provided, ground your answers in it " +
	"and prefer quoting it over guessing."

// NoDocumentPlaceholder stands in for the document block when no document
// has been uploaded for the session.
const NoDocumentPlaceholder = "No document provided."

// PersonaProvider supplies the current system preamble text.
type PersonaProvider interface {
	Persona() string
}

// StaticPersona is a PersonaProvider with fixed text.
type StaticPersona string

// Persona returns the fixed preamble text.
func (p StaticPersona) Persona() string {
	if p == "" {
		return DefaultPersona
	}
	return string(p)
}

// Builder turns a session snapshot and a new message into one prompt
// string. Build has no side effects.
type Builder struct {
	persona PersonaProvider
}

// NewBuilder creates a builder using the given persona source. A nil
// source selects the built-in persona.
func NewBuilder(persona PersonaProvider) *Builder {
	if persona == nil {
		persona = StaticPersona("")
	}
	return &Builder{persona: persona}
}

// Build renders the prompt: persona preamble, document block, history
// block, and the trailing assistant cue, in that fixed order.
//
// The caller normally appends newMessage to the session history before
// building; a snapshot that does not yet carry it gets a trailing user
// line so the message is never lost from the prompt.
func (b *Builder) Build(snap session.Snapshot, newMessage string) string {
	var sb strings.Builder

	sb.WriteString(b.persona.Persona())
	sb.WriteString("\n\n")

	sb.WriteString("=== DOCUMENT CONTENT ===\n")
	if snap.Document != "" {
		sb.WriteString(snap.Document)
	} else {
		sb.WriteString(NoDocumentPlaceholder)
	}
	sb.WriteString("\n\n")

	sb.WriteString("=== CONVERSATION HISTORY ===\n")
	for _, turn := range snap.History {
		sb.WriteString(strings.ToUpper(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	if newMessage != "" && !endsWithUserTurn(snap.History, newMessage) {
		sb.WriteString("USER: ")
		sb.WriteString(newMessage)
		sb.WriteString("\n")
	}

	sb.WriteString("\nASSISTANT:")

	return sb.String()
}

func endsWithUserTurn(history []session.Turn, content string) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	return last.Role == session.RoleUser && last.Content == content
}
