package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnsureRegistered_Idempotent(t *testing.T) {
	// MustRegister panics on duplicate registration; repeated calls must
	// go through the same singleton.
	EnsureRegistered()
	EnsureRegistered()
}

func TestRecordHelpers(t *testing.T) {
	RecordChatRequest("ok", 10*time.Millisecond)
	RecordChatRequest("model", 5*time.Millisecond)
	RecordCompletion("gemini", 20*time.Millisecond, true)
	RecordCompletion("gemini", 20*time.Millisecond, false)
	RecordExtraction(true)
	RecordExtraction(false)
	SetActiveSessions(3)
	RecordSessionsEvicted(2)
	RecordUploadsSwept(1)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `chat_requests_total{outcome="ok"}`)
	assert.Contains(t, body, `completion_requests_total{provider="gemini",status="success"}`)
	assert.Contains(t, body, `document_extractions_total{status="error"}`)
	assert.Contains(t, body, "active_sessions 3")
	assert.Contains(t, body, "sessions_evicted_total")
	assert.Contains(t, body, "uploads_swept_total")
}
