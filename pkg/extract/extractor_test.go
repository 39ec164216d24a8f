package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExtractable(t *testing.T) {
	tests := []struct {
		mediaType   string
		extractable bool
	}{
		{"application/pdf", true},
		{"APPLICATION/PDF", true},
		{"text/plain", true},
		{"text/plain; charset=utf-8", true},
		{"image/png", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.extractable, IsExtractable(tt.mediaType))
		})
	}
}

func TestDocumentExtractor_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Contract value: $500\n\n"), 0600))

	e := NewDocumentExtractor()
	text, err := e.Extract(context.Background(), path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Contract value: $500", text)
}

func TestDocumentExtractor_PlainTextWithCharset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	e := NewDocumentExtractor()
	text, err := e.Extract(context.Background(), path, "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestDocumentExtractor_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0600))

	e := NewDocumentExtractor()
	_, err := e.Extract(context.Background(), path, "text/plain")
	assert.Error(t, err)
}

func TestDocumentExtractor_MissingFile(t *testing.T) {
	e := NewDocumentExtractor()
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), "text/plain")
	assert.Error(t, err)
}

func TestDocumentExtractor_UnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0600))

	e := NewDocumentExtractor()
	_, err := e.Extract(context.Background(), path, "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported media type")
}

func TestDocumentExtractor_InvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0600))

	e := NewDocumentExtractor()
	_, err := e.Extract(context.Background(), path, "application/pdf")
	assert.Error(t, err)
}

func TestDocumentExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewDocumentExtractor()
	_, err := e.Extract(ctx, "whatever", "text/plain")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClampDocument(t *testing.T) {
	long := strings.Repeat("a", MaxDocumentBytes+100)
	clamped := clampDocument(long)
	assert.Len(t, clamped, MaxDocumentBytes)

	assert.Equal(t, "short", clampDocument("  short \n"))
}
