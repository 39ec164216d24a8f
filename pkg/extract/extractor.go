// Package extract turns uploaded document files into plain text for
// prompt grounding.
package extract

import (
	"context"
	"fmt"
	"strings"
)

// Extractable media types.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain"
)

// MaxDocumentBytes caps how much extracted text is kept. Prompts with the
// full text of very large documents fail at the provider anyway.
const MaxDocumentBytes = 512 * 1024

// Extractor turns an uploaded file into plain text.
type Extractor interface {
	// Extract returns the trimmed plain text of the file at path. It is
	// only invoked for media types IsExtractable reports true for.
	Extract(ctx context.Context, path, mediaType string) (string, error)
}

// IsExtractable reports whether uploads of the given declared media type
// are handed to the extractor. Anything else is passed through untouched.
func IsExtractable(mediaType string) bool {
	switch normalizeMediaType(mediaType) {
	case MediaTypePDF, MediaTypeText:
		return true
	default:
		return false
	}
}

// DocumentExtractor extracts text from PDF and plain-text uploads.
type DocumentExtractor struct{}

// NewDocumentExtractor creates a new extractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

// Extract dispatches on the declared media type.
func (e *DocumentExtractor) Extract(ctx context.Context, path, mediaType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch normalizeMediaType(mediaType) {
	case MediaTypePDF:
		return extractPDF(path)
	case MediaTypeText:
		return extractText(path)
	default:
		return "", fmt.Errorf("unsupported media type: %s", mediaType)
	}
}

// normalizeMediaType strips parameters like "; charset=utf-8".
func normalizeMediaType(mediaType string) string {
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func clampDocument(text string) string {
	if len(text) > MaxDocumentBytes {
		text = text[:MaxDocumentBytes]
	}
	return strings.TrimSpace(text)
}
