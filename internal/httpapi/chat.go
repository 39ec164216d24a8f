package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/andika/docchat/internal/tracing"
	"github.com/andika/docchat/pkg/chat"
)

// SessionHeader carries the client-chosen session identity. Requests
// without it share the default session.
const SessionHeader = "X-Session-ID"

const maxUploadMemory = 32 << 20 // 32 MiB

type chatRequest struct {
	Message string `json:"message"`
}

type chatReply struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// handleChat serves POST /chat. Every outcome, including failures, is a
// 200 response with the reply in the body; clients have always depended
// on that shape.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.shuttingDown() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	ctx := tracing.WithRequestID(r.Context(), tracing.NewRequestID())
	logger := tracing.LoggerFromContext(ctx, s.logger)

	message, upload, err := s.parseChatRequest(r)
	if err != nil {
		logger.Warn().Err(err).Msg("Malformed chat request")
		writeReply(w, chatReply{Reply: "Could not read the request: " + err.Error(), Error: "input"})
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	result := s.orchestrator.Handle(ctx, sessionID, message, upload)

	writeReply(w, chatReply{Reply: result.Reply, Error: string(result.Kind)})
}

// parseChatRequest accepts JSON bodies and multipart forms. Multipart
// uploads are spooled into the scratch directory and handed over by path.
func (s *Server) parseChatRequest(r *http.Request) (string, *chat.Upload, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return "", nil, fmt.Errorf("failed to parse multipart form: %w", err)
		}

		message := strings.TrimSpace(r.FormValue("message"))

		file, header, err := r.FormFile("file")
		if err == http.ErrMissingFile {
			return message, nil, nil
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to read file part: %w", err)
		}
		defer file.Close()

		upload, err := s.spoolUpload(file, header)
		if err != nil {
			return "", nil, err
		}

		return message, upload, nil
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return "", nil, fmt.Errorf("failed to decode request body: %w", err)
	}

	return strings.TrimSpace(req.Message), nil, nil
}

// spoolUpload writes the uploaded part to the scratch directory so the
// extractor can work from a real file path.
func (s *Server) spoolUpload(file multipart.File, header *multipart.FileHeader) (*chat.Upload, error) {
	if err := os.MkdirAll(s.uploadDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload id: %w", err)
	}

	path := filepath.Join(s.uploadDir, id+filepath.Ext(header.Filename))

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}

	return &chat.Upload{
		Path:      path,
		Name:      header.Filename,
		MediaType: declaredMediaType(header),
	}, nil
}

// declaredMediaType prefers the part's Content-Type header and falls back
// to the filename extension.
func declaredMediaType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func writeReply(w http.ResponseWriter, reply chatReply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(reply)
}
