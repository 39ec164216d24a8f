package chat

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/andika/docchat/internal/observability"
	"github.com/andika/docchat/internal/tracing"
	"github.com/andika/docchat/pkg/completion"
	"github.com/andika/docchat/pkg/extract"
	"github.com/andika/docchat/pkg/prompt"
	"github.com/andika/docchat/pkg/session"
)

// NoInputReply is returned when a request carries neither a message nor
// any document context.
const NoInputReply = "No input received"

const modelErrorPrefix = "AI error occurred: "
const extractionErrorPrefix = "Could not process the uploaded document: "

// Kind classifies a degraded outcome. The empty kind means success.
type Kind string

const (
	KindNone       Kind = ""
	KindInput      Kind = "input"
	KindExtraction Kind = "extraction"
	KindModel      Kind = "model"
)

// Upload describes a spooled request upload.
type Upload struct {
	Path      string
	Name      string
	MediaType string
}

// Result is the outcome of one chat request. Reply is always set; Kind
// names the failure when the reply is a degraded one.
type Result struct {
	Reply string
	Kind  Kind
}

// Orchestrator handles chat requests end to end.
type Orchestrator struct {
	store     *session.Store
	builder   *prompt.Builder
	client    completion.Client
	extractor extract.Extractor
	logger    zerolog.Logger
}

// Config holds orchestrator dependencies.
type Config struct {
	Store     *session.Store
	Builder   *prompt.Builder
	Client    completion.Client
	Extractor extract.Extractor
	Logger    zerolog.Logger
}

// New creates a new orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Builder == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.NewDocumentExtractor()
	}

	return &Orchestrator{
		store:     cfg.Store,
		builder:   cfg.Builder,
		client:    cfg.Client,
		extractor: cfg.Extractor,
		logger:    cfg.Logger,
	}, nil
}

// Handle processes one chat request. It always returns a usable Result;
// failures are folded into the reply text. The upload file, if any, is
// removed before returning regardless of outcome.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string, upload *Upload) Result {
	ctx, span := tracing.StartSpan(
		ctx,
		"docchat.chat",
		"chat.handle",
		attribute.String("session_id", session.ResolveID(sessionID)),
		attribute.Bool("has_upload", upload != nil),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, o.logger)
	start := time.Now()

	if upload != nil {
		defer o.cleanupUpload(logger, upload)
	}

	var res Result
	_ = o.store.Exchange(ctx, sessionID, func(s *session.Session) error {
		res = o.exchange(ctx, logger, s, message, upload)
		return nil
	})

	outcome := "ok"
	if res.Kind != KindNone {
		outcome = string(res.Kind)
		span.SetStatus(codes.Error, outcome)
	}
	observability.RecordChatRequest(outcome, time.Since(start))

	return res
}

// exchange runs with exclusive access to the session.
func (o *Orchestrator) exchange(ctx context.Context, logger zerolog.Logger, s *session.Session, message string, upload *Upload) Result {
	if upload != nil {
		if kind := o.ingestUpload(ctx, logger, s, upload); kind != nil {
			return *kind
		}
	}

	if message == "" && s.Document() == "" {
		logger.Debug().Msg("Empty request, nothing to do")
		return Result{Reply: NoInputReply, Kind: KindInput}
	}

	if message != "" {
		s.AppendTurn(session.Turn{Role: session.RoleUser, Content: message})
	}

	promptText := o.builder.Build(s.Snapshot(), message)

	callStart := time.Now()
	resp, err := o.client.Generate(ctx, promptText)
	observability.RecordCompletion(o.client.Provider(), time.Since(callStart), err == nil)

	if err != nil {
		logger.Error().Err(err).Msg("Completion call failed")
		return Result{Reply: modelErrorPrefix + err.Error(), Kind: KindModel}
	}

	reply := resp.ReplyText()
	if message != "" {
		// Document-only requests produce a reply but are not part of the
		// conversation; only real user exchanges enter history.
		s.AppendTurn(session.Turn{Role: session.RoleAssistant, Content: reply})
	}

	logger.Debug().
		Int("history_len", len(s.History())).
		Int("reply_len", len(reply)).
		Msg("Chat turn completed")

	return Result{Reply: reply}
}

// ingestUpload updates the session's document memory from the upload.
// It returns a degraded Result when extraction fails; success and
// non-extractable uploads return nil.
func (o *Orchestrator) ingestUpload(ctx context.Context, logger zerolog.Logger, s *session.Session, upload *Upload) *Result {
	if !extract.IsExtractable(upload.MediaType) {
		// No extractor for this type; remember the file by its metadata
		// so the model can at least acknowledge it.
		s.SetDocument(fmt.Sprintf("Uploaded file: %s (%s)", upload.Name, upload.MediaType))
		logger.Debug().
			Str("media_type", upload.MediaType).
			Msg("Upload is not extractable, stored metadata only")
		return nil
	}

	text, err := o.extractor.Extract(ctx, upload.Path, upload.MediaType)
	if err != nil {
		observability.RecordExtraction(false)
		logger.Error().Err(err).Str("file", upload.Name).Msg("Document extraction failed")
		return &Result{Reply: extractionErrorPrefix + err.Error(), Kind: KindExtraction}
	}

	observability.RecordExtraction(true)
	text = strings.TrimSpace(text)
	s.SetDocument(text)

	logger.Info().
		Str("file", upload.Name).
		Int("text_len", len(text)).
		Msg("Document extracted")

	return nil
}

// cleanupUpload removes the spooled upload file. Failures are logged and
// otherwise ignored.
func (o *Orchestrator) cleanupUpload(logger zerolog.Logger, upload *Upload) {
	if upload.Path == "" {
		return
	}
	if err := os.Remove(upload.Path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("file", upload.Path).Msg("Failed to remove upload file")
	}
}
