package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andika/docchat/pkg/completion"
	"github.com/andika/docchat/pkg/prompt"
	"github.com/andika/docchat/pkg/session"
)

type fakeClient struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeClient) Provider() string { return "fake" }

func (f *fakeClient) Generate(ctx context.Context, p string) (*completion.Response, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return nil, f.err
	}
	return &completion.Response{Text: f.reply}, nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, path, mediaType string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newTestOrchestrator(t *testing.T, client completion.Client, extractor *fakeExtractor) (*Orchestrator, *session.Store) {
	t.Helper()

	store := session.NewStore(session.DefaultHistoryLimit)

	cfg := Config{
		Store:   store,
		Builder: prompt.NewBuilder(nil),
		Client:  client,
		Logger:  zerolog.Nop(),
	}
	if extractor != nil {
		cfg.Extractor = extractor
	}

	o, err := New(cfg)
	require.NoError(t, err)
	return o, store
}

func TestOrchestrator_BasicExchange(t *testing.T) {
	client := &fakeClient{reply: "4"}
	o, store := newTestOrchestrator(t, client, nil)

	res := o.Handle(context.Background(), "s1", "What is 2+2?", nil)

	assert.Equal(t, "4", res.Reply)
	assert.Equal(t, KindNone, res.Kind)

	history := store.GetOrCreate("s1").History()
	require.Len(t, history, 2)
	assert.Equal(t, session.Turn{Role: session.RoleUser, Content: "What is 2+2?"}, history[0])
	assert.Equal(t, session.Turn{Role: session.RoleAssistant, Content: "4"}, history[1])
}

func TestOrchestrator_EmptyRequestIsNoOp(t *testing.T) {
	client := &fakeClient{reply: "never"}
	o, store := newTestOrchestrator(t, client, nil)

	res := o.Handle(context.Background(), "s1", "", nil)

	assert.Equal(t, NoInputReply, res.Reply)
	assert.Equal(t, KindInput, res.Kind)

	// No collaborator call, no state mutation
	assert.Empty(t, client.prompts)
	sess := store.GetOrCreate("s1")
	assert.Empty(t, sess.History())
	assert.Equal(t, "", sess.Document())
}

func TestOrchestrator_HistoryAccumulatesAcrossRequests(t *testing.T) {
	client := &fakeClient{reply: "R1"}
	o, _ := newTestOrchestrator(t, client, nil)

	o.Handle(context.Background(), "s1", "M1", nil)

	client.reply = "R2"
	o.Handle(context.Background(), "s1", "M2", nil)

	require.Len(t, client.prompts, 2)
	second := client.prompts[1]

	m1 := strings.Index(second, "USER: M1")
	r1 := strings.Index(second, "ASSISTANT: R1")
	m2 := strings.Index(second, "USER: M2")

	require.NotEqual(t, -1, m1)
	require.NotEqual(t, -1, r1)
	require.NotEqual(t, -1, m2)
	assert.Less(t, m1, r1)
	assert.Less(t, r1, m2)
}

func TestOrchestrator_HistoryBoundHolds(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	o, store := newTestOrchestrator(t, client, nil)

	for i := 0; i < 20; i++ {
		o.Handle(context.Background(), "s1", fmt.Sprintf("message %d", i), nil)
	}

	history := store.GetOrCreate("s1").History()
	assert.LessOrEqual(t, len(history), session.DefaultHistoryLimit)
	assert.Equal(t, "ok", history[len(history)-1].Content)
}

func TestOrchestrator_ModelFailureContained(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	o, store := newTestOrchestrator(t, client, nil)

	res := o.Handle(context.Background(), "s1", "hello", nil)

	assert.Equal(t, KindModel, res.Kind)
	assert.Contains(t, res.Reply, "quota exceeded")

	// The user turn was appended before the call, the assistant turn never was
	history := store.GetOrCreate("s1").History()
	require.Len(t, history, 1)
	assert.Equal(t, session.RoleUser, history[0].Role)
}

func TestOrchestrator_DocumentUpload(t *testing.T) {
	client := &fakeClient{reply: "noted"}
	extractor := &fakeExtractor{text: "Contract value: $500"}
	o, store := newTestOrchestrator(t, client, extractor)

	// Seed some history first
	o.Handle(context.Background(), "s1", "hello", nil)
	historyBefore := store.GetOrCreate("s1").History()

	upload := &Upload{Path: "", Name: "contract.pdf", MediaType: "application/pdf"}
	res := o.Handle(context.Background(), "s1", "", upload)

	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, 1, extractor.calls)

	sess := store.GetOrCreate("s1")
	assert.Equal(t, "Contract value: $500", sess.Document())

	// Empty message is not appended; the completion reply is not stored
	// as a turn either since no user turn carried it
	assert.Equal(t, historyBefore, sess.History())

	// The prompt was grounded in the document despite no user turn
	last := client.prompts[len(client.prompts)-1]
	assert.Contains(t, last, "Contract value: $500")
}

func TestOrchestrator_DocumentOverwrite(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	extractor := &fakeExtractor{text: "first"}
	o, store := newTestOrchestrator(t, client, extractor)

	o.Handle(context.Background(), "s1", "", &Upload{Name: "a.pdf", MediaType: "application/pdf"})

	extractor.text = "second"
	o.Handle(context.Background(), "s1", "", &Upload{Name: "b.pdf", MediaType: "application/pdf"})

	assert.Equal(t, "second", store.GetOrCreate("s1").Document())
}

func TestOrchestrator_ExtractionFailurePreservesDocument(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	extractor := &fakeExtractor{text: "original document"}
	o, store := newTestOrchestrator(t, client, extractor)

	o.Handle(context.Background(), "s1", "", &Upload{Name: "a.pdf", MediaType: "application/pdf"})
	require.Equal(t, "original document", store.GetOrCreate("s1").Document())

	extractor.err = errors.New("corrupt file")
	res := o.Handle(context.Background(), "s1", "summarize", &Upload{Name: "b.pdf", MediaType: "application/pdf"})

	assert.Equal(t, KindExtraction, res.Kind)
	assert.Contains(t, res.Reply, "corrupt file")

	sess := store.GetOrCreate("s1")
	assert.Equal(t, "original document", sess.Document())
	// The request failed before any history mutation
	assert.Empty(t, sess.History())
}

func TestOrchestrator_NonExtractableUploadKeepsMetadata(t *testing.T) {
	client := &fakeClient{reply: "I see the image"}
	extractor := &fakeExtractor{}
	o, store := newTestOrchestrator(t, client, extractor)

	res := o.Handle(context.Background(), "s1", "", &Upload{Name: "photo.png", MediaType: "image/png"})

	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, 0, extractor.calls)

	doc := store.GetOrCreate("s1").Document()
	assert.Contains(t, doc, "photo.png")
	assert.Contains(t, doc, "image/png")
}

func TestOrchestrator_ExtractedTextIsTrimmed(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	extractor := &fakeExtractor{text: "  padded text \n"}
	o, store := newTestOrchestrator(t, client, extractor)

	o.Handle(context.Background(), "s1", "", &Upload{Name: "a.txt", MediaType: "text/plain"})

	assert.Equal(t, "padded text", store.GetOrCreate("s1").Document())
}

func TestOrchestrator_UploadFileRemoved(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	extractor := &fakeExtractor{text: "doc"}
	o, _ := newTestOrchestrator(t, client, extractor)

	path := filepath.Join(t.TempDir(), "upload.txt")
	require.NoError(t, os.WriteFile(path, []byte("doc"), 0600))

	o.Handle(context.Background(), "s1", "read this", &Upload{Path: path, Name: "upload.txt", MediaType: "text/plain"})

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOrchestrator_UploadFileRemovedOnModelFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("down")}
	extractor := &fakeExtractor{text: "doc"}
	o, _ := newTestOrchestrator(t, client, extractor)

	path := filepath.Join(t.TempDir(), "upload.txt")
	require.NoError(t, os.WriteFile(path, []byte("doc"), 0600))

	res := o.Handle(context.Background(), "s1", "read this", &Upload{Path: path, Name: "upload.txt", MediaType: "text/plain"})
	assert.Equal(t, KindModel, res.Kind)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOrchestrator_DefaultSessionShared(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	o, store := newTestOrchestrator(t, client, nil)

	o.Handle(context.Background(), "", "anonymous message", nil)

	history := store.GetOrCreate(session.DefaultSessionID).History()
	require.Len(t, history, 2)
	assert.Equal(t, "anonymous message", history[0].Content)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Store: session.NewStore(0)})
	assert.Error(t, err)

	_, err = New(Config{Store: session.NewStore(0), Builder: prompt.NewBuilder(nil)})
	assert.Error(t, err)
}
