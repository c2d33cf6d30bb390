package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/audit"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/pipeline"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

const testSecret = "webhook-secret"

type stubStore struct {
	mu        sync.Mutex
	seen      bool
	seenLater bool
	seenCalls int
	lockBusy  bool
	marked    []string
	released  []string
}

func (s *stubStore) SeenRecently(ctx context.Context, castHash, eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seenCalls++
	if s.seenCalls > 1 {
		return s.seen || s.seenLater
	}
	return s.seen
}

func (s *stubStore) TryAcquire(ctx context.Context, castHash string) bool {
	return !s.lockBusy
}

func (s *stubStore) MarkProcessed(ctx context.Context, castHash, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, castHash)
}

func (s *stubStore) Release(ctx context.Context, castHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, castHash)
}

func (s *stubStore) Close() error { return nil }

type stubGuard struct {
	tc       pipeline.ThreadContext
	maxDepth int
	calls    int
}

func (g *stubGuard) ThreadContext(ctx context.Context, castHash string, id persona.Identity) pipeline.ThreadContext {
	g.calls++
	return g.tc
}

func (g *stubGuard) Exceeded(tc pipeline.ThreadContext) bool {
	return tc.Depth >= g.maxDepth
}

func (g *stubGuard) MaxDepth() int { return g.maxDepth }

type stubEngine struct {
	respondCalls int
	result       *pipeline.PublishResult
	err          error
	lastDec      pipeline.Decision
}

func (e *stubEngine) Respond(ctx context.Context, ev *pipeline.Event, tc pipeline.ThreadContext, dec pipeline.Decision) (*pipeline.PublishResult, error) {
	e.respondCalls++
	e.lastDec = dec
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func (e *stubEngine) Engage(ctx context.Context, fid int64, targetHash string) (*pipeline.PublishResult, error) {
	return e.result, e.err
}

func (e *stubEngine) Analyze(ctx context.Context, fid int64, username string) (*pipeline.Analysis, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &pipeline.Analysis{FID: fid, Username: username, Text: "read"}, nil
}

type recordingSink struct {
	mu       sync.Mutex
	outcomes []audit.Outcome
}

func (s *recordingSink) Emit(o audit.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
}

func (s *recordingSink) last(t *testing.T) audit.Outcome {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outcomes) == 0 {
		t.Fatalf("no audit outcomes recorded")
	}
	return s.outcomes[len(s.outcomes)-1]
}

type webhookHarness struct {
	store  *stubStore
	guard  *stubGuard
	engine *stubEngine
	sink   *recordingSink
	router *gin.Engine
}

func newWebhookHarness() *webhookHarness {
	gin.SetMode(gin.TestMode)
	h := &webhookHarness{
		store:  &stubStore{},
		guard:  &stubGuard{maxDepth: 5},
		engine: &stubEngine{result: &pipeline.PublishResult{ReplyHash: "0xreply", Text: "ok"}},
		sink:   &recordingSink{},
	}
	identity := persona.Identity{FID: 999, Handle: "siren"}
	handler := NewWebhookHandler(testSecret, h.store, identity, h.guard, h.engine, h.sink, nil, logging.NewLogger())
	h.router = gin.New()
	h.router.POST("/api/webhook", handler.Handle)
	return h
}

func (h *webhookHarness) deliver(t *testing.T, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *webhookHarness) deliverSigned(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	return h.deliver(t, body, SignBody([]byte(body), testSecret))
}

const mentionBody = `{"id":"evt-1","type":"cast.created","data":{"hash":"0xA","text":"hey @siren, thoughts?","author":{"fid":42,"username":"alice"}}}`

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newWebhookHarness()
	w := h.deliver(t, mentionBody, "sha256=deadbeef")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if h.engine.respondCalls != 0 {
		t.Fatalf("engine must not run on bad signature")
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h := newWebhookHarness()
	if w := h.deliver(t, mentionBody, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestWebhookRelaxedModeWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubStore{}
	engine := &stubEngine{result: &pipeline.PublishResult{ReplyHash: "0xreply"}}
	handler := NewWebhookHandler("", store, persona.Identity{FID: 999, Handle: "siren"},
		&stubGuard{maxDepth: 5}, engine, nil, nil, logging.NewLogger())
	router := gin.New()
	router.POST("/api/webhook", handler.Handle)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewBufferString(mentionBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 in relaxed mode", w.Code)
	}
	if engine.respondCalls != 1 {
		t.Fatalf("engine calls = %d, want 1", engine.respondCalls)
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	h := newWebhookHarness()
	body := `{"not json`
	if w := h.deliverSigned(t, body); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	h := newWebhookHarness()
	body := `{"type":"reaction.created","data":{"hash":"0xA"}}`
	w := h.deliverSigned(t, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ignored") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if h.engine.respondCalls != 0 || len(h.store.marked) != 0 {
		t.Fatalf("ignored types must not touch pipeline state")
	}
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	h := newWebhookHarness()
	h.store.seen = true
	w := h.deliverSigned(t, mentionBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Already processed") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if h.engine.respondCalls != 0 {
		t.Fatalf("duplicate must not reach the engine")
	}
	if o := h.sink.last(t); o.Outcome != OutcomeDuplicate {
		t.Fatalf("audit outcome = %s", o.Outcome)
	}
}

func TestWebhookConcurrentDeliveryDropped(t *testing.T) {
	h := newWebhookHarness()
	h.store.lockBusy = true
	w := h.deliverSigned(t, mentionBody)
	if !strings.Contains(w.Body.String(), "Already processing") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if h.engine.respondCalls != 0 {
		t.Fatalf("in-flight duplicate must not reach the engine")
	}
}

func TestWebhookRecheckAfterLock(t *testing.T) {
	// Another delivery finished between the admission check and the lock.
	h := newWebhookHarness()
	h.store.seenLater = true
	w := h.deliverSigned(t, mentionBody)
	if !strings.Contains(w.Body.String(), "Already processed") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if h.engine.respondCalls != 0 {
		t.Fatalf("engine ran despite post-lock duplicate")
	}
	if len(h.store.released) != 1 {
		t.Fatalf("lock must be released on the duplicate path")
	}
}

func TestWebhookOwnCast(t *testing.T) {
	h := newWebhookHarness()
	body := `{"id":"evt-2","type":"cast.created","data":{"hash":"0xB","text":"talking to myself","author":{"fid":999,"username":"siren"}}}`
	w := h.deliverSigned(t, body)
	if !strings.Contains(w.Body.String(), "Own cast") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if len(h.store.marked) != 1 {
		t.Fatalf("own cast must be marked processed")
	}
	if h.engine.respondCalls != 0 {
		t.Fatalf("persona must never answer itself")
	}
	if h.guard.calls != 0 {
		t.Fatalf("own cast must not trigger an ancestry query")
	}
}

func TestWebhookDepthLimit(t *testing.T) {
	h := newWebhookHarness()
	h.guard.tc = pipeline.ThreadContext{Depth: 5}
	w := h.deliverSigned(t, mentionBody)
	if !strings.Contains(w.Body.String(), "Thread limit reached") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if len(h.store.marked) != 1 {
		t.Fatalf("depth-limited event must be marked processed")
	}
	if o := h.sink.last(t); o.Outcome != OutcomeDepthLimit || o.Depth != 5 {
		t.Fatalf("audit outcome = %+v", o)
	}
}

func TestWebhookNoTrigger(t *testing.T) {
	h := newWebhookHarness()
	body := `{"id":"evt-3","type":"cast.created","data":{"hash":"0xC","text":"nothing about anyone","author":{"fid":42,"username":"alice"}}}`
	w := h.deliverSigned(t, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no trigger") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if len(h.store.marked) != 1 {
		t.Fatalf("undeciding event must still be marked processed")
	}
}

func TestWebhookMentionPublishes(t *testing.T) {
	h := newWebhookHarness()
	w := h.deliverSigned(t, mentionBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if h.engine.respondCalls != 1 {
		t.Fatalf("engine calls = %d, want 1", h.engine.respondCalls)
	}
	if h.engine.lastDec.Kind != pipeline.KindMention || h.engine.lastDec.TargetHash != "0xA" {
		t.Fatalf("decision = %+v", h.engine.lastDec)
	}
	if !strings.Contains(w.Body.String(), "0xreply") {
		t.Fatalf("response missing reply hash: %s", w.Body.String())
	}
	if len(h.store.marked) != 1 || h.store.marked[0] != "0xA" {
		t.Fatalf("marked = %v", h.store.marked)
	}
	if o := h.sink.last(t); o.Outcome != OutcomeReplied || o.ReplyHash != "0xreply" {
		t.Fatalf("audit outcome = %+v", o)
	}
}

func TestWebhookEngineFailureStillMarked(t *testing.T) {
	h := newWebhookHarness()
	h.engine.err = errors.New("publish failed: 502")
	w := h.deliverSigned(t, mentionBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	// Redelivery after a failed publish could double-post, so the event is
	// marked processed even on failure.
	if len(h.store.marked) != 1 {
		t.Fatalf("failed event must be marked processed, marked = %v", h.store.marked)
	}
	if len(h.store.released) != 0 {
		t.Fatalf("MarkProcessed already releases, extra Release = %v", h.store.released)
	}
	if o := h.sink.last(t); o.Outcome != OutcomeFailed {
		t.Fatalf("audit outcome = %s", o.Outcome)
	}
}
