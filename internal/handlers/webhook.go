// Package handlers contains the HTTP surface of siren: the webhook intake
// that drives the reply pipeline and the daemon endpoints for direct
// operation.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/audit"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/dedupe"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/pipeline"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

// Terminal outcome labels, shared by responses, metrics, and the audit
// trail.
const (
	OutcomeIgnoredType    = "ignored_type"
	OutcomeDuplicate      = "duplicate"
	OutcomeInFlight       = "in_flight"
	OutcomeSelf           = "self"
	OutcomeDepthLimit     = "depth_limit"
	OutcomeNoTrigger      = "no_trigger"
	OutcomeReplied        = "replied"
	OutcomeFailed         = "failed"
	OutcomeBadSignature   = "bad_signature"
	OutcomeMalformedEvent = "malformed"
)

// WebhookHandler runs the full intake pipeline for one delivery.
type WebhookHandler struct {
	secret   string
	store    dedupe.Store
	identity persona.Identity
	guard    ThreadGuard
	engine   ReplyEngine
	sink     audit.Sink
	metrics  *PipelineMetrics
	logger   logging.Logger
}

// NewWebhookHandler wires the intake pipeline. sink may be nil.
func NewWebhookHandler(secret string, store dedupe.Store, identity persona.Identity, guard ThreadGuard, engine ReplyEngine, sink audit.Sink, metrics *PipelineMetrics, logger logging.Logger) *WebhookHandler {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &WebhookHandler{
		secret:   secret,
		store:    store,
		identity: identity,
		guard:    guard,
		engine:   engine,
		sink:     sink,
		metrics:  metrics,
		logger:   logger,
	}
}

func (h *WebhookHandler) record(ev *pipeline.Event, outcome, reason string, depth int, replyHash string) {
	h.metrics.Outcome(outcome)
	o := audit.Outcome{
		Outcome:   outcome,
		Reason:    reason,
		Depth:     depth,
		ReplyHash: replyHash,
		Timestamp: time.Now().UTC(),
	}
	if ev != nil {
		o.EventID = ev.EventID()
		o.CastHash = ev.Data.Hash
		o.AuthorFID = ev.Data.Author.FID
	}
	h.sink.Emit(o)
}

// Handle processes one webhook delivery end to end. Every terminal outcome
// other than an internal failure answers 200 so the provider does not
// redeliver events we have decided about.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.metrics.Event("read_error")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unable to read body"})
		return
	}

	// An empty secret selects relaxed mode for local testing; deliveries
	// are accepted unverified.
	if h.secret != "" && !VerifySignature(body, c.GetHeader(SignatureHeader), h.secret) {
		h.metrics.Event("bad_signature")
		h.record(nil, OutcomeBadSignature, "signature mismatch", 0, "")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid signature"})
		return
	}
	h.metrics.Event("verified")

	ev, err := pipeline.ParseEvent(body)
	if err != nil {
		h.record(nil, OutcomeMalformedEvent, err.Error(), 0, "")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "malformed event"})
		return
	}

	if ev.Type != pipeline.EventTypeCastCreated {
		h.record(ev, OutcomeIgnoredType, "event type "+ev.Type, 0, "")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event type ignored"})
		return
	}

	ctx := c.Request.Context()
	castHash := ev.Data.Hash
	eventID := ev.EventID()

	log := h.logger.WithFields(logging.Fields{
		"event_id":   eventID,
		"cast_hash":  castHash,
		"author_fid": ev.Data.Author.FID,
	})

	if h.store.SeenRecently(ctx, castHash, eventID) {
		log.Info("Duplicate delivery dropped")
		h.record(ev, OutcomeDuplicate, "already processed", 0, "")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already processed"})
		return
	}

	if !h.store.TryAcquire(ctx, castHash) {
		log.Info("Concurrent delivery dropped")
		h.record(ev, OutcomeInFlight, "processing in flight", 0, "")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already processing"})
		return
	}

	// The lock must not outlive this delivery. Terminal outcomes call
	// MarkProcessed, which also releases; this covers early returns and
	// panics recovered upstream.
	terminal := false
	defer func() {
		if !terminal {
			h.store.Release(ctx, castHash)
		}
	}()

	// A concurrent delivery may have finished between the admission check
	// and the lock acquisition. Re-check now that the lock is held.
	if h.store.SeenRecently(ctx, castHash, eventID) {
		log.Info("Duplicate delivery dropped after lock")
		h.record(ev, OutcomeDuplicate, "processed while waiting", 0, "")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already processed"})
		return
	}

	if h.identity.IsSelf(ev.Data.Author.FID, ev.Data.Author.Username) {
		h.store.MarkProcessed(ctx, castHash, eventID)
		terminal = true
		h.record(ev, OutcomeSelf, "own cast", 0, "")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Own cast"})
		return
	}

	tc := h.guard.ThreadContext(ctx, castHash, h.identity)
	if h.guard.Exceeded(tc) {
		log.WithFields(logging.Fields{"depth": tc.Depth, "max_depth": h.guard.MaxDepth()}).Info("Thread depth limit reached")
		h.store.MarkProcessed(ctx, castHash, eventID)
		terminal = true
		h.record(ev, OutcomeDepthLimit, "thread too deep", tc.Depth, "")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Thread limit reached"})
		return
	}

	dec := pipeline.Decide(ev, tc, h.identity)
	if !dec.Respond {
		h.store.MarkProcessed(ctx, castHash, eventID)
		terminal = true
		h.record(ev, OutcomeNoTrigger, dec.Reason, tc.Depth, "")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": dec.Reason})
		return
	}

	log.WithFields(logging.Fields{"kind": string(dec.Kind), "depth": tc.Depth}).Info("Responding to cast")

	start := time.Now()
	result, err := h.engine.Respond(ctx, ev, tc, dec)
	if err != nil {
		h.metrics.GenerationObserved("error", time.Since(start).Seconds())
		log.WithFields(logging.Fields{"error": err.Error()}).Error("Reply pipeline failed")
		// Recorded as processed so a provider redelivery does not publish
		// a late duplicate reply.
		h.store.MarkProcessed(ctx, castHash, eventID)
		terminal = true
		h.record(ev, OutcomeFailed, err.Error(), tc.Depth, "")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reply failed"})
		return
	}
	h.metrics.GenerationObserved("ok", time.Since(start).Seconds())
	h.metrics.Published(string(dec.Kind))

	h.store.MarkProcessed(ctx, castHash, eventID)
	terminal = true
	h.record(ev, OutcomeReplied, dec.Reason, tc.Depth, result.ReplyHash)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Reply published",
		"reply_hash": result.ReplyHash,
		"truncated":  result.Truncated,
	})
}
