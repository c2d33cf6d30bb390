package pipeline

import (
	"context"
	"time"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/farcaster"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

// ConversationFetcher resolves a cast's ancestor chain.
type ConversationFetcher interface {
	Conversation(ctx context.Context, castHash string, replyDepth int) (*farcaster.Conversation, error)
}

// DefaultMaxThreadDepth is the deepest position in a thread the persona will
// still reply at. The root cast sits at depth 1.
const DefaultMaxThreadDepth = 5

// Guard measures how deep an event sits inside its thread so runaway
// reply chains get cut off.
type Guard struct {
	fetcher  ConversationFetcher
	maxDepth int
	timeout  time.Duration
	logger   logging.Logger
}

// NewGuard builds a guard. maxDepth <= 0 selects DefaultMaxThreadDepth.
func NewGuard(fetcher ConversationFetcher, maxDepth int, timeout time.Duration, logger logging.Logger) *Guard {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxThreadDepth
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Guard{fetcher: fetcher, maxDepth: maxDepth, timeout: timeout, logger: logger}
}

// MaxDepth returns the configured depth ceiling.
func (g *Guard) MaxDepth() int {
	return g.maxDepth
}

// Exceeded reports whether the context's depth is at or past the ceiling.
func (g *Guard) Exceeded(tc ThreadContext) bool {
	return tc.Depth >= g.maxDepth
}

// ThreadContext queries the conversation for castHash and derives depth and
// ancestry. A failed or slow lookup is treated as depth zero so an upstream
// outage never silences the persona; the depth limit exists to stop loops,
// not to gate on API availability.
func (g *Guard) ThreadContext(ctx context.Context, castHash string, id persona.Identity) ThreadContext {
	if g.fetcher == nil || castHash == "" {
		return ThreadContext{}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	conv, err := g.fetcher.Conversation(ctx, castHash, g.maxDepth)
	if err != nil {
		g.logger.WithFields(logging.Fields{
			"cast_hash": castHash,
			"error":     err.Error(),
		}).Warn("Conversation lookup failed, assuming thread root")
		return ThreadContext{}
	}

	ancestors := conv.ChronologicalParentCasts
	tc := ThreadContext{
		// The cast itself occupies one position beyond its ancestors.
		Depth:     len(ancestors) + 1,
		Ancestors: ancestors,
	}
	if n := len(ancestors); n > 0 {
		tc.ParentAuthorFID = ancestors[n-1].Author.FID
	}
	for _, c := range ancestors {
		if id.IsSelf(c.Author.FID, c.Author.Username) {
			tc.InvolvesPersona = true
			break
		}
	}
	return tc
}
