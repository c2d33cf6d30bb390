package handlers

import (
	"context"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/pipeline"
)

// ThreadGuard measures thread depth for an event. Satisfied by
// *pipeline.Guard.
type ThreadGuard interface {
	ThreadContext(ctx context.Context, castHash string, id persona.Identity) pipeline.ThreadContext
	Exceeded(tc pipeline.ThreadContext) bool
	MaxDepth() int
}

// ReplyEngine turns decisions into published replies. Satisfied by
// *pipeline.Responder.
type ReplyEngine interface {
	Respond(ctx context.Context, ev *pipeline.Event, tc pipeline.ThreadContext, dec pipeline.Decision) (*pipeline.PublishResult, error)
	Engage(ctx context.Context, fid int64, targetHash string) (*pipeline.PublishResult, error)
	Analyze(ctx context.Context, fid int64, username string) (*pipeline.Analysis, error)
}
