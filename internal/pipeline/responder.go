package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/farcaster"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/generator"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

// SocialReader is the read-only view of the social graph the responder
// needs. Satisfied by *farcaster.Client.
type SocialReader interface {
	UserByFID(ctx context.Context, fid int64) (*farcaster.User, error)
	RecentCasts(ctx context.Context, fid int64, limit int) ([]farcaster.Cast, error)
}

// Publisher posts a cast. Satisfied by *farcaster.Client.
type Publisher interface {
	PublishCast(ctx context.Context, text, parentHash string) (*farcaster.Cast, error)
}

// Policy are the tunables of a responder.
type Policy struct {
	MaxChars        int
	FeedLimit       int
	GenerateTimeout time.Duration
}

// DefaultPolicy returns the standard limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxChars:        DefaultCastMaxChars,
		FeedLimit:       20,
		GenerateTimeout: 30 * time.Second,
	}
}

// PublishResult describes one published reply.
type PublishResult struct {
	ReplyHash string `json:"reply_hash,omitempty"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

// Analysis is the profile digest produced for the daemon analyze endpoint.
type Analysis struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username,omitempty"`
	ProfileSummary string `json:"profile_summary,omitempty"`
	RecentSummary  string `json:"recent_summary,omitempty"`
	CastCount      int    `json:"cast_count"`
	Text           string `json:"text"`
}

// Responder turns a positive decision into a published reply: gather
// context, generate, truncate, publish. Exactly one publish per call;
// nothing downstream of generation is ever retried.
type Responder struct {
	reader    SocialReader
	publisher Publisher
	provider  generator.Provider
	character persona.Character
	policy    Policy
	logger    logging.Logger
}

// NewResponder wires a responder.
func NewResponder(reader SocialReader, publisher Publisher, provider generator.Provider, ch persona.Character, policy Policy, logger logging.Logger) *Responder {
	if policy.MaxChars <= 0 {
		policy.MaxChars = DefaultCastMaxChars
	}
	if policy.FeedLimit <= 0 {
		policy.FeedLimit = 20
	}
	if policy.GenerateTimeout <= 0 {
		policy.GenerateTimeout = 30 * time.Second
	}
	return &Responder{
		reader:    reader,
		publisher: publisher,
		provider:  provider,
		character: ch,
		policy:    policy,
		logger:    logger,
	}
}

// gatherContext fetches the author's profile and recent feed in parallel.
// Either fetch may fail without aborting the reply; the prompt just loses
// that section.
func (r *Responder) gatherContext(ctx context.Context, fid int64) (*farcaster.User, []farcaster.Cast) {
	var (
		user  *farcaster.User
		casts []farcaster.Cast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := r.reader.UserByFID(gctx, fid)
		if err != nil {
			r.logger.WithFields(logging.Fields{"fid": fid, "error": err.Error()}).Warn("Profile fetch failed")
			return nil
		}
		user = u
		return nil
	})
	g.Go(func() error {
		c, err := r.reader.RecentCasts(gctx, fid, r.policy.FeedLimit)
		if err != nil {
			r.logger.WithFields(logging.Fields{"fid": fid, "error": err.Error()}).Warn("Feed fetch failed")
			return nil
		}
		casts = c
		return nil
	})
	g.Wait()
	return user, casts
}

func (r *Responder) generate(ctx context.Context, prompt string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.policy.GenerateTimeout)
	defer cancel()

	text, err := r.provider.Complete(ctx, generator.Request{
		System: r.character.System,
		Prompt: prompt,
	})
	if err != nil {
		return "", false, fmt.Errorf("generation failed: %w", err)
	}
	out, truncated := TruncateCast(text, r.policy.MaxChars)
	return out, truncated, nil
}

// Respond builds context for the event's author, generates a reply, and
// publishes it as a child of the decision target.
func (r *Responder) Respond(ctx context.Context, ev *Event, tc ThreadContext, dec Decision) (*PublishResult, error) {
	author := ev.Data.Author
	user, casts := r.gatherContext(ctx, author.FID)

	prompt := persona.BuildReplyPrompt(r.character, persona.Context{
		TargetUsername: author.Username,
		TargetText:     ev.Data.Text,
		ProfileSummary: persona.SummarizeProfile(user),
		RecentSummary:  persona.SummarizeCasts(casts),
		Transcript:     persona.Transcript(tc.Ancestors),
		MaxChars:       r.policy.MaxChars,
	})

	text, truncated, err := r.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cast, err := r.publisher.PublishCast(ctx, text, dec.TargetHash)
	if err != nil {
		return nil, fmt.Errorf("publish failed: %w", err)
	}

	result := &PublishResult{Text: text, Truncated: truncated}
	if cast != nil {
		result.ReplyHash = cast.Hash
	}
	r.logger.WithFields(logging.Fields{
		"target_hash": dec.TargetHash,
		"reply_hash":  result.ReplyHash,
		"kind":        string(dec.Kind),
		"truncated":   truncated,
	}).Info("Published reply")
	return result, nil
}

// Engage generates and publishes a cast aimed at a user outside the webhook
// flow. targetHash may be empty for a top-level cast.
func (r *Responder) Engage(ctx context.Context, fid int64, targetHash string) (*PublishResult, error) {
	user, casts := r.gatherContext(ctx, fid)
	if user == nil && len(casts) == 0 {
		return nil, fmt.Errorf("no context available for fid %d", fid)
	}

	username := ""
	targetText := ""
	if user != nil {
		username = user.Username
	}
	if targetHash != "" {
		for _, c := range casts {
			if c.Hash == targetHash {
				targetText = c.Text
				break
			}
		}
	} else if len(casts) > 0 {
		targetHash = casts[0].Hash
		targetText = casts[0].Text
	}
	if targetHash == "" {
		return nil, fmt.Errorf("no casts found for fid %d", fid)
	}

	prompt := persona.BuildReplyPrompt(r.character, persona.Context{
		TargetUsername: username,
		TargetText:     targetText,
		ProfileSummary: persona.SummarizeProfile(user),
		RecentSummary:  persona.SummarizeCasts(casts),
		MaxChars:       r.policy.MaxChars,
	})

	text, truncated, err := r.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	cast, err := r.publisher.PublishCast(ctx, text, targetHash)
	if err != nil {
		return nil, fmt.Errorf("publish failed: %w", err)
	}
	result := &PublishResult{Text: text, Truncated: truncated}
	if cast != nil {
		result.ReplyHash = cast.Hash
	}
	return result, nil
}

// Analyze produces a generated read on a user's profile and recent activity
// without publishing anything.
func (r *Responder) Analyze(ctx context.Context, fid int64, username string) (*Analysis, error) {
	user, casts := r.gatherContext(ctx, fid)
	if user == nil && len(casts) == 0 {
		return nil, fmt.Errorf("no context available for fid %d", fid)
	}
	if user != nil && username == "" {
		username = user.Username
	}

	profile := persona.SummarizeProfile(user)
	recent := persona.SummarizeCasts(casts)
	prompt := fmt.Sprintf("Analyze this user's profile and recent activity. Offer your read on who they are and what they care about, in your own voice.\n\n%s\n\n%s", profile, recent)

	ctx, cancel := context.WithTimeout(ctx, r.policy.GenerateTimeout)
	defer cancel()
	text, err := r.provider.Complete(ctx, generator.Request{
		System: r.character.System,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &Analysis{
		FID:            fid,
		Username:       username,
		ProfileSummary: profile,
		RecentSummary:  recent,
		CastCount:      len(casts),
		Text:           text,
	}, nil
}
