package pipeline

import (
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/farcaster"
	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
)

// Kind is the kind of response a decision calls for.
type Kind string

const (
	// KindMention replies because the cast addressed the persona directly.
	KindMention Kind = "mention"
	// KindThreadContinuation replies because the cast answered one of the
	// persona's own casts.
	KindThreadContinuation Kind = "thread_continuation"
)

// Decision is the outcome of classifying one event. Every outcome carries a
// human-readable reason for logs and the audit trail.
type Decision struct {
	Respond    bool
	Kind       Kind
	Reason     string
	TargetHash string
}

// ThreadContext is the ancestry view for one event, derived from a single
// read-only conversation query. Zero value means the query failed or the
// cast has no ancestors.
type ThreadContext struct {
	Depth           int
	Ancestors       []farcaster.Cast
	ParentAuthorFID int64
	InvolvesPersona bool
}

func ignore(reason string) Decision {
	return Decision{Respond: false, Reason: reason}
}

func respond(kind Kind, reason, target string) Decision {
	return Decision{Respond: true, Kind: kind, Reason: reason, TargetHash: target}
}

// Decide classifies an event. Pure function of the event, its thread
// context, and the persona identity.
//
// Priority is fixed: self-origin is absolute and checked first (a persona
// cannot trigger itself by mentioning itself), an explicit mention beats
// thread continuation, and anything else is ignored.
func Decide(ev *Event, tc ThreadContext, id persona.Identity) Decision {
	author := ev.Data.Author
	if id.IsSelf(author.FID, author.Username) {
		return ignore("self-originated")
	}

	if id.Mentioned(ev.Data.Text) {
		return respond(KindMention, "mentioned by @"+author.Username, ev.Data.Hash)
	}

	// Thread continuation requires ancestry confirmation; an unreachable
	// lookup leaves ParentAuthorFID zero and fails closed toward not
	// responding.
	if ev.Data.ParentHash != "" && id.FID != 0 && tc.ParentAuthorFID == id.FID {
		return respond(KindThreadContinuation, "reply to persona cast", ev.Data.Hash)
	}

	return ignore("no trigger")
}
