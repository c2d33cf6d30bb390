package persona

import (
	"fmt"
	"strings"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/farcaster"
)

// Context is the response context assembled per decision. Built fresh for
// every event and never cached: feed content goes stale too fast to reuse.
type Context struct {
	TargetUsername string
	TargetText     string
	ProfileSummary string
	RecentSummary  string
	Transcript     string
	MaxChars       int
}

// SummarizeProfile renders a profile for prompt embedding. Returns empty
// when the profile could not be fetched; the prompt degrades gracefully.
func SummarizeProfile(user *farcaster.User) string {
	if user == nil {
		return ""
	}
	bio := user.Bio.Text
	if bio == "" {
		bio = "No bio provided"
	}
	return fmt.Sprintf("Username: %s\nDisplay name: %s\nBio: %s\nFollowers: %d / Following: %d",
		user.Username, user.DisplayName, bio, user.FollowerCount, user.FollowingCount)
}

// SummarizeCasts renders recent activity plus engagement totals.
func SummarizeCasts(casts []farcaster.Cast) string {
	if len(casts) == 0 {
		return ""
	}
	texts := make([]string, 0, len(casts))
	likes, recasts := 0, 0
	for _, c := range casts {
		if strings.TrimSpace(c.Text) != "" {
			texts = append(texts, c.Text)
		}
		likes += len(c.Reactions.Likes)
		recasts += len(c.Reactions.Recasts)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "RECENT ACTIVITY (%d casts, %d likes, %d recasts received):\n", len(casts), likes, recasts)
	b.WriteString(strings.Join(texts, "\n\n"))
	return b.String()
}

// Transcript renders an ancestor chain oldest to newest for prompt context.
func Transcript(ancestors []farcaster.Cast) string {
	if len(ancestors) == 0 {
		return ""
	}
	lines := make([]string, 0, len(ancestors))
	for _, c := range ancestors {
		lines = append(lines, fmt.Sprintf("@%s: %s", c.Author.Username, c.Text))
	}
	return strings.Join(lines, "\n")
}

// BuildReplyPrompt assembles the generation prompt for a reply to one cast.
func BuildReplyPrompt(ch Character, pctx Context) string {
	var b strings.Builder

	if len(ch.Bio) > 0 {
		b.WriteString(strings.Join(ch.Bio, "\n"))
		b.WriteString("\n\n")
	}
	if len(ch.Style) > 0 {
		b.WriteString("STYLE GUIDELINES:\n")
		b.WriteString(strings.Join(ch.Style, "\n"))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Target cast from @%s:\n%q\n\n", pctx.TargetUsername, pctx.TargetText)

	if pctx.ProfileSummary != "" {
		b.WriteString("ABOUT THEM:\n")
		b.WriteString(pctx.ProfileSummary)
		b.WriteString("\n\n")
	}
	if pctx.RecentSummary != "" {
		b.WriteString(pctx.RecentSummary)
		b.WriteString("\n\n")
	}
	if pctx.Transcript != "" {
		b.WriteString("CONVERSATION SO FAR:\n")
		b.WriteString(pctx.Transcript)
		b.WriteString("\n\n")
	}

	maxChars := pctx.MaxChars
	if maxChars <= 0 {
		maxChars = 280
	}
	fmt.Fprintf(&b, "Respond naturally to their cast. Keep it under %d characters.", maxChars)

	return b.String()
}
