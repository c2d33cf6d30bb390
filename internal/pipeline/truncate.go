package pipeline

// DefaultCastMaxChars is the protocol limit for a cast body.
const DefaultCastMaxChars = 280

const ellipsis = "..."

// TruncateCast trims text to maxChars runes, replacing the tail with an
// ellipsis when it has to cut. Counts runes, not bytes, so multi-byte text
// never gets split mid-character.
func TruncateCast(text string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		maxChars = DefaultCastMaxChars
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, false
	}
	keep := maxChars - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis, true
}
