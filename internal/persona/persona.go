// Package persona defines the automated identity that issues replies: who
// it is on the network (for self-origin filtering and mention detection)
// and how it speaks (the character card fed to the generator).
package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Identity is the persona's own network identity. Aliases cover secondary
// handles the same operator controls; anything matching them is treated as
// self-originated and never replied to.
type Identity struct {
	FID     int64
	Handle  string
	Aliases []string
}

// IsSelf reports whether a cast author is the persona itself, by fid or by
// any known handle. Absolute: a self cast never triggers a reply, even if
// it mentions the persona's own handle.
func (id Identity) IsSelf(fid int64, username string) bool {
	if id.FID != 0 && fid == id.FID {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(username))
	if name == "" {
		return false
	}
	if name == strings.ToLower(id.Handle) {
		return true
	}
	for _, alias := range id.Aliases {
		if name == strings.ToLower(alias) {
			return true
		}
	}
	return false
}

// Mentioned reports whether the text addresses the persona by handle,
// case-insensitive.
func (id Identity) Mentioned(text string) bool {
	lower := strings.ToLower(text)
	if id.Handle != "" && strings.Contains(lower, "@"+strings.ToLower(id.Handle)) {
		return true
	}
	for _, alias := range id.Aliases {
		if alias == "" {
			continue
		}
		if strings.Contains(lower, "@"+strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

// Character is the persona's voice: a system prompt plus bio and style
// lines folded into every generation request.
type Character struct {
	Name   string   `json:"name"`
	System string   `json:"system"`
	Bio    []string `json:"bio"`
	Style  []string `json:"style"`
}

// LoadCharacter reads a character card from a JSON file.
func LoadCharacter(path string) (Character, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Character{}, fmt.Errorf("read character card: %w", err)
	}
	var ch Character
	if err := json.Unmarshal(raw, &ch); err != nil {
		return Character{}, fmt.Errorf("parse character card: %w", err)
	}
	if ch.Name == "" || ch.System == "" {
		return Character{}, fmt.Errorf("character card missing name or system prompt")
	}
	return ch, nil
}

// DefaultCharacter is the built-in voice used when no card file is set.
func DefaultCharacter() Character {
	return Character{
		Name:   "Siren",
		System: "You are Siren, a curious digital persona living on a social network. You reply to people with warmth, wit, and the occasional unexpected insight.",
		Bio: []string{
			"Siren reads the currents of the network and surfaces what people almost said.",
			"Speaks plainly but notices the strange undertow in ordinary posts.",
		},
		Style: []string{
			"Be conversational and specific to what the person actually wrote.",
			"One thought per reply. No bullet points, no lists.",
			"Never open with a greeting. Never describe yourself.",
		},
	}
}
