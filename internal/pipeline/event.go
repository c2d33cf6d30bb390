package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EventTypeCastCreated is the only webhook event type siren acts on.
const EventTypeCastCreated = "cast.created"

// Author identifies the account that created a cast.
type Author struct {
	FID      int64  `json:"fid"`
	Username string `json:"username"`
}

// CastData carries the cast fields delivered by the webhook.
type CastData struct {
	Hash       string `json:"hash"`
	Text       string `json:"text"`
	Author     Author `json:"author"`
	ParentHash string `json:"parent_hash,omitempty"`
}

// Event is one webhook-delivered notification. Immutable once parsed.
type Event struct {
	ID        string   `json:"id,omitempty"`
	Type      string   `json:"type"`
	CreatedAt int64    `json:"created_at,omitempty"`
	Data      CastData `json:"data"`
}

// ParseEvent decodes a raw webhook body into an Event.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("parse webhook event: missing type")
	}
	return &ev, nil
}

// EventID returns the idempotency key for this delivery. Falls back to the
// creation timestamp when the provider sends no explicit id; empty when
// neither is present (such events cannot be deduplicated by id).
func (e *Event) EventID() string {
	if e.ID != "" {
		return e.ID
	}
	if e.CreatedAt != 0 {
		return strconv.FormatInt(e.CreatedAt, 10)
	}
	return ""
}
