package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// StateChange is one entity update forwarded by the host. A nil State means
// the entity was removed.
type StateChange struct {
	EntityID   string         `json:"entity_id"`
	State      *string        `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Removed reports whether the change deletes the entity.
func (c StateChange) Removed() bool {
	return c.State == nil
}

// ParseStateChange decodes a RawEvent's value into a StateChange.
func ParseStateChange(raw RawEvent) (StateChange, error) {
	var change StateChange
	if err := json.Unmarshal(raw.Value, &change); err != nil {
		return StateChange{}, fmt.Errorf("parse state change: %w", err)
	}
	change.EntityID = strings.TrimSpace(change.EntityID)
	if change.EntityID == "" {
		return StateChange{}, errors.New("parse state change: missing entity_id")
	}
	return change, nil
}

// RenderedSurface is a card surface committed during one render pass.
type RenderedSurface struct {
	Entity     string
	HTML       []byte
	Model      VisualModel
	Version    uint64
	RenderedAt time.Time
}
