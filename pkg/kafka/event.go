package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every change event written by this package.
const SchemaVersion = 1

// ChangeEvent is the envelope written to Kafka whenever a catalog entity
// changes. Payload carries the entity-specific body.
type ChangeEvent struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Entity        string          `json:"entity"`
	EntityID      string          `json:"entity_id"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewChangeEvent builds an envelope for entity/entityID with a fresh id.
// The timestamp is normalized to UTC.
func NewChangeEvent(eventType, entity, entityID, producer string, payload any, at time.Time) (*ChangeEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &ChangeEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		Entity:        entity,
		EntityID:      entityID,
		SchemaVersion: SchemaVersion,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		Payload:       body,
	}, nil
}

// Encode returns the JSON wire form of the envelope.
func (e *ChangeEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the payload into v.
func (e *ChangeEvent) DecodePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// DecodeChangeEvent parses an envelope from its wire form.
func DecodeChangeEvent(b []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
