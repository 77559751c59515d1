package domain

import (
	"time"

	"github.com/google/uuid"
)

// PreferenceChange is the envelope published to the change feed whenever a
// user preference mutation succeeds. Preference carries the full record after
// the mutation, so consumers can treat each event as a snapshot.
type PreferenceChange struct {
	ID         string         `json:"change_id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	UserID     uuid.UUID      `json:"user_id"`
	Field      string         `json:"field"`
	OccurredAt time.Time      `json:"occurred_at"`
	Preference UserPreference `json:"preference"`

	// StreamMessageID is the broker-assigned ID, set when reading from the
	// stream and used for acknowledgement. Not part of the payload.
	StreamMessageID string `json:"-"`
}
