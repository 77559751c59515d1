package domain

import (
	"context"

	"github.com/google/uuid"
)

// StorageScope selects which of the two key-value stores an operation acts on.
type StorageScope string

const (
	// ScopeDurable survives process restarts (Redis-backed).
	ScopeDurable StorageScope = "durable"
	// ScopeSession lives for the lifetime of the process (in-memory).
	ScopeSession StorageScope = "session"
)

// StorageBackend is a raw byte-oriented key-value store for a single scope.
// Implementations return ErrKeyNotFound when a key is absent; all other
// errors indicate an environmental failure (connectivity, quota).
type StorageBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error

	// Clear removes every key in the backend, not just keys written by this
	// library.
	Clear(ctx context.Context) error
}

// ChangeLogRepository defines the interface for the preference change feed.
type ChangeLogRepository interface {
	// Publish appends a change event to the feed.
	Publish(ctx context.Context, change PreferenceChange) error

	// ReadBatch reads up to count pending changes for a consumer.
	ReadBatch(ctx context.Context, group, consumer string, count int) ([]PreferenceChange, error)

	// Acknowledge marks changes as processed by the group.
	Acknowledge(ctx context.Context, group string, messageIDs ...string) error
}

// SnapshotRepository defines the interface for server-side preference
// snapshots, the source of truth consumed by remote hydration.
type SnapshotRepository interface {
	// UpsertBatch writes the latest preference record per user.
	UpsertBatch(ctx context.Context, prefs []UserPreference) error

	// Find returns the stored snapshot, or ErrNotFound.
	Find(ctx context.Context, tenantID, userID uuid.UUID) (*UserPreference, error)
}

// SnapshotSource fetches a server-provided preference snapshot, used to
// hydrate local state after authentication.
type SnapshotSource interface {
	// FetchPreference returns the remote snapshot, or ErrNotFound when the
	// user has never customized anything.
	FetchPreference(ctx context.Context, tenantID, userID uuid.UUID) (*UserPreference, error)
}

// AuditRepository defines the interface for the local append-only journal of
// preference mutations.
type AuditRepository interface {
	// Append records a change in the journal.
	Append(ctx context.Context, change PreferenceChange) error

	// Replay reads journaled changes in order and passes each to the handler.
	Replay(ctx context.Context, handler func(change PreferenceChange) error) error

	// Truncate removes journal segments that have been exported.
	Truncate(ctx context.Context) error
}
