package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/domain"
)

// Store is the scoped key-value storage adapter. Values are JSON-encoded and
// every operation is best-effort: environmental failures (backend down,
// quota, undecodable content) never surface as errors. A failed Get simply
// reports an absent value; a failed Set/Remove/Clear is a no-op.
type Store struct {
	durable domain.StorageBackend
	session domain.StorageBackend
	logger  *slog.Logger
	metrics *metrics.PreferenceMetrics
}

// NewStore creates a Store over the two scope backends. Metrics may be nil.
func NewStore(durable, session domain.StorageBackend, logger *slog.Logger, m *metrics.PreferenceMetrics) *Store {
	return &Store{
		durable: durable,
		session: session,
		logger:  logger.With("component", "storage"),
		metrics: m,
	}
}

// Get decodes the value stored under key into dest and reports whether a
// usable value was found. A missing key, an unavailable backend, and a stored
// value that is not valid JSON all collapse to false.
func (s *Store) Get(ctx context.Context, key string, dest any, scope domain.StorageScope) bool {
	data, err := s.backend(scope).Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			s.count("get", scope, "miss")
			return false
		}
		s.logger.Warn("storage get failed, treating as absent", "key", key, "scope", scope, "error", err)
		s.count("get", scope, "error")
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("stored value is not valid JSON, treating as absent", "key", key, "scope", scope, "error", err)
		if s.metrics != nil {
			s.metrics.StorageDecodeErrors.Inc()
		}
		s.count("get", scope, "error")
		return false
	}

	s.count("get", scope, "ok")
	return true
}

// Set stores the JSON encoding of value under key. Failures are absorbed.
func (s *Store) Set(ctx context.Context, key string, value any, scope domain.StorageScope) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("failed to encode value for storage, skipping", "key", key, "scope", scope, "error", err)
		s.count("set", scope, "error")
		return
	}

	if err := s.backend(scope).Set(ctx, key, data); err != nil {
		s.logger.Warn("storage set failed, skipping", "key", key, "scope", scope, "error", err)
		s.count("set", scope, "error")
		return
	}
	s.count("set", scope, "ok")
}

// Remove deletes key from the scope. Idempotent; failures are absorbed.
func (s *Store) Remove(ctx context.Context, key string, scope domain.StorageScope) {
	if err := s.backend(scope).Remove(ctx, key); err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		s.logger.Warn("storage remove failed, skipping", "key", key, "scope", scope, "error", err)
		s.count("remove", scope, "error")
		return
	}
	s.count("remove", scope, "ok")
}

// Clear removes every key in the scope, including keys written by co-located
// code. Failures are absorbed.
func (s *Store) Clear(ctx context.Context, scope domain.StorageScope) {
	if err := s.backend(scope).Clear(ctx); err != nil {
		s.logger.Warn("storage clear failed, skipping", "scope", scope, "error", err)
		s.count("clear", scope, "error")
		return
	}
	s.count("clear", scope, "ok")
}

func (s *Store) backend(scope domain.StorageScope) domain.StorageBackend {
	if scope == domain.ScopeSession {
		return s.session
	}
	return s.durable
}

func (s *Store) count(op string, scope domain.StorageScope, status string) {
	if s.metrics != nil {
		s.metrics.StorageOpsTotal.WithLabelValues(op, string(scope), status).Inc()
	}
}
