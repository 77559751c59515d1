package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/domain"
)

type languageCacheEntry struct {
	languages []string
	expiresAt time.Time
}

// TenantRepository implements domain.TenantRepository on PostgreSQL. The
// allowed-language set is consulted on every language change, so it is served
// from an in-memory time-based cache.
type TenantRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	cache    map[uuid.UUID]languageCacheEntry
	mu       sync.RWMutex
	cacheTTL time.Duration
	metrics  *metrics.PreferenceMetrics
}

// NewTenantRepository creates a new PostgreSQL tenant repository. Metrics may
// be nil.
func NewTenantRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration, m *metrics.PreferenceMetrics) *TenantRepository {
	return &TenantRepository{
		db:       db,
		logger:   logger.With("component", "tenant_repository"),
		cache:    make(map[uuid.UUID]languageCacheEntry),
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// FindByID returns the tenant record.
func (r *TenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `SELECT id, name, slug, COALESCE(domain, ''), is_active, plan, created_at, updated_at
		FROM tenants WHERE id = $1`

	var t domain.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Slug, &t.Domain, &t.IsActive, &t.Plan, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query tenant: %w", err)
	}
	return &t, nil
}

// Preference returns the tenant's preference layer, stored as a JSONB
// document, or domain.ErrNotFound when the tenant never configured one.
func (r *TenantRepository) Preference(ctx context.Context, tenantID uuid.UUID) (*domain.TenantPreference, error) {
	query := `SELECT document FROM tenant_preferences WHERE tenant_id = $1`

	var document []byte
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query tenant preference: %w", err)
	}

	var pref domain.TenantPreference
	if err := json.Unmarshal(document, &pref); err != nil {
		return nil, fmt.Errorf("failed to decode tenant preference document: %w", err)
	}
	pref.TenantID = tenantID
	return &pref, nil
}

// AllowedLanguages returns the language codes the tenant permits. Results are
// cached; a miss or expired entry falls back to the database and repopulates
// the cache.
func (r *TenantRepository) AllowedLanguages(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	r.mu.RLock()
	entry, found := r.cache[tenantID]
	r.mu.RUnlock()

	if found && time.Now().Before(entry.expiresAt) {
		if r.metrics != nil {
			r.metrics.TenantCacheHits.Inc()
		}
		return entry.languages, nil
	}

	if r.metrics != nil {
		r.metrics.TenantCacheMisses.Inc()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check in case another goroutine repopulated the entry while we
	// waited for the lock.
	entry, found = r.cache[tenantID]
	if found && time.Now().Before(entry.expiresAt) {
		return entry.languages, nil
	}

	query := `SELECT allowed_languages FROM tenant_preferences WHERE tenant_id = $1`
	var languages []string
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(pq.Array(&languages))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A tenant without a preference row permits only the system
			// default language.
			languages = []string{domain.SystemDefaults().Language}
		} else {
			r.logger.Error("failed to query allowed languages", "tenant_id", tenantID, "error", err)
			// Don't cache errors; the next request retries from the DB.
			return nil, fmt.Errorf("failed to query allowed languages: %w", err)
		}
	}

	r.cache[tenantID] = languageCacheEntry{
		languages: languages,
		expiresAt: time.Now().Add(r.cacheTTL),
	}

	return languages, nil
}
