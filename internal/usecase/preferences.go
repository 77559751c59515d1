package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/adapter/storage"
	"github.com/talenthub/prefhub/internal/domain"
)

// ChangeNotifier receives the freshly resolved effective preference after a
// successful mutation. Implemented by the SSE broker.
type ChangeNotifier interface {
	NotifyChange(pref domain.EffectivePreference)
}

// PreferenceUseCase owns the layered preference state for the authenticated
// user: it resolves the effective record on demand and applies partial
// updates to the stored user layer. Every mutator is a guarded no-op when no
// identity is present.
type PreferenceUseCase struct {
	identity  domain.IdentityProvider
	tenants   domain.TenantRepository
	store     *storage.Store
	remote    domain.SnapshotSource
	changelog domain.ChangeLogRepository
	audit     domain.AuditRepository
	notifier  ChangeNotifier
	metrics   *metrics.PreferenceMetrics
	logger    *slog.Logger
	defaults  domain.Defaults
	keyPrefix string
}

// NewPreferenceUseCase creates a PreferenceUseCase. remote, changelog, audit,
// notifier and m are optional; pass nil to disable the corresponding side
// effect.
func NewPreferenceUseCase(
	identity domain.IdentityProvider,
	tenants domain.TenantRepository,
	store *storage.Store,
	remote domain.SnapshotSource,
	changelog domain.ChangeLogRepository,
	audit domain.AuditRepository,
	notifier ChangeNotifier,
	m *metrics.PreferenceMetrics,
	logger *slog.Logger,
	keyPrefix string,
) *PreferenceUseCase {
	return &PreferenceUseCase{
		identity:  identity,
		tenants:   tenants,
		store:     store,
		remote:    remote,
		changelog: changelog,
		audit:     audit,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With("component", "preferences"),
		defaults:  domain.SystemDefaults(),
		keyPrefix: keyPrefix,
	}
}

// StorageKey returns the durable-scope key for a (tenant, user) pair.
func (uc *PreferenceUseCase) StorageKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("%s_%s_%s", uc.keyPrefix, tenantID, userID)
}

// Effective is the pull accessor for the resolved preference record. It never
// fails: an unauthenticated caller, a missing tenant layer, and a missing
// user layer all degrade to lower configuration layers.
func (uc *PreferenceUseCase) Effective(ctx context.Context) domain.EffectivePreference {
	if uc.metrics != nil {
		uc.metrics.ResolutionsTotal.Inc()
	}

	id, ok := uc.identity.CurrentIdentity(ctx)
	if !ok {
		return ResolveEffective(uc.defaults, nil, nil, uuid.Nil, uuid.Nil)
	}
	return uc.resolveFor(ctx, id)
}

func (uc *PreferenceUseCase) resolveFor(ctx context.Context, id domain.Identity) domain.EffectivePreference {
	tenantPref, err := uc.tenants.Preference(ctx, id.TenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("failed to load tenant preference, falling back to defaults", "tenant_id", id.TenantID, "error", err)
		}
		tenantPref = nil
	}

	var userPref *domain.UserPreference
	var stored domain.UserPreference
	if uc.store.Get(ctx, uc.StorageKey(id.TenantID, id.UserID), &stored, domain.ScopeDurable) {
		userPref = &stored
	}

	return ResolveEffective(uc.defaults, tenantPref, userPref, id.UserID, id.TenantID)
}

// SetTheme applies a partial update of the UI theme.
func (uc *PreferenceUseCase) SetTheme(ctx context.Context, theme domain.Theme) {
	uc.mutate(ctx, "theme", func(p *domain.UserPreference) {
		p.Theme = &theme
	})
}

// SetTimezone applies a partial update of the timezone.
func (uc *PreferenceUseCase) SetTimezone(ctx context.Context, tz string) {
	uc.mutate(ctx, "timezone", func(p *domain.UserPreference) {
		p.Timezone = &tz
	})
}

// SetDateFormat applies a partial update of the date format.
func (uc *PreferenceUseCase) SetDateFormat(ctx context.Context, format string) {
	uc.mutate(ctx, "date_format", func(p *domain.UserPreference) {
		p.DateFormat = &format
	})
}

// SetTimeFormat applies a partial update of the time format.
func (uc *PreferenceUseCase) SetTimeFormat(ctx context.Context, format domain.TimeFormat) {
	uc.mutate(ctx, "time_format", func(p *domain.UserPreference) {
		p.TimeFormat = &format
	})
}

// SetLanguage updates the language if the tenant permits it. It reports false
// and leaves the stored preference untouched when the language is not in the
// tenant's allowed set, when the set cannot be determined, or when no
// identity is present.
func (uc *PreferenceUseCase) SetLanguage(ctx context.Context, lang string) bool {
	id, ok := uc.identity.CurrentIdentity(ctx)
	if !ok {
		uc.countMutation("language", "skipped")
		return false
	}

	allowed, err := uc.tenants.AllowedLanguages(ctx, id.TenantID)
	if err != nil {
		uc.logger.Warn("failed to load allowed languages, refusing language change", "tenant_id", id.TenantID, "error", err)
		uc.countMutation("language", "rejected")
		return false
	}
	if !slices.Contains(allowed, lang) {
		uc.logger.Info("language not permitted by tenant", "tenant_id", id.TenantID, "language", lang)
		uc.countMutation("language", "rejected")
		return false
	}

	return uc.mutate(ctx, "language", func(p *domain.UserPreference) {
		p.Language = &lang
	})
}

// SetNotifications shallow-merges the provided partial fields into the user's
// notification sub-record. Fields not mentioned keep their previous values.
func (uc *PreferenceUseCase) SetNotifications(ctx context.Context, partial domain.UserNotificationPreference) {
	uc.mutate(ctx, "notifications", func(p *domain.UserPreference) {
		if p.Notifications == nil {
			p.Notifications = &domain.UserNotificationPreference{}
		}
		n := p.Notifications
		if partial.Email != nil {
			n.Email = partial.Email
		}
		if partial.InApp != nil {
			n.InApp = partial.InApp
		}
		if partial.Push != nil {
			n.Push = partial.Push
		}
		if partial.DigestFrequency != nil {
			n.DigestFrequency = partial.DigestFrequency
		}
		if partial.QuietHours != nil {
			n.QuietHours = partial.QuietHours
		}
		if partial.Categories != nil {
			if n.Categories == nil {
				n.Categories = make(map[string]bool, len(partial.Categories))
			}
			for k, v := range partial.Categories {
				n.Categories[k] = v
			}
		}
	})
}

// ResetToDefaults deletes the user's stored preference entirely, so
// subsequent resolution falls through to tenant and system values.
func (uc *PreferenceUseCase) ResetToDefaults(ctx context.Context) {
	id, ok := uc.identity.CurrentIdentity(ctx)
	if !ok {
		uc.countMutation("reset", "skipped")
		return
	}

	uc.store.Remove(ctx, uc.StorageKey(id.TenantID, id.UserID), domain.ScopeDurable)

	// The published record must carry a fresh timestamp so the snapshot
	// upsert supersedes the pre-reset row instead of skipping it.
	reset := domain.UserPreference{
		UserID:    id.UserID,
		TenantID:  id.TenantID,
		UpdatedAt: time.Now().UTC(),
	}
	uc.afterMutation(ctx, id, "reset", reset)
}

// LoadFromRemote overwrites the stored user preference wholesale with a
// server-provided snapshot.
func (uc *PreferenceUseCase) LoadFromRemote(ctx context.Context, pref domain.UserPreference) {
	id, ok := uc.identity.CurrentIdentity(ctx)
	if !ok {
		uc.countMutation("hydrate", "skipped")
		return
	}

	pref.UserID = id.UserID
	pref.TenantID = id.TenantID
	uc.store.Set(ctx, uc.StorageKey(id.TenantID, id.UserID), pref, domain.ScopeDurable)
	uc.afterMutation(ctx, id, "hydrate", pref)
}

// Hydrate fetches the server-side snapshot for the current user through the
// remote source and applies it with LoadFromRemote. A user without a remote
// snapshot is not an error.
func (uc *PreferenceUseCase) Hydrate(ctx context.Context) error {
	if uc.remote == nil {
		return nil
	}
	id, ok := uc.identity.CurrentIdentity(ctx)
	if !ok {
		return nil
	}

	snapshot, err := uc.remote.FetchPreference(ctx, id.TenantID, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("fetch remote preference snapshot: %w", err)
	}

	uc.LoadFromRemote(ctx, *snapshot)
	return nil
}

// mutate reads the stored record, applies a partial update, stamps the update
// timestamp and writes the full merged record back. Reports whether the
// mutation was applied.
func (uc *PreferenceUseCase) mutate(ctx context.Context, field string, apply func(p *domain.UserPreference)) bool {
	id, ok := uc.identity.CurrentIdentity(ctx)
	if !ok {
		uc.countMutation(field, "skipped")
		return false
	}

	key := uc.StorageKey(id.TenantID, id.UserID)
	var pref domain.UserPreference
	uc.store.Get(ctx, key, &pref, domain.ScopeDurable)
	pref.UserID = id.UserID
	pref.TenantID = id.TenantID

	apply(&pref)
	pref.UpdatedAt = time.Now().UTC()

	uc.store.Set(ctx, key, pref, domain.ScopeDurable)
	uc.afterMutation(ctx, id, field, pref)
	return true
}

// afterMutation fans the mutation out to the audit journal, the change feed
// and stream subscribers. All three are best-effort: the stored write stands
// even if a side channel fails.
func (uc *PreferenceUseCase) afterMutation(ctx context.Context, id domain.Identity, field string, pref domain.UserPreference) {
	uc.countMutation(field, "applied")

	change := domain.PreferenceChange{
		ID:         uuid.NewString(),
		TenantID:   id.TenantID,
		UserID:     id.UserID,
		Field:      field,
		OccurredAt: time.Now().UTC(),
		Preference: pref,
	}

	if uc.audit != nil {
		if err := uc.audit.Append(ctx, change); err != nil {
			uc.logger.Warn("failed to append preference change to audit journal", "change_id", change.ID, "error", err)
		}
	}

	if uc.changelog != nil {
		if err := uc.changelog.Publish(ctx, change); err != nil {
			uc.logger.Warn("failed to publish preference change", "change_id", change.ID, "error", err)
		} else if uc.metrics != nil {
			uc.metrics.ChangesPublished.Inc()
		}
	}

	if uc.notifier != nil {
		uc.notifier.NotifyChange(uc.resolveFor(ctx, id))
	}
}

func (uc *PreferenceUseCase) countMutation(field, status string) {
	if uc.metrics != nil {
		uc.metrics.MutationsTotal.WithLabelValues(field, status).Inc()
	}
}
