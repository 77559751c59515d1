package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/adapter/storage"
	"github.com/talenthub/prefhub/internal/domain"
	"github.com/talenthub/prefhub/internal/domain/mocks"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []domain.EffectivePreference
}

func (n *recordingNotifier) NotifyChange(pref domain.EffectivePreference) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, pref)
}

type prefFixture struct {
	uc        *PreferenceUseCase
	identity  *mocks.MockIdentityProvider
	tenants   *mocks.MockTenantRepository
	backend   *mocks.MockStorageBackend
	changelog *mocks.MockChangeLogRepository
	audit     *mocks.MockAuditRepository
	remote    *mocks.MockSnapshotSource
	notifier  *recordingNotifier
}

func newPrefFixture(t *testing.T) *prefFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &prefFixture{
		identity: &mocks.MockIdentityProvider{
			Identity:    domain.Identity{UserID: uuid.New(), TenantID: uuid.New()},
			HasIdentity: true,
		},
		tenants:   &mocks.MockTenantRepository{Languages: []string{"en", "de", "fr"}},
		backend:   mocks.NewMockStorageBackend(),
		changelog: &mocks.MockChangeLogRepository{},
		audit:     &mocks.MockAuditRepository{},
		remote:    &mocks.MockSnapshotSource{},
		notifier:  &recordingNotifier{},
	}

	store := storage.NewStore(f.backend, storage.NewMemoryBackend(), logger, nil)
	f.uc = NewPreferenceUseCase(f.identity, f.tenants, store, f.remote, f.changelog, f.audit, f.notifier, nil, logger, "user_prefs")
	return f
}

func (f *prefFixture) storedPref(t *testing.T) *domain.UserPreference {
	t.Helper()
	key := f.uc.StorageKey(f.identity.Identity.TenantID, f.identity.Identity.UserID)
	data, ok := f.backend.Data[key]
	if !ok {
		return nil
	}
	var pref domain.UserPreference
	if err := json.Unmarshal(data, &pref); err != nil {
		t.Fatalf("stored preference is not valid JSON: %v", err)
	}
	return &pref
}

func TestPreferenceUseCase_SetThemePersistsMergedRecord(t *testing.T) {
	f := newPrefFixture(t)
	ctx := context.Background()

	f.uc.SetTheme(ctx, domain.ThemeDark)
	f.uc.SetTimezone(ctx, "America/New_York")

	stored := f.storedPref(t)
	if stored == nil {
		t.Fatal("expected a stored preference record")
	}
	if stored.Theme == nil || *stored.Theme != domain.ThemeDark {
		t.Error("expected theme to survive the second partial update")
	}
	if stored.Timezone == nil || *stored.Timezone != "America/New_York" {
		t.Error("expected timezone to be stored")
	}
	if stored.UpdatedAt.IsZero() {
		t.Error("expected update timestamp to be stamped")
	}
	if stored.UserID != f.identity.Identity.UserID || stored.TenantID != f.identity.Identity.TenantID {
		t.Error("expected identity to be stamped on the record")
	}
	if len(f.changelog.Published) != 2 {
		t.Errorf("expected 2 change events, got %d", len(f.changelog.Published))
	}
	if len(f.audit.Appended) != 2 {
		t.Errorf("expected 2 audit entries, got %d", len(f.audit.Appended))
	}
}

func TestPreferenceUseCase_MutatorsNoOpWithoutIdentity(t *testing.T) {
	f := newPrefFixture(t)
	f.identity.HasIdentity = false
	ctx := context.Background()

	f.uc.SetTheme(ctx, domain.ThemeDark)
	f.uc.SetDateFormat(ctx, "DD.MM.YYYY")
	f.uc.SetNotifications(ctx, domain.UserNotificationPreference{Push: boolPtr(true)})
	f.uc.ResetToDefaults(ctx)
	if f.uc.SetLanguage(ctx, "de") {
		t.Error("expected SetLanguage to fail without identity")
	}

	if len(f.backend.Data) != 0 {
		t.Error("expected no storage writes without identity")
	}
	if len(f.changelog.Published) != 0 {
		t.Error("expected no change events without identity")
	}
}

func TestPreferenceUseCase_SetLanguagePolicy(t *testing.T) {
	t.Run("Disallowed Language", func(t *testing.T) {
		f := newPrefFixture(t)
		ctx := context.Background()
		f.uc.SetTheme(ctx, domain.ThemeDark)
		before := f.storedPref(t)

		if f.uc.SetLanguage(ctx, "xx") {
			t.Fatal("expected false for a language outside the tenant's allowed set")
		}

		after := f.storedPref(t)
		if after.Language != nil {
			t.Error("expected stored language to be untouched after refusal")
		}
		if !after.UpdatedAt.Equal(before.UpdatedAt) {
			t.Error("expected refusal to leave the stored record unchanged")
		}
	})

	t.Run("Allowed Language", func(t *testing.T) {
		f := newPrefFixture(t)
		ctx := context.Background()

		if !f.uc.SetLanguage(ctx, "de") {
			t.Fatal("expected true for a permitted language")
		}
		stored := f.storedPref(t)
		if stored.Language == nil || *stored.Language != "de" {
			t.Error("expected language to be stored")
		}
		if f.uc.Effective(ctx).Language != "de" {
			t.Error("expected effective language to follow the stored value")
		}
	})

	t.Run("Allowed Set Unavailable", func(t *testing.T) {
		f := newPrefFixture(t)
		f.tenants.LanguagesErr = errors.New("tenant service down")

		if f.uc.SetLanguage(context.Background(), "de") {
			t.Error("expected refusal when the allowed set cannot be determined")
		}
		if f.storedPref(t) != nil {
			t.Error("expected no mutation when the allowed set cannot be determined")
		}
	})
}

func TestPreferenceUseCase_SetNotificationsShallowMerge(t *testing.T) {
	f := newPrefFixture(t)
	ctx := context.Background()

	f.uc.SetNotifications(ctx, domain.UserNotificationPreference{
		Email:      boolPtr(false),
		Categories: map[string]bool{"messages": true},
	})
	f.uc.SetNotifications(ctx, domain.UserNotificationPreference{
		Push:       boolPtr(true),
		Categories: map[string]bool{"job_alerts": false},
	})

	stored := f.storedPref(t)
	n := stored.Notifications
	if n == nil {
		t.Fatal("expected a notification sub-record")
	}
	if n.Email == nil || *n.Email != false {
		t.Error("expected email opt-out from the first update to survive the second")
	}
	if n.Push == nil || *n.Push != true {
		t.Error("expected push opt-in from the second update")
	}
	if !n.Categories["messages"] || n.Categories["job_alerts"] {
		t.Errorf("expected category map to accumulate, got %v", n.Categories)
	}
}

func TestPreferenceUseCase_ResetToDefaults(t *testing.T) {
	f := newPrefFixture(t)
	ctx := context.Background()
	f.tenants.Pref = &domain.TenantPreference{DefaultTheme: themePtr(domain.ThemeDark)}

	f.uc.SetTheme(ctx, domain.ThemeLight)
	if f.uc.Effective(ctx).Theme != domain.ThemeLight {
		t.Fatal("expected user theme before reset")
	}

	f.uc.ResetToDefaults(ctx)

	if f.storedPref(t) != nil {
		t.Error("expected stored record to be deleted")
	}
	if got := f.uc.Effective(ctx).Theme; got != domain.ThemeDark {
		t.Errorf("expected tenant theme after reset, got %q", got)
	}

	// The reset event must supersede the pre-reset snapshot downstream: the
	// sync upsert only applies records newer than the stored row.
	published := f.changelog.Published
	if len(published) != 2 {
		t.Fatalf("expected 2 change events, got %d", len(published))
	}
	resetChange := published[1]
	if resetChange.Field != "reset" {
		t.Fatalf("expected a reset change event, got %q", resetChange.Field)
	}
	if resetChange.Preference.UpdatedAt.IsZero() {
		t.Error("expected the reset record to carry a fresh update timestamp")
	}
	if resetChange.Preference.UpdatedAt.Before(published[0].Preference.UpdatedAt) {
		t.Error("expected the reset record to be at least as new as the prior mutation")
	}
}

func TestPreferenceUseCase_EffectiveDegradesGracefully(t *testing.T) {
	f := newPrefFixture(t)
	ctx := context.Background()

	t.Run("Tenant Repository Error", func(t *testing.T) {
		f.tenants.PrefErr = errors.New("db down")
		eff := f.uc.Effective(ctx)
		if eff.Timezone != "UTC" {
			t.Errorf("expected system defaults when the tenant layer is unavailable, got %q", eff.Timezone)
		}
		f.tenants.PrefErr = nil
	})

	t.Run("Corrupted Stored Record", func(t *testing.T) {
		key := f.uc.StorageKey(f.identity.Identity.TenantID, f.identity.Identity.UserID)
		f.backend.Data[key] = []byte("{corrupted")
		eff := f.uc.Effective(ctx)
		if eff.Language != "en" {
			t.Errorf("expected defaults when the stored record is corrupted, got %q", eff.Language)
		}
	})

	t.Run("No Identity", func(t *testing.T) {
		f.identity.HasIdentity = false
		eff := f.uc.Effective(ctx)
		if eff.Theme != domain.ThemeLight || eff.Features == nil {
			t.Errorf("expected fully populated defaults without identity, got %+v", eff)
		}
		f.identity.HasIdentity = true
	})
}

func TestPreferenceUseCase_Hydrate(t *testing.T) {
	t.Run("Overwrites Wholesale", func(t *testing.T) {
		f := newPrefFixture(t)
		ctx := context.Background()
		f.uc.SetTheme(ctx, domain.ThemeDark)

		f.remote.Snapshot = &domain.UserPreference{Language: strPtr("fr")}
		if err := f.uc.Hydrate(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		stored := f.storedPref(t)
		if stored.Language == nil || *stored.Language != "fr" {
			t.Error("expected snapshot language")
		}
		if stored.Theme != nil {
			t.Error("expected previous theme to be gone after wholesale overwrite")
		}
	})

	t.Run("No Remote Snapshot", func(t *testing.T) {
		f := newPrefFixture(t)
		if err := f.uc.Hydrate(context.Background()); err != nil {
			t.Fatalf("expected a missing snapshot to be a no-op, got %v", err)
		}
		if f.storedPref(t) != nil {
			t.Error("expected no local write without a remote snapshot")
		}
	})

	t.Run("Remote Failure", func(t *testing.T) {
		f := newPrefFixture(t)
		f.remote.FetchErr = errors.New("502 from profile service")
		if err := f.uc.Hydrate(context.Background()); err == nil {
			t.Fatal("expected the transport failure to surface")
		}
	})
}

func TestPreferenceUseCase_NotifiesSubscribersAfterMutation(t *testing.T) {
	f := newPrefFixture(t)
	ctx := context.Background()

	f.uc.SetTheme(ctx, domain.ThemeDark)

	if len(f.notifier.changes) != 1 {
		t.Fatalf("expected 1 pushed change, got %d", len(f.notifier.changes))
	}
	if f.notifier.changes[0].Theme != domain.ThemeDark {
		t.Error("expected the pushed effective record to reflect the mutation")
	}

	// A refused language change must not push anything.
	f.uc.SetLanguage(ctx, "xx")
	if len(f.notifier.changes) != 1 {
		t.Error("expected no push for a refused mutation")
	}
}

func TestPreferenceUseCase_SideChannelFailuresDoNotBlockWrites(t *testing.T) {
	f := newPrefFixture(t)
	f.changelog.PublishErr = errors.New("stream down")
	f.audit.AppendErr = errors.New("disk full")

	f.uc.SetTheme(context.Background(), domain.ThemeDark)

	stored := f.storedPref(t)
	if stored == nil || stored.Theme == nil || *stored.Theme != domain.ThemeDark {
		t.Error("expected the stored write to stand despite side channel failures")
	}
}
