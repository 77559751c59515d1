package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/domain"
)

func newTenantRepo(t *testing.T) (*TenantRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTenantRepository(db, logger, 5*time.Minute, nil), mock
}

func TestTenantRepository_FindByID(t *testing.T) {
	repo, mock := newTenantRepo(t)
	tenantID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "name", "slug", "domain", "is_active", "plan", "created_at", "updated_at"}).
		AddRow(tenantID, "Acme Talent", "acme", "acme.example.com", true, "professional", now, now)
	mock.ExpectQuery(`SELECT id, name, slug`).WithArgs(tenantID).WillReturnRows(rows)

	tenant, err := repo.FindByID(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tenant.Slug != "acme" || tenant.Plan != domain.PlanProfessional {
		t.Errorf("unexpected tenant: %+v", tenant)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTenantRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newTenantRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT id, name, slug`).WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), tenantID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTenantRepository_Preference(t *testing.T) {
	repo, mock := newTenantRepo(t)
	tenantID := uuid.New()

	document := []byte(`{"default_theme":"dark","date_format":"DD/MM/YYYY","features":{"video_interviews":true}}`)
	mock.ExpectQuery(`SELECT document FROM tenant_preferences`).WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(document))

	pref, err := repo.Preference(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pref.DefaultTheme == nil || *pref.DefaultTheme != domain.ThemeDark {
		t.Errorf("unexpected theme: %+v", pref.DefaultTheme)
	}
	if pref.TenantID != tenantID {
		t.Error("expected tenant ID to be stamped on the decoded document")
	}
	if !pref.Features["video_interviews"] {
		t.Error("expected feature flag from the document")
	}
}

func TestTenantRepository_Preference_NotConfigured(t *testing.T) {
	repo, mock := newTenantRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT document FROM tenant_preferences`).WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	if _, err := repo.Preference(context.Background(), tenantID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTenantRepository_AllowedLanguagesCaching(t *testing.T) {
	repo, mock := newTenantRepo(t)
	tenantID := uuid.New()

	// Exactly one database round trip is expected; the second call must be
	// served from the cache.
	mock.ExpectQuery(`SELECT allowed_languages FROM tenant_preferences`).WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"allowed_languages"}).AddRow([]byte(`{en,de,fr}`)))

	ctx := context.Background()
	first, err := repo.AllowedLanguages(ctx, tenantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(first) != 3 || first[1] != "de" {
		t.Errorf("unexpected languages: %v", first)
	}

	second, err := repo.AllowedLanguages(ctx, tenantID)
	if err != nil {
		t.Fatalf("expected cached result, got error %v", err)
	}
	if len(second) != 3 {
		t.Errorf("unexpected cached languages: %v", second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected a single query, got: %v", err)
	}
}

func TestTenantRepository_AllowedLanguagesWithoutRow(t *testing.T) {
	repo, mock := newTenantRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT allowed_languages FROM tenant_preferences`).WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"allowed_languages"}))

	languages, err := repo.AllowedLanguages(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(languages) != 1 || languages[0] != "en" {
		t.Errorf("expected only the system default language, got %v", languages)
	}
}
