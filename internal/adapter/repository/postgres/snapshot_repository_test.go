package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/domain"
)

func newSnapshotRepo(t *testing.T) (*SnapshotRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSnapshotRepository(db, logger), mock
}

func TestSnapshotRepository_Find(t *testing.T) {
	repo, mock := newSnapshotRepo(t)
	tenantID := uuid.New()
	userID := uuid.New()

	document := []byte(`{"language":"fr","theme":"dark"}`)
	mock.ExpectQuery(`SELECT document FROM user_preferences`).WithArgs(tenantID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(document))

	pref, err := repo.Find(context.Background(), tenantID, userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pref.Language == nil || *pref.Language != "fr" {
		t.Errorf("unexpected snapshot: %+v", pref)
	}
}

func TestSnapshotRepository_Find_NotFound(t *testing.T) {
	repo, mock := newSnapshotRepo(t)
	tenantID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT document FROM user_preferences`).WithArgs(tenantID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	if _, err := repo.Find(context.Background(), tenantID, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotRepository_UpsertBatchEmpty(t *testing.T) {
	repo, _ := newSnapshotRepo(t)

	// An empty batch must not open a transaction.
	if err := repo.UpsertBatch(context.Background(), nil); err != nil {
		t.Errorf("expected no error for an empty batch, got %v", err)
	}
}
