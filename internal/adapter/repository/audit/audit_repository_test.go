package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/domain"
)

func setupTestAudit(t *testing.T, maxSegmentSize, maxTotalSize int64) *AuditRepository {
	t.Helper()
	dir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := NewAuditRepository(dir, maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create AuditRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testChange(field string) domain.PreferenceChange {
	return domain.PreferenceChange{
		ID:       uuid.NewString(),
		TenantID: uuid.New(),
		UserID:   uuid.New(),
		Field:    field,
	}
}

func TestAudit_AppendAndReplay(t *testing.T) {
	repo := setupTestAudit(t, 1024, 10*1024)

	changes := []domain.PreferenceChange{
		testChange("theme"),
		testChange("language"),
		testChange("notifications"),
	}
	for _, change := range changes {
		if err := repo.Append(context.Background(), change); err != nil {
			t.Fatalf("failed to append change: %v", err)
		}
	}
	repo.Close()

	// Re-open to simulate a restart.
	reopened, err := NewAuditRepository(repo.dir, 1024, 10*1024, repo.logger)
	if err != nil {
		t.Fatalf("failed to re-open journal: %v", err)
	}
	defer reopened.Close()

	var replayed []domain.PreferenceChange
	err = reopened.Replay(context.Background(), func(change domain.PreferenceChange) error {
		replayed = append(replayed, change)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to replay: %v", err)
	}

	if len(replayed) != len(changes) {
		t.Fatalf("expected %d replayed changes, got %d", len(changes), len(replayed))
	}
	for i, change := range changes {
		if replayed[i].ID != change.ID || replayed[i].Field != change.Field {
			t.Errorf("replay order mismatch at %d: got %+v, want %+v", i, replayed[i], change)
		}
	}
}

func TestAudit_SegmentRotation(t *testing.T) {
	repo := setupTestAudit(t, 100, 10*1024)

	change := testChange("theme")
	entry, _ := json.Marshal(change)

	numWrites := (100 / len(entry)) + 2
	for i := 0; i < numWrites; i++ {
		if err := repo.Append(context.Background(), change); err != nil {
			t.Fatalf("failed to append change: %v", err)
		}
	}

	segments, err := repo.sortedSegments()
	if err != nil {
		t.Fatalf("failed to list segments: %v", err)
	}
	if len(segments) < 2 {
		t.Errorf("expected at least 2 segments after rotation, got %d", len(segments))
	}
}

func TestAudit_Truncate(t *testing.T) {
	repo := setupTestAudit(t, 1024, 10*1024)

	if err := repo.Append(context.Background(), testChange("theme")); err != nil {
		t.Fatalf("failed to append change: %v", err)
	}

	if err := repo.Truncate(context.Background()); err != nil {
		t.Fatalf("failed to truncate: %v", err)
	}

	segments, _ := repo.sortedSegments()
	if len(segments) != 1 { // Truncate opens a fresh empty segment.
		t.Fatalf("expected 1 segment after truncate, got %d", len(segments))
	}
	info, _ := os.Stat(segments[0])
	if info.Size() != 0 {
		t.Errorf("expected the fresh segment to be empty, size is %d", info.Size())
	}
}

func TestAudit_MaxTotalSize(t *testing.T) {
	repo := setupTestAudit(t, 100, 150)

	change := testChange("a-field-name-long-enough-to-fill-the-journal")
	var err error
	for i := 0; i < 5; i++ {
		err = repo.Append(context.Background(), change)
		if err != nil {
			break
		}
	}

	if err == nil {
		t.Fatal("expected an error when appending beyond the max total size")
	}
}
