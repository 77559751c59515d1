package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/talenthub/prefhub/internal/domain"
)

// SnapshotRepository implements domain.SnapshotRepository on PostgreSQL.
// Snapshots are the server-side source of truth consumed by remote hydration.
type SnapshotRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository.
func NewSnapshotRepository(db *sql.DB, logger *slog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: db, logger: logger}
}

// UpsertBatch writes the latest preference record per user using the COPY
// protocol into a temp table, then merges into user_preferences. The upsert
// keys on (tenant_id, user_id), so redelivered change events are idempotent.
func (r *SnapshotRepository) UpsertBatch(ctx context.Context, prefs []domain.UserPreference) error {
	if len(prefs) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	tempTableName := "user_preferences_temp_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTableName+` (LIKE user_preferences INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return err
	}

	stmt, err := txn.Prepare(pq.CopyIn(tempTableName, "tenant_id", "user_id", "document", "updated_at"))
	if err != nil {
		return err
	}

	for _, pref := range prefs {
		document, err := json.Marshal(pref)
		if err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to encode preference document: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, pref.TenantID, pref.UserID, document, pref.UpdatedAt); err != nil {
			_ = stmt.Close()
			return err
		}
	}

	if err := stmt.Close(); err != nil {
		return err
	}

	upsertQuery := `
		INSERT INTO user_preferences (tenant_id, user_id, document, updated_at)
		SELECT tenant_id, user_id, document, updated_at FROM ` + tempTableName + `
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
		WHERE user_preferences.updated_at <= EXCLUDED.updated_at;
	`
	if _, err := txn.ExecContext(ctx, upsertQuery); err != nil {
		return err
	}

	return txn.Commit()
}

// Find returns the stored snapshot, or domain.ErrNotFound.
func (r *SnapshotRepository) Find(ctx context.Context, tenantID, userID uuid.UUID) (*domain.UserPreference, error) {
	query := `SELECT document FROM user_preferences WHERE tenant_id = $1 AND user_id = $2`

	var document []byte
	err := r.db.QueryRowContext(ctx, query, tenantID, userID).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query preference snapshot: %w", err)
	}

	var pref domain.UserPreference
	if err := json.Unmarshal(document, &pref); err != nil {
		return nil, fmt.Errorf("failed to decode preference snapshot: %w", err)
	}
	return &pref, nil
}
