package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/domain"
)

// SyncPreferencesUseCase drains the preference change feed and persists the
// latest snapshot per user into the server-side snapshot store.
type SyncPreferencesUseCase struct {
	changelog  domain.ChangeLogRepository
	snapshots  domain.SnapshotRepository
	logger     *slog.Logger
	metrics    *metrics.PreferenceMetrics
	group      string
	consumer   string
	batchSize  int
	retryCount int
	backoff    time.Duration
}

// NewSyncPreferencesUseCase creates a new sync use case. Metrics may be nil.
func NewSyncPreferencesUseCase(changelog domain.ChangeLogRepository, snapshots domain.SnapshotRepository, logger *slog.Logger, m *metrics.PreferenceMetrics, group, consumer string, batchSize, retryCount int, backoff time.Duration) *SyncPreferencesUseCase {
	return &SyncPreferencesUseCase{
		changelog:  changelog,
		snapshots:  snapshots,
		logger:     logger.With("component", "preference_syncer"),
		metrics:    m,
		group:      group,
		consumer:   consumer,
		batchSize:  batchSize,
		retryCount: retryCount,
		backoff:    backoff,
	}
}

// ProcessBatch reads a batch of change events, collapses them to the newest
// record per (tenant, user), upserts the snapshots with bounded retry, and
// acknowledges the events only after the sink write succeeded.
func (uc *SyncPreferencesUseCase) ProcessBatch(ctx context.Context) (int, error) {
	changes, err := uc.changelog.ReadBatch(ctx, uc.group, uc.consumer, uc.batchSize)
	if err != nil {
		uc.logger.Error("failed to read change batch", "error", err)
		return 0, err
	}

	if len(changes) == 0 {
		return 0, nil
	}

	uc.logger.Debug("read change batch", "count", len(changes))

	// Later events in the batch supersede earlier ones for the same user;
	// the upsert is idempotent so redelivery after a failed ack is safe.
	latest := make(map[string]domain.UserPreference)
	order := make([]string, 0, len(changes))
	for _, change := range changes {
		key := change.TenantID.String() + "/" + change.UserID.String()
		if _, seen := latest[key]; !seen {
			order = append(order, key)
		}
		latest[key] = change.Preference
	}

	prefs := make([]domain.UserPreference, 0, len(order))
	for _, key := range order {
		prefs = append(prefs, latest[key])
	}

	if err := uc.upsertWithRetry(ctx, prefs); err != nil {
		uc.logger.Error("failed to persist snapshots after retries, batch will be redelivered", "error", err)
		return 0, err
	}

	messageIDs := make([]string, len(changes))
	for i, change := range changes {
		messageIDs[i] = change.StreamMessageID
	}
	if err := uc.changelog.Acknowledge(ctx, uc.group, messageIDs...); err != nil {
		uc.logger.Error("failed to acknowledge change events", "error", err)
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.SnapshotsSyncedTotal.Add(float64(len(prefs)))
	}
	uc.logger.Info("synced preference snapshots", "events", len(changes), "snapshots", len(prefs))
	return len(changes), nil
}

// ReconcileJournal replays the audit journal into the snapshot store and
// truncates it afterwards. Run at startup, it catches up on mutations whose
// stream events were lost before the feed consumer saw them. The journal is
// only truncated after the sink write succeeded.
func (uc *SyncPreferencesUseCase) ReconcileJournal(ctx context.Context, journal domain.AuditRepository) error {
	latest := make(map[string]domain.UserPreference)
	var order []string
	err := journal.Replay(ctx, func(change domain.PreferenceChange) error {
		key := change.TenantID.String() + "/" + change.UserID.String()
		if _, seen := latest[key]; !seen {
			order = append(order, key)
		}
		latest[key] = change.Preference
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replay audit journal: %w", err)
	}

	if len(order) == 0 {
		return nil
	}

	prefs := make([]domain.UserPreference, 0, len(order))
	for _, key := range order {
		prefs = append(prefs, latest[key])
	}

	if err := uc.upsertWithRetry(ctx, prefs); err != nil {
		return fmt.Errorf("failed to persist replayed snapshots: %w", err)
	}
	if err := journal.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate audit journal after export: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.SnapshotsSyncedTotal.Add(float64(len(prefs)))
	}
	uc.logger.Info("reconciled audit journal into snapshot store", "snapshots", len(prefs))
	return nil
}

func (uc *SyncPreferencesUseCase) upsertWithRetry(ctx context.Context, prefs []domain.UserPreference) error {
	var lastErr error
	for i := 0; i < uc.retryCount; i++ {
		err := uc.snapshots.UpsertBatch(ctx, prefs)
		if err == nil {
			return nil
		}
		lastErr = err
		uc.logger.Warn("snapshot upsert failed, retrying", "attempt", i+1, "error", err)
		select {
		case <-time.After(uc.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
