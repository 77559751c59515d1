package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talenthub/prefhub/internal/domain"
)

// ChangeLogRepository implements domain.ChangeLogRepository on a Redis
// stream. Each preference mutation is appended as a JSON payload; the syncer
// consumes it through a consumer group.
type ChangeLogRepository struct {
	client *redis.Client
	logger *slog.Logger
	stream string
}

// NewChangeLogRepository creates the repository and ensures the consumer
// group exists. An already-existing group is not an error.
func NewChangeLogRepository(client *redis.Client, logger *slog.Logger, stream, group string) (*ChangeLogRepository, error) {
	repo := &ChangeLogRepository{
		client: client,
		logger: logger.With("component", "changelog_repository"),
		stream: stream,
	}

	err := client.XGroupCreateMkStream(context.Background(), stream, group, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return repo, nil
}

// Publish appends a change event to the stream.
func (r *ChangeLogRepository) Publish(ctx context.Context, change domain.PreferenceChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal preference change: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to change stream: %w", err)
	}
	return nil
}

// ReadBatch reads up to count pending change events for a consumer. A short
// block keeps the syncer loop from busy-polling an idle stream.
func (r *ChangeLogRepository) ReadBatch(ctx context.Context, group, consumer string, count int) ([]domain.PreferenceChange, error) {
	args := &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{r.stream, ">"},
		Count:    int64(count),
		Block:    2 * time.Second,
	}

	streams, err := r.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from change stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	messages := streams[0].Messages
	changes := make([]domain.PreferenceChange, 0, len(messages))
	for _, msg := range messages {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			r.logger.Warn("invalid message format in change stream, skipping", "message_id", msg.ID)
			continue
		}

		var change domain.PreferenceChange
		if err := json.Unmarshal([]byte(payload), &change); err != nil {
			r.logger.Warn("failed to unmarshal preference change, skipping", "message_id", msg.ID, "error", err)
			continue
		}
		change.StreamMessageID = msg.ID
		changes = append(changes, change)
	}

	return changes, nil
}

// Acknowledge marks processed change events in the stream.
func (r *ChangeLogRepository) Acknowledge(ctx context.Context, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, r.stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK change events: %w", err)
	}
	return nil
}

func isBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
