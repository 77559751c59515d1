package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/talenthub/prefhub/internal/domain"
)

const (
	segmentPrefix = "segment-"
	filePerm      = 0644
)

// AuditRepository is a file-based, append-only journal of preference
// mutations. Segments rotate at a size threshold and the journal as a whole
// is bounded; Replay and Truncate support periodic export of the trail.
type AuditRepository struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	mu             sync.Mutex
	currentSegment *os.File
	currentSize    int64
}

// NewAuditRepository creates an AuditRepository rooted at dir.
func NewAuditRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*AuditRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory %s: %w", dir, err)
	}

	a := &AuditRepository{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "audit_repository"),
	}

	if err := a.openLatestSegment(); err != nil {
		return nil, err
	}

	return a, nil
}

// Append records a change in the current journal segment.
func (a *AuditRepository) Append(ctx context.Context, change domain.PreferenceChange) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal preference change for audit: %w", err)
	}
	data = append(data, '\n')

	if a.currentSegment == nil {
		if err := a.rotate(); err != nil {
			return err
		}
	}

	totalSize, err := a.totalSize()
	if err != nil {
		return fmt.Errorf("could not verify audit disk space: %w", err)
	}
	if totalSize+int64(len(data)) > a.maxTotalSize {
		return fmt.Errorf("audit journal max total size exceeded (%d > %d)", totalSize, a.maxTotalSize)
	}

	n, err := a.currentSegment.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write to audit segment: %w", err)
	}
	a.currentSize += int64(n)

	if a.currentSize >= a.maxSegmentSize {
		if err := a.rotate(); err != nil {
			a.logger.Error("failed to rotate audit segment", "error", err)
		}
	}

	return nil
}

// Replay reads every journal segment in order and passes each change to the
// handler.
func (a *AuditRepository) Replay(ctx context.Context, handler func(change domain.PreferenceChange) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentSegment != nil {
		a.currentSegment.Close()
		a.currentSegment = nil
	}

	segments, err := a.sortedSegments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return nil
	}

	for _, segmentPath := range segments {
		file, err := os.Open(segmentPath)
		if err != nil {
			return fmt.Errorf("failed to open segment %s for replay: %w", segmentPath, err)
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			if ctx.Err() != nil {
				file.Close()
				return ctx.Err()
			}
			var change domain.PreferenceChange
			if err := json.Unmarshal(scanner.Bytes(), &change); err != nil {
				a.logger.Warn("failed to unmarshal audit entry, skipping", "error", err)
				continue
			}
			if err := handler(change); err != nil {
				file.Close()
				return fmt.Errorf("replay handler failed: %w", err)
			}
		}
		if err := scanner.Err(); err != nil {
			file.Close()
			return fmt.Errorf("error scanning segment %s: %w", segmentPath, err)
		}
		file.Close()
	}

	return nil
}

// Truncate removes all journal segments and opens a fresh one.
func (a *AuditRepository) Truncate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentSegment != nil {
		a.currentSegment.Close()
		a.currentSegment = nil
	}

	segments, err := a.sortedSegments()
	if err != nil {
		return err
	}
	for _, segmentPath := range segments {
		if err := os.Remove(segmentPath); err != nil {
			a.logger.Error("failed to remove audit segment", "path", segmentPath, "error", err)
		}
	}

	return a.openLatestSegment()
}

// Close closes the current segment gracefully.
func (a *AuditRepository) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentSegment != nil {
		return a.currentSegment.Close()
	}
	return nil
}

func (a *AuditRepository) rotate() error {
	if a.currentSegment != nil {
		if err := a.currentSegment.Sync(); err != nil {
			a.logger.Error("failed to sync audit segment before rotating", "error", err)
		}
		if err := a.currentSegment.Close(); err != nil {
			a.logger.Error("failed to close audit segment before rotating", "error", err)
		}
		a.currentSegment = nil
	}

	segmentName := fmt.Sprintf("%s%d.log", segmentPrefix, time.Now().UnixNano())
	path := filepath.Join(a.dir, segmentName)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create audit segment %s: %w", path, err)
	}

	a.currentSegment = f
	a.currentSize = 0
	return nil
}

func (a *AuditRepository) openLatestSegment() error {
	segments, err := a.sortedSegments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return a.rotate()
	}

	latest := segments[len(segments)-1]
	stat, err := os.Stat(latest)
	if err != nil {
		return fmt.Errorf("failed to stat latest segment %s: %w", latest, err)
	}

	f, err := os.OpenFile(latest, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open latest segment %s: %w", latest, err)
	}

	a.currentSegment = f
	a.currentSize = stat.Size()

	if a.currentSize >= a.maxSegmentSize {
		return a.rotate()
	}
	return nil
}

func (a *AuditRepository) sortedSegments() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) {
			segments = append(segments, filepath.Join(a.dir, entry.Name()))
		}
	}
	sort.Strings(segments)
	return segments, nil
}

func (a *AuditRepository) totalSize() (int64, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) {
			info, err := entry.Info()
			if err != nil {
				return 0, err
			}
			total += info.Size()
		}
	}
	return total, nil
}
