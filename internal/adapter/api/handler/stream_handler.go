package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/adapter/api/middleware"
	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/domain"
)

// streamClient is one connected subscriber. Each client only receives the
// resolved records of its own (tenant, user) pair.
type streamClient struct {
	tenantID uuid.UUID
	userID   uuid.UUID
	messages chan []byte
}

// PreferenceStreamBroker manages SSE subscribers and pushes the freshly
// resolved effective preference to them after every mutation. It implements
// usecase.ChangeNotifier.
type PreferenceStreamBroker struct {
	logger  *slog.Logger
	metrics *metrics.PreferenceMetrics

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

func NewPreferenceStreamBroker(logger *slog.Logger, m *metrics.PreferenceMetrics) *PreferenceStreamBroker {
	return &PreferenceStreamBroker{
		logger:  logger.With("component", "preference_stream"),
		metrics: m,
		clients: make(map[*streamClient]struct{}),
	}
}

// NotifyChange broadcasts a resolved record to the subscribers of the matching
// (tenant, user) pair. Slow clients are skipped rather than blocking the
// mutation path.
func (b *PreferenceStreamBroker) NotifyChange(pref domain.EffectivePreference) {
	data, err := json.Marshal(pref)
	if err != nil {
		b.logger.Error("failed to marshal effective preference for stream", "error", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		if client.tenantID != pref.TenantID || client.userID != pref.UserID {
			continue
		}
		select {
		case client.messages <- data:
		default:
			// Client channel is full; don't block the broadcast for one
			// slow client.
		}
	}
}

// ServeHTTP handles GET /api/v1/preferences/stream.
func (b *PreferenceStreamBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &streamClient{
		tenantID: id.TenantID,
		userID:   id.UserID,
		messages: make(chan []byte, 8),
	}
	b.addClient(client)
	defer b.removeClient(client)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.messages:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (b *PreferenceStreamBroker) addClient(client *streamClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	if b.metrics != nil {
		b.metrics.StreamClients.Inc()
	}
	b.logger.Info("preference stream client connected", "tenant_id", client.tenantID, "user_id", client.userID)
}

func (b *PreferenceStreamBroker) removeClient(client *streamClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.messages)
		if b.metrics != nil {
			b.metrics.StreamClients.Dec()
		}
		b.logger.Info("preference stream client disconnected", "tenant_id", client.tenantID, "user_id", client.userID)
	}
}
