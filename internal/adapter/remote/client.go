package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/adapter/httpclient"
	"github.com/talenthub/prefhub/internal/adapter/metrics"
	"github.com/talenthub/prefhub/internal/domain"
)

// Client fetches server-side preference snapshots from the profile service.
// All outgoing requests are authenticated through the bearer transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given base URL. Metrics may be nil.
func NewClient(baseURL string, source httpclient.CredentialSource, logger *slog.Logger, m *metrics.PreferenceMetrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &httpclient.BearerTransport{Source: source, Metrics: m},
		},
		logger: logger.With("component", "remote_client"),
	}
}

// FetchPreference returns the remote snapshot for a (tenant, user) pair, or
// domain.ErrNotFound when the user has never customized anything.
func (c *Client) FetchPreference(ctx context.Context, tenantID, userID uuid.UUID) (*domain.UserPreference, error) {
	url := fmt.Sprintf("%s/api/v1/tenants/%s/users/%s/preferences", c.baseURL, tenantID, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		return nil, fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}

	var pref domain.UserPreference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &pref, nil
}
