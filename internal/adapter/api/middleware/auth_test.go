package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/talenthub/prefhub/internal/domain"
	"github.com/talenthub/prefhub/internal/pkg/token"
)

const testSecret = "test-secret"

func TestAuth_ValidToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.New()
	tenantID := uuid.New()

	var seen domain.Identity
	var called bool
	var forwarded string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, called = IdentityFrom(r.Context())
		forwarded, _ = ContextCredential{}.Token(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(testSecret, logger)(next)

	tok, err := token.Generate(userID, tenantID, []string{"member"}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected an identity in the request context")
	}
	if seen.UserID != userID || seen.TenantID != tenantID {
		t.Errorf("unexpected identity: %+v", seen)
	}
	if forwarded != tok {
		t.Error("expected the raw bearer token to be available for forwarding")
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Auth(testSecret, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Auth(testSecret, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run with a malformed header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Auth(testSecret, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run with an expired token")
	}))

	tok, err := token.Generate(uuid.New(), uuid.New(), nil, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Auth(testSecret, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run with a forged token")
	}))

	tok, err := token.Generate(uuid.New(), uuid.New(), nil, "another-secret", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestContextIdentityProvider(t *testing.T) {
	provider := ContextIdentityProvider{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := provider.CurrentIdentity(req.Context()); ok {
		t.Error("expected no identity on a bare context")
	}

	id := domain.Identity{UserID: uuid.New(), TenantID: uuid.New()}
	got, ok := provider.CurrentIdentity(WithIdentity(req.Context(), id))
	if !ok || got != id {
		t.Errorf("expected %+v, got %+v (ok=%v)", id, got, ok)
	}
}
