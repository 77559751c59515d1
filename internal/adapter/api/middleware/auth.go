package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/talenthub/prefhub/internal/domain"
	"github.com/talenthub/prefhub/internal/pkg/token"
)

const bearerPrefix = "Bearer "

type identityContextKey struct{}
type bearerTokenContextKey struct{}

// WithIdentity returns a context carrying the caller's identity.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFrom extracts the identity placed in the context by Auth.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return id, ok
}

// BearerTokenFrom extracts the validated raw bearer token placed in the
// context by Auth.
func BearerTokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(bearerTokenContextKey{}).(string)
	return tok, ok
}

// ContextIdentityProvider implements domain.IdentityProvider by reading the
// identity that Auth stored in the request context.
type ContextIdentityProvider struct{}

func (ContextIdentityProvider) CurrentIdentity(ctx context.Context) (domain.Identity, bool) {
	return IdentityFrom(ctx)
}

// ContextCredential implements httpclient.CredentialSource by forwarding the
// caller's own bearer token to outgoing requests made within the request
// context.
type ContextCredential struct{}

func (ContextCredential) Token(ctx context.Context) (string, bool) {
	return BearerTokenFrom(ctx)
}

// Auth is a middleware factory that returns a new authentication middleware.
// It validates the bearer JWT and places the caller's (user, tenant) identity
// in the request context.
func Auth(jwtSecret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				logger.Warn("authorization header missing from request", "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: bearer token required", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				http.Error(w, "Unauthorized: malformed authorization header", http.StatusUnauthorized)
				return
			}

			raw := strings.TrimPrefix(header, bearerPrefix)
			claims, err := token.Validate(raw, jwtSecret)
			if err != nil {
				logger.Warn("invalid bearer token", "remote_addr", r.RemoteAddr, "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			id := domain.Identity{UserID: claims.UserID, TenantID: claims.TenantID}
			ctx := WithIdentity(r.Context(), id)
			ctx = context.WithValue(ctx, bearerTokenContextKey{}, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
