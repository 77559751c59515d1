package httpclient

import (
	"context"
	"net/http"

	"github.com/talenthub/prefhub/internal/adapter/metrics"
)

// CredentialSource supplies the current bearer credential for outgoing
// requests. The boolean is false when no credential is available
// (unauthenticated), in which case requests are forwarded unmodified.
type CredentialSource interface {
	Token(ctx context.Context) (string, bool)
}

// StaticCredential is a CredentialSource for a fixed service token. The empty
// string means no credential.
type StaticCredential string

func (c StaticCredential) Token(ctx context.Context) (string, bool) {
	if c == "" {
		return "", false
	}
	return string(c), true
}

// BearerTransport is an http.RoundTripper that attaches a bearer credential
// to outgoing requests lacking one. Each request is evaluated independently:
// if no credential is available, or the request already carries an
// Authorization header, it is forwarded byte-for-byte unchanged; otherwise a
// clone with exactly one added Authorization header is forwarded.
type BearerTransport struct {
	Source CredentialSource

	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper

	// Metrics is optional.
	Metrics *metrics.PreferenceMetrics
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		return t.base().RoundTrip(req)
	}

	credential, ok := t.Source.Token(req.Context())
	if !ok {
		return t.base().RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+credential)

	if t.Metrics != nil {
		t.Metrics.TokensInjectedTotal.Inc()
	}
	return t.base().RoundTrip(clone)
}

func (t *BearerTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
