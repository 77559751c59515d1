package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerTransport_RoundTrip(t *testing.T) {
	t.Run("Injects Credential", func(t *testing.T) {
		var got []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Values("Authorization")
		}))
		defer server.Close()

		client := &http.Client{Transport: &BearerTransport{Source: StaticCredential("abc123")}}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if len(got) != 1 {
			t.Fatalf("expected exactly one Authorization header, got %d", len(got))
		}
		if got[0] != "Bearer abc123" {
			t.Errorf("expected %q, got %q", "Bearer abc123", got[0])
		}
	})

	t.Run("Existing Header Is Preserved", func(t *testing.T) {
		var got []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Values("Authorization")
		}))
		defer server.Close()

		client := &http.Client{Transport: &BearerTransport{Source: StaticCredential("abc123")}}
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if len(got) != 1 || got[0] != "Basic dXNlcjpwYXNz" {
			t.Errorf("expected the existing header to pass through unchanged, got %v", got)
		}
	})

	t.Run("No Credential Available", func(t *testing.T) {
		var got []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Values("Authorization")
		}))
		defer server.Close()

		client := &http.Client{Transport: &BearerTransport{Source: StaticCredential("")}}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if len(got) != 0 {
			t.Errorf("expected no Authorization header, got %v", got)
		}
	})

	t.Run("Caller Request Is Not Mutated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		client := &http.Client{Transport: &BearerTransport{Source: StaticCredential("abc123")}}
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if req.Header.Get("Authorization") != "" {
			t.Error("transport must not mutate the caller's request")
		}
	})
}
