package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestDoEncodesPayloadAndQuery(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", nil, time.Second)
	resp, err := client.Do(context.Background(), http.MethodPost, "/v2/nodes", url.Values{"a": {"1"}}, map[string]string{"profile_url": "x"})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !resp.OK() || resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if gotMethod != http.MethodPost || gotPath != "/v2/nodes" || gotQuery != "a=1" {
		t.Fatalf("unexpected request %s %s?%s", gotMethod, gotPath, gotQuery)
	}
	if gotType != "application/json" || gotBody != `{"profile_url":"x"}` {
		t.Fatalf("unexpected body %q (%s)", gotBody, gotType)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected response body %q", resp.Body)
	}
}

func TestDoReportsStatusWithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer server.Close()

	resp, err := New(server.URL, nil, 0).Do(context.Background(), http.MethodGet, "x", nil, nil)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.OK() || resp.StatusCode != http.StatusTeapot {
		t.Fatalf("expected teapot, got %d", resp.StatusCode)
	}
}

func TestDoWrapsTransportFailures(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	_, err := New(base, nil, time.Second).Do(context.Background(), http.MethodGet, "x", nil, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDoRequiresBaseURL(t *testing.T) {
	if _, err := New("  ", nil, 0).Do(context.Background(), http.MethodGet, "x", nil, nil); err == nil {
		t.Fatalf("expected error for missing base url")
	}
	var client *Client
	if _, err := client.Do(context.Background(), http.MethodGet, "x", nil, nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
