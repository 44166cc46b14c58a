package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type seen struct {
	Path          string `json:"path"`
	Query         string `json:"query"`
	Host          string `json:"host"`
	Authorization string `json:"authorization"`
	RequestID     string `json:"request_id"`
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "https://api.example")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(seen{
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Host:          r.Host,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(RequestIDHeader),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProxy(t *testing.T, target string, reg *prometheus.Registry) *httptest.Server {
	t.Helper()
	h, err := New(Options{Target: target, Token: "secret", Registry: reg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestForwardsWithToken(t *testing.T) {
	upstream := newUpstream(t)
	p := newProxy(t, upstream.URL+"/api/v2", nil)

	req, _ := http.NewRequest(http.MethodGet, p.URL+"/files/abc?limit=5", nil)
	req.Header.Set("Authorization", "Bearer from-browser")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var got seen
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Path != "/api/v2/files/abc" {
		t.Errorf("path = %q", got.Path)
	}
	if got.Query != "limit=5" {
		t.Errorf("query = %q", got.Query)
	}
	if got.Authorization != "Bearer secret" {
		t.Errorf("authorization = %q", got.Authorization)
	}
	if got.Host != strings.TrimPrefix(upstream.URL, "http://") {
		t.Errorf("host = %q, want upstream host", got.Host)
	}

	id := resp.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("request id %q is not a UUID", id)
	}
	if got.RequestID != id {
		t.Errorf("upstream saw request id %q, client got %q", got.RequestID, id)
	}
}

func TestKeepsIncomingRequestID(t *testing.T) {
	upstream := newUpstream(t)
	p := newProxy(t, upstream.URL, nil)

	req, _ := http.NewRequest(http.MethodGet, p.URL+"/fields", nil)
	req.Header.Set(RequestIDHeader, "trace-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "trace-1" {
		t.Errorf("request id = %q", got)
	}
}

func TestCORS(t *testing.T) {
	upstream := newUpstream(t)
	p := newProxy(t, upstream.URL, nil)

	t.Run("preflight", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, p.URL+"/files", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("status = %d", resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") == "" {
			t.Error("missing Access-Control-Allow-Origin")
		}
	})

	t.Run("simple request", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, p.URL+"/files", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if got := resp.Header.Values("Access-Control-Allow-Origin"); len(got) != 1 {
			t.Errorf("Access-Control-Allow-Origin = %v, want exactly one", got)
		}
	})
}

func TestMetrics(t *testing.T) {
	upstream := newUpstream(t)
	reg := prometheus.NewRegistry()
	p := newProxy(t, upstream.URL, reg)

	for range 3 {
		resp, err := http.Get(p.URL + "/fields")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(p.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	if !strings.Contains(out, `docai_proxy_requests_total{code="200",method="get"} 3`) {
		t.Errorf("requests counter missing from:\n%s", out)
	}
	if !strings.Contains(out, "docai_proxy_request_duration_seconds_count") {
		t.Errorf("duration histogram missing from:\n%s", out)
	}
}

func TestUpstreamDown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	p := newProxy(t, "http://"+addr, nil)
	resp, err := http.Get(p.URL + "/files")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no scheme", Options{Target: "localhost:4000", Token: "t"}},
		{"bad url", Options{Target: "http://[::1", Token: "t"}},
		{"no token", Options{Target: "http://localhost:4000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
