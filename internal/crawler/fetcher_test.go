package crawler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// TestHTTPFetcher tests fetching over HTTP.
func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("sends configured headers", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><title>ok</title></html>"))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(
			WithCookie("age_verified=1"),
			WithHeaders(map[string]string{"X-Test": "yes"}),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != "<html><title>ok</title></html>" {
			t.Errorf("unexpected body %q", body)
		}
		got := <-headers
		if gotUA := got.Get("User-Agent"); gotUA != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", gotUA)
		}
		if gotCookie := got.Get("Cookie"); gotCookie != "age_verified=1" {
			t.Errorf("expected cookie, got %q", gotCookie)
		}
		if gotCustom := got.Get("X-Test"); gotCustom != "yes" {
			t.Errorf("expected custom header, got %q", gotCustom)
		}
	})

	t.Run("non-success status is a FetchError", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		f, err := NewHTTPFetcher(WithRetries(0, time.Millisecond))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = f.Fetch(context.Background(), server.URL+"/missing")
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if fe.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", fe.StatusCode)
		}
		if fe.URL != server.URL+"/missing" {
			t.Errorf("unexpected url %q", fe.URL)
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("finally"))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(WithRetries(2, time.Millisecond))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != "finally" {
			t.Errorf("unexpected body %q", body)
		}
		if n := hits.Load(); n != 3 {
			t.Errorf("expected 3 requests, got %d", n)
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(WithRetries(3, time.Millisecond))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.Fetch(context.Background(), server.URL); err == nil {
			t.Fatal("expected error")
		}
		if n := hits.Load(); n != 1 {
			t.Errorf("expected a single request, got %d", n)
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("caf\xe9"))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != "café" {
			t.Errorf("expected decoded body, got %q", body)
		}
	})

	t.Run("truncates large bodies", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("hello world"))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(WithMaxBodySize(5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != "hello" {
			t.Errorf("expected truncated body, got %q", body)
		}
	})

	t.Run("stops reading at the size limit", func(t *testing.T) {
		t.Parallel()

		var written atomic.Int64
		chunk := make([]byte, 4096)
		for i := range chunk {
			chunk[i] = 'a'
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			// An endless body; only a closed connection ends it.
			for written.Load() < 1<<30 {
				if r.Context().Err() != nil {
					return
				}
				n, err := w.Write(chunk)
				written.Add(int64(n))
				if err != nil {
					return
				}
			}
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(WithMaxBodySize(1024), WithTimeout(5*time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(body) != 1024 {
			t.Errorf("expected 1024 bytes, got %d", len(body))
		}
		if n := written.Load(); n >= 1<<30 {
			t.Errorf("expected the fetch to stop reading early, server wrote %d bytes", n)
		}
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		t.Parallel()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err = f.Fetch(context.Background(), "ftp://example.com/list")
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("late"))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = f.Fetch(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPFetcher(WithProxy("localhost"))
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("valid proxy address", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHTTPFetcher(WithProxy("127.0.0.1:9050")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestFileFetcher tests reading saved pages.
func TestFileFetcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("<p>saved</p>"), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	tests := []struct {
		name    string
		fetcher FileFetcher
		address string
	}{
		{name: "absolute path", address: path},
		{name: "file url", address: "file://" + path},
		{name: "relative to root", fetcher: FileFetcher{Root: dir}, address: "page.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, err := tt.fetcher.Fetch(context.Background(), tt.address)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if body != "<p>saved</p>" {
				t.Errorf("unexpected body %q", body)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := FileFetcher{}.Fetch(context.Background(), filepath.Join(dir, "nope.html"))
		var fe *FetchError
		if !errors.As(err, &fe) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected FetchError wrapping ErrNotExist, got %v", err)
		}
	})
}

// TestFetchErrorTimeout tests timeout classification.
func TestFetchErrorTimeout(t *testing.T) {
	t.Parallel()

	if !(&FetchError{Err: context.DeadlineExceeded}).Timeout() {
		t.Error("expected deadline to be a timeout")
	}
	if (&FetchError{StatusCode: 500}).Timeout() {
		t.Error("expected status error not to be a timeout")
	}
}

// TestCheckProxy tests proxy reachability checks.
func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("listening proxy", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		if err := CheckProxy(context.Background(), ln.Addr().String()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid address", func(t *testing.T) {
		t.Parallel()

		if err := CheckProxy(context.Background(), "no-port"); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Parallel()

		if isValidProxyAddress("127.0.0.1:70000") {
			t.Error("expected port 70000 to be rejected")
		}
	})
}
