package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dtnitsch/readembed/pkg/caching"
)

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><body><p>caf\xe9</p></body></html>"))
	}))
	defer srv.Close()

	resp, err := NewFetcher().Fetch(context.Background(), srv.URL, time.Second, false)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d", resp.Status)
	}
	if !resp.ContentType.IsHTML() {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
	if !strings.Contains(resp.Body, "café") {
		t.Errorf("Body = %q, want decoded latin-1", resp.Body)
	}
}

func TestFetchNon200IsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	resp, err := NewFetcher().Fetch(context.Background(), srv.URL+"/missing", time.Second, false)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", resp.Status)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := NewFetcher().Fetch(context.Background(), srv.URL+"/old", time.Second, false)
	if err != nil {
		t.Fatal(err)
	}
	if resp.URL != srv.URL+"/new" {
		t.Errorf("URL = %q, want final URL", resp.URL)
	}
	if !resp.ContentType.IsText() || resp.Body != "moved" {
		t.Errorf("got %q %q", resp.ContentType, resp.Body)
	}
}

func TestFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	resp, err := NewFetcher(WithMaxBytes(1024)).Fetch(context.Background(), srv.URL, time.Second, false)
	if resp != nil || !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("Fetch() = %v, %v; want nil, ErrResponseTooLarge", resp, err)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	resp, err := NewFetcher().Fetch(context.Background(), srv.URL, 50*time.Millisecond, false)
	if resp != nil || err == nil {
		t.Errorf("Fetch() = %v, %v; want a timeout failure", resp, err)
	}
}

func TestFetchUserAgents(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.UserAgent())
	}))
	defer srv.Close()

	f := NewFetcher(WithUserAgents("desktop-agent", "mobile-agent"))
	if _, err := f.Fetch(context.Background(), srv.URL, time.Second, true); err != nil {
		t.Fatal(err)
	}
	if got.Load() != "mobile-agent" {
		t.Errorf("User-Agent = %v, want mobile-agent", got.Load())
	}
	if _, err := f.Fetch(context.Background(), srv.URL, time.Second, false); err != nil {
		t.Fatal(err)
	}
	if got.Load() != "desktop-agent" {
		t.Errorf("User-Agent = %v, want desktop-agent", got.Load())
	}
}

func TestFetchBinaryKeepsRawBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	resp, err := NewFetcher().Fetch(context.Background(), srv.URL, time.Second, false)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Body != "" || len(resp.Raw) != 4 || !resp.ContentType.IsBinary() {
		t.Errorf("binary response = body %q raw %v type %q", resp.Body, resp.Raw, resp.ContentType)
	}
}

func TestFetchCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>cached</p>"))
	}))
	defer srv.Close()

	cache, err := caching.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(WithCache(cache))
	for i := 0; i < 3; i++ {
		resp, err := f.Fetch(context.Background(), srv.URL, time.Second, false)
		if err != nil || resp.Body != "<p>cached</p>" {
			t.Fatalf("Fetch() = %v, %v", resp, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
	if _, err := f.Fetch(context.Background(), srv.URL, time.Second, true); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("mobile fetch should bypass the desktop entry, hits = %d", n)
	}
}
