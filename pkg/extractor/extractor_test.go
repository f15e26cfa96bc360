package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/readembed/models"
	"github.com/dtnitsch/readembed/pkg/db"
	"github.com/dtnitsch/readembed/pkg/pipeline"
)

const articleHTML = `<html><head>
<title>Harbour Pier Reopens | Example News</title>
<meta property="og:image" content="/lead.png">
<script type="application/ld+json">{"@type":"NewsArticle","headline":"Harbour Pier Reopens",
"author":{"@type":"Person","name":"Jane Roe"},"datePublished":"2024-05-01T10:00:00Z"}</script>
</head><body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Harbour Pier Reopens</h1>
%s
<img src="/icon.png">
</article>
</body></html>`

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()
	var body strings.Builder
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&body, "<p>The harbour pier reopened on Saturday after months of repairs, paragraph %d. "+
			"Fishermen returned to their moorings while visitors walked the new boards. "+
			"The council said the final cost was higher than planned.</p>\n", i)
	}
	page := fmt.Sprintf(articleHTML, body.String())
	lead := encodePNG(t, 800, 600)
	icon := encodePNG(t, 50, 50)

	mux := http.NewServeMux()
	mux.HandleFunc("/news/pier", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/lead.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(lead)
	})
	mux.HandleFunc("/icon.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(icon)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newExtractor(t *testing.T, cfg models.Config) *Extractor {
	t.Helper()
	e, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestExtractArticle(t *testing.T) {
	srv := newsServer(t)
	e := newExtractor(t, models.DefaultConfig())

	out := e.Extract(context.Background(), srv.URL+"/news/pier", models.ExtractOptions{Timeout: 5 * time.Second})

	if out["success"] != true {
		t.Fatalf("success = %v", out["success"])
	}
	if out["url"] != srv.URL+"/news/pier" {
		t.Errorf("url = %v", out["url"])
	}
	if out["title"] != "Harbour Pier Reopens" {
		t.Errorf("title = %v", out["title"])
	}
	if got, _ := out["authors"].([]string); !reflect.DeepEqual(got, []string{"Jane Roe"}) {
		t.Errorf("authors = %v", out["authors"])
	}
	if got, _ := out["published_at"].(time.Time); !got.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("published_at = %v", out["published_at"])
	}
	if out["primary_image"] != srv.URL+"/lead.png" {
		t.Errorf("primary_image = %v", out["primary_image"])
	}
	content, _ := out["content"].(string)
	if !strings.Contains(content, "Fishermen returned") || strings.Contains(content, "<h1>") {
		t.Errorf("content = %q", content)
	}
	if summary, _ := out["summary"].(string); !strings.Contains(summary, "harbour pier reopened") {
		t.Errorf("summary = %q", summary)
	}
	for name := range out {
		if strings.HasPrefix(name, "_") {
			t.Errorf("private field %q leaked into the external map", name)
		}
	}
}

func TestExtractNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	e := newExtractor(t, models.DefaultConfig())

	out := e.Extract(context.Background(), srv.URL+"/gone", models.ExtractOptions{})
	if out["success"] != false {
		t.Errorf("success = %v, want false", out["success"])
	}
	if out["canonical_url"] != srv.URL+"/gone" {
		t.Errorf("canonical_url = %v", out["canonical_url"])
	}
	if out["title"] != nil || out["content"] != nil {
		t.Errorf("title = %v, content = %v; want defaults", out["title"], out["content"])
	}
}

func TestExtractFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL + "/a"
	srv.Close()

	run := newExtractor(t, models.DefaultConfig()).ExtractResult(context.Background(), target, models.ExtractOptions{})
	if run.State != pipeline.ShortCircuited {
		t.Errorf("State = %v, want short_circuited", run.State)
	}
	if run.Result.GetBool("success") || run.Page.Doc != nil {
		t.Error("a failed fetch should yield an unsuccessful result with no document")
	}
}

func TestExtractUsesProbeCache(t *testing.T) {
	srv := newsServer(t)
	cfg := models.DefaultConfig()
	cfg.ProbeCache = filepath.Join(t.TempDir(), "probe.db")
	cfg.CacheDir = filepath.Join(t.TempDir(), "responses")
	e := newExtractor(t, cfg)

	run := e.ExtractResult(context.Background(), srv.URL+"/news/pier", models.ExtractOptions{Debug: true})
	if run.State != pipeline.Completed {
		t.Fatalf("State = %v, want completed", run.State)
	}
	if len(run.Executed) == 0 || run.Executed[len(run.Executed)-1] != "date_published" {
		t.Errorf("Executed = %v", run.Executed)
	}

	store, err := db.Open(cfg.ProbeCache)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	size, ok, err := store.GetImageSize(srv.URL+"/lead.png", 0)
	if err != nil || !ok {
		t.Fatalf("GetImageSize() = %v, %v, %v", size, ok, err)
	}
	if size.Width != 800 || size.Height != 600 {
		t.Errorf("cached size = %dx%d", size.Width, size.Height)
	}
}

func TestPackageExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Just a line of plain text."))
	}))
	defer srv.Close()

	out := Extract(context.Background(), srv.URL, models.ExtractOptions{Timeout: time.Second})
	if out["success"] != true {
		t.Errorf("success = %v", out["success"])
	}
	if out["url"] != srv.URL || out["canonical_url"] != srv.URL {
		t.Errorf("url = %v, canonical_url = %v", out["url"], out["canonical_url"])
	}
}
