package stages

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
)

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(path, ".json"), strings.Contains(path, "/data/"):
				w.Header().Set("Content-Type", "application/json")
			default:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
			}
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOEmbedVideo(t *testing.T) {
	srv := serve(t, map[string]string{
		"/oembed.json": `{"type":"video","title":"A Talk","author_name":"JANE DOE",
			"html":"<iframe src=\"https://www.youtube.com/embed/abc\"></iframe>",
			"thumbnail_url":"https://i.ytimg.com/vi/abc/hq.jpg"}`,
	})
	page := htmlPage(t, srv.URL+"/watch",
		`<html><head><link rel="alternate" type="application/json+oembed" href="/oembed.json"></head><body></body></html>`)
	res := result.New(srv.URL + "/watch")
	enrich(t, OEmbed, page, res)

	if got := res.GetString("content"); got != `<iframe src="https://www.youtube.com/embed/abc"></iframe>` {
		t.Errorf("content = %q", got)
	}
	if conf, _ := res.ConfidenceOf("content"); conf != result.Certain {
		t.Errorf("content confidence = %d, want Certain", conf)
	}
	if !res.GetBool("embed") || res.GetString("title") != "A Talk" {
		t.Errorf("embed = %v, title = %q", res.GetBool("embed"), res.GetString("title"))
	}
	if got := res.GetStrings("authors"); !reflect.DeepEqual(got, []string{"Jane Doe"}) {
		t.Errorf("authors = %q", got)
	}
	if got := res.GetString("primary_image"); got != "https://i.ytimg.com/vi/abc/hq.jpg" {
		t.Errorf("primary_image = %q", got)
	}
}

func TestApplyOEmbedPhoto(t *testing.T) {
	res := result.New("https://example.com/p")
	applyOEmbed(map[string]any{"type": "photo", "url": "https://example.com/full.jpg", "title": "Sunset"}, res)

	if got := res.GetString("content"); got != "<img src='https://example.com/full.jpg' />" {
		t.Errorf("content = %q", got)
	}
	if conf, _ := res.ConfidenceOf("primary_image"); conf != result.Certain {
		t.Errorf("primary_image confidence = %d", conf)
	}
}

func TestApplyOEmbedPlainTextHTML(t *testing.T) {
	res := result.New("https://example.com/p")
	applyOEmbed(map[string]any{"type": "rich", "html": "just words"}, res)
	if conf, _ := res.ConfidenceOf("content"); conf != result.Guess {
		t.Errorf("content confidence = %d, want Guess for non-markup", conf)
	}
}

func TestOEmbedWithoutLink(t *testing.T) {
	page := htmlPage(t, "https://example.com/a", "<html><body><p>plain</p></body></html>")
	res := result.New("https://example.com/a")
	enrich(t, OEmbed, page, res)
	if res.Has("content") {
		t.Errorf("content = %q, want untouched", res.GetString("content"))
	}
}

func TestAMP(t *testing.T) {
	srv := serve(t, map[string]string{
		"/story/amp": `<html><body>
			<amp-img src="/img/lead.jpg" width="1200" height="800"></amp-img>
			<article><h1>Headline</h1><p>Body text of the AMP article.</p><script>track()</script></article>
			</body></html>`,
	})
	page := htmlPage(t, srv.URL+"/story",
		`<html><head><link rel="amphtml" href="/story/amp"></head><body><p>desktop</p></body></html>`)
	res := result.New(srv.URL + "/story")
	enrich(t, AMP, page, res)

	if got := res.GetStrings(images.HintField); !reflect.DeepEqual(got, []string{srv.URL + "/img/lead.jpg"}) {
		t.Errorf("candidate images = %v", got)
	}
	content := res.GetString("content")
	if !strings.Contains(content, "<p>Body text of the AMP article.</p>") || strings.Contains(content, "script") {
		t.Errorf("content = %q", content)
	}
	if conf, _ := res.ConfidenceOf("content"); conf != result.FairlySure {
		t.Errorf("content confidence = %d", conf)
	}
}

func TestAMPFetchFailure(t *testing.T) {
	srv := serve(t, map[string]string{})
	page := htmlPage(t, srv.URL+"/story",
		`<html><head><link rel="amphtml" href="/missing"></head><body></body></html>`)
	res := result.New(srv.URL + "/story")
	enrich(t, AMP, page, res)
	if res.Has("content") || res.Contains(images.HintField) {
		t.Error("a failed AMP fetch should leave the result alone")
	}
}

func TestCustomFortune(t *testing.T) {
	srv := serve(t, map[string]string{
		"/data/articles/42/1/": `{"articles":[
			{"id":7,"short_title":"Wrong"},
			{"id":42,"short_title":"Right Title","content":"<p>Article body</p>",
			 "excerpt":"<p>Short <b>excerpt</b></p>",
			 "featured_image":{"src":"https://fortune.example/lead.jpg"},
			 "authors":[{"name":"ANN EXAMPLE"},{"name":"Bo Roe"}],
			 "tags":{"b":{"name":"Markets"},"a":{"name":"Tech"}},
			 "time":{"published":"2024-02-03T04:05:06Z"}}]}`,
	})
	overrides := []Override{
		NewOverride(`^https?://nomatch\.example/`, func(*pipeline.Page) pipeline.Stage { t.Fatal("wrong override"); return nil }),
		NewOverride("^"+srv.URL+"/", Fortune(srv.URL+"/data/articles/")),
	}
	page := htmlPage(t, srv.URL+"/2024/02/03/story/", `<html><body class="post postid-42 single"><p>x</p></body></html>`)
	res := result.New(page.Href())
	enrich(t, Custom(overrides), page, res)

	checks := map[string]any{
		"title":         "Right Title",
		"content":       "<p>Article body</p>",
		"summary":       "Short excerpt",
		"primary_image": "https://fortune.example/lead.jpg",
		"embed":         false,
	}
	for field, want := range checks {
		if got := res.Get(field); got != want {
			t.Errorf("%s = %#v, want %#v", field, got, want)
		}
		if conf, _ := res.ConfidenceOf(field); conf != result.Certain {
			t.Errorf("%s confidence = %d, want Certain", field, conf)
		}
	}
	if got := res.GetStrings("authors"); !reflect.DeepEqual(got, []string{"Ann Example", "Bo Roe"}) {
		t.Errorf("authors = %q", got)
	}
	if got := res.GetStrings("keywords"); !reflect.DeepEqual(got, []string{"Tech", "Markets"}) {
		t.Errorf("keywords = %q", got)
	}
	if got, _ := res.GetTime("published_at"); !got.Equal(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)) {
		t.Errorf("published_at = %v", got)
	}
}

func TestCustomNoMatch(t *testing.T) {
	called := false
	overrides := []Override{NewOverride(`^https://elsewhere\.example/`, func(*pipeline.Page) pipeline.Stage {
		called = true
		return nil
	})}
	page := htmlPage(t, "https://example.com/a", "<html><body></body></html>")
	enrich(t, Custom(overrides), page, result.New("https://example.com/a"))
	if called {
		t.Error("override should not run for a non-matching URL")
	}
}

func TestDefaultOverridesMatchFortune(t *testing.T) {
	for _, u := range []string{"https://fortune.com/2024/01/01/x/", "http://www.fortune.com/"} {
		matched := false
		for _, o := range DefaultOverrides() {
			matched = matched || o.Pattern.MatchString(u)
		}
		if !matched {
			t.Errorf("%s not routed to an override", u)
		}
	}
}
