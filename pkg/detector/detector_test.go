package detector

import (
	"net/url"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		header                                      string
		html, text, feed, image, pdf, json, js, bin bool
	}{
		{header: "text/html; charset=UTF-8", html: true},
		{header: "TEXT/HTML", html: true},
		{header: "text/plain", text: true},
		{header: "application/rss+xml", feed: true},
		{header: "text/xml; charset=iso-8859-1", feed: true},
		{header: "image/jpeg", image: true, bin: true},
		{header: "image/svg+xml", image: true},
		{header: "application/pdf", pdf: true, bin: true},
		{header: "application/ld+json", json: true},
		{header: "text/javascript", js: true},
		{header: "video/mp4", bin: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			c := Classify(tt.header)
			checks := []struct {
				name      string
				got, want bool
			}{
				{"IsHTML", c.IsHTML(), tt.html},
				{"IsText", c.IsText(), tt.text},
				{"IsFeed", c.IsFeed(), tt.feed},
				{"IsImage", c.IsImage(), tt.image},
				{"IsPDF", c.IsPDF(), tt.pdf},
				{"IsJSON", c.IsJSON(), tt.json},
				{"IsJavaScript", c.IsJavaScript(), tt.js},
				{"IsBinary", c.IsBinary(), tt.bin},
			}
			for _, ck := range checks {
				if ck.got != ck.want {
					t.Errorf("%s() = %v, want %v", ck.name, ck.got, ck.want)
				}
			}
		})
	}
}

func TestClassifyCharset(t *testing.T) {
	if got := Classify("text/html; charset=Shift_JIS").Charset; got != "shift_jis" {
		t.Errorf("Charset = %q", got)
	}
}

func TestSniff(t *testing.T) {
	if c := Sniff("", []byte("<!DOCTYPE html><html><body>x</body></html>")); !c.IsHTML() {
		t.Errorf("Sniff() = %q, want html", c)
	}
	if c := Sniff("application/pdf", []byte("<html>")); !c.IsPDF() {
		t.Errorf("Sniff() should trust the header, got %q", c)
	}
}

func TestTopHost(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/embed/x":   "youtube.com",
		"http://player.vimeo.com/video/1":   "vimeo.com",
		"//www.youtube-nocookie.com/embed/": "youtube-nocookie.com",
		"localhost":                         "localhost",
	}
	for in, want := range tests {
		if got := TopHost(in); got != want {
			t.Errorf("TopHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBasename(t *testing.T) {
	tests := map[string]string{
		"https://cdn.example.com/img/photo.jpg?w=800": "photo.jpg",
		"https://cdn.example.com/img/photo.jpg":       "photo.jpg",
		"https://example.com/dir/":                    "",
	}
	for in, want := range tests {
		if got := Basename(in); got != want {
			t.Errorf("Basename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURLDate(t *testing.T) {
	tests := []struct {
		url    string
		want   time.Time
		wantOK bool
	}{
		{"https://example.com/2016/05/04/story-title/", time.Date(2016, 5, 4, 0, 0, 0, 0, time.UTC), true},
		{"https://example.com/news/5/4/2016/story", time.Date(2016, 5, 4, 0, 0, 0, 0, time.UTC), true},
		{"https://example.com/2016/25/04/story", time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC), true},
		{"https://example.com/2016/02/31/story", time.Time{}, false},
		{"https://example.com/story", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := URLDate(tt.url)
		if ok != tt.wantOK || !got.Equal(tt.want) {
			t.Errorf("URLDate(%q) = %v, %v; want %v, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAbsolutize(t *testing.T) {
	base, _ := url.Parse("https://example.com/news/story.html")
	tests := map[string]string{
		"/img/a.jpg":                "https://example.com/img/a.jpg",
		"b.png":                     "https://example.com/news/b.png",
		"//cdn.example.com/c.gif":   "https://cdn.example.com/c.gif",
		"https://other.org/d.webp":  "https://other.org/d.webp",
		"":                          "",
	}
	for in, want := range tests {
		if got := Absolutize(base, in); got != want {
			t.Errorf("Absolutize(%q) = %q, want %q", in, got, want)
		}
	}
}
