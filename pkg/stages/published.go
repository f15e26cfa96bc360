package stages

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dtnitsch/readembed/pkg/detector"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
)

// dateSources are tried in order; the first one that parses wins.
var dateSources = []struct {
	selector string
	attr     string
}{
	{`[itemprop="datePublished"]`, ""},
	{`meta[itemprop="datePublished"][content]`, "content"},
	{`meta[property="article:published_time"][content]`, "content"},
	{`meta[name="PublishDate"][content]`, "content"},
	{`meta[name="CreationDate"][content]`, "content"},
	{`time[datetime]`, "datetime"},
	{`time`, ""},
	{`meta[name="eomportal-lastUpdate"][content]`, "content"},
}

type datePublished struct {
	base
	now func() time.Time
}

// DatePublished finds the publication date in the markup, falling back to
// a date in the URL path. Dates in the future are ignored.
func DatePublished(now func() time.Time) pipeline.Factory {
	return func(p *pipeline.Page) pipeline.Stage {
		if p.Doc == nil {
			return nil
		}
		return datePublished{base{"date_published", p}, now}
	}
}

func (s datePublished) Enrich(_ context.Context, res *result.Result) error {
	now := s.now()

	for _, src := range dateSources {
		for _, value := range s.page.Doc.ElementValues(src.selector, src.attr) {
			t, ok := ParseDate(value)
			if !ok {
				continue
			}
			if t.After(now) {
				return nil
			}
			res.SetBest("published_at", t, result.FairlySure, result.TimeSpecificity)
			return nil
		}
	}

	if t, ok := detector.URLDate(s.page.Href()); ok && t.Before(now) {
		res.SetBest("published_at", t, result.Guess, result.TimeSpecificity)
	}
	return nil
}

// ParseDate parses a free-form date, dropping leading words such as
// "Published on" until the rest parses. Zone-less values are UTC.
func ParseDate(value string) (time.Time, bool) {
	fields := strings.Fields(value)
	for i := range fields {
		t, err := dateparse.ParseIn(strings.Join(fields[i:], " "), time.UTC)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
