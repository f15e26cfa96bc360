// Package images discovers the images on a page, sizes them, and picks a
// primary image plus a few secondary ones.
package images

import (
	"container/heap"
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/readembed/pkg/detector"
	"github.com/dtnitsch/readembed/pkg/document"
	"github.com/dtnitsch/readembed/pkg/metrics"
	"github.com/dtnitsch/readembed/pkg/result"
	"golang.org/x/sync/errgroup"
)

const (
	MinWidth  = 400
	MinHeight = 40
	MaxRatio  = 3.0

	DefaultMaxCandidates = 100
	DefaultCount         = 5

	// HintField is the private result field earlier stages put image URLs in.
	HintField = "_candidate_images"
)

// Images inside these containers are page chrome, not article images.
const chromeContainers = "#sidebar, #comment, #footer, #header"

// Prober reports the pixel dimensions of a remote image.
type Prober interface {
	Size(ctx context.Context, url string) (width, height int, err error)
}

// Candidate is a discovered image URL. Social is set when the URL was
// named by an og:image or twitter:image tag.
type Candidate struct {
	URL    string
	Social bool
}

// Image is a candidate that was sized and passed the dimension checks.
type Image struct {
	URL    string
	Width  int
	Height int
	Social bool
	Score  int
	seq    int
}

type Ranker struct {
	Prober        Prober
	Logger        *slog.Logger
	MaxCandidates int
	Count         int
}

func NewRanker(p Prober, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{
		Prober:        p,
		Logger:        logger,
		MaxCandidates: DefaultMaxCandidates,
		Count:         DefaultCount,
	}
}

func (r *Ranker) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Candidates collects <img> sources outside page chrome, then the hints,
// then the social tags. Duplicates keep their first position; a URL seen
// in a social tag is marked social wherever it first appeared.
func (r *Ranker) Candidates(doc *document.Document, hints []string) []Candidate {
	var page, social []string

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(chromeContainers).Length() > 0 {
			return
		}
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		page = append(page, doc.Absolutize(src))
	})

	social = append(social, doc.ElementValues(`meta[property="og:image"][content]`, "content")...)
	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("name", s.AttrOr("property", ""))
		if strings.HasPrefix(name, "twitter:image") {
			social = append(social, strings.TrimSpace(s.AttrOr("content", "")))
		}
	})
	for i, u := range social {
		social[i] = doc.Absolutize(u)
	}

	isSocial := make(map[string]bool, len(social))
	for _, u := range social {
		isSocial[u] = true
	}

	limit := r.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}

	seen := make(map[string]bool)
	var out []Candidate
	for _, group := range [][]string{page, hints, social} {
		for _, u := range group {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			if strings.Contains(u, "pixel") {
				continue
			}
			if len(out) == limit {
				return out
			}
			out = append(out, Candidate{URL: u, Social: isSocial[u]})
		}
	}
	return out
}

// ValidDims rejects images too small to feature and banners too elongated
// in either direction.
func ValidDims(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if width < MinWidth || height < MinHeight {
		return false
	}
	w, h := float64(width), float64(height)
	return w/h < MaxRatio && h/w < MaxRatio
}

func score(url string, width, height int) int {
	if strings.Contains(strings.ToLower(url), "logo") {
		return 0
	}
	return width * height
}

// Rank sizes every candidate concurrently and returns the best Count
// valid images, highest score first. A failed probe only drops its own
// candidate. The returned error is non-nil only when ctx ended.
func (r *Ranker) Rank(ctx context.Context, candidates []Candidate) ([]Image, error) {
	if limit := r.MaxCandidates; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	sized := make([]*Image, len(candidates))
	var g errgroup.Group
	for i, c := range candidates {
		g.Go(func() error {
			w, h, err := r.Prober.Size(ctx, c.URL)
			if err != nil {
				metrics.ImageProbes.WithLabelValues(metrics.ProbeFailed).Inc()
				r.logger().Debug("Image probe failed", "url", c.URL, "error", err)
				return nil
			}
			metrics.ImageProbes.WithLabelValues(metrics.ProbeOK).Inc()
			sized[i] = &Image{URL: c.URL, Width: w, Height: h, Social: c.Social}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count := r.Count
	if count <= 0 {
		count = DefaultCount
	}
	top := &topK{limit: count}
	for i, img := range sized {
		if img == nil || !ValidDims(img.Width, img.Height) {
			continue
		}
		img.Score = score(img.URL, img.Width, img.Height)
		img.seq = i
		top.offer(*img)
	}
	return top.sorted(), nil
}

// Select picks the primary image: the best social image when one made the
// cut, otherwise the best image overall. Secondaries keep rank order and
// skip anything with the primary's file name.
func Select(ranked []Image) (primary string, secondary []string, ok bool) {
	if len(ranked) == 0 {
		return "", nil, false
	}

	pick := 0
	for i, img := range ranked {
		if img.Social {
			pick = i
			break
		}
	}
	primary = ranked[pick].URL

	base := detector.Basename(primary)
	secondary = []string{}
	for i, img := range ranked {
		if i == pick || detector.Basename(img.URL) == base {
			continue
		}
		secondary = append(secondary, img.URL)
	}
	return primary, secondary, true
}

// Apply runs discovery, ranking and selection for doc and writes the
// outcome into res. Nothing is written when no image qualifies.
func (r *Ranker) Apply(ctx context.Context, doc *document.Document, res *result.Result) error {
	ranked, err := r.Rank(ctx, r.Candidates(doc, res.GetStrings(HintField)))
	if err != nil {
		return err
	}
	primary, secondary, ok := Select(ranked)
	if !ok {
		return nil
	}
	res.Set("primary_image", primary, result.Guess)
	res.Set("secondary_images", secondary, result.Guess)
	return nil
}

// topK keeps the limit best images in a min-heap. Among equal scores the
// later image is the smaller one, so earlier images survive.
type topK struct {
	items []Image
	limit int
}

func (t *topK) Len() int { return len(t.items) }

func (t *topK) Less(i, j int) bool {
	a, b := t.items[i], t.items[j]
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.seq > b.seq
}

func (t *topK) Swap(i, j int) { t.items[i], t.items[j] = t.items[j], t.items[i] }

func (t *topK) Push(x any) { t.items = append(t.items, x.(Image)) }

func (t *topK) Pop() any {
	n := len(t.items)
	item := t.items[n-1]
	t.items = t.items[:n-1]
	return item
}

func (t *topK) offer(img Image) {
	heap.Push(t, img)
	if t.Len() > t.limit {
		heap.Pop(t)
	}
}

// sorted drains the heap, best first.
func (t *topK) sorted() []Image {
	out := make([]Image, t.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(t).(Image)
	}
	return out
}
