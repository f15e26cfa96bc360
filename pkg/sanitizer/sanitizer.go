// Package sanitizer reduces an HTML fragment to a whitelisted content tree.
package sanitizer

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// maxPasses bounds how often pruning is repeated while output keeps changing.
const maxPasses = 5

var allowedTags = map[string]bool{
	"article": true, "object": true, "iframe": true, "img": true, "video": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"p": true, "span": true, "div": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"a": true, "i": true, "b": true, "em": true, "strong": true,
	"code": true, "pre": true, "blockquote": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true, "th": true, "td": true,
	"caption": true, "col": true, "colgroup": true,
}

// allowedAttrs lists the attributes kept per tag. Tags missing here keep none.
var allowedAttrs = map[string]map[string]bool{
	"a":   {"href": true},
	"img": {"src": true},
}

var keepAllAttrs = map[string]bool{
	"iframe": true,
	"video":  true,
}

var boilerplatePrefixes = []string{
	"advertisement",
	"photo by",
	"continue reading",
	"read more",
	"subscribe",
	"sign up",
}

var classBlacklist = []string{
	"caption",
	"newsletter",
	"signup",
	"sign-up",
	"subscribe",
	"advert",
	"promo",
	"share-bar",
}

var shareTargets = []string{
	"facebook.com/sharer",
	"facebook.com/share.php",
	"twitter.com/intent",
	"twitter.com/share",
	"x.com/intent",
	"pinterest.com/pin/create",
	"linkedin.com/sharearticle",
	"linkedin.com/share",
	"reddit.com/submit",
	"api.whatsapp.com/send",
	"plus.google.com/share",
}

var whitespace = regexp.MustCompile(`[ \t\n\r\f]+`)

// Sanitize returns the virtuous part of fragment. Unparseable input
// yields "". Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(fragment string) string {
	current := Tidy(fragment)
	for i := 0; i < maxPasses; i++ {
		next := prune(current)
		if next == current {
			break
		}
		current = next
	}
	return current
}

// Tidy parses fragment, collapses whitespace outside <pre> and renders it
// back. Tidy is idempotent.
func Tidy(fragment string) string {
	body := parseBody(fragment)
	if body == nil {
		return ""
	}
	collapse(body, false)
	return render(body)
}

func parseBody(fragment string) *html.Node {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	return findBody(doc)
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func collapse(n *html.Node, inPre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if !inPre {
				c.Data = whitespace.ReplaceAllString(c.Data, " ")
			}
		case html.ElementNode:
			collapse(c, inPre || c.Data == "pre" || c.Data == "textarea")
		}
	}
}

func render(body *html.Node) string {
	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return strings.TrimSpace(b.String())
}

// prune runs one classify-then-remove pass over the fragment.
func prune(fragment string) string {
	body := parseBody(fragment)
	if body == nil {
		return ""
	}

	nodes := snapshot(body)
	removed := make([]bool, len(nodes))
	for i, n := range nodes {
		if n.parent >= 0 && removed[n.parent] {
			removed[i] = true
			continue
		}
		removed[i] = !virtuous(n)
	}

	for i, n := range nodes {
		switch {
		case removed[i] && (n.parent < 0 || !removed[n.parent]):
			n.ref.Parent.RemoveChild(n.ref)
		case !removed[i] && n.kind == html.ElementNode:
			n.ref.Attr = filterAttrs(n.tag, n.ref.Attr)
		}
	}

	collapse(body, false)
	return render(body)
}

func filterAttrs(tag string, attrs []html.Attribute) []html.Attribute {
	if keepAllAttrs[tag] {
		return attrs
	}
	allowed := allowedAttrs[tag]
	var kept []html.Attribute
	for _, a := range attrs {
		if a.Namespace == "" && allowed[a.Key] {
			kept = append(kept, a)
		}
	}
	return kept
}

// virtuous decides whether a node survives, from its snapshot alone.
func virtuous(n node) bool {
	switch n.kind {
	case html.TextNode:
		if n.parentTag == "script" || n.parentTag == "style" {
			return false
		}
		return !boilerplate(n.text)
	case html.ElementNode:
		if !allowedTags[n.tag] || blacklistedClass(n.attr("class")) {
			return false
		}
		switch n.tag {
		case "a":
			return validAnchor(n)
		case "img":
			return validImage(n)
		}
		return true
	}
	return false
}

func boilerplate(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, p := range boilerplatePrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

func blacklistedClass(class string) bool {
	class = strings.ToLower(class)
	for _, c := range classBlacklist {
		if strings.Contains(class, c) {
			return true
		}
	}
	return false
}

func validAnchor(n node) bool {
	href, ok := n.lookup("href")
	href = strings.ToLower(strings.TrimSpace(href))
	if !ok || href == "" || href == "#" {
		return false
	}
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return false
	}
	for _, target := range shareTargets {
		if strings.Contains(href, target) {
			return false
		}
	}
	text := strings.TrimSpace(n.text)
	return text != "" && !boilerplate(text)
}

func validImage(n node) bool {
	src, ok := n.lookup("src")
	src = strings.TrimSpace(src)
	return ok && src != "" && !strings.HasPrefix(strings.ToLower(src), "data:")
}
