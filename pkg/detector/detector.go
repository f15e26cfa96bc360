// Package detector classifies fetched responses by content type and
// pulls signals out of URLs.
package detector

import (
	"mime"
	"net/http"
	"strings"
)

var feedTypes = map[string]bool{
	"text/rss":             true,
	"text/atom":            true,
	"application/rss":      true,
	"application/rss+xml":  true,
	"application/atom+xml": true,
	"text/xml":             true,
	"application/xml":      true,
}

var javascriptTypes = map[string]bool{
	"application/javascript":   true,
	"application/x-javascript": true,
	"text/javascript":          true,
	"application/ecmascript":   true,
}

var binaryTypes = map[string]bool{
	"application/octet-stream": true,
	"application/zip":          true,
	"application/gzip":         true,
	"application/msword":       true,
}

// ContentType is the media type of a response, lowercased and stripped
// of parameters.
type ContentType struct {
	MediaType string
	Charset   string
}

// Classify parses a Content-Type header value.
func Classify(header string) ContentType {
	mt, params, err := mime.ParseMediaType(header)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	}
	return ContentType{
		MediaType: strings.ToLower(mt),
		Charset:   strings.ToLower(params["charset"]),
	}
}

// Sniff classifies a response, falling back to the body when the header is empty.
func Sniff(header string, body []byte) ContentType {
	if strings.TrimSpace(header) == "" {
		return Classify(http.DetectContentType(body))
	}
	return Classify(header)
}

func (c ContentType) String() string {
	return c.MediaType
}

func (c ContentType) IsHTML() bool {
	return c.MediaType == "text/html" || c.MediaType == "application/xhtml+xml"
}

func (c ContentType) IsText() bool {
	return c.MediaType == "text/plain"
}

func (c ContentType) IsFeed() bool {
	return feedTypes[c.MediaType]
}

func (c ContentType) IsImage() bool {
	return strings.HasPrefix(c.MediaType, "image/")
}

func (c ContentType) IsPDF() bool {
	return c.MediaType == "application/pdf"
}

func (c ContentType) IsJSON() bool {
	return c.MediaType == "application/json" || strings.HasSuffix(c.MediaType, "+json")
}

func (c ContentType) IsJavaScript() bool {
	return javascriptTypes[c.MediaType]
}

// IsBinary reports whether the body should be kept as raw bytes rather
// than decoded to text.
func (c ContentType) IsBinary() bool {
	switch {
	case c.IsImage() && c.MediaType != "image/svg+xml", c.IsPDF(), binaryTypes[c.MediaType]:
		return true
	}
	for _, prefix := range []string{"audio/", "video/", "font/"} {
		if strings.HasPrefix(c.MediaType, prefix) {
			return true
		}
	}
	return false
}
