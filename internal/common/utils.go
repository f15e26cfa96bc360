package common

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	markdownLink = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	validHost    = regexp.MustCompile(`^[a-zA-Z0-9]([-a-zA-Z0-9.]*[a-zA-Z0-9])?$`)
)

// SanitizeURL cleans up copy-paste damage: surrounding whitespace,
// markdown link syntax, and stray punctuation at either end.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// [text](url) -> url
	if m := markdownLink.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}

	for _, char := range []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"} {
		cleaned = strings.TrimSuffix(cleaned, char)
	}
	for _, char := range []string{"(", "[", "<", "\"", "'"} {
		cleaned = strings.TrimPrefix(cleaned, char)
	}
	return strings.TrimSpace(cleaned)
}

// SanitizeAndValidateURLs returns the cleaned URLs and, separately, the
// inputs that are still not absolute http(s) URLs after cleanup.
func SanitizeAndValidateURLs(urls []string) ([]string, []string) {
	sanitized := make([]string, 0, len(urls))
	var invalid []string

	for _, rawURL := range urls {
		cleaned := SanitizeURL(rawURL)
		if !validURL(cleaned) {
			invalid = append(invalid, rawURL)
			continue
		}
		sanitized = append(sanitized, cleaned)
	}
	return sanitized, invalid
}

func validURL(s string) bool {
	// Spaces must be pre-encoded as %20
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return validHost.MatchString(u.Hostname())
}

// SplitURLs splits a comma separated flag value, dropping empty entries.
func SplitURLs(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FilterFields keeps only the requested keys of an extraction. An empty
// request keeps everything.
func FilterFields(fields map[string]any, requested string) map[string]any {
	keep := SplitURLs(requested)
	if len(keep) == 0 {
		return fields
	}
	filtered := make(map[string]any, len(keep))
	for _, name := range keep {
		if v, ok := fields[name]; ok {
			filtered[name] = v
		}
	}
	return filtered
}
