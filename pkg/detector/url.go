package detector

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	urlDateYMD = regexp.MustCompile(`/(\d{4})/(\d{1,2})/(\d{1,2})/`)
	urlDateMDY = regexp.MustCompile(`/(\d{1,2})/(\d{1,2})/(\d{4})/`)
)

// TopHost returns the last two labels of the URL's host, e.g. youtube.com
// for www.youtube.com.
func TopHost(rawURL string) string {
	u, err := parseLoose(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.ToLower(u.Hostname()), ".")
	if len(parts) < 2 {
		return parts[0]
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// Basename returns the last path segment of the URL, ignoring the query.
func Basename(rawURL string) string {
	u, err := parseLoose(rawURL)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Path, "/") {
		return ""
	}
	return path.Base(u.Path)
}

// URLDate extracts a /yyyy/mm/dd/ or /mm/dd/yyyy/ date from the URL path.
// A month above 12 is taken as a swapped day.
func URLDate(rawURL string) (time.Time, bool) {
	u, err := parseLoose(rawURL)
	if err != nil {
		return time.Time{}, false
	}

	var year, month, day string
	if m := urlDateYMD.FindStringSubmatch(u.Path); m != nil {
		year, month, day = m[1], m[2], m[3]
	} else if m := urlDateMDY.FindStringSubmatch(u.Path); m != nil {
		month, day, year = m[1], m[2], m[3]
	} else {
		return time.Time{}, false
	}

	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if mo > 12 {
		mo, d = d, mo
	}
	if mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// Absolutize resolves ref against base. Unparseable refs are returned unchanged.
func Absolutize(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil || ref == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

func parseLoose(rawURL string) (*url.URL, error) {
	if !strings.HasPrefix(rawURL, "http") && !strings.HasPrefix(rawURL, "//") {
		rawURL = "http://" + rawURL
	}
	return url.Parse(rawURL)
}
