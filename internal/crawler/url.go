package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

// normalizeURL produces the visited-set key for a URL: fragment removed,
// scheme and host lowercased, and an empty path replaced by "/" so that
// http://example.com and http://example.com/ are the same entry.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// isSameHost reports whether targetURL is on baseHost (host and port,
// case-insensitive).
func isSameHost(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, baseHost)
}

// unsafeFileChars matches characters not allowed in file names on common
// filesystems.
var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeFileName replaces characters that are unsafe in file names.
func sanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}
