package crawler

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// Kind is the classification of a discovered link.
type Kind int

const (
	// KindPage is a link that may be crawled as a page.
	KindPage Kind = iota

	// KindFile is a link that should be downloaded.
	KindFile
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindFile {
		return "file"
	}
	return "page"
}

// ExtensionSet is a set of lowercase file extensions with a leading dot.
// An empty set allows every extension.
type ExtensionSet map[string]struct{}

// NewExtensionSet builds a set from the given extensions, normalizing case
// and adding the leading dot where missing. Blank entries are ignored.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		if n := NormalizeExtension(ext); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// NormalizeExtension lowercases ext and ensures a single leading dot.
// It returns "" for blank input.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// Contains reports whether ext is in the set.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s[ext]
	return ok
}

// AllowsAll reports whether the set is empty and therefore allows everything.
func (s ExtensionSet) AllowsAll() bool {
	return len(s) == 0
}

// Union returns a new set containing the members of s and other.
func (s ExtensionSet) Union(other ExtensionSet) ExtensionSet {
	out := make(ExtensionSet, len(s)+len(other))
	for ext := range s {
		out[ext] = struct{}{}
	}
	for ext := range other {
		out[ext] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// String renders the set for logs; an empty set prints "(all)".
func (s ExtensionSet) String() string {
	if s.AllowsAll() {
		return "(all)"
	}
	return strings.Join(s.Sorted(), ", ")
}

// Extension returns the lowercase extension of the URL's path, including the
// leading dot, or "" when the last path segment has none. Directory paths
// (ending in "/") and dot-files such as "/.htaccess" have no extension.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	base := strings.TrimLeft(path.Base(p), ".")
	return strings.ToLower(path.Ext(base))
}

// Classify decides whether rawURL denotes a downloadable file under the
// allow-list. A link is a file iff it has an extension and the allow-list
// is empty or contains that extension. Everything else, including links
// whose extension is not allowed, is a page candidate.
func Classify(rawURL string, allow ExtensionSet) Kind {
	ext := Extension(rawURL)
	if ext == "" {
		return KindPage
	}
	if allow.AllowsAll() || allow.Contains(ext) {
		return KindFile
	}
	return KindPage
}
