package crawler

import (
	"io"
	"iter"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// LinkSource tells which element a link was found on.
type LinkSource int

const (
	// SourceAnchor is an <a href> link.
	SourceAnchor LinkSource = iota

	// SourceImage is an <img src> reference.
	SourceImage
)

// String returns the source name.
func (s LinkSource) String() string {
	if s == SourceImage {
		return "img"
	}
	return "a"
}

// Link is an absolute, fragment-free URL discovered on a page.
type Link struct {
	// URL is the resolved absolute URL.
	URL string

	// Source is the element the URL came from.
	Source LinkSource
}

// Parser extracts links from HTML pages.
//
// It uses golang.org/x/net/html, which builds a tree from any input the
// way browsers do: unclosed or misnested tags never cause an error, and a
// missing attribute simply contributes no link.
type Parser struct {
	// baseURL resolves relative references.
	baseURL *url.URL
}

// NewParser creates a Parser resolving links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// ExtractLinks returns the anchor and image links of an HTML document.
// contentType is the response Content-Type, used to pick the charset.
//
// The returned sequence reads content on first iteration; iterating it a
// second time yields nothing because the reader has been consumed.
func ExtractLinks(base *url.URL, content io.Reader, contentType string) iter.Seq[Link] {
	p := &Parser{baseURL: base}
	return p.Links(content, contentType)
}

// Links parses content and yields each resolvable link in document order.
// A body that cannot be decoded or parsed yields no links.
func (p *Parser) Links(content io.Reader, contentType string) iter.Seq[Link] {
	return func(yield func(Link) bool) {
		r, err := charset.NewReader(content, contentType)
		if err != nil {
			r = content
		}
		doc, err := html.Parse(r)
		if err != nil {
			return
		}
		p.walk(doc, yield)
	}
}

// walk visits n and its descendants depth-first. It returns false when the
// consumer stopped the iteration.
func (p *Parser) walk(n *html.Node, yield func(Link) bool) bool {
	if n.Type == html.ElementNode {
		if link, ok := p.linkFromElement(n); ok {
			if !yield(link) {
				return false
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !p.walk(c, yield) {
			return false
		}
	}
	return true
}

// linkFromElement returns the link carried by an <a> or <img> element.
func (p *Parser) linkFromElement(n *html.Node) (Link, bool) {
	var raw string
	var source LinkSource
	switch n.Data {
	case "a":
		raw, source = getAttr(n, "href"), SourceAnchor
	case "img":
		raw, source = getAttr(n, "src"), SourceImage
	default:
		return Link{}, false
	}
	resolved := p.resolveURL(raw)
	if resolved == "" {
		return Link{}, false
	}
	return Link{URL: resolved, Source: source}, true
}

// resolveURL resolves a reference against the base URL and strips the
// fragment. Non-HTTP schemes and unparsable references resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
