package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// maxRobotsSize caps the robots.txt body read.
const maxRobotsSize = 512 * 1024

// RobotsGate answers whether a URL may be fetched according to its host's
// robots.txt. Rules are fetched lazily on the first query for a host and
// cached for the lifetime of the gate; a host whose robots.txt cannot be
// fetched gets an empty rule set, which allows everything.
//
// The gate is owned by a single crawl session and is not safe for
// concurrent use.
type RobotsGate struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger

	// cache maps a lowercase host[:port] to its rule group. A nil group
	// means fail-open.
	cache map[string]*robotstxt.Group
}

// NewRobotsGate creates a gate using client for robots.txt requests.
func NewRobotsGate(client *http.Client, userAgent string, timeout time.Duration, logger *slog.Logger) *RobotsGate {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultRobotsTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsGate{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger,
		cache:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether target may be fetched. Relative or nil URLs are
// never allowed.
func (g *RobotsGate) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}

	host := strings.ToLower(target.Host)
	group, ok := g.cache[host]
	if !ok {
		group = g.load(ctx, target)
		g.cache[host] = group
	}
	if group == nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// Cached reports whether rules for host have been loaded.
func (g *RobotsGate) Cached(host string) bool {
	_, ok := g.cache[strings.ToLower(host)]
	return ok
}

// load fetches and compiles the rules for target's host. It returns nil on
// any failure.
func (g *RobotsGate) load(ctx context.Context, target *url.URL) *robotstxt.Group {
	robotsURL := (&url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}).String()

	data, err := g.fetch(ctx, robotsURL)
	if err != nil {
		g.logger.Info("robots.txt unavailable, allowing all", "url", robotsURL, "error", err)
		return nil
	}
	g.logger.Debug("robots.txt loaded", "url", robotsURL)
	return data.FindGroup(g.userAgent)
}

// fetch downloads and parses a robots.txt file. Non-2xx statuses are errors.
func (g *RobotsGate) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
