package crawler

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxDelay is the largest accepted delay between requests.
	MaxDelay = 10 * time.Second

	// DefaultTimeout bounds every HTTP request made by the engine.
	DefaultTimeout = 15 * time.Second

	// DefaultRobotsTimeout bounds robots.txt fetches.
	DefaultRobotsTimeout = 10 * time.Second

	// DefaultMaxBodySize caps the number of page bytes read for link extraction.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies the crawler in requests and robots.txt lookups.
	DefaultUserAgent = "filecrawl/0.1 (+https://github.com/nao1215/filecrawl)"

	// htmlDirName is the subfolder of the output directory holding saved pages.
	htmlDirName = "html"
)

// Config holds the settings of a single crawl. It is treated as immutable
// once Run has started.
type Config struct {
	// StartURL is where the crawl begins. Its host is the crawl's domain.
	StartURL string

	// Extensions is the download allow-list. Empty allows any extension.
	Extensions ExtensionSet

	// OutputDir is the directory files are written to.
	OutputDir string

	// SiteFolder places files under a subfolder named after the start host.
	SiteFolder bool

	// MaxPages bounds the number of pages claimed from the frontier. Must be >= 1.
	MaxPages int

	// MaxDepth bounds the link distance from the start URL. 0 means unlimited.
	MaxDepth int

	// Delay is the minimum spacing between outbound fetches, 0 to 10 seconds.
	Delay time.Duration

	// RespectRobots enables the robots.txt gate.
	RespectRobots bool

	// SkipDuplicates discards files whose content hash was already seen.
	SkipDuplicates bool

	// SavePages writes fetched page bodies under OutputDir/html.
	SavePages bool
}

// Validate checks the configuration and returns the first problem found.
func (c Config) Validate() error {
	if _, err := parseStartURL(c.StartURL); err != nil {
		return err
	}
	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Delay < 0 || c.Delay > MaxDelay {
		return ErrInvalidDelay
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return ErrNoOutputDir
	}
	return nil
}

// parseStartURL parses and checks the start URL.
func parseStartURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStartURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidStartURL
	}
	u.Fragment = ""
	return u, nil
}

// ResolveOutputDir returns the directory files are written to, including the
// per-site subfolder when SiteFolder is set.
func (c Config) ResolveOutputDir() string {
	if !c.SiteFolder {
		return c.OutputDir
	}
	u, err := parseStartURL(c.StartURL)
	if err != nil {
		return c.OutputDir
	}
	return filepath.Join(c.OutputDir, siteFolderName(u))
}

// siteFolderName converts a host into a safe directory name.
func siteFolderName(u *url.URL) string {
	name := strings.ToLower(u.Host)
	name = strings.TrimPrefix(name, "www.")
	return sanitizeFileName(name)
}

// prepareOutputDir creates dir and verifies it accepts new files.
func prepareOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
	}
	check, err := os.CreateTemp(dir, ".filecrawl-check-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
	}
	name := check.Name()
	_ = check.Close()
	_ = os.Remove(name)
	return nil
}
