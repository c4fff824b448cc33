package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "filecrawl"

	// DefaultOutputDir is where files are written when --output is not given.
	DefaultOutputDir = "downloads"

	// DefaultMaxPages bounds the pages claimed per crawl.
	DefaultMaxPages = 200

	// DefaultMaxDepth of 0 leaves the link depth unbounded; the page budget
	// still ends the crawl.
	DefaultMaxDepth = 0

	// DefaultTimeout bounds connecting, waiting for headers and each gap
	// between body reads.
	DefaultTimeout = 15 * time.Second

	// DefaultRobotsTimeout bounds each robots.txt request.
	DefaultRobotsTimeout = 10 * time.Second

	// MaxDelay is the largest accepted delay between requests.
	MaxDelay = 10 * time.Second

	// DefaultUserAgent identifies filecrawl in requests and robots.txt lookups.
	DefaultUserAgent = "filecrawl/0.1 (+https://github.com/nao1215/filecrawl)"

	// DefaultMaxBodySize limits the page bytes read for link extraction.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// CategoryFileName is the extension category file inside XDGConfigDir.
	CategoryFileName = "categories.yaml"
)

// Config holds every option of a crawl as given on the command line.
// It is built by the CLI from NewConfig and flags, merged with the site
// file, validated once and then translated into the crawler's settings.
type Config struct {
	// StartURL is the page the crawl begins at.
	StartURL string

	// Extensions is the allow-list expression, for example "images,.pdf".
	// Empty selects the default categories.
	Extensions string

	// OutputDir is the download directory.
	OutputDir string

	// SiteFolder places downloads under a subfolder named after the host.
	SiteFolder bool

	// MaxPages bounds the pages claimed from the frontier.
	MaxPages int

	// MaxDepth bounds the link depth; 0 means unlimited.
	MaxDepth int

	// Delay is the minimum spacing between requests.
	Delay time.Duration

	// Timeout bounds each request; see DefaultTimeout.
	Timeout time.Duration

	// RobotsTimeout bounds each robots.txt request.
	RobotsTimeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize limits the page bytes read for link extraction.
	MaxBodySize int64

	// ProxyAddress routes requests through a SOCKS5 proxy at host:port.
	ProxyAddress string

	// Cookie is a raw cookie string sent with every request.
	Cookie string

	// Headers are extra request headers.
	Headers map[string]string

	// RespectRobots enables robots.txt checks.
	RespectRobots bool

	// SkipDuplicates discards files whose content was already downloaded.
	SkipDuplicates bool

	// SavePages writes crawled pages under <output>/html.
	SavePages bool

	// CategoryFile is the extension category file. Empty means
	// <XDGConfigDir>/categories.yaml.
	CategoryFile string

	// ConfigFilePath is the per-site settings file. Empty means search
	// the default locations.
	ConfigFilePath string

	// SiteConfigs holds the loaded per-site settings, if any.
	SiteConfigs *File

	// DBDir is the directory of the crawl history database.
	DBDir string

	// SaveToDB records the finished crawl in the history database.
	SaveToDB bool

	// JSONReport selects the JSON report format.
	JSONReport bool

	// MarkdownReport selects the Markdown report format.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig returns a Config filled with defaults.
func NewConfig() *Config {
	return &Config{
		OutputDir:      DefaultOutputDir,
		MaxPages:       DefaultMaxPages,
		MaxDepth:       DefaultMaxDepth,
		Timeout:        DefaultTimeout,
		RobotsTimeout:  DefaultRobotsTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		SkipDuplicates: true,
		SaveToDB:       true,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the data directory, which holds the history database.
// On Linux: ~/.local/share/filecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, which holds the category file.
// On Linux: ~/.config/filecrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultCategoryFile returns the default category file path.
func DefaultCategoryFile() string {
	return filepath.Join(XDGConfigDir(), CategoryFileName)
}

// CategoryFilePath returns CategoryFile or the default path.
func (c *Config) CategoryFilePath() string {
	if c.CategoryFile != "" {
		return c.CategoryFile
	}
	return DefaultCategoryFile()
}

// ApplySite merges the settings for host from SiteConfigs. Only options the
// user did not set explicitly are taken from the file; explicit reports
// whether a flag was given on the command line.
func (c *Config) ApplySite(host string, explicit func(flag string) bool) {
	if c.SiteConfigs == nil {
		return
	}
	site := c.SiteConfigs.GetSiteConfig(host)

	if site.Cookie != "" && !explicit("cookie") {
		c.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		merged := make(map[string]string, len(site.Headers)+len(c.Headers))
		for k, v := range site.Headers {
			merged[k] = v
		}
		for k, v := range c.Headers {
			merged[k] = v
		}
		c.Headers = merged
	}
	if site.Extensions != "" && !explicit("extensions") {
		c.Extensions = site.Extensions
	}
	if site.MaxDepth != 0 && !explicit("max-depth") {
		c.MaxDepth = site.MaxDepth
	}
	if site.MaxPages != 0 && !explicit("max-pages") {
		c.MaxPages = site.MaxPages
	}
	if site.Delay != 0 && !explicit("delay") {
		c.Delay = site.Delay
	}
	if site.RespectRobots != nil && !explicit("respect-robots") {
		c.RespectRobots = *site.RespectRobots
	}
}

// Validate checks the options that do not depend on the crawl target.
// The start URL and crawl limits are validated again by the crawler.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
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
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RobotsTimeout <= 0 {
		return ErrInvalidRobotsTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
