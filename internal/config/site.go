package config

import (
	"strings"
	"time"
)

// SiteConfig holds settings for crawls that start on one host.
type SiteConfig struct {
	// Cookie is sent with every request, for example a login session.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Extensions is an allow-list expression such as "documents,.epub".
	Extensions string `yaml:"extensions,omitempty"`

	// MaxDepth overrides the depth limit when non-zero.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// MaxPages overrides the page budget when non-zero.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Delay overrides the request spacing when non-zero, e.g. "500ms".
	Delay time.Duration `yaml:"delay,omitempty"`

	// RespectRobots overrides the robots.txt setting when present.
	RespectRobots *bool `yaml:"respectRobots,omitempty"`
}

// File is the structure of the .filecrawl.yaml settings file.
type File struct {
	// Sites maps a host (without scheme, "www." optional) to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless a site entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for host, merged over the defaults.
// Hosts are compared case-insensitively and a leading "www." is ignored.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(site.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range site.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}
	if site.Extensions != "" {
		result.Extensions = site.Extensions
	}
	if site.MaxDepth != 0 {
		result.MaxDepth = site.MaxDepth
	}
	if site.MaxPages != 0 {
		result.MaxPages = site.MaxPages
	}
	if site.Delay != 0 {
		result.Delay = site.Delay
	}
	if site.RespectRobots != nil {
		result.RespectRobots = site.RespectRobots
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	want := canonicalHost(host)
	for key, site := range cf.Sites {
		if canonicalHost(key) == want {
			return site, true
		}
	}
	return SiteConfig{}, false
}

func canonicalHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
}
