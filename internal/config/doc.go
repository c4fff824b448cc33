// Package config holds the command-line configuration of filecrawl, its
// defaults and XDG locations, and the optional per-site settings file
// (.filecrawl.yaml) that supplies cookies, headers and limits for hosts
// that are crawled regularly.
package config
