package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/filecrawl/internal/config"
	"github.com/nao1215/filecrawl/internal/crawler"
	"github.com/nao1215/filecrawl/internal/model"
)

// printBanner prints the crawl settings before the crawl starts.
func printBanner(w io.Writer, cfg *config.Config, extensions crawler.ExtensionSet) {
	exts := "(all)"
	if !extensions.AllowsAll() {
		exts = strings.Join(extensions.Sorted(), ", ")
	}
	depth := "unlimited"
	if cfg.MaxDepth > 0 {
		depth = fmt.Sprintf("%d", cfg.MaxDepth)
	}

	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "filecrawl")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "URL:        %s\n", cfg.StartURL)
	fmt.Fprintf(w, "Extensions: %s\n", exts)
	fmt.Fprintf(w, "Output:     %s\n", cfg.OutputDir)
	fmt.Fprintf(w, "Max pages:  %d\n", cfg.MaxPages)
	fmt.Fprintf(w, "Max depth:  %s\n", depth)
	fmt.Fprintf(w, "Timeout:    %s\n", cfg.Timeout)
	if cfg.Delay > 0 {
		fmt.Fprintf(w, "Delay:      %s\n", cfg.Delay)
	}
	if cfg.RespectRobots {
		fmt.Fprintln(w, "Robots:     respected")
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)
}

// printEvent prints one progress line for ev. Events without a line of
// their own, such as crawl start and finish, print nothing.
func printEvent(w io.Writer, ev crawler.Event) {
	switch ev.Kind {
	case crawler.EventPageStarted:
		depth := ""
		if ev.Depth > 0 {
			depth = fmt.Sprintf(" (depth %d)", ev.Depth)
		}
		fmt.Fprintf(w, "[PAGE %d/%d]%s %s\n", ev.Stats.PagesCrawled, ev.MaxPages, depth, ev.URL)
	case crawler.EventRobotsBlocked:
		fmt.Fprintf(w, "[ROBOTS] Blocked: %s\n", ev.URL)
	case crawler.EventPageFailed:
		fmt.Fprintf(w, "[ERROR] %s -> %v\n", ev.URL, ev.Err)
	case crawler.EventPageSaved:
		fmt.Fprintf(w, "[SAVED] %s\n", ev.Path)
	case crawler.EventFile:
		printDownload(w, ev)
	case crawler.EventCrawlStarted, crawler.EventPageParsed, crawler.EventCrawlFinished:
	}
}

// printDownload prints the outcome of a file download.
func printDownload(w io.Writer, ev crawler.Event) {
	res := ev.Download
	if res == nil {
		return
	}
	switch res.Status {
	case model.DownloadStatusDownloaded:
		fmt.Fprintf(w, "[DOWNLOADED] %s (%s)\n", res.Path, humanize.IBytes(uint64(max(res.Bytes, 0))))
	case model.DownloadStatusExists:
		fmt.Fprintf(w, "[EXISTS] %s\n", res.Path)
	case model.DownloadStatusDuplicate:
		fmt.Fprintf(w, "[DUPLICATE] %s (same as %s)\n", res.URL, res.DuplicateOf)
	case model.DownloadStatusError:
		fmt.Fprintf(w, "[ERROR] %s -> %v\n", res.URL, res.Err)
	case model.DownloadStatusNoFilename:
	}
}
