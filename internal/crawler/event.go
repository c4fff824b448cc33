package crawler

import "github.com/nao1215/filecrawl/internal/model"

// EventKind identifies a progress event.
type EventKind int

const (
	// EventCrawlStarted is emitted once before the first page.
	EventCrawlStarted EventKind = iota

	// EventPageStarted is emitted when a page is claimed from the frontier.
	EventPageStarted

	// EventRobotsBlocked is emitted when robots.txt disallows a page.
	EventRobotsBlocked

	// EventPageFailed is emitted when a page fetch fails.
	EventPageFailed

	// EventPageSaved is emitted when a page body is written under html/.
	EventPageSaved

	// EventPageParsed is emitted after links of a page have been dispatched.
	EventPageParsed

	// EventFile is emitted for every file download outcome.
	EventFile

	// EventCrawlFinished is emitted once, last, with the final statistics.
	EventCrawlFinished
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventCrawlStarted:
		return "crawl_started"
	case EventPageStarted:
		return "page_started"
	case EventRobotsBlocked:
		return "robots_blocked"
	case EventPageFailed:
		return "page_failed"
	case EventPageSaved:
		return "page_saved"
	case EventPageParsed:
		return "page_parsed"
	case EventFile:
		return "file"
	case EventCrawlFinished:
		return "crawl_finished"
	default:
		return "unknown"
	}
}

// Event is one entry of the ordered progress stream of a crawl.
type Event struct {
	// Kind identifies the event.
	Kind EventKind

	// URL is the page or file the event is about.
	URL string

	// Depth is the frontier depth of the page.
	Depth int

	// Path is the file written, for EventPageSaved and EventFile.
	Path string

	// Download is set for EventFile.
	Download *DownloadResult

	// Err is set for failures.
	Err error

	// Stats is a snapshot of the counters after the event.
	Stats model.Stats

	// MaxPages echoes the page budget, for progress display.
	MaxPages int

	// Cancelled is set on EventCrawlFinished when the crawl was cancelled.
	Cancelled bool
}
