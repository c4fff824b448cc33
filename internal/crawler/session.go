package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"

	"github.com/nao1215/filecrawl/internal/model"
)

// FrontierEntry is a page waiting to be fetched, with its link distance
// from the start URL.
type FrontierEntry struct {
	URL   string
	Depth int
}

// Session holds all mutable state of one crawl. It is created by the
// engine when a crawl starts, used by a single goroutine, and discarded
// when the crawl ends.
type Session struct {
	cfg      Config
	start    *url.URL
	baseHost string

	// queue is the BFS frontier; entries are popped from the front.
	queue []FrontierEntry

	// queued holds the normalized URLs ever enqueued, so that a page is
	// enqueued at most once.
	queued map[string]struct{}

	// visited holds the normalized URLs claimed from the frontier.
	visited map[string]struct{}

	// attempted holds the normalized file URLs already handed to the downloader.
	attempted map[string]struct{}

	robots     *RobotsGate
	limiter    *RateLimiter
	fetcher    *fetcher
	downloader *Downloader
	pages      *pageStore

	stats  model.Stats
	report *model.CrawlReport

	emit   func(Event)
	stop   func() bool
	logger *slog.Logger
}

// run executes the crawl loop until the frontier is empty, the page budget
// is used up, or cancellation is observed at the top of an iteration.
func (s *Session) run(ctx context.Context) {
	// Requests in flight are not interrupted by cancellation; each is
	// bounded by its own timeout instead.
	reqCtx := context.WithoutCancel(ctx)

	s.enqueue(s.start.String(), 0)
	s.send(Event{Kind: EventCrawlStarted, URL: s.start.String()})

	for len(s.queue) > 0 && s.stats.PagesCrawled < s.cfg.MaxPages {
		if ctx.Err() != nil || (s.stop != nil && s.stop()) {
			s.report.Cancelled = true
			s.logger.Info("crawl cancelled", "pages", s.stats.PagesCrawled)
			break
		}

		entry := s.queue[0]
		s.queue = s.queue[1:]

		key := normalizeURL(entry.URL)
		if _, ok := s.visited[key]; ok {
			continue
		}
		s.visited[key] = struct{}{}
		s.stats.PagesCrawled++

		s.logger.Debug("crawling page", "url", entry.URL, "depth", entry.Depth)
		s.send(Event{Kind: EventPageStarted, URL: entry.URL, Depth: entry.Depth})
		s.visit(reqCtx, entry)
	}

	s.report.Stats = s.stats
	s.send(Event{Kind: EventCrawlFinished, URL: s.start.String(), Cancelled: s.report.Cancelled})
}

// visit fetches one page and dispatches its links.
func (s *Session) visit(ctx context.Context, entry FrontierEntry) {
	u, err := url.Parse(entry.URL)
	if err != nil {
		s.pageFailed(entry, &FetchError{URL: entry.URL, Err: err})
		return
	}

	// Robots is checked before the rate limit so a blocked page costs no
	// delay. The robots.txt fetch itself is not rate limited.
	if s.cfg.RespectRobots && !s.robots.Allowed(ctx, u) {
		s.stats.RobotsBlocked++
		s.logger.Info("blocked by robots.txt", "url", entry.URL)
		s.send(Event{Kind: EventRobotsBlocked, URL: entry.URL, Depth: entry.Depth})
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.pageFailed(entry, err)
		return
	}

	pg, err := s.fetcher.fetchPage(ctx, entry.URL)
	if err != nil {
		s.pageFailed(entry, err)
		return
	}

	if s.pages != nil {
		s.savePage(entry, pg)
	}

	if isHTML(pg.contentType) {
		for link := range ExtractLinks(u, bytes.NewReader(pg.body), pg.contentType) {
			s.dispatch(ctx, entry, link)
		}
	}

	s.send(Event{Kind: EventPageParsed, URL: entry.URL, Depth: entry.Depth})
}

// dispatch routes a discovered link: files go to the downloader, same-host
// anchors within the depth and page budget go to the frontier, anything
// else is dropped. A link is never both downloaded and enqueued.
func (s *Session) dispatch(ctx context.Context, from FrontierEntry, link Link) {
	key := normalizeURL(link.URL)

	if Classify(link.URL, s.cfg.Extensions) == KindFile {
		if _, ok := s.attempted[key]; ok {
			return
		}
		s.attempted[key] = struct{}{}
		s.download(ctx, from, link.URL)
		return
	}

	// Image references are only ever download candidates.
	if link.Source != SourceAnchor {
		return
	}
	if !isSameHost(s.baseHost, link.URL) {
		return
	}
	if _, ok := s.visited[key]; ok {
		return
	}
	next := from.Depth + 1
	if s.cfg.MaxDepth > 0 && next > s.cfg.MaxDepth {
		return
	}
	s.enqueue(link.URL, next)
}

// enqueue appends a page to the frontier unless it was enqueued before or
// the frontier already holds enough pages to exhaust the page budget.
func (s *Session) enqueue(rawURL string, depth int) {
	key := normalizeURL(rawURL)
	if _, ok := s.queued[key]; ok {
		return
	}
	if s.stats.PagesCrawled+len(s.queue) >= s.cfg.MaxPages {
		return
	}
	s.queued[key] = struct{}{}
	s.queue = append(s.queue, FrontierEntry{URL: rawURL, Depth: depth})
}

// download hands a file link to the downloader and records the outcome.
func (s *Session) download(ctx context.Context, from FrontierEntry, fileURL string) {
	result := s.downloader.Download(ctx, fileURL)
	if result.Status == model.DownloadStatusNoFilename {
		return
	}

	s.stats.Record(result.Status)
	s.report.AddFile(result.Record())

	switch result.Status {
	case model.DownloadStatusDownloaded:
		s.logger.Info("downloaded", "url", fileURL, "path", result.Path, "bytes", result.Bytes)
	case model.DownloadStatusExists:
		s.logger.Debug("skipped existing file", "url", fileURL, "path", result.Path)
	case model.DownloadStatusDuplicate:
		s.logger.Info("skipped duplicate content", "url", fileURL, "duplicate_of", result.DuplicateOf)
	}

	s.send(Event{Kind: EventFile, URL: fileURL, Depth: from.Depth, Path: result.Path, Download: &result, Err: result.Err})
}

// savePage writes the page body under html/. A write failure counts as an
// error but does not stop link extraction.
func (s *Session) savePage(entry FrontierEntry, pg *page) {
	dest, saved, err := s.pages.save(entry.URL, pg.body)
	if err != nil {
		s.stats.Errors++
		s.logger.Warn("failed to save page", "url", entry.URL, "error", err)
		return
	}
	if !saved {
		return
	}
	s.stats.PagesSaved++
	s.send(Event{Kind: EventPageSaved, URL: entry.URL, Depth: entry.Depth, Path: dest})
}

// pageFailed records a page that could not be fetched.
func (s *Session) pageFailed(entry FrontierEntry, err error) {
	s.stats.Errors++
	s.logger.Warn("failed to fetch page", "url", entry.URL, "error", err)
	s.send(Event{Kind: EventPageFailed, URL: entry.URL, Depth: entry.Depth, Err: err})
}

// send stamps ev with the current counters and emits it.
func (s *Session) send(ev Event) {
	if s.emit == nil {
		return
	}
	ev.Stats = s.stats
	ev.MaxPages = s.cfg.MaxPages
	s.emit(ev)
}
