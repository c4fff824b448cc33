// Package crawler implements the crawl-and-download engine of filecrawl.
//
// # Architecture
//
// An Engine runs crawls. Each crawl gets a Session that owns the whole
// mutable state of that crawl: the breadth-first frontier, the visited set,
// the robots.txt cache, the content hash index and the statistics. Nothing
// is shared between sessions, so an Engine can run any number of crawls one
// after another.
//
// # Components
//
//   - Engine / Session: BFS traversal bounded by page count and link depth
//   - Classify: decides whether a link is a file to download or a page
//   - ExtractLinks: <a href> and <img src> links from an HTML parse tree
//   - RobotsGate: per-host robots.txt rules, fetched lazily, fail-open
//   - RateLimiter: fixed minimum spacing between outbound fetches
//   - Downloader / DuplicateDetector: streamed downloads with SHA3-256
//     content hashing
//
// # Traversal
//
// The crawl is strictly sequential. Pages are claimed from the frontier in
// FIFO order; a claimed page counts toward the page budget even when
// robots.txt blocks it or the fetch fails. Only links on the start URL's
// host are followed. A link whose extension is in the allow-list (or any
// extension, when the list is empty) is downloaded instead of crawled; a
// link with an extension outside the list is treated as a page.
//
// # Cancellation
//
// Cancellation is cooperative. Context cancellation and Task.Cancel are
// checked before each page is claimed. Requests already in flight run to
// completion or to their own timeout.
//
// # Usage
//
//	engine := crawler.NewEngine(httpClient, crawler.WithLogger(logger))
//	stats, err := engine.Run(ctx, crawler.Config{
//		StartURL:       "https://example.com/",
//		Extensions:     crawler.NewExtensionSet(".pdf", ".zip"),
//		OutputDir:      "downloads",
//		MaxPages:       200,
//		SkipDuplicates: true,
//	})
package crawler
