package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nao1215/filecrawl/internal/model"
)

// eventBufferSize is the capacity of a Task's event channel.
const eventBufferSize = 64

// Engine runs crawls. One Engine may run several crawls one after another;
// every crawl gets a fresh Session, so nothing carries over between them.
type Engine struct {
	// client performs page, file and robots.txt requests.
	client *http.Client

	// userAgent is sent with every request and matched against robots.txt groups.
	userAgent string

	// timeout bounds each page or file request.
	timeout time.Duration

	// robotsTimeout bounds each robots.txt request.
	robotsTimeout time.Duration

	// maxBodySize limits the bytes read from a page for link extraction.
	maxBodySize int64

	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used by the engine and its components.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) EngineOption {
	return func(e *Engine) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout for pages and files.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRobotsTimeout sets the timeout for robots.txt requests.
func WithRobotsTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.robotsTimeout = d
		}
	}
}

// WithMaxBodySize sets the maximum page body size read for link extraction.
func WithMaxBodySize(size int64) EngineOption {
	return func(e *Engine) {
		if size > 0 {
			e.maxBodySize = size
		}
	}
}

// NewEngine creates an Engine that sends requests through client.
// A nil client means http.DefaultClient.
func NewEngine(client *http.Client, opts ...EngineOption) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	e := &Engine{
		client:        client,
		userAgent:     DefaultUserAgent,
		timeout:       DefaultTimeout,
		robotsTimeout: DefaultRobotsTimeout,
		maxBodySize:   DefaultMaxBodySize,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run crawls according to cfg and returns the final statistics.
// Configuration errors are returned before any request is made; fetch and
// filesystem errors during the crawl are counted in Stats.Errors instead.
func (e *Engine) Run(ctx context.Context, cfg Config) (model.Stats, error) {
	report, err := e.Crawl(ctx, cfg)
	if err != nil {
		return model.Stats{}, err
	}
	return report.Stats, nil
}

// Crawl is like Run but returns the full report including every file outcome.
func (e *Engine) Crawl(ctx context.Context, cfg Config) (*model.CrawlReport, error) {
	return e.crawl(ctx, cfg, nil, nil)
}

// Task is a crawl running on its own goroutine.
type Task struct {
	events chan Event
	done   chan struct{}
	stop   atomic.Bool

	report *model.CrawlReport
	err    error
}

// Start runs the crawl on a new goroutine. The caller must drain Events
// until it is closed; the crawl blocks while the channel is full.
func (e *Engine) Start(ctx context.Context, cfg Config) *Task {
	t := &Task{
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer close(t.events)
		t.report, t.err = e.crawl(ctx, cfg, func(ev Event) { t.events <- ev }, t.stop.Load)
	}()
	return t
}

// Events returns the ordered progress stream. It is closed when the crawl ends.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Cancel asks the crawl to stop. The request is observed before the next
// page is claimed; a fetch or download in flight runs to completion.
func (t *Task) Cancel() {
	t.stop.Store(true)
}

// Wait blocks until the crawl ends and returns its report.
func (t *Task) Wait() (*model.CrawlReport, error) {
	<-t.done
	return t.report, t.err
}

// crawl validates cfg, builds a session and runs it.
func (e *Engine) crawl(ctx context.Context, cfg Config, emit func(Event), stop func() bool) (*model.CrawlReport, error) {
	s, err := e.newSession(cfg, emit, stop)
	if err != nil {
		return nil, err
	}

	e.logger.Info("crawl started",
		"url", s.start.String(),
		"output", s.downloader.dir,
		"extensions", cfg.Extensions.String(),
		"max_pages", cfg.MaxPages,
		"max_depth", cfg.MaxDepth,
		"delay", cfg.Delay,
	)

	s.run(ctx)
	s.report.FinishedAt = time.Now()

	e.logger.Info("crawl finished",
		"pages", s.stats.PagesCrawled,
		"downloaded", s.stats.FilesDownloaded,
		"duplicates", s.stats.DuplicatesSkipped,
		"robots_blocked", s.stats.RobotsBlocked,
		"errors", s.stats.Errors,
		"cancelled", s.report.Cancelled,
	)
	return s.report, nil
}

// newSession validates cfg and prepares the output directory.
func (e *Engine) newSession(cfg Config, emit func(Event), stop func() bool) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start, err := parseStartURL(cfg.StartURL)
	if err != nil {
		return nil, err
	}

	outDir := cfg.ResolveOutputDir()
	if err := prepareOutputDir(outDir); err != nil {
		return nil, err
	}

	var pages *pageStore
	if cfg.SavePages {
		if pages, err = newPageStore(outDir); err != nil {
			return nil, err
		}
	}

	f := &fetcher{
		client:      e.client,
		userAgent:   e.userAgent,
		timeout:     e.timeout,
		maxBodySize: e.maxBodySize,
	}
	limiter := NewRateLimiter(cfg.Delay)

	s := &Session{
		cfg:       cfg,
		start:     start,
		baseHost:  start.Host,
		queued:    make(map[string]struct{}),
		visited:   make(map[string]struct{}),
		attempted: make(map[string]struct{}),
		robots:    NewRobotsGate(e.client, e.userAgent, e.robotsTimeout, e.logger),
		limiter:   limiter,
		fetcher:   f,
		downloader: &Downloader{
			fetcher:        f,
			limiter:        limiter,
			dedupe:         NewDuplicateDetector(),
			dir:            outDir,
			skipDuplicates: cfg.SkipDuplicates,
			logger:         e.logger,
		},
		pages:  pages,
		report: model.NewCrawlReport(start.String(), start.Host, outDir, cfg.Extensions.Sorted()),
		emit:   emit,
		stop:   stop,
		logger: e.logger.With("host", start.Host),
	}
	return s, nil
}
