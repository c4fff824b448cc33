package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/filecrawl/internal/category"
	"github.com/nao1215/filecrawl/internal/config"
	"github.com/nao1215/filecrawl/internal/crawler"
	"github.com/nao1215/filecrawl/internal/database"
	filelog "github.com/nao1215/filecrawl/internal/log"
	"github.com/nao1215/filecrawl/internal/model"
	"github.com/nao1215/filecrawl/internal/report"
	"github.com/nao1215/filecrawl/internal/transport"
)

// osExit is replaced in tests.
var osExit = os.Exit

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a website and download matching files",
		Long: `Crawl visits pages breadth-first starting at <url>, stays on the start
host and downloads every linked file whose extension is allowed.

The allow-list is a comma-separated mix of category names and extensions.
Run 'filecrawl categories' to see the categories. Without --extensions the
archives and images categories are used; "all" allows any extension.

Press Ctrl-C once to stop after the current page, twice to quit at once.
The command exits with status 1 when any error was recorded and 130 when
the crawl was interrupted.

Examples:
  # Download archives and images (the default)
  filecrawl crawl https://example.com

  # Download PDFs and images into ./docs, at most 50 pages
  filecrawl crawl -e images,.pdf -o ./docs -p 50 https://example.com

  # Be polite: honour robots.txt and wait 500ms between requests
  filecrawl crawl --respect-robots --delay 500ms https://example.com

  # Keep a copy of every crawled page and write a Markdown report
  filecrawl crawl --save-pages -m --report-file report.md https://example.com

Configuration file (.filecrawl.yaml) example:
  defaults:
    delay: 250ms
  sites:
    example.com:
      cookie: "session_id=abc123"
      extensions: "documents,.epub"
      maxDepth: 3
      respectRobots: true`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Selection flags
	cmd.Flags().StringP("extensions", "e", "",
		"Categories and extensions to download, e.g. images,.pdf (default: archives,images)")
	cmd.Flags().String("categories", "",
		"Extension category file (default: $XDG_CONFIG_HOME/filecrawl/categories.yaml)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory to save files in")
	cmd.Flags().Bool("site-folder", false,
		"Save files under a subfolder named after the start host")
	cmd.Flags().Bool("save-pages", false,
		"Also save every crawled page under <output>/html")
	cmd.Flags().Bool("skip-duplicates", true,
		"Discard files whose content was already downloaded in this crawl")

	// Crawl behavior flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the start URL (0 = unlimited)")
	cmd.Flags().Duration("delay", 0,
		"Minimum delay between requests, up to 10s")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connect, header and read-idle timeout of each request")
	cmd.Flags().Duration("robots-timeout", config.DefaultRobotsTimeout,
		"Timeout of each robots.txt request")
	cmd.Flags().Bool("respect-robots", false,
		"Skip pages disallowed by robots.txt")

	// Request flags
	cmd.Flags().String("user-agent", userAgent(),
		"User-Agent header and robots.txt agent name")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("cookie", "",
		"Cookie header sent with every request")
	cmd.Flags().StringArrayP("header", "H", nil,
		"Extra request header \"Name: value\" (repeatable)")
	cmd.Flags().StringP("config", "c", "",
		"Per-site settings file (default: search for .filecrawl.yaml)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Write the report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write the report in Markdown format")
	cmd.Flags().String("report-file", "",
		"Write the report to a file instead of stdout")
	cmd.Flags().Bool("no-history", false,
		"Do not record the crawl in the history database")
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not print per-page progress")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := filelog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	store, err := category.Load(cfg.CategoryFilePath())
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	extensions, err := store.Resolve(cfg.Extensions)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runCrawl(cmd.Context(), cfg, extensions, crawlIO{
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		quiet:  quiet,
	}, sigCh, logger)
}

// crawlIO holds the output streams of a crawl.
type crawlIO struct {
	stdout io.Writer
	stderr io.Writer
	quiet  bool
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the per-site
// settings file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if len(args) > 0 {
		cfg.StartURL = strings.TrimSpace(args[0])
	}
	if cfg.Extensions, err = flags.GetString("extensions"); err != nil {
		return nil, err
	}
	if cfg.CategoryFile, err = flags.GetString("categories"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SiteFolder, err = flags.GetBool("site-folder"); err != nil {
		return nil, err
	}
	if cfg.SavePages, err = flags.GetBool("save-pages"); err != nil {
		return nil, err
	}
	if cfg.SkipDuplicates, err = flags.GetBool("skip-duplicates"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
		return nil, err
	}
	if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.RobotsTimeout, err = flags.GetDuration("robots-timeout"); err != nil {
		return nil, err
	}
	if cfg.RespectRobots, err = flags.GetBool("respect-robots"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.Cookie, err = flags.GetString("cookie"); err != nil {
		return nil, err
	}

	rawHeaders, err := flags.GetStringArray("header")
	if err != nil {
		return nil, err
	}
	if cfg.Headers, err = parseHeaders(rawHeaders); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// If the user named a settings file it must exist; otherwise a
	// missing file just means no per-site settings.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	if u, err := url.Parse(cfg.StartURL); err == nil {
		cfg.ApplySite(u.Hostname(), flags.Changed)
	}

	return cfg, nil
}

// parseHeaders converts "Name: value" strings into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil //nolint:nilnil // no headers
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// crawlerConfig translates the CLI configuration into crawler settings.
func crawlerConfig(cfg *config.Config, extensions crawler.ExtensionSet) crawler.Config {
	return crawler.Config{
		StartURL:       cfg.StartURL,
		Extensions:     extensions,
		OutputDir:      cfg.OutputDir,
		SiteFolder:     cfg.SiteFolder,
		MaxPages:       cfg.MaxPages,
		MaxDepth:       cfg.MaxDepth,
		Delay:          cfg.Delay,
		RespectRobots:  cfg.RespectRobots,
		SkipDuplicates: cfg.SkipDuplicates,
		SavePages:      cfg.SavePages,
	}
}

// runCrawl performs the crawl, records it and writes the report.
func runCrawl(ctx context.Context, cfg *config.Config, extensions crawler.ExtensionSet, out crawlIO, signals <-chan os.Signal, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := transport.NewHTTPClient(transport.Options{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
		Cookie:       cfg.Cookie,
		Headers:      cfg.Headers,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if cfg.ProxyAddress != "" {
		if status := transport.CheckProxy(ctx, cfg.ProxyAddress); status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				status.Err(), cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	engine := crawler.NewEngine(client,
		crawler.WithLogger(logger),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithRobotsTimeout(cfg.RobotsTimeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	)

	format := reportFormat(cfg)
	progress := out.stdout
	if cfg.ReportFile == "" && format != report.FormatText {
		// Keep stdout clean for the machine-readable report.
		progress = out.stderr
	}
	if out.quiet {
		progress = io.Discard
	}

	printBanner(progress, cfg, extensions)

	crawlReport, err := watchCrawl(ctx, engine, crawlerConfig(cfg, extensions), progress, out.stderr, signals)
	if err != nil {
		return err
	}

	if _, err := report.NewSimpleWriter(progress).WriteSummary(crawlReport.Stats); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if cfg.SaveToDB {
		saveCrawlReport(context.WithoutCancel(ctx), cfg.DBDir, crawlReport, logger)
	}

	if err := outputReport(cfg, format, crawlReport, out.stdout); err != nil {
		return err
	}

	switch {
	case crawlReport.Cancelled:
		return &exitError{code: exitInterrupted, err: errors.New("crawl interrupted")}
	case crawlReport.Stats.Errors > 0:
		return &exitError{code: 1, err: fmt.Errorf("crawl finished with %d error(s)", crawlReport.Stats.Errors)}
	default:
		return nil
	}
}

// watchCrawl runs the crawl task, printing progress events while a second
// goroutine turns the first interrupt into a graceful cancel and the second
// into an immediate exit.
func watchCrawl(ctx context.Context, engine *crawler.Engine, cfg crawler.Config, progress, stderr io.Writer, signals <-chan os.Signal) (*model.CrawlReport, error) {
	task := engine.Start(ctx, cfg)
	finished := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		defer close(finished)
		for ev := range task.Events() {
			printEvent(progress, ev)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-signals:
			fmt.Fprintln(stderr, "\n[CANCELLING] finishing the current page, press Ctrl-C again to quit")
			task.Cancel()
		case <-finished:
			return nil
		}
		select {
		case <-signals:
			fmt.Fprintln(stderr, "[CANCELLED] crawl interrupted by user")
			osExit(exitInterrupted)
		case <-finished:
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	crawlReport, err := task.Wait()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return crawlReport, nil
}

// reportFormat returns the report format selected by the flags.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// outputReport writes the crawl report. The text report is only written
// when a report file is requested; on the terminal the summary line is
// enough.
func outputReport(cfg *config.Config, format report.Format, crawlReport *model.CrawlReport, stdout io.Writer) error {
	if cfg.ReportFile == "" && format == report.FormatText {
		return nil
	}

	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if _, err := report.New(format, output, getVersion(), cfg.Verbose).Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveCrawlReport records the crawl in the history database. Failures are
// logged and do not fail the crawl.
func saveCrawlReport(ctx context.Context, dbDir string, crawlReport *model.CrawlReport, logger *slog.Logger) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "dir", dbDir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveCrawlReport(ctx, crawlReport)
	if err != nil {
		logger.Warn("failed to save crawl history", "error", err)
		return
	}
	logger.Info("crawl saved to history", "id", id, "db", db.Path())
}
