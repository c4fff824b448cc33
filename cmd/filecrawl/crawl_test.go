package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/filecrawl/internal/config"
	"github.com/nao1215/filecrawl/internal/crawler"
	"github.com/nao1215/filecrawl/internal/database"
	"github.com/nao1215/filecrawl/internal/report"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSite serves an index page linking to /about, /files/a.pdf and any
// extra hrefs, plus the about page and the PDF.
func newSite(t *testing.T, extra ...string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		var b strings.Builder
		b.WriteString(`<html><body><a href="/about">About</a><a href="/files/a.pdf">A</a>`)
		for _, href := range extra {
			fmt.Fprintf(&b, `<a href="%s">x</a>`, href)
		}
		b.WriteString(`</body></html>`)
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, b.String())
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body><a href="/">Home</a></body></html>`)
	})
	mux.HandleFunc("/files/a.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4 test")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, startURL string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.StartURL = startURL
	cfg.OutputDir = t.TempDir()
	cfg.DBDir = t.TempDir()
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("downloads files and records history", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		cfg := testConfig(t, srv.URL+"/")

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, crawler.NewExtensionSet(".pdf"),
			crawlIO{stdout: &stdout, stderr: &stderr}, nil, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := stdout.String()
		for _, want := range []string{
			"[PAGE 1/200] " + srv.URL + "/",
			"[PAGE 2/200] (depth 1) " + srv.URL + "/about",
			"[DOWNLOADED] " + filepath.Join(cfg.OutputDir, "a.pdf"),
			"[DONE] Pages: 2, Downloaded: 1, Errors: 0",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}

		data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "a.pdf"))
		if err != nil {
			t.Fatalf("expected downloaded file: %v", err)
		}
		if string(data) != "%PDF-1.4 test" {
			t.Errorf("unexpected content %q", data)
		}

		db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("expected history database: %v", err)
		}
		defer db.Close()

		crawls, err := db.ListCrawls(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(crawls) != 1 {
			t.Fatalf("expected 1 recorded crawl, got %d", len(crawls))
		}
		if crawls[0].Stats.FilesDownloaded != 1 {
			t.Errorf("recorded FilesDownloaded = %d, want 1", crawls[0].Stats.FilesDownloaded)
		}
	})

	t.Run("errors give exit status 1", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, "/files/missing.pdf")
		cfg := testConfig(t, srv.URL+"/")
		cfg.SaveToDB = false

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, crawler.NewExtensionSet(".pdf"),
			crawlIO{stdout: &stdout, stderr: &stderr}, nil, quietLogger())

		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("expected exitError, got %v", err)
		}
		if exitErr.code != 1 {
			t.Errorf("exit code = %d, want 1", exitErr.code)
		}
		if !strings.Contains(stdout.String(), "[ERROR] "+srv.URL+"/files/missing.pdf") {
			t.Errorf("expected error line, got:\n%s", stdout.String())
		}
		if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); !os.IsNotExist(err) {
			t.Error("expected no history database with SaveToDB disabled")
		}
	})

	t.Run("json report keeps stdout clean", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.SaveToDB = false
		cfg.JSONReport = true

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, crawler.NewExtensionSet(".pdf"),
			crawlIO{stdout: &stdout, stderr: &stderr}, nil, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var wrapped report.JSONReport
		if err := json.Unmarshal(stdout.Bytes(), &wrapped); err != nil {
			t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout.String())
		}
		if wrapped.Report == nil || wrapped.Report.Stats.PagesCrawled != 2 {
			t.Errorf("unexpected report: %+v", wrapped.Report)
		}
		if !strings.Contains(stderr.String(), "[DONE]") {
			t.Error("expected progress and summary on stderr")
		}
	})

	t.Run("report file", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.SaveToDB = false
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "crawl.md")

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, crawler.NewExtensionSet(".pdf"),
			crawlIO{stdout: &stdout, stderr: &stderr, quiet: true}, nil, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stdout.Len() != 0 {
			t.Errorf("expected no stdout output in quiet mode, got:\n%s", stdout.String())
		}
		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		if !strings.Contains(string(data), "# filecrawl Report") {
			t.Errorf("unexpected report:\n%s", data)
		}
	})

	t.Run("interrupt cancels after the current page", func(t *testing.T) {
		t.Parallel()

		signals := make(chan os.Signal)
		mux := http.NewServeMux()
		mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
			// Interrupt while this page is in flight.
			signals <- os.Interrupt
			time.Sleep(100 * time.Millisecond)
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, `<a href="/next">next</a><a href="/a.pdf">a</a>`)
		})
		mux.HandleFunc("/next", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, `<p>next</p>`)
		})
		mux.HandleFunc("/a.pdf", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "pdf")
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := testConfig(t, srv.URL+"/")

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, crawler.NewExtensionSet(".pdf"),
			crawlIO{stdout: &stdout, stderr: &stderr}, signals, quietLogger())

		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("expected exitError, got %v", err)
		}
		if exitErr.code != exitInterrupted {
			t.Errorf("exit code = %d, want %d", exitErr.code, exitInterrupted)
		}
		if !strings.Contains(stderr.String(), "[CANCELLING]") {
			t.Errorf("expected cancelling notice, got:\n%s", stderr.String())
		}
		if !strings.Contains(stdout.String(), "[DONE] Pages: 1, Downloaded: 1") {
			t.Errorf("expected the in-flight page to finish, got:\n%s", stdout.String())
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		defer db.Close()
		crawls, err := db.ListCrawls(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(crawls) != 1 || !crawls[0].Cancelled {
			t.Errorf("expected one cancelled crawl in history, got %+v", crawls)
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, "https://example.com/")
		cfg.ProxyAddress = "not-a-proxy"

		err := runCrawl(context.Background(), cfg, crawler.NewExtensionSet(),
			crawlIO{stdout: io.Discard, stderr: io.Discard}, nil, quietLogger())
		if err == nil {
			t.Fatal("expected error for invalid proxy address")
		}
	})

	t.Run("unusable output directory", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
		cfg := testConfig(t, "https://example.com/")
		cfg.OutputDir = filepath.Join(file, "sub")

		err := runCrawl(context.Background(), cfg, crawler.NewExtensionSet(),
			crawlIO{stdout: io.Discard, stderr: io.Discard}, nil, quietLogger())
		if !errors.Is(err, crawler.ErrOutputNotWritable) {
			t.Errorf("expected ErrOutputNotWritable, got %v", err)
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		err := cmd.ParseFlags([]string{
			"-e", "images,.pdf",
			"-o", "out",
			"-p", "5",
			"-d", "2",
			"--delay", "250ms",
			"--robots-timeout", "3s",
			"--respect-robots",
			"--skip-duplicates=false",
			"--save-pages",
			"--site-folder",
			"-H", "X-Token: abc",
			"--no-history",
			"-c", writeSiteFile(t, "sites: {}\n"),
		})
		if err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{" https://example.com/ "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.StartURL != "https://example.com/" {
			t.Errorf("StartURL = %q", cfg.StartURL)
		}
		if cfg.Extensions != "images,.pdf" || cfg.OutputDir != "out" {
			t.Errorf("unexpected selection: %q %q", cfg.Extensions, cfg.OutputDir)
		}
		if cfg.MaxPages != 5 || cfg.MaxDepth != 2 || cfg.Delay != 250*time.Millisecond {
			t.Errorf("unexpected limits: %d %d %v", cfg.MaxPages, cfg.MaxDepth, cfg.Delay)
		}
		if cfg.RobotsTimeout != 3*time.Second {
			t.Errorf("RobotsTimeout = %v, want 3s", cfg.RobotsTimeout)
		}
		if !cfg.RespectRobots || cfg.SkipDuplicates || !cfg.SavePages || !cfg.SiteFolder {
			t.Errorf("unexpected switches: %+v", cfg)
		}
		if cfg.Headers["X-Token"] != "abc" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false with --no-history")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", writeSiteFile(t, "")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd, []string{"https://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxPages != config.DefaultMaxPages || cfg.OutputDir != config.DefaultOutputDir {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", cfg.Timeout, config.DefaultTimeout)
		}
		if cfg.RobotsTimeout != config.DefaultRobotsTimeout {
			t.Errorf("RobotsTimeout = %v, want %v", cfg.RobotsTimeout, config.DefaultRobotsTimeout)
		}
		if !cfg.SkipDuplicates || !cfg.SaveToDB {
			t.Error("expected duplicate skipping and history on by default")
		}
		if !strings.HasPrefix(cfg.UserAgent, "filecrawl/") {
			t.Errorf("UserAgent = %q", cfg.UserAgent)
		}
	})

	t.Run("site settings apply unless flags are given", func(t *testing.T) {
		t.Parallel()

		path := writeSiteFile(t, `
sites:
  www.example.com:
    cookie: "session=1"
    maxPages: 7
    maxDepth: 4
    extensions: "documents"
    headers:
      X-Site: "yes"
`)
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", path, "-p", "3", "-H", "X-Flag: 1"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd, []string{"https://Example.com/start"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxPages != 3 {
			t.Errorf("MaxPages = %d, want flag value 3", cfg.MaxPages)
		}
		if cfg.MaxDepth != 4 || cfg.Cookie != "session=1" || cfg.Extensions != "documents" {
			t.Errorf("site settings not applied: %+v", cfg)
		}
		if cfg.Headers["X-Site"] != "yes" || cfg.Headers["X-Flag"] != "1" {
			t.Errorf("Headers = %v, want both site and flag headers", cfg.Headers)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		_, err := buildConfig(cmd, []string{"https://example.com/"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid header", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-H", "no-colon", "-c", writeSiteFile(t, "")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		if _, err := buildConfig(cmd, []string{"https://example.com/"}); err == nil {
			t.Error("expected error for malformed header")
		}
	})
}

func writeSiteFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".filecrawl.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write site file: %v", err)
	}
	return path
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   []string
		want    map[string]string
		wantErr bool
	}{
		{"none", nil, nil, false},
		{"single", []string{"Authorization: Bearer x"}, map[string]string{"Authorization": "Bearer x"}, false},
		{"value with colon", []string{"Referer: https://example.com/"}, map[string]string{"Referer": "https://example.com/"}, false},
		{"empty value", []string{"X-Empty:"}, map[string]string{"X-Empty": ""}, false},
		{"missing colon", []string{"Authorization"}, nil, true},
		{"empty name", []string{": value"}, nil, true},
		{"space in name", []string{"Bad Name: x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseHeaders(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseHeaders() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("header %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestReportFormat(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	if got := reportFormat(cfg); got != report.FormatText {
		t.Errorf("default format = %v", got)
	}
	cfg.JSONReport = true
	if got := reportFormat(cfg); got != report.FormatJSON {
		t.Errorf("json format = %v", got)
	}
	cfg.JSONReport = false
	cfg.MarkdownReport = true
	if got := reportFormat(cfg); got != report.FormatMarkdown {
		t.Errorf("markdown format = %v", got)
	}
}

func TestCrawlCmd(t *testing.T) {
	t.Parallel()

	t.Run("requires a URL", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"crawl"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error without a URL")
		}
	})

	t.Run("rejects conflicting formats", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"crawl", "-j", "-m", "-c", writeSiteFile(t, ""), "https://example.com/"})
		err := cmd.Execute()
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("rejects unknown extension tokens", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{
			"crawl", "-e", "images,b@d",
			"--categories", filepath.Join(t.TempDir(), "categories.yaml"),
			"-c", writeSiteFile(t, ""),
			"https://example.com/",
		})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid extension")
		}
	})

	t.Run("end to end", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		dir := t.TempDir()
		catFile := filepath.Join(t.TempDir(), "categories.yaml")
		if err := os.WriteFile(catFile, []byte("version: 1\ncategories:\n  papers: [.pdf]\n"), 0600); err != nil {
			t.Fatal(err)
		}

		var stdout bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{
			"crawl", "-e", "papers",
			"--categories", catFile,
			"-c", writeSiteFile(t, ""),
			"-o", dir,
			"--site-folder",
			"--no-history",
			srv.URL + "/",
		})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v\n%s", err, stdout.String())
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) != 1 {
			t.Fatalf("expected one site folder, got %v (%v)", entries, err)
		}
		if _, err := os.Stat(filepath.Join(dir, entries[0].Name(), "a.pdf")); err != nil {
			t.Errorf("expected a.pdf in site folder: %v", err)
		}
		if !strings.Contains(stdout.String(), "Extensions: .pdf") {
			t.Errorf("expected the user category to resolve, got:\n%s", stdout.String())
		}
	})
}
