package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/filecrawl/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.CrawlReport {
	report := model.NewCrawlReport("https://example.com/", "example.com", "downloads", []string{".pdf", ".zip"})
	report.StartedAt = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	report.FinishedAt = report.StartedAt.Add(2500 * time.Millisecond)
	report.Stats = model.Stats{
		PagesCrawled:      5,
		FilesDownloaded:   1,
		FilesExisting:     1,
		DuplicatesSkipped: 1,
		RobotsBlocked:     2,
		Errors:            1,
	}

	report.AddFile(model.FileRecord{
		URL:    "https://example.com/report.pdf",
		Path:   "downloads/report.pdf",
		Status: model.DownloadStatusDownloaded,
		Hash:   "deadbeef",
		Bytes:  2048,
	})
	report.AddFile(model.FileRecord{
		URL:    "https://example.com/old.zip",
		Path:   "downloads/old.zip",
		Status: model.DownloadStatusExists,
	})
	report.AddFile(model.FileRecord{
		URL:         "https://example.com/copy.pdf",
		Path:        "downloads/copy.pdf",
		Status:      model.DownloadStatusDuplicate,
		Hash:        "deadbeef",
		DuplicateOf: "https://example.com/report.pdf",
		Bytes:       2048,
	})
	report.AddFile(model.FileRecord{
		URL:    "https://example.com/missing.zip",
		Path:   "downloads/missing.zip",
		Status: model.DownloadStatusError,
		Error:  "https://example.com/missing.zip: status 404",
	})

	return report
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"FILECRAWL REPORT",
			"Start URL:   https://example.com/",
			"Extensions:  .pdf, .zip",
			"Duration:    2.5s",
			"Complete with 1 error(s)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes statistics", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Pages crawled:       5") {
			t.Error("expected output to contain pages crawled")
		}
		if !strings.Contains(output, "Robots blocked:      2") {
			t.Error("expected output to contain robots blocked")
		}
	})

	t.Run("lists downloads and errors only by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Saved: downloads/report.pdf (2.0 KiB)") {
			t.Errorf("expected downloaded file with size, got:\n%s", output)
		}
		if !strings.Contains(output, "Error: https://example.com/missing.zip: status 404") {
			t.Error("expected error record")
		}
		if strings.Contains(output, "copy.pdf") {
			t.Error("duplicates should only be listed in verbose mode")
		}
		if strings.Contains(output, "SHA3-256") {
			t.Error("hashes should only be listed in verbose mode")
		}
	})

	t.Run("verbose mode lists every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Same content as: https://example.com/report.pdf") {
			t.Error("expected duplicate record in verbose mode")
		}
		if !strings.Contains(output, "Kept: downloads/old.zip") {
			t.Error("expected existing record in verbose mode")
		}
		if !strings.Contains(output, "SHA3-256: deadbeef") {
			t.Error("expected hash in verbose mode")
		}
	})

	t.Run("handles cancelled report", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Cancelled = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "CANCELLED") {
			t.Error("expected output to indicate cancellation")
		}
	})

	t.Run("empty report hides file section", func(t *testing.T) {
		t.Parallel()

		report := model.NewCrawlReport("https://example.com/", "example.com", "downloads", nil)

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "FILES") {
			t.Error("expected no file section for empty report")
		}
		if !strings.Contains(output, "Extensions:  (all)") {
			t.Error("expected empty allow-list to render as (all)")
		}

		buf.Reset()
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "None") {
			t.Error("expected empty sections with WithShowEmpty")
		}
	})

	t.Run("returns bytes written", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("n = %d, buffer has %d bytes", n, buf.Len())
		}
	})
}

func TestSummaryLine(t *testing.T) {
	t.Parallel()

	stats := model.Stats{PagesCrawled: 3, FilesDownloaded: 2, Errors: 1, PagesSaved: 3, DuplicatesSkipped: 4, RobotsBlocked: 5}
	want := "[DONE] Pages: 3, Downloaded: 2, Errors: 1, HTML saved: 3, Duplicates skipped: 4, Robots blocked: 5"
	if got := SummaryLine(stats); got != want {
		t.Errorf("SummaryLine() = %q, want %q", got, want)
	}

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).WriteSummary(stats); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != want+"\n" {
		t.Errorf("WriteSummary() = %q", buf.String())
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.CrawlReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Host != "example.com" {
			t.Errorf("Host = %q", decoded.Host)
		}
		if len(decoded.Files) != 4 {
			t.Fatalf("expected 4 files, got %d", len(decoded.Files))
		}
		if decoded.Files[2].Status != model.DownloadStatusDuplicate {
			t.Errorf("status = %v, want duplicate", decoded.Files[2].Status)
		}
	})

	t.Run("statuses are written by name", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"status":"skipped_duplicate"`) {
			t.Errorf("expected status name in output: %s", buf.String())
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected single-line JSON with trailing newline")
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"start_url\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("WriteSummary outputs counters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteSummary(model.Stats{PagesCrawled: 7}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var stats model.Stats
		if err := json.Unmarshal(buf.Bytes(), &stats); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if stats.PagesCrawled != 7 {
			t.Errorf("PagesCrawled = %d, want 7", stats.PagesCrawled)
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewFullJSONWriter(&buf, "1.2.3").Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wrapped JSONReport
	if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if wrapped.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", wrapped.Version)
	}
	if wrapped.DurationSeconds != 2.5 {
		t.Errorf("DurationSeconds = %v, want 2.5", wrapped.DurationSeconds)
	}
	if wrapped.Report == nil || wrapped.Report.Stats.RobotsBlocked != 2 {
		t.Errorf("unexpected wrapped report: %+v", wrapped.Report)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# filecrawl Report",
			"## Statistics",
			"## Files",
			"### Downloaded",
			"### Duplicates skipped",
			"### Errors",
			"```mermaid",
			"2.0 KiB",
			"same as https://example.com/report.pdf",
			"[!WARNING]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("cancelled crawl gets important alert", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Cancelled = true

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!IMPORTANT]") {
			t.Error("expected IMPORTANT alert for cancelled crawl")
		}
	})

	t.Run("empty crawl", func(t *testing.T) {
		t.Parallel()

		report := model.NewCrawlReport("https://example.com/", "example.com", "downloads", nil)

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No files matched the allow-list.") {
			t.Error("expected empty files message")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart without file outcomes")
		}
		if !strings.Contains(output, "[!NOTE]") {
			t.Error("expected NOTE alert when nothing was downloaded")
		}
	})

	t.Run("WriteSummary writes counter table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(model.Stats{PagesCrawled: 9}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Pages crawled") || !strings.Contains(buf.String(), "9") {
			t.Errorf("unexpected summary: %s", buf.String())
		}
	})
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"xml", FormatText, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, ok := New(FormatText, &buf, "v", false).(*SimpleWriter); !ok {
		t.Error("expected SimpleWriter for text")
	}
	if _, ok := New(FormatJSON, &buf, "v", false).(*FullJSONWriter); !ok {
		t.Error("expected FullJSONWriter for json")
	}
	if _, ok := New(FormatMarkdown, &buf, "v", false).(*MarkdownWriter); !ok {
		t.Error("expected MarkdownWriter for markdown")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := truncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateString("abcdefghij", 8); got != "abcde..." {
		t.Errorf("got %q", got)
	}
	if got := truncateString("abcdef", 2); got != "ab" {
		t.Errorf("got %q", got)
	}
}
