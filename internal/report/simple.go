package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/filecrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports with plain ASCII
// section rules.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose lists every file record instead of only downloads and errors.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with every file record.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStats(&sb, report.Stats)
	w.writeFiles(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the one-line summary printed at the end of a crawl.
func (w *SimpleWriter) WriteSummary(stats model.Stats) (int, error) {
	return io.WriteString(w.output, SummaryLine(stats)+"\n")
}

// SummaryLine formats the final counters on a single line.
func SummaryLine(stats model.Stats) string {
	return fmt.Sprintf(
		"[DONE] Pages: %d, Downloaded: %d, Errors: %d, HTML saved: %d, Duplicates skipped: %d, Robots blocked: %d",
		stats.PagesCrawled,
		stats.FilesDownloaded,
		stats.Errors,
		stats.PagesSaved,
		stats.DuplicatesSkipped,
		stats.RobotsBlocked,
	)
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         FILECRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start URL:   %s\n", report.StartURL)
	fmt.Fprintf(sb, "Host:        %s\n", report.Host)
	fmt.Fprintf(sb, "Output:      %s\n", report.OutputDir)
	fmt.Fprintf(sb, "Extensions:  %s\n", extensionList(report.Extensions))
	fmt.Fprintf(sb, "Started:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:    %s\n", report.Duration().Round(time.Millisecond))

	switch {
	case report.Cancelled:
		sb.WriteString("Status:      CANCELLED (partial results)\n")
	case report.Stats.Errors > 0:
		fmt.Fprintf(sb, "Status:      Complete with %d error(s)\n", report.Stats.Errors)
	default:
		sb.WriteString("Status:      Complete\n")
	}

	sb.WriteString("\n")
}

// writeStats writes the counter section.
func (w *SimpleWriter) writeStats(sb *strings.Builder, stats model.Stats) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Pages crawled:       %d\n", stats.PagesCrawled)
	fmt.Fprintf(sb, "  Files downloaded:    %d\n", stats.FilesDownloaded)
	fmt.Fprintf(sb, "  Already on disk:     %d\n", stats.FilesExisting)
	fmt.Fprintf(sb, "  Duplicates skipped:  %d\n", stats.DuplicatesSkipped)
	fmt.Fprintf(sb, "  Robots blocked:      %d\n", stats.RobotsBlocked)
	fmt.Fprintf(sb, "  Pages saved:         %d\n", stats.PagesSaved)
	fmt.Fprintf(sb, "  Errors:              %d\n", stats.Errors)
	sb.WriteString("\n")
}

// writeFiles writes file records grouped by outcome.
func (w *SimpleWriter) writeFiles(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Files) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FILES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, status := range statusOrder {
		if !w.verbose && (status == model.DownloadStatusExists || status == model.DownloadStatusDuplicate) {
			continue
		}
		files := report.FilesByStatus(status)
		if len(files) == 0 && !w.showEmpty {
			continue
		}
		w.writeFileGroup(sb, status, files)
	}
}

// writeFileGroup writes the records of a single outcome.
func (w *SimpleWriter) writeFileGroup(sb *strings.Builder, status model.DownloadStatus, files []model.FileRecord) {
	fmt.Fprintf(sb, "[%s] %s (%d)\n", w.statusIndicator(status), statusTitle(status), len(files))

	if len(files) == 0 {
		sb.WriteString("  None\n\n")
		return
	}

	for _, f := range files {
		fmt.Fprintf(sb, "  * %s\n", f.URL)
		switch status {
		case model.DownloadStatusDownloaded:
			fmt.Fprintf(sb, "    Saved: %s (%s)\n", f.Path, humanize.IBytes(uint64(max(f.Bytes, 0))))
		case model.DownloadStatusDuplicate:
			fmt.Fprintf(sb, "    Same content as: %s\n", f.DuplicateOf)
		case model.DownloadStatusExists:
			fmt.Fprintf(sb, "    Kept: %s\n", f.Path)
		case model.DownloadStatusError:
			fmt.Fprintf(sb, "    Error: %s\n", f.Error)
		case model.DownloadStatusNoFilename:
		}
		if w.verbose && f.Hash != "" {
			fmt.Fprintf(sb, "    SHA3-256: %s\n", f.Hash)
		}
	}
	sb.WriteString("\n")
}

// statusIndicator returns a short marker for an outcome.
func (w *SimpleWriter) statusIndicator(status model.DownloadStatus) string {
	switch status {
	case model.DownloadStatusDownloaded:
		return "+"
	case model.DownloadStatusExists:
		return "="
	case model.DownloadStatusDuplicate:
		return "~"
	case model.DownloadStatusError:
		return "!"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by filecrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
