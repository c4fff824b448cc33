package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/filecrawl/internal/model"
)

// ErrUnknownFormat is returned by ParseFormat for an unsupported name.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer renders crawl results.
type Writer interface {
	// Write outputs the full report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)

	// WriteSummary outputs only the final counters.
	WriteSummary(stats model.Stats) (int, error)
}

// Format selects a Writer implementation.
type Format int

const (
	// FormatText is the human-readable format.
	FormatText Format = iota
	// FormatJSON is the JSON format with a version wrapper.
	FormatJSON
	// FormatMarkdown is the Markdown format.
	FormatMarkdown
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// ParseFormat converts a format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return FormatText, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// New returns a Writer for format. version is embedded in JSON output and
// verbose lists every file in text output.
func New(format Format, output io.Writer, version string, verbose bool) Writer {
	switch format {
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output, WithVerbose(verbose))
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusOrder is the order in which file outcomes are listed.
var statusOrder = []model.DownloadStatus{
	model.DownloadStatusDownloaded,
	model.DownloadStatusExists,
	model.DownloadStatusDuplicate,
	model.DownloadStatusError,
}

// statusTitle returns a heading for a group of file records.
func statusTitle(status model.DownloadStatus) string {
	switch status {
	case model.DownloadStatusDownloaded:
		return "Downloaded"
	case model.DownloadStatusExists:
		return "Already on disk"
	case model.DownloadStatusDuplicate:
		return "Duplicates skipped"
	case model.DownloadStatusError:
		return "Errors"
	default:
		return status.String()
	}
}

// extensionList formats an allow-list for display.
func extensionList(exts []string) string {
	if len(exts) == 0 {
		return "(all)"
	}
	return strings.Join(exts, ", ")
}
