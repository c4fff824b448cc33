package report

import (
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/filecrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStats(md, report)
	w.writeFiles(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the counters as a Markdown table.
func (w *MarkdownWriter) WriteSummary(stats model.Stats) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeStatsTable(md, stats)
	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("filecrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Host", report.Host},
			{"Output", "`" + report.OutputDir + "`"},
			{"Extensions", extensionList(report.Extensions)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	if report.Stats.Errors > 0 {
		return "❌ Complete with " + strconv.Itoa(report.Stats.Errors) + " error(s)"
	}
	return "✅ Complete"
}

// writeStats writes the statistics section.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Statistics")
	md.PlainText("")

	w.writeStatsTable(md, report.Stats)

	if fileOutcomes(report.Stats) > 0 {
		w.writePieChart(md, report.Stats)
	}

	w.writeAlert(md, report)
}

// writeStatsTable writes the counters table.
func (w *MarkdownWriter) writeStatsTable(md *markdown.Markdown, stats model.Stats) {
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Pages crawled", strconv.Itoa(stats.PagesCrawled)},
			{"Files downloaded", strconv.Itoa(stats.FilesDownloaded)},
			{"Already on disk", strconv.Itoa(stats.FilesExisting)},
			{"Duplicates skipped", strconv.Itoa(stats.DuplicatesSkipped)},
			{"Robots blocked", strconv.Itoa(stats.RobotsBlocked)},
			{"Pages saved", strconv.Itoa(stats.PagesSaved)},
			{"**Errors**", "**" + strconv.Itoa(stats.Errors) + "**"},
		},
	})
	md.PlainText("")
}

// fileOutcomes returns the number of file-related outcomes shown in the chart.
func fileOutcomes(stats model.Stats) int {
	return stats.FilesDownloaded + stats.FilesExisting + stats.DuplicatesSkipped
}

// writePieChart writes a mermaid pie chart of file outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("File Outcomes"),
		piechart.WithShowData(true),
	)

	if stats.FilesDownloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(stats.FilesDownloaded))
	}
	if stats.FilesExisting > 0 {
		chart.LabelAndIntValue("Already on disk", uint64(stats.FilesExisting))
	}
	if stats.DuplicatesSkipped > 0 {
		chart.LabelAndIntValue("Duplicates", uint64(stats.DuplicatesSkipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarizing how the crawl went.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Stats
	switch {
	case report.Cancelled:
		md.Importantf("The crawl was cancelled after %d page(s); results are partial.", stats.PagesCrawled)
	case stats.Errors > 0:
		md.Warningf("%d error(s) occurred during the crawl.", stats.Errors)
	case stats.FilesDownloaded == 0:
		md.Note("No new files were downloaded.")
	default:
		md.Tipf("%d file(s) downloaded without errors.", stats.FilesDownloaded)
	}
	md.PlainText("")
}

// writeFiles writes file records grouped by outcome.
func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Files")
	md.PlainText("")

	if len(report.Files) == 0 {
		md.PlainText("No files matched the allow-list.")
		md.PlainText("")
		return
	}

	for _, status := range statusOrder {
		files := report.FilesByStatus(status)
		if len(files) == 0 {
			continue
		}

		md.H3(statusTitle(status))
		md.PlainText("")
		w.writeFilesTable(md, status, files)
	}
}

// writeFilesTable writes a table of file records.
func (w *MarkdownWriter) writeFilesTable(md *markdown.Markdown, status model.DownloadStatus, files []model.FileRecord) {
	headers := []string{"URL", "Path", "Size", "Detail"}

	rows := make([][]string, len(files))
	for i, f := range files {
		path := f.Path
		if path == "" {
			path = "-"
		}
		size := "-"
		if f.Bytes > 0 {
			size = humanize.IBytes(uint64(f.Bytes))
		}
		detail := "-"
		switch status {
		case model.DownloadStatusDuplicate:
			detail = "same as " + f.DuplicateOf
		case model.DownloadStatusError:
			detail = f.Error
		case model.DownloadStatusDownloaded, model.DownloadStatusExists, model.DownloadStatusNoFilename:
		}

		rows[i] = []string{
			truncateString(f.URL, 80),
			truncateString(path, 60),
			size,
			truncateString(detail, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by filecrawl*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
