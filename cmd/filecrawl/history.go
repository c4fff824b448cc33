package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/filecrawl/internal/config"
	"github.com/nao1215/filecrawl/internal/database"
	"github.com/nao1215/filecrawl/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "Show past crawls",
		Long: `History lists the crawls recorded in the history database, newest first.
Give a host to list only crawls of that site, or --id to show the full report
of one crawl.

Examples:
  # List the last 20 crawls
  filecrawl history

  # List crawls of one site
  filecrawl history example.com

  # Show crawl 7 as Markdown
  filecrawl history --id 7 -m

  # Find earlier downloads with the same content
  filecrawl history --hash 3a98...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of crawls to list (0 = all)")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the report of the crawl with this ID")
	cmd.Flags().String("hash", "",
		"List downloads whose content has this SHA3-256 hash")
	cmd.Flags().BoolP("json", "j", false,
		"Show the report in JSON format (with --id)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Show the report in Markdown format (with --id)")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: $XDG_DATA_HOME/filecrawl)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	hash, err := flags.GetString("hash")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open the database only after the arguments are known to be valid.
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case id > 0:
		format := report.FormatText
		if jsonOutput {
			format = report.FormatJSON
		} else if markdownOutput {
			format = report.FormatMarkdown
		}
		return showCrawl(ctx, db, id, format, getVerboseFlag(cmd), out)
	case hash != "":
		return listByHash(ctx, db, strings.ToLower(strings.TrimSpace(hash)), out)
	default:
		host := ""
		if len(args) > 0 {
			host = strings.ToLower(strings.TrimSpace(args[0]))
		}
		return listCrawls(ctx, db, host, limit, out)
	}
}

// listCrawls prints one line per stored crawl.
func listCrawls(ctx context.Context, db *database.HistoryDB, host string, limit int, out io.Writer) error {
	crawls, err := db.ListCrawls(ctx, host, limit)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(crawls) == 0 {
		if host != "" {
			fmt.Fprintf(out, "No crawl history found for %s\n", host)
		} else {
			fmt.Fprintln(out, "No crawl history found")
		}
		fmt.Fprintln(out, "\nUse 'filecrawl crawl <url>' to start a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history (%d crawls):\n\n", len(crawls))
	fmt.Fprintf(out, "  %-6s  %-19s  %-10s  %-28s  %s\n", "ID", "Date", "Duration", "Host", "Result")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, c := range crawls {
		fmt.Fprintf(out, "  %-6d  %-19s  %-10s  %-28s  %s\n",
			c.ID,
			c.StartedAt.Local().Format("2006-01-02 15:04:05"),
			c.Duration().Round(time.Second),
			truncate(c.Host, 28),
			formatResult(c),
		)
	}

	fmt.Fprintln(out, "\nUse 'filecrawl history --id <id>' to show the full report of a crawl.")
	return nil
}

// formatResult summarizes the counters of a crawl.
func formatResult(c database.CrawlSummary) string {
	parts := []string{
		fmt.Sprintf("P:%d", c.Stats.PagesCrawled),
		fmt.Sprintf("D:%d", c.Stats.FilesDownloaded),
	}
	if c.Stats.DuplicatesSkipped > 0 {
		parts = append(parts, fmt.Sprintf("Dup:%d", c.Stats.DuplicatesSkipped))
	}
	if c.Stats.Errors > 0 {
		parts = append(parts, fmt.Sprintf("E:%d", c.Stats.Errors))
	}
	if c.Cancelled {
		parts = append(parts, "cancelled")
	}
	return strings.Join(parts, " ")
}

// showCrawl writes the full report of one crawl.
func showCrawl(ctx context.Context, db *database.HistoryDB, id int64, format report.Format, verbose bool, out io.Writer) error {
	crawlReport, err := db.GetCrawlReport(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get crawl %d: %w", id, err)
	}
	if crawlReport == nil {
		return fmt.Errorf("crawl %d not found (use 'filecrawl history' to list crawls)", id)
	}
	_, err = report.New(format, out, getVersion(), verbose).Write(crawlReport)
	return err
}

// listByHash prints every stored download with the given content hash.
func listByHash(ctx context.Context, db *database.HistoryDB, hash string, out io.Writer) error {
	files, err := db.FindByHash(ctx, hash)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No files with hash %s\n", hash)
		return nil
	}
	fmt.Fprintf(out, "Files with hash %s:\n\n", hash)
	for _, f := range files {
		fmt.Fprintf(out, "  [%s] %s\n", f.Status, f.URL)
		if f.Path != "" {
			fmt.Fprintf(out, "      %s\n", f.Path)
		}
	}
	return nil
}

// truncate shortens s to n bytes with an ellipsis.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
