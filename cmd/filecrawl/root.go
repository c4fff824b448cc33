package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitInterrupted is the exit status of a crawl stopped with Ctrl-C.
const exitInterrupted = 130

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

// Error implements error.
func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e *exitError) Unwrap() error {
	return e.err
}

// NewRootCmd creates the root command for filecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filecrawl",
		Short: "Crawl a website and download linked files",
		Long: `filecrawl crawls a website breadth-first from a start URL and downloads
the files it links to, filtered by an extension allow-list.

Only pages on the start host are followed. Files may live on any host.
Files with content identical to an earlier download are discarded, and
robots.txt can be honoured with --respect-robots.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCategoriesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with the command's status.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err to stderr and returns the exit status for it.
func reportError(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(os.Stderr, exitErr.err)
		}
		return exitErr.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
