// Package main provides the entry point for the filecrawl CLI.
//
// filecrawl crawls a website breadth-first from one start URL, stays on the
// start host, and downloads linked files whose extension is in an
// allow-list. Content duplicates are detected by hash, robots.txt can be
// honoured, and every finished crawl is recorded in a local history
// database.
//
// Usage:
//
//	filecrawl crawl <url> [flags]
//	filecrawl categories
//	filecrawl history
//
// See --help for all available options.
package main

// main is the entry point for filecrawl.
func main() {
	Execute()
}
