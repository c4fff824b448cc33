// Package database provides SQLite-based crawl history for filecrawl.
//
// HistoryDB stores one row per finished crawl (start URL, host, output
// directory, allow-list, timing and final counters) and one row per file
// URL the crawl attempted. It is a result log only: the frontier and the
// visited set of a crawl are never written here and never reloaded.
//
// The database lives in a single file, filecrawl.db, under the XDG data
// directory by default. modernc.org/sqlite is used so the binary stays
// CGO-free.
package database
