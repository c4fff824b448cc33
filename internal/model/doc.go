// Package model defines the result types shared by the crawler, the report
// writers and the history database.
//
//   - Stats: counters accumulated during one crawl
//   - DownloadStatus and FileRecord: the outcome of one file URL
//   - CrawlReport: everything known about a finished crawl
//
// The types carry JSON tags so reports and history rows serialize the same
// way.
package model
