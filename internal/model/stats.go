package model

// Stats holds the counters accumulated during a single crawl.
// Only the crawl engine mutates a Stats value; observers receive copies.
type Stats struct {
	// PagesCrawled counts frontier entries claimed for fetching,
	// including those later blocked by robots.txt or failing to fetch.
	PagesCrawled int `json:"pages_crawled"`

	// FilesDownloaded counts files written to disk.
	FilesDownloaded int `json:"files_downloaded"`

	// FilesExisting counts files skipped because they were already on disk.
	FilesExisting int `json:"files_existing"`

	// DuplicatesSkipped counts files discarded because their content hash
	// matched a file downloaded earlier in the same crawl.
	DuplicatesSkipped int `json:"duplicates_skipped"`

	// RobotsBlocked counts pages not fetched because robots.txt disallowed them.
	RobotsBlocked int `json:"robots_blocked"`

	// Errors counts every non-fatal failure (fetch, download, save).
	Errors int `json:"errors"`

	// PagesSaved counts page bodies written under the html/ folder.
	PagesSaved int `json:"pages_saved"`
}

// Record updates the download counters for a single download outcome.
func (s *Stats) Record(status DownloadStatus) {
	switch status {
	case DownloadStatusDownloaded:
		s.FilesDownloaded++
	case DownloadStatusExists:
		s.FilesExisting++
	case DownloadStatusDuplicate:
		s.DuplicatesSkipped++
	case DownloadStatusError:
		s.Errors++
	case DownloadStatusNoFilename:
	}
}
