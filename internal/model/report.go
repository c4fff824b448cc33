package model

import "time"

// CrawlReport summarizes a finished crawl for reporting and history storage.
type CrawlReport struct {
	// StartURL is the URL the crawl began from.
	StartURL string `json:"start_url"`

	// Host is the host the crawl was confined to.
	Host string `json:"host"`

	// OutputDir is where files were written.
	OutputDir string `json:"output_dir"`

	// Extensions is the allow-list used. Empty means any extension.
	Extensions []string `json:"extensions"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Cancelled is true when the crawl stopped on a cancellation request.
	Cancelled bool `json:"cancelled"`

	// Stats holds the final counters.
	Stats Stats `json:"stats"`

	// Files lists each file URL the crawl attempted.
	Files []FileRecord `json:"files,omitempty"`
}

// NewCrawlReport creates a report for a crawl starting now.
func NewCrawlReport(startURL, host, outputDir string, extensions []string) *CrawlReport {
	return &CrawlReport{
		StartURL:   startURL,
		Host:       host,
		OutputDir:  outputDir,
		Extensions: extensions,
		StartedAt:  time.Now(),
		Files:      make([]FileRecord, 0),
	}
}

// Duration returns how long the crawl ran.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// AddFile appends a file record.
func (r *CrawlReport) AddFile(rec FileRecord) {
	r.Files = append(r.Files, rec)
}

// FilesByStatus returns the records with the given status.
func (r *CrawlReport) FilesByStatus(status DownloadStatus) []FileRecord {
	out := make([]FileRecord, 0)
	for _, f := range r.Files {
		if f.Status == status {
			out = append(out, f)
		}
	}
	return out
}
