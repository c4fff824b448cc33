package model

// DownloadStatus is the outcome of a single file download attempt.
type DownloadStatus int

const (
	// DownloadStatusNoFilename means the URL had no usable file name and
	// nothing was done. It is neither a success nor an error.
	DownloadStatusNoFilename DownloadStatus = iota

	// DownloadStatusDownloaded means the file was written to disk.
	DownloadStatusDownloaded

	// DownloadStatusExists means a file with the same name already existed
	// and no request was made.
	DownloadStatusExists

	// DownloadStatusDuplicate means the content hash matched an earlier
	// download and the new file was discarded.
	DownloadStatusDuplicate

	// DownloadStatusError means a network or filesystem failure occurred.
	DownloadStatusError
)

// String returns the status name used in logs and reports.
func (s DownloadStatus) String() string {
	switch s {
	case DownloadStatusNoFilename:
		return "no_filename"
	case DownloadStatusDownloaded:
		return "downloaded"
	case DownloadStatusExists:
		return "skipped_exists"
	case DownloadStatusDuplicate:
		return "skipped_duplicate"
	case DownloadStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseDownloadStatus converts a status name back into a DownloadStatus.
// Unknown names map to DownloadStatusError.
func ParseDownloadStatus(s string) DownloadStatus {
	switch s {
	case "no_filename":
		return DownloadStatusNoFilename
	case "downloaded":
		return DownloadStatusDownloaded
	case "skipped_exists":
		return DownloadStatusExists
	case "skipped_duplicate":
		return DownloadStatusDuplicate
	default:
		return DownloadStatusError
	}
}

// MarshalText implements encoding.TextMarshaler so JSON reports carry names.
func (s DownloadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *DownloadStatus) UnmarshalText(text []byte) error {
	*s = ParseDownloadStatus(string(text))
	return nil
}

// FileRecord describes what happened to one file URL during a crawl.
type FileRecord struct {
	// URL is the absolute file URL.
	URL string `json:"url"`

	// Path is the destination path on disk. Empty when no filename could be derived.
	Path string `json:"path,omitempty"`

	// Status is the download outcome.
	Status DownloadStatus `json:"status"`

	// Hash is the hex SHA3-256 of the content, set for downloaded and duplicate files.
	Hash string `json:"hash,omitempty"`

	// DuplicateOf is the URL that first produced the same content.
	DuplicateOf string `json:"duplicate_of,omitempty"`

	// Bytes is the number of bytes received.
	Bytes int64 `json:"bytes,omitempty"`

	// Error is the failure message for DownloadStatusError.
	Error string `json:"error,omitempty"`
}
