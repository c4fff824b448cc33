package crawler

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nao1215/filecrawl/internal/model"
)

// copyBufferSize is the chunk size used when streaming a file to disk.
const copyBufferSize = 32 * 1024

// tempFilePattern names in-progress downloads. It is independent of the
// destination name so that any valid file name stays valid while streaming.
const tempFilePattern = ".filecrawl-*.part"

// DownloadResult is the outcome of Downloader.Download.
type DownloadResult struct {
	// Status is the download outcome.
	Status model.DownloadStatus

	// URL is the requested file URL.
	URL string

	// Path is the destination on disk, empty for DownloadStatusNoFilename.
	Path string

	// Hash is the hex content hash for downloaded and duplicate files.
	Hash string

	// DuplicateOf is the URL that first produced Hash when Status is
	// DownloadStatusDuplicate.
	DuplicateOf string

	// Bytes is the number of bytes received.
	Bytes int64

	// Err is set when Status is DownloadStatusError.
	Err error
}

// Record converts the result into a report record.
func (r DownloadResult) Record() model.FileRecord {
	rec := model.FileRecord{
		URL:         r.URL,
		Path:        r.Path,
		Status:      r.Status,
		Hash:        r.Hash,
		DuplicateOf: r.DuplicateOf,
		Bytes:       r.Bytes,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

// Downloader streams files into a directory, honoring the skip-existing
// and duplicate-content policies.
type Downloader struct {
	fetcher        *fetcher
	limiter        *RateLimiter
	dedupe         *DuplicateDetector
	dir            string
	skipDuplicates bool
	logger         *slog.Logger
}

// Download fetches rawURL into the download directory.
//
// A URL without a file name is a no-op. An existing destination file is
// left untouched and no request is made. Otherwise the body is streamed to
// a temporary file while its hash is computed; the temporary file is
// renamed into place, or removed on failure or when the content duplicates
// an earlier download and duplicates are skipped.
func (d *Downloader) Download(ctx context.Context, rawURL string) DownloadResult {
	result := DownloadResult{URL: rawURL}

	name, ok := FileNameFromURL(rawURL)
	if !ok {
		result.Status = model.DownloadStatusNoFilename
		return result
	}
	dest := filepath.Join(d.dir, name)
	result.Path = dest

	if _, err := os.Stat(dest); err == nil {
		result.Status = model.DownloadStatusExists
		return result
	} else if !errors.Is(err, fs.ErrNotExist) {
		return d.fail(result, fmt.Errorf("stat %s: %w", dest, err))
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return d.fail(result, err)
	}

	resp, err := d.fetcher.get(ctx, rawURL, acceptAny)
	if err != nil {
		return d.fail(result, err)
	}
	defer resp.Close()

	tmp, err := os.CreateTemp(d.dir, tempFilePattern)
	if err != nil {
		return d.fail(result, fmt.Errorf("create temporary file: %w", err))
	}
	tmpName := tmp.Name()

	h := NewHash()
	buf := make([]byte, copyBufferSize)
	n, copyErr := io.CopyBuffer(io.MultiWriter(tmp, h), resp.Body, buf)
	closeErr := tmp.Close()
	result.Bytes = n
	if copyErr != nil {
		_ = os.Remove(tmpName)
		return d.fail(result, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: copyErr})
	}
	if closeErr != nil {
		_ = os.Remove(tmpName)
		return d.fail(result, fmt.Errorf("write %s: %w", dest, closeErr))
	}

	sum := hex.EncodeToString(h.Sum(nil))
	result.Hash = sum

	if d.skipDuplicates {
		if first, seen := d.dedupe.Lookup(sum); seen {
			_ = os.Remove(tmpName)
			result.Status = model.DownloadStatusDuplicate
			result.DuplicateOf = first
			return result
		}
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return d.fail(result, fmt.Errorf("move into place: %w", err))
	}
	d.dedupe.Record(sum, rawURL)

	result.Status = model.DownloadStatusDownloaded
	return result
}

// fail marks result as an error and logs it.
func (d *Downloader) fail(result DownloadResult, err error) DownloadResult {
	d.logger.Warn("download failed", "url", result.URL, "error", err)
	result.Status = model.DownloadStatusError
	result.Err = err
	return result
}

// FileNameFromURL derives the local file name from the last segment of the
// URL path. It reports false when the path is empty or names a directory.
func FileNameFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		return "", false
	}
	base := path.Base(p)
	if base == "." || base == ".." || base == "/" {
		return "", false
	}
	name := sanitizeFileName(base)
	if strings.Trim(name, "._ ") == "" {
		return "", false
	}
	return name, true
}
