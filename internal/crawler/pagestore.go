package crawler

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// pageStore writes fetched page bodies into the html/ folder of a crawl.
type pageStore struct {
	dir string
}

// newPageStore creates the html/ folder under outputDir.
func newPageStore(outputDir string) (*pageStore, error) {
	dir := filepath.Join(outputDir, htmlDirName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
	}
	return &pageStore{dir: dir}, nil
}

// save writes body for pageURL. It returns false without error when a page
// with the same file name was saved before; existing files are never
// overwritten.
func (s *pageStore) save(pageURL string, body []byte) (string, bool, error) {
	dest := filepath.Join(s.dir, pageFileName(pageURL))

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return dest, false, nil
		}
		return dest, false, fmt.Errorf("save page: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return dest, false, fmt.Errorf("save page: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dest)
		return dest, false, fmt.Errorf("save page: %w", err)
	}
	return dest, true, nil
}

// pageFileName maps a page URL to a flat file name: the path without
// surrounding slashes, "index" for the root, unsafe characters replaced
// with "_", and ".html" appended unless already present.
func pageFileName(pageURL string) string {
	name := ""
	if u, err := url.Parse(pageURL); err == nil {
		name = strings.Trim(u.Path, "/")
	}
	if name == "" {
		name = "index"
	}
	name = sanitizeFileName(name)
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".html") && !strings.HasSuffix(lower, ".htm") {
		name += ".html"
	}
	return name
}
