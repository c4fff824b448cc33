package crawler

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptAny  = "*/*"
)

// fetcher issues the GET requests of a crawl.
type fetcher struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
}

// page is a fetched HTML page.
type page struct {
	url         string
	contentType string
	body        []byte
}

// response is a successful response whose body has been decoded according
// to its Content-Encoding. The caller must close Body and call cancel.
type response struct {
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          io.ReadCloser
	cancel        context.CancelFunc
}

// Close releases the body and the request context.
func (r *response) Close() error {
	err := r.Body.Close()
	r.cancel()
	return err
}

// get performs a GET request. The fetcher timeout bounds the wait for the
// response headers and every later gap between body reads, so a large file
// that keeps streaming is never cut off. Transport failures and non-2xx
// statuses are returned as *FetchError.
func (f *fetcher) get(ctx context.Context, rawURL, accept string) (*response, error) {
	ctx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(f.timeout, cancel)
	stop := func() {
		timer.Stop()
		cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		stop()
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		stop()
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		stop()
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	raw := &idleTimeoutBody{ReadCloser: resp.Body, timer: timer, timeout: f.timeout}
	timer.Reset(f.timeout)

	body, err := decodeBody(resp.Header, raw)
	if err != nil {
		_ = raw.Close()
		stop()
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	length := resp.ContentLength
	if body != io.ReadCloser(raw) {
		length = -1
	}
	return &response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		ContentLength: length,
		Body:          body,
		cancel:        stop,
	}, nil
}

// idleTimeoutBody pushes the request deadline forward on every read that
// returns data.
type idleTimeoutBody struct {
	io.ReadCloser
	timer   *time.Timer
	timeout time.Duration
}

// Read implements io.Reader.
func (b *idleTimeoutBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.timer.Reset(b.timeout)
	}
	return n, err
}

// fetchPage downloads an HTML page, reading at most maxBodySize bytes.
func (f *fetcher) fetchPage(ctx context.Context, rawURL string) (*page, error) {
	resp, err := f.get(ctx, rawURL, acceptHTML)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return &page{
		url:         rawURL,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

// decodeBody wraps body with a decoder for the Content-Encoding in header.
func decodeBody(header http.Header, body io.ReadCloser) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		return &decodedBody{Reader: gz, closers: []io.Closer{gz, body}}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(body), closers: []io.Closer{body}}, nil
	case "deflate":
		fl := flate.NewReader(body)
		return &decodedBody{Reader: fl, closers: []io.Closer{fl, body}}, nil
	default:
		return body, nil
	}
}

// decodedBody closes the decoder and the underlying body together.
type decodedBody struct {
	io.Reader
	closers []io.Closer
}

// Close closes every wrapped closer, returning the first error.
func (d *decodedBody) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// isHTML reports whether a Content-Type may carry HTML. An empty type is
// treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
