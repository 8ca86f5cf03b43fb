// Package sheets fetches published spreadsheet CSV from HTTP or local files.
package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

var (
	// ErrTransport covers unreachable sources and non-2xx responses.
	ErrTransport = errors.New("sheets: transport failure")
	// ErrFormat covers payloads that are not usable CSV, typically an HTML
	// login page served for a sheet that is not published.
	ErrFormat = errors.New("sheets: unexpected format")
)

const maxBodyBytes = 20 << 20

// Fetcher retrieves sheet contents.
type Fetcher struct {
	client *http.Client
	now    func() time.Time
}

// NewFetcher creates a Fetcher whose HTTP requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// IsLocal reports whether source names a file rather than an HTTP URL.
func IsLocal(source string) bool {
	return source != "" && !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

// LocalPath strips an optional file:// scheme.
func LocalPath(source string) string {
	return strings.TrimPrefix(source, "file://")
}

// Fetch returns the raw body of source. HTTP sources get a cache-busting _t
// query parameter.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrTransport)
	}

	var data []byte
	if IsLocal(source) {
		b, err := os.ReadFile(LocalPath(source))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		data = b
	} else {
		b, err := f.get(ctx, source)
		if err != nil {
			return nil, err
		}
		data = b
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty body from %s", ErrFormat, redact(source))
	}
	if looksLikeHTML(data) {
		return nil, fmt.Errorf("%w: HTML page instead of CSV from %s", ErrFormat, redact(source))
	}
	return data, nil
}

// FetchRecords fetches source and decodes it as header-keyed CSV.
func (f *Fetcher) FetchRecords(ctx context.Context, source string) ([]tabular.Record, error) {
	data, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	recs, err := tabular.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return recs, nil
}

// FetchCell returns the trimmed top-left cell of source.
func (f *Fetcher) FetchCell(ctx context.Context, source string) (string, error) {
	data, err := f.Fetch(ctx, source)
	if err != nil {
		return "", err
	}
	rows, err := tabular.DecodeRaw(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 || strings.TrimSpace(rows[0][0]) == "" {
		return "", fmt.Errorf("%w: expected a value in the first cell of %s", ErrFormat, redact(source))
	}
	return strings.TrimSpace(rows[0][0]), nil
}

func (f *Fetcher) get(ctx context.Context, source string) ([]byte, error) {
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	target := source + sep + "_t=" + strconv.FormatInt(f.now().UnixMilli(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP status %d from %s", ErrTransport, resp.StatusCode, redact(source))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		return nil, fmt.Errorf("%w: HTML content type from %s", ErrFormat, redact(source))
	}
	return body, nil
}

func looksLikeHTML(data []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(data))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// redact drops the query string, which for published sheets carries the gid
// but for secret sheets may carry tokens.
func redact(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return source
	}
	u.RawQuery = ""
	return u.String()
}
