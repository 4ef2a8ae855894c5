package scraper

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

const defaultSizeCap = 8 << 20

var (
	ErrFetchFailed = errors.New("fetch failed")
	ErrProbeFailed = errors.New("media probe failed")
)

// StatusError reports a non-200 answer from the remote server.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP status %d", e.Code)
}

func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	sizeCap   int64
}

func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		sizeCap:   defaultSizeCap,
	}
}

// Fetch downloads an HTML page and returns it decoded to UTF-8. encoding
// overrides the charset announced by the server when set.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, timeout time.Duration, encoding string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", ErrFetchFailed, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetchFailed, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: %w", ErrFetchFailed, pageURL, &StatusError{Code: resp.StatusCode})
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFetchFailed, pageURL, err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, f.sizeCap))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %w", ErrFetchFailed, err)
	}

	decoded, err := decode(data, resp.Header.Get("Content-Type"), encoding)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetchFailed, pageURL, err)
	}

	return decoded, nil
}

func decode(data []byte, contentType, encoding string) (string, error) {
	if encoding != "" {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return "", err
		}
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data), nil
	}
	return string(out), nil
}
