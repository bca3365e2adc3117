package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// StatusError reports a non-success HTTP status. Code is zero when every
// attempt failed at the transport level before a status was seen.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return "no response received"
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// Browser-shaped request headers. Several providers answer 403 to anything
// that does not look like a browser.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	browserAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage   = "en-US,en;q=0.5"
)

// FetcherConfig holds retrieval configuration.
type FetcherConfig struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

// Fetcher retrieves feed bodies over HTTP with retry. Backoff between
// attempts is linear: backoff × attempt number.
type Fetcher struct {
	httpClient  *http.Client
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		logger:      logger.With("component", "fetcher"),
	}
}

// Fetch retrieves url, returning the response body as text. A non-success
// status and a transport error both count as a failed attempt; exhausting
// all attempts returns an error wrapping *StatusError with the last
// observed status.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	lastStatus := 0

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, status, err := f.doRequest(ctx, url)
		if err == nil && status >= 200 && status < 300 {
			return body, nil
		}
		if status != 0 {
			lastStatus = status
		}

		if attempt == f.maxAttempts {
			break
		}

		delay := f.backoff * time.Duration(attempt)
		f.logger.Warn("fetch failed, retrying",
			"url", url,
			"attempt", attempt,
			"status", status,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", fmt.Errorf("fetch %s after %d attempts: %w", url, f.maxAttempts, &StatusError{Code: lastStatus})
}

func (f *Fetcher) doRequest(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", browserAccept)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	return string(body), resp.StatusCode, nil
}
