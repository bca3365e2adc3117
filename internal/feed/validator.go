package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"feed_poller/internal/domain"
)

// feedMIMETypes are the markers an HTML page uses to advertise its feed.
var feedMIMETypes = []string{
	"application/rss+xml",
	"application/atom+xml",
	"application/xml",
	"text/xml",
}

// Validator checks whether a feed URL is currently resolvable and parseable
// without touching entry data. Outcomes are reported as a ValidationResult;
// validation is a query, not a mutation.
type Validator struct {
	httpClient *http.Client
	resolver   *Resolver
	timeout    time.Duration
	logger     *slog.Logger
}

func NewValidator(timeout time.Duration, resolver *Resolver, logger *slog.Logger) *Validator {
	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		resolver: resolver,
		timeout:  timeout,
		logger:   logger.With("component", "validator"),
	}
}

// Validate classifies the feed at feedURL.
func (v *Validator) Validate(ctx context.Context, feedURL string) domain.ValidationResult {
	feedURL = v.resolver.Resolve(ctx, feedURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return invalid(fmt.Sprintf("Validation error: %v", err))
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", browserAccept)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return invalid(fmt.Sprintf("Connection timed out after %d seconds", int(v.timeout.Seconds())))
		}
		return invalid(fmt.Sprintf("Connection error: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return invalid(fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return invalid(fmt.Sprintf("Connection error: %v", err))
	}
	content := string(body)
	if content == "" {
		return invalid("Empty response received")
	}

	return classify(content)
}

// classify decides validity from the body alone.
func classify(content string) domain.ValidationResult {
	parsed, err := gofeed.NewParser().ParseString(content)
	if err == nil {
		if len(parsed.Items) == 0 {
			// Still valid, but worth surfacing.
			return domain.ValidationResult{Valid: true, Message: "Warning: Feed has no items"}
		}
		return domain.ValidationResult{Valid: true}
	}

	if IsRDF(content) {
		return domain.ValidationResult{Valid: true}
	}

	if strings.Contains(strings.ToLower(content), "<html") {
		for _, mime := range feedMIMETypes {
			if strings.Contains(strings.ToLower(content), mime) {
				return invalid("This appears to be an HTML page with a feed link. Please use the feed URL directly.")
			}
		}
	}

	return invalid("Not a valid RSS, Atom, or RDF feed")
}

func invalid(message string) domain.ValidationResult {
	return domain.ValidationResult{Valid: false, Message: message}
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)
}
