package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Known redirect-wrapper hosts. Anything containing "feedburner" in the
// host or the full URI is also treated as wrapped; the heuristic is loose
// on purpose.
var indirectHosts = map[string]struct{}{
	"feeds.feedburner.com":  {},
	"feedburner.google.com": {},
	"feeds2.feedburner.com": {},
	"feedproxy.google.com":  {},
	"www.feedburner.com":    {},
}

// IsIndirectURL reports whether rawURL points at a redirect-wrapper service
// rather than the feed itself.
func IsIndirectURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	lower := strings.ToLower(rawURL)
	u, err := url.Parse(lower)
	if err != nil {
		return false
	}

	if _, ok := indirectHosts[u.Host]; ok {
		return true
	}
	return strings.Contains(u.Host, "feedburner") || strings.Contains(lower, "feedburner")
}

// LooksLikeFeed reports whether body contains recognizable feed markers.
func LooksLikeFeed(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<rss") ||
		strings.Contains(lower, "<feed") ||
		strings.Contains(lower, "<rdf:rdf") ||
		strings.Contains(lower, `xmlns="http://www.w3.org/2005/atom"`) ||
		strings.Contains(lower, `xmlns:atom="http://www.w3.org/2005/atom"`)
}

// Both attribute orders, for each feed MIME type.
var feedLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<link[^>]+type=['"]application/rss\+xml['"][^>]+href=['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)<link[^>]+href=['"]([^'"]+)['"][^>]+type=['"]application/rss\+xml['"]`),
	regexp.MustCompile(`(?i)<link[^>]+type=['"]application/atom\+xml['"][^>]+href=['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)<link[^>]+href=['"]([^'"]+)['"][^>]+type=['"]application/atom\+xml['"]`),
	regexp.MustCompile(`(?i)<link[^>]+type=['"]application/xml['"][^>]+href=['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)<link[^>]+href=['"]([^'"]+)['"][^>]+type=['"]application/xml['"]`),
}

// ExtractFeedLink scans HTML for a <link> tag advertising a feed and returns
// its href resolved against baseURL, or "" when none is found.
func ExtractFeedLink(html, baseURL string) string {
	for _, re := range feedLinkPatterns {
		m := re.FindStringSubmatch(html)
		if m == nil || m[1] == "" {
			continue
		}
		return absoluteURL(m[1], baseURL)
	}
	return ""
}

func absoluteURL(href, baseURL string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "http"):
		return href
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Feed-reader request shaping; wrapper services answer differently to
// different user agents.
const (
	readerUserAgent = "Mozilla/5.0 (compatible; FeedReader/1.0; +http://www.feedreader.com/bot)"
	readerAccept    = "application/rss+xml, application/atom+xml, application/xml, text/xml, */*"
)

// Resolver maps redirect-wrapper URLs to the underlying feed URL. It never
// fails: on any error the original URL is returned unchanged.
type Resolver struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewResolver(timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "resolver"),
	}
}

// Resolve returns the underlying content URL for a wrapped feed URL, or
// rawURL unchanged when it is not wrapped or resolution does not improve it.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	if !IsIndirectURL(rawURL) {
		return rawURL
	}

	r.logger.Debug("resolving wrapped feed url", "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", readerUserAgent)
	req.Header.Set("Accept", readerAccept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Warn("wrapped url fetch failed", "url", rawURL, "error", err)
		return rawURL
	}
	defer resp.Body.Close()

	// The client has followed any redirects by now; this is the final URL.
	finalURL := resp.Request.URL.String()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Warn("wrapped url returned non-success status",
			"url", rawURL,
			"status", resp.StatusCode,
		)
		return rawURL
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return rawURL
	}

	if LooksLikeFeed(string(body)) {
		r.logger.Info("resolved wrapped feed url", "from", rawURL, "to", finalURL)
		return finalURL
	}

	if extracted := ExtractFeedLink(string(body), finalURL); extracted != "" && extracted != rawURL {
		r.logger.Info("extracted feed url from wrapper page", "from", rawURL, "to", extracted)
		return extracted
	}

	return rawURL
}
