package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestIsIndirectURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://feeds.feedburner.com/SomeBlog", true},
		{"https://feedproxy.google.com/blog", true},
		{"https://FEEDS.FEEDBURNER.COM/SomeBlog", true},
		{"https://feeds2.feedburner.com/x", true},
		{"https://www.feedburner.com/x", true},
		{"https://feedburner.example.net/feed", true},
		{"https://example.com/feedburner/archive", true},
		{"https://example.com/feed.xml", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIndirectURL(tt.url))
		})
	}
}

func TestLooksLikeFeed(t *testing.T) {
	assert.True(t, LooksLikeFeed(`<rss version="2.0"><channel></channel></rss>`))
	assert.True(t, LooksLikeFeed(`<FEED xmlns="http://www.w3.org/2005/Atom"></FEED>`))
	assert.True(t, LooksLikeFeed(`<rdf:RDF xmlns:rdf="..."></rdf:RDF>`))
	assert.True(t, LooksLikeFeed(`<x xmlns:atom="http://www.w3.org/2005/Atom"/>`))
	assert.False(t, LooksLikeFeed(`<html><body>hello</body></html>`))
}

func TestExtractFeedLink(t *testing.T) {
	base := "https://blog.example.com/posts/index.html"

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"absolute href",
			`<link rel="alternate" type="application/rss+xml" href="https://blog.example.com/feed.xml">`,
			"https://blog.example.com/feed.xml",
		},
		{
			"href before type",
			`<link href="https://blog.example.com/atom.xml" rel="alternate" type="application/atom+xml">`,
			"https://blog.example.com/atom.xml",
		},
		{
			"absolute path",
			`<link rel="alternate" type="application/rss+xml" href="/feed">`,
			"https://blog.example.com/feed",
		},
		{
			"protocol relative",
			`<link rel="alternate" type="application/atom+xml" href="//cdn.example.com/feed">`,
			"https://cdn.example.com/feed",
		},
		{
			"relative path",
			`<link rel="alternate" type="application/xml" href="feed.xml">`,
			"https://blog.example.com/posts/feed.xml",
		},
		{
			"no feed link",
			`<link rel="stylesheet" href="/style.css">`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFeedLink(tt.html, base))
		})
	}
}

func TestResolver_PassesThroughDirectURLs(t *testing.T) {
	r := NewResolver(time.Second, testLogger())
	assert.Equal(t, "https://example.com/feed.xml", r.Resolve(context.Background(), "https://example.com/feed.xml"))
}

func TestResolver_FeedBodyYieldsFinalURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/feedburner/wrapped":
			http.Redirect(w, req, "/actual-feed", http.StatusFound)
		case "/actual-feed":
			w.Write([]byte(`<rss version="2.0"><channel></channel></rss>`))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r := NewResolver(5*time.Second, testLogger())
	resolved := r.Resolve(context.Background(), srv.URL+"/feedburner/wrapped")

	assert.Equal(t, srv.URL+"/actual-feed", resolved)
}

func TestResolver_HTMLBodyYieldsExtractedLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<link rel="alternate" type="application/rss+xml" href="/feed">
		</head><body>landing page</body></html>`))
	}))
	defer srv.Close()

	r := NewResolver(5*time.Second, testLogger())
	resolved := r.Resolve(context.Background(), srv.URL+"/feedburner/page")

	assert.Equal(t, srv.URL+"/feed", resolved)
}

func TestResolver_FailureFallsBackToOriginal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(5*time.Second, testLogger())
	original := srv.URL + "/feedburner/down"
	assert.Equal(t, original, r.Resolve(context.Background(), original))
}

func TestResolver_UsesReaderHeaders(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotUA = req.Header.Get("User-Agent")
		w.Write([]byte(`<rss version="2.0"></rss>`))
	}))
	defer srv.Close()

	r := NewResolver(5*time.Second, testLogger())
	r.Resolve(context.Background(), srv.URL+"/feedburner/x")

	assert.Equal(t, readerUserAgent, gotUA)
}
