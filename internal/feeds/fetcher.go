// Package feeds pulls recent items from RSS/Atom feeds to supplement the
// recency set with current themes.
package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

const httpTimeout = 30 * time.Second

// Fetcher downloads and parses feeds one at a time.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose HTTP client has a 30-second timeout and
// a browser-like user agent.
func NewFetcher() *Fetcher {
	return NewFetcherWithClient(&http.Client{
		Timeout: httpTimeout,
		Transport: &userAgentTransport{
			base: http.DefaultTransport,
		},
	})
}

// NewFetcherWithClient creates a Fetcher that uses the given HTTP client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom User-Agent
// header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	// Some feed hosts reject the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; tweetgen/1.0)")
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")
	return t.base.RoundTrip(req)
}

// Fetch downloads every feed in urls, in order, and returns up to maxPerFeed
// samples from each. The first failing feed aborts the fetch with an error
// wrapping models.ErrDataSource.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, maxPerFeed int) ([]models.TextSample, error) {
	var samples []models.TextSample

	for _, u := range urls {
		fp := gofeed.NewParser()
		fp.Client = f.client

		feed, err := fp.ParseURLWithContext(u, ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing feed %q: %w", models.ErrDataSource, u, err)
		}

		items := feedSamples(feed, maxPerFeed)
		slog.Info("fetched feed", "url", u, "items", len(items))
		samples = append(samples, items...)
	}

	return samples, nil
}
