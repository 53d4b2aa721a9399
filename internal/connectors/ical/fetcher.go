package ical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/logger"
	"github.com/custodia-labs/rentsync/internal/normalisers/ics"
)

// Verify interface compliance.
var _ driven.FeedFetcher = (*Fetcher)(nil)

const (
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// MaxFeedBytes caps the size of a feed body.
	MaxFeedBytes = 10 << 20

	userAgent = "rentsync/1 (+ical)"
)

// cachedFeed is the last good response for a URL.
type cachedFeed struct {
	body         []byte
	etag         string
	lastModified string
}

// Fetcher downloads iCalendar feeds.
type Fetcher struct {
	client  *http.Client
	cache   *cache.Cache
	group   singleflight.Group
	timeout time.Duration
}

// NewFetcher creates a fetcher. A nil client gets one with DefaultTimeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	timeout := client.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:  client,
		cache:   cache.New(24*time.Hour, time.Hour),
		timeout: timeout,
	}
}

// FetchBookings downloads and parses the connection's feed. The token is
// unused; iCal exports authenticate by secret URL.
func (f *Fetcher) FetchBookings(ctx context.Context, conn *domain.Connection, _ string) ([]*domain.Booking, error) {
	url := conn.Config[domain.ConfigURL]
	if url == "" {
		return nil, fmt.Errorf("ical connection %s has no url: %w", conn.ID, domain.ErrInvalidInput)
	}

	// The shared request belongs to every waiter, so it runs on a context
	// that no single caller can cancel.
	ch := f.group.DoChan(url, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.fetch(fetchCtx, url)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch feed %s: %w", conn.ID, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		logger.Debug("ical %s: shared in-flight fetch", conn.ID)
	}

	cal, err := ics.Parse(res.Val.([]byte))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", conn.ID, err)
	}
	if cal.Skipped > 0 {
		logger.Warn("ical %s: skipped %d malformed events", conn.ID, cal.Skipped)
	}

	return cal.Bookings(conn.FeedPropertyID(), conn.ID, conn.Config[domain.ConfigPlatform]), nil
}

// fetch performs a conditional GET and returns the feed body.
func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	var prev *cachedFeed
	if v, ok := f.cache.Get(url); ok {
		prev = v.(*cachedFeed)
		if prev.etag != "" {
			req.Header.Set("If-None-Match", prev.etag)
		}
		if prev.lastModified != "" {
			req.Header.Set("If-Modified-Since", prev.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w: %w", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && prev != nil:
		logger.Debug("ical: %s not modified", redact(url))
		return prev.body, nil
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusGone:
		// Export links are bearer secrets; a revoked link does not recover.
		return nil, fmt.Errorf("fetch feed: status %d: %w", resp.StatusCode, domain.ErrAuthInvalid)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("fetch feed: %w", domain.ErrRateLimited)
	default:
		return nil, fmt.Errorf("fetch feed: status %d: %w", resp.StatusCode, domain.ErrFeedUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w: %w", domain.ErrFeedUnavailable, err)
	}
	if len(body) > MaxFeedBytes {
		return nil, fmt.Errorf("feed exceeds %d bytes: %w", MaxFeedBytes, domain.ErrInvalidInput)
	}

	entry := &cachedFeed{
		body:         body,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	if entry.etag != "" || entry.lastModified != "" {
		f.cache.Set(url, entry, cache.DefaultExpiration)
	}
	return body, nil
}

// redact drops the query string, which often carries the feed secret.
func redact(url string) string {
	if base, _, ok := strings.Cut(url, "?"); ok {
		return base + "?..."
	}
	return url
}
