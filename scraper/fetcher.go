package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-olx-prices/config"
	"github.com/gocolly/colly/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PageFetcher retrieves and parses one search results page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// CollyFetcher issues a single GET per page through a synchronous colly
// collector. Failures are never retried.
type CollyFetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	cache     *pageCache
	Metrics   *Metrics
}

// NewCollyFetcher builds a fetcher configured from cfg. metrics may be nil.
func NewCollyFetcher(cfg *config.Config, metrics *Metrics) (*CollyFetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &CollyFetcher{
		cfg:       cfg,
		collector: collector,
		cache:     newPageCache(cfg.PageCacheSize, cfg.PageCacheTTL),
		Metrics:   metrics,
	}, nil
}

// WithTransport replaces the HTTP transport used for page requests.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch downloads pageURL and parses it. Any non-2xx status or transport
// failure is returned as a classified error.
func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if body, ok := f.cache.Get(pageURL); ok {
		f.Metrics.IncRequest("cache_hit")
		slog.Debug("page served from cache", slog.String("url", pageURL))
		return parseDocument(body)
	}

	var (
		body   []byte
		status int
	)

	c := f.collector.Clone()
	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		f.Metrics.IncRequest("started")
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			f.Metrics.ObserveDuration(time.Since(start))
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	// Error statuses reach OnResponse, so the 2xx range is judged here only.
	err := c.Visit(pageURL)
	if err == nil && (status < http.StatusOK || status >= http.StatusMultipleChoices) {
		err = fmt.Errorf("unexpected response")
	}
	if err != nil {
		classified := classifyError(err, status)
		category := errorTypeLabel(classified)
		slog.Error("page fetch failed",
			slog.String("url", pageURL),
			slog.Int("status", status),
			slog.String("category", category),
			slog.Any("error", err),
		)
		f.Metrics.IncError(category)
		return nil, classified
	}

	f.cache.Add(pageURL, body)
	return parseDocument(body)
}

func parseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// pageCache keeps raw page bodies for the session so a filtered re-scrape
// can reuse pages fetched moments earlier. A nil cache is disabled.
type pageCache struct {
	lru *expirable.LRU[string, []byte]
}

func newPageCache(size int, ttl time.Duration) *pageCache {
	if ttl <= 0 || size <= 0 {
		return nil
	}
	return &pageCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (pc *pageCache) Get(key string) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	return pc.lru.Get(key)
}

func (pc *pageCache) Add(key string, body []byte) {
	if pc == nil {
		return
	}
	pc.lru.Add(key, body)
}
