package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/aluiziolira/go-olx-prices/config"
	"github.com/aluiziolira/go-olx-prices/models"
)

// Paginator walks the search result pages of one query in order.
type Paginator struct {
	fetcher  PageFetcher
	baseURL  string
	maxPages int
	metrics  *Metrics
	out      io.Writer
}

// NewPaginator builds a paginator. Progress messages go to out.
func NewPaginator(fetcher PageFetcher, cfg *config.Config, metrics *Metrics, out io.Writer) *Paginator {
	if out == nil {
		out = io.Discard
	}
	return &Paginator{
		fetcher:  fetcher,
		baseURL:  cfg.BaseURL,
		maxPages: cfg.MaxPages,
		metrics:  metrics,
		out:      out,
	}
}

// SearchURL builds the search address for query from the configured template.
func SearchURL(cfg *config.Config, query string) string {
	return cfg.BaseURL + fmt.Sprintf(cfg.SearchPath, url.PathEscape(query))
}

// PageURL appends the page number to a search address.
func PageURL(searchURL string, page int) string {
	return fmt.Sprintf("%s?page=%d", searchURL, page)
}

// Run scrapes pages 1..maxPages of searchURL. It stops at the first page that
// fails to load or holds no listing cards and returns what was gathered up
// to that point. The only error returned is ctx's.
func (p *Paginator) Run(ctx context.Context, searchURL string, filter *models.PriceFilter) (*models.ScrapeResult, error) {
	result := &models.ScrapeResult{StoppedBy: models.StopPageLimit}

	for page := 1; page <= p.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fmt.Fprintf(p.out, "Завантажую сторінку %d...\n", page)
		doc, err := p.fetcher.Fetch(ctx, PageURL(searchURL, page))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			p.reportFetchError(err)
			p.metrics.IncPage("error")
			result.StoppedBy = models.StopFetchError
			break
		}
		result.PagesFetched++

		listings, stats, err := ExtractListings(doc, p.baseURL, filter)
		if errors.Is(err, ErrNoListings) {
			fmt.Fprintln(p.out, "Оголошень більше не знайдено.")
			p.metrics.IncPage("no_listings")
			result.StoppedBy = models.StopNoListings
			break
		}

		p.metrics.IncPage("ok")
		p.metrics.AddPageStats(len(listings), stats)
		slog.Debug("page extracted",
			slog.Int("page", page),
			slog.Int("cards", stats.Cards),
			slog.Int("accepted", len(listings)),
			slog.Int("skipped", stats.Skipped),
			slog.Int("filtered", stats.Filtered),
		)
		result.Listings = append(result.Listings, listings...)
	}

	slog.Debug("pagination finished",
		slog.String("search_url", searchURL),
		slog.Bool("filtered", filter.Active()),
		slog.Int("pages", result.PagesFetched),
		slog.Int("listings", len(result.Listings)),
		slog.String("stopped_by", string(result.StoppedBy)),
	)
	return result, nil
}

func (p *Paginator) reportFetchError(err error) {
	if code := StatusCode(err); code != 0 {
		fmt.Fprintf(p.out, "Помилка завантаження сторінки: %d\n", code)
		return
	}
	fmt.Fprintf(p.out, "Помилка запиту: %v\n", err)
}
