// Package survey runs the interactive price survey session.
package survey

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aluiziolira/go-olx-prices/config"
	"github.com/aluiziolira/go-olx-prices/models"
	"github.com/aluiziolira/go-olx-prices/scraper"
	"github.com/aluiziolira/go-olx-prices/stats"
	"github.com/aluiziolira/go-olx-prices/store"
)

// Scraper gathers the listings of a search across its result pages.
type Scraper interface {
	Run(ctx context.Context, searchURL string, filter *models.PriceFilter) (*models.ScrapeResult, error)
}

// ResultSaver persists a listing collection.
type ResultSaver interface {
	SaveListings(subdir, filename string, listings []models.Listing) (int, string, error)
}

// Controller drives one survey session: query, initial scrape, optional
// filtered re-scrape.
type Controller struct {
	cfg     *config.Config
	scraper Scraper
	store   ResultSaver
	prompt  *Prompter
	out     io.Writer
	now     func() time.Time // file timestamps
	rng     *rand.Rand
}

// NewController wires a session reading answers from in and printing to out.
func NewController(cfg *config.Config, s Scraper, saver ResultSaver, in io.Reader, out io.Writer) *Controller {
	return &Controller{
		cfg:     cfg,
		scraper: s,
		store:   saver,
		prompt:  NewPrompter(in, out),
		out:     out,
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Run executes the session. It returns nil when the session ends normally,
// including the "nothing found" and empty query cases, ErrInputClosed when
// the console input ends early, and ctx's error on cancellation.
func (c *Controller) Run(ctx context.Context) error {
	query, err := c.prompt.Ask(ctx, "🔍 Введіть запит для пошуку на OLX (наприклад: iPhone 12): ")
	if err != nil {
		return err
	}
	if query == "" {
		fmt.Fprintln(c.out, "Порожній запит. Завершення.")
		return nil
	}

	searchURL := scraper.SearchURL(c.cfg, query)
	slog.Info("starting survey", slog.String("query", query), slog.String("search_url", searchURL))

	initial, err := c.scraper.Run(ctx, searchURL, nil)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return err
	}
	if len(initial.Listings) == 0 {
		fmt.Fprintln(c.out, "Нічого не знайдено.")
		return nil
	}

	ts := c.now()
	if err := c.save(ctx, store.PresearchDir, store.FileName(query, ts, false), initial.Listings); err != nil {
		return err
	}

	sample := c.present(initial.Listings)

	for {
		apply, err := c.prompt.AskYesNo(ctx, "\nБажаєте задати фільтр ціни? (так/y/yes/ні/n/no): ")
		if err != nil {
			return err
		}

		if !apply {
			fmt.Fprintln(c.out, "Фільтр не застосовано.")
			return c.save(ctx, store.ResultsDir, store.FileName(query, ts, false), sample)
		}

		filter, err := c.askFilter(ctx)
		if err != nil {
			return err
		}
		filtered, err := c.scraper.Run(ctx, searchURL, filter)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			return err
		}
		if len(filtered.Listings) == 0 {
			fmt.Fprintln(c.out, "Оголошень у заданому діапазоні не знайдено.")
			continue
		}

		picked := c.present(filtered.Listings)
		return c.save(ctx, store.ResultsDir, store.FileName(query, ts, true), picked)
	}
}

func (c *Controller) askFilter(ctx context.Context) (*models.PriceFilter, error) {
	minPrice, err := c.prompt.AskPrice(ctx, "Мінімальна ціна (Enter щоб пропустити): ")
	if err != nil {
		return nil, err
	}
	maxPrice, err := c.prompt.AskPrice(ctx, "Максимальна ціна (Enter щоб пропустити): ")
	if err != nil {
		return nil, err
	}
	return &models.PriceFilter{Min: minPrice, Max: maxPrice}, nil
}

// present samples listings, prints their stats and the enumerated sample,
// and returns the sample.
func (c *Controller) present(listings []models.Listing) []models.Listing {
	sample := stats.Sample(listings, c.cfg.SampleSize, c.rng)
	stats.Report(c.out, models.Prices(sample), c.cfg.Currency)

	var b strings.Builder
	b.WriteString("\nОголошення:\n")
	for i, l := range sample {
		fmt.Fprintf(&b, "%d. %d %s | %s\n", i+1, l.Price, c.cfg.Currency, l.Link)
	}
	fmt.Fprint(c.out, b.String())
	return sample
}

// save writes listings unless ctx is done. A failed write is reported to the
// user and does not end the session.
func (c *Controller) save(ctx context.Context, subdir, filename string, listings []models.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := c.store.SaveListings(subdir, filename, listings); err != nil {
		slog.Error("saving results failed",
			slog.String("subdir", subdir),
			slog.String("file", filename),
			slog.Any("error", err),
		)
		fmt.Fprintf(c.out, "Не вдалося зберегти результати: %v\n", err)
	}
	return nil
}
