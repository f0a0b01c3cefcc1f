package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-olx-prices/models"
	"github.com/aluiziolira/go-olx-prices/parser"
)

const (
	cardSelector  = "div[data-testid='listing-grid'] div[data-cy='l-card']"
	priceSelector = "p[data-testid='ad-price']"
	linkSelector  = "a[href]"
)

// PageStats counts what happened to the cards of one page.
type PageStats struct {
	Cards    int
	Skipped  int // no price label, no link, or no digits in the price
	Filtered int // outside the price filter
}

// ExtractListings returns the listings of one results page in document
// order. It returns ErrNoListings when the page holds no listing cards.
// Cards without a usable price or link are skipped.
func ExtractListings(doc *goquery.Document, baseURL string, filter *models.PriceFilter) ([]models.Listing, PageStats, error) {
	cards := doc.Find(cardSelector)
	stats := PageStats{Cards: cards.Length()}
	if stats.Cards == 0 {
		return nil, stats, ErrNoListings
	}

	listings := make([]models.Listing, 0, stats.Cards)
	cards.Each(func(_ int, card *goquery.Selection) {
		listing, ok := extractListing(card, baseURL)
		if !ok {
			stats.Skipped++
			return
		}
		if !filter.Contains(listing.Price) {
			stats.Filtered++
			return
		}
		listings = append(listings, listing)
	})

	return listings, stats, nil
}

func extractListing(card *goquery.Selection, baseURL string) (models.Listing, bool) {
	priceTag := card.Find(priceSelector).First()
	if priceTag.Length() == 0 {
		return models.Listing{}, false
	}
	href, ok := card.Find(linkSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return models.Listing{}, false
	}

	price, ok := parser.ParsePrice(strings.TrimSpace(priceTag.Text()))
	if !ok {
		return models.Listing{}, false
	}

	return models.Listing{
		Price: price,
		Link:  parser.AbsoluteLink(baseURL, strings.TrimSpace(href)),
	}, true
}
