// Package models defines data structures for the price survey.
package models

// Listing is one price and link pair scraped from a search results page.
type Listing struct {
	Price int
	Link  string
}

// PriceFilter bounds listing prices inclusively. A nil bound is unconstrained.
type PriceFilter struct {
	Min *int
	Max *int
}

// Active reports whether at least one bound is set.
func (f *PriceFilter) Active() bool {
	return f != nil && (f.Min != nil || f.Max != nil)
}

// Contains reports whether price falls within [Min, Max].
func (f *PriceFilter) Contains(price int) bool {
	if f == nil {
		return true
	}
	if f.Min != nil && price < *f.Min {
		return false
	}
	if f.Max != nil && price > *f.Max {
		return false
	}
	return true
}

// StopReason explains why pagination ended.
type StopReason string

const (
	StopPageLimit  StopReason = "page_limit"
	StopNoListings StopReason = "no_listings"
	StopFetchError StopReason = "fetch_error"
)

// ScrapeResult holds the listings gathered in one pagination run, in page order
// then document order. Duplicates are kept.
type ScrapeResult struct {
	Listings     []Listing
	PagesFetched int
	StoppedBy    StopReason
}

// Prices returns the prices of the listings in order.
func (r *ScrapeResult) Prices() []int {
	return Prices(r.Listings)
}

// Prices returns the prices of listings in order.
func Prices(listings []Listing) []int {
	out := make([]int, len(listings))
	for i, l := range listings {
		out[i] = l.Price
	}
	return out
}

// Links returns the links of listings in order.
func Links(listings []Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Link
	}
	return out
}
