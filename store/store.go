// Package store writes scrape results to flat text files.
package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-olx-prices/models"
	"github.com/aluiziolira/go-olx-prices/parser"
)

// Output namespaces under the store root.
const (
	PresearchDir = "presearch"
	ResultsDir   = "results"
)

// TimestampLayout formats run timestamps as YYYY-MM-DD_HH-MM-SS.
const TimestampLayout = "2006-01-02_15-04-05"

// ResultStore persists price and link pairs, one line per listing.
type ResultStore struct {
	root     string
	currency string
	out      io.Writer
}

// NewResultStore writes under root. Save confirmations go to out.
func NewResultStore(root, currency string, out io.Writer) *ResultStore {
	if out == nil {
		out = io.Discard
	}
	return &ResultStore{root: root, currency: currency, out: out}
}

// FileName builds "<sanitized-query>__<timestamp>[__filtered].txt".
func FileName(query string, ts time.Time, filtered bool) string {
	name := parser.SanitizeQuery(query) + "__" + ts.Format(TimestampLayout)
	if filtered {
		name += "__filtered"
	}
	return name + ".txt"
}

// SaveListings is Save over the prices and links of listings.
func (s *ResultStore) SaveListings(subdir, filename string, listings []models.Listing) (int, string, error) {
	return s.Save(subdir, filename, models.Prices(listings), models.Links(listings))
}

// Save writes "<price> <currency> | <link>" lines to root/subdir/filename,
// replacing any existing file. Pairs are zipped, so the shorter input wins.
// It returns the number of lines written and the file path.
func (s *ResultStore) Save(subdir, filename string, prices []int, links []string) (int, string, error) {
	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", fmt.Errorf("create directory %q: %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return 0, "", fmt.Errorf("create result file: %w", err)
	}

	n := min(len(prices), len(links))
	w := bufio.NewWriter(f)
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, "%d %s | %s\n", prices[i], s.currency, links[i]); err != nil {
			f.Close()
			return 0, "", fmt.Errorf("write result line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return 0, "", fmt.Errorf("flush result file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, "", fmt.Errorf("close result file: %w", err)
	}

	fmt.Fprintf(s.out, "Збережено %d результатів у %s\n", n, path)
	return n, path, nil
}
