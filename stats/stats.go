// Package stats summarises scraped prices.
package stats

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
)

// Summary holds descriptive statistics for a price collection.
type Summary struct {
	Count int
	Min   int
	Max   int
	Mean  float64 // rounded to 2 decimal places
}

// Summarize computes count, min, max and mean. It reports false for an empty
// collection.
func Summarize(prices []int) (Summary, bool) {
	if len(prices) == 0 {
		return Summary{}, false
	}

	s := Summary{Count: len(prices), Min: prices[0], Max: prices[0]}
	var sum float64
	for _, p := range prices {
		if p < s.Min {
			s.Min = p
		}
		if p > s.Max {
			s.Max = p
		}
		sum += float64(p)
	}
	s.Mean = math.Round(sum/float64(len(prices))*100) / 100
	return s, true
}

// Report prints the summary of prices to w and returns it. With no prices it
// prints a notice and reports false.
func Report(w io.Writer, prices []int, currency string) (Summary, bool) {
	s, ok := Summarize(prices)
	if !ok {
		fmt.Fprintln(w, "Ціни не знайдено.")
		return Summary{}, false
	}

	fmt.Fprintf(w, "\nЗнайдено %d цін:\n", s.Count)
	fmt.Fprintf(w, "Мінімальна ціна: %d %s\n", s.Min, currency)
	fmt.Fprintf(w, "Максимальна ціна: %d %s\n", s.Max, currency)
	fmt.Fprintf(w, "Середня ціна: %.2f %s\n", s.Mean, currency)
	return s, true
}

// Sample returns items unchanged when len(items) <= n. Otherwise it returns n
// items drawn uniformly without replacement. items is not modified.
func Sample[T any](items []T, n int, rng *rand.Rand) []T {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return items
	}

	picked := make([]T, len(items))
	copy(picked, items)
	// partial Fisher-Yates
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:n]
}
