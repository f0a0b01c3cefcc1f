package survey

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-olx-prices/config"
	"github.com/aluiziolira/go-olx-prices/models"
	"github.com/aluiziolira/go-olx-prices/scraper"
	"github.com/aluiziolira/go-olx-prices/store"
)

var fixedTime = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://olx.test"
	cfg.OutputDir = root
	return cfg
}

func intPtr(v int) *int {
	return &v
}

// fakeScraper returns queued results and records the filters it was given.
type fakeScraper struct {
	results []*models.ScrapeResult
	filters []*models.PriceFilter
	urls    []string
}

func (fs *fakeScraper) Run(ctx context.Context, searchURL string, filter *models.PriceFilter) (*models.ScrapeResult, error) {
	fs.urls = append(fs.urls, searchURL)
	fs.filters = append(fs.filters, filter)
	if len(fs.results) == 0 {
		return &models.ScrapeResult{}, nil
	}
	next := fs.results[0]
	fs.results = fs.results[1:]
	return next, nil
}

func listings(prices ...int) *models.ScrapeResult {
	result := &models.ScrapeResult{}
	for i, p := range prices {
		result.Listings = append(result.Listings, models.Listing{
			Price: p,
			Link:  fmt.Sprintf("http://olx.test/d/item-%d.html", i),
		})
	}
	return result
}

func newTestController(t *testing.T, root string, fs Scraper, input string, out *strings.Builder) *Controller {
	t.Helper()
	cfg := testConfig(root)
	c := NewController(cfg, fs, store.NewResultStore(root, cfg.Currency, out), strings.NewReader(input), out)
	c.now = func() time.Time { return fixedTime }
	c.rng = rand.New(rand.NewPCG(3, 4))
	return c
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Count(string(data), "\n")
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		input    string
		expected Answer
	}{
		{"так", AnswerYes},
		{"ТАК", AnswerYes},
		{" y ", AnswerYes},
		{"Yes", AnswerYes},
		{"ні", AnswerNo},
		{"НІ", AnswerNo},
		{"n", AnswerNo},
		{"NO", AnswerNo},
		{"maybe", AnswerUnknown},
		{"", AnswerUnknown},
		{"yess", AnswerUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseAnswer(tt.input); got != tt.expected {
				t.Errorf("ParseAnswer(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAskYesNoRepromptsUntilRecognised(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader("maybe\n\nні\n"), &out)

	yes, err := p.AskYesNo(context.Background(), "? ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if yes {
		t.Fatalf("expected no")
	}
	if got := strings.Count(out.String(), "Відповідь не розпізнана"); got != 2 {
		t.Fatalf("reprompts = %d, want 2:\n%s", got, out.String())
	}
}

func TestAskPrice(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  *int
		reprompts int
	}{
		{name: "blank skips", input: "\n", expected: nil},
		{name: "number", input: "1500\n", expected: intPtr(1500)},
		{name: "zero", input: "0\n", expected: intPtr(0)},
		{name: "padded", input: "  250 \n", expected: intPtr(250)},
		{name: "negative rejected", input: "-5\n10\n", expected: intPtr(10), reprompts: 1},
		{name: "letters rejected", input: "abc\n12.5\n\n", expected: nil, reprompts: 2},
		{name: "last line without newline", input: "42", expected: intPtr(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.AskPrice(context.Background(), "price: ")
			if err != nil {
				t.Fatalf("ask: %v", err)
			}
			switch {
			case tt.expected == nil && got != nil:
				t.Fatalf("got %d, want nil", *got)
			case tt.expected != nil && (got == nil || *got != *tt.expected):
				t.Fatalf("got %v, want %d", got, *tt.expected)
			}
			if n := strings.Count(out.String(), "Будь ласка, введіть число"); n != tt.reprompts {
				t.Fatalf("reprompts = %d, want %d", n, tt.reprompts)
			}
		})
	}
}

func TestAskReturnsErrInputClosed(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &strings.Builder{})
	if _, err := p.Ask(context.Background(), "? "); !errors.Is(err, ErrInputClosed) {
		t.Fatalf("err = %v, want ErrInputClosed", err)
	}
}

func TestAskStopsWaitingOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPrompter(pr, io.Discard)

	done := make(chan error, 1)
	go func() {
		_, err := p.Ask(ctx, "? ")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Ask still blocked on input after cancel")
	}
}

// cancellingScraper cancels the session while returning listings, as an
// interrupt arriving during the scrape would.
type cancellingScraper struct {
	cancel context.CancelFunc
	calls  int
}

func (cs *cancellingScraper) Run(ctx context.Context, searchURL string, filter *models.PriceFilter) (*models.ScrapeResult, error) {
	cs.calls++
	cs.cancel()
	return listings(100, 200), nil
}

func TestRunInterruptedDuringScrapeSavesNothing(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cs := &cancellingScraper{cancel: cancel}
	var out strings.Builder

	err := newTestController(t, root, cs, "phone\nn\n", &out).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if cs.calls != 1 {
		t.Fatalf("scrapes = %d, want 1", cs.calls)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no output after interrupt, found %d entries", len(entries))
	}
	if strings.Contains(out.String(), "Фільтр не застосовано.") {
		t.Fatalf("session continued after interrupt:\n%s", out.String())
	}
}

// interruptingSaver cancels the session on the first save, so the interrupt
// lands while the filter prompt is pending.
type interruptingSaver struct {
	cancel context.CancelFunc
	saved  []string
}

func (is *interruptingSaver) SaveListings(subdir, filename string, items []models.Listing) (int, string, error) {
	is.saved = append(is.saved, subdir)
	is.cancel()
	return len(items), filename, nil
}

func TestRunInterruptedAtPromptSkipsResults(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	saver := &interruptingSaver{cancel: cancel}
	fs := &fakeScraper{results: []*models.ScrapeResult{listings(100, 200)}}
	var out strings.Builder

	c := NewController(testConfig(root), fs, saver, strings.NewReader("phone\nn\n"), &out)
	c.now = func() time.Time { return fixedTime }

	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(saver.saved) != 1 || saver.saved[0] != store.PresearchDir {
		t.Fatalf("saves = %v, want only the presearch save", saver.saved)
	}
}

func TestRunEmptyQueryEndsSession(t *testing.T) {
	root := t.TempDir()
	fs := &fakeScraper{}
	var out strings.Builder

	if err := newTestController(t, root, fs, "\n", &out).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(fs.urls) != 0 {
		t.Fatalf("scraper called for empty query")
	}
	if !strings.Contains(out.String(), "Порожній запит. Завершення.") {
		t.Fatalf("missing empty query message:\n%s", out.String())
	}
}

func TestRunWithoutFilterSavesPresearchAndSample(t *testing.T) {
	root := t.TempDir()
	prices := make([]int, 25)
	for i := range prices {
		prices[i] = 1000 + i*10
	}
	fs := &fakeScraper{results: []*models.ScrapeResult{listings(prices...)}}
	var out strings.Builder

	err := newTestController(t, root, fs, "iPhone 12\nні\n", &out).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if fs.urls[0] != "http://olx.test/uk/list/q-iPhone%2012/" {
		t.Fatalf("search url = %q", fs.urls[0])
	}
	if fs.filters[0] != nil {
		t.Fatalf("initial scrape should be unfiltered")
	}

	name := store.FileName("iPhone 12", fixedTime, false)
	if got := countLines(t, filepath.Join(root, store.PresearchDir, name)); got != 25 {
		t.Fatalf("presearch lines = %d, want 25", got)
	}
	if got := countLines(t, filepath.Join(root, store.ResultsDir, name)); got != 20 {
		t.Fatalf("results lines = %d, want 20", got)
	}

	text := out.String()
	for _, want := range []string{"Знайдено 20 цін:", "\nОголошення:\n", "1. ", "20. ", "Фільтр не застосовано."} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRunFilterRetriesAfterEmptyRange(t *testing.T) {
	root := t.TempDir()
	fs := &fakeScraper{results: []*models.ScrapeResult{
		listings(100, 200, 300),
		{},
		listings(200),
	}}
	var out strings.Builder

	input := strings.Join([]string{
		"bike",
		"може", // unrecognised
		"так",
		"5000",
		"",
		"y",
		"abc", // not a number
		"150",
		"250",
	}, "\n") + "\n"

	if err := newTestController(t, root, fs, input, &out).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(fs.filters) != 3 {
		t.Fatalf("scrapes = %d, want 3", len(fs.filters))
	}
	first := fs.filters[1]
	if first == nil || first.Min == nil || *first.Min != 5000 || first.Max != nil {
		t.Fatalf("first filter = %+v", first)
	}
	second := fs.filters[2]
	if second == nil || *second.Min != 150 || *second.Max != 250 {
		t.Fatalf("second filter = %+v", second)
	}

	text := out.String()
	for _, want := range []string{
		"Відповідь не розпізнана",
		"Оголошень у заданому діапазоні не знайдено.",
		"Будь ласка, введіть число або залиште порожнім.",
		"1. 200 грн | http://olx.test/d/item-0.html",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}

	filtered := filepath.Join(root, store.ResultsDir, store.FileName("bike", fixedTime, true))
	data, err := os.ReadFile(filtered)
	if err != nil {
		t.Fatalf("read filtered results: %v", err)
	}
	if string(data) != "200 грн | http://olx.test/d/item-0.html\n" {
		t.Fatalf("filtered file = %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, store.ResultsDir, store.FileName("bike", fixedTime, false))); !os.IsNotExist(err) {
		t.Fatalf("unfiltered results file should not exist, stat err = %v", err)
	}
}

func TestRunInputClosedMidSession(t *testing.T) {
	root := t.TempDir()
	fs := &fakeScraper{results: []*models.ScrapeResult{listings(100)}}
	var out strings.Builder

	err := newTestController(t, root, fs, "phone\n", &out).Run(context.Background())
	if !errors.Is(err, ErrInputClosed) {
		t.Fatalf("err = %v, want ErrInputClosed", err)
	}
	if _, err := os.Stat(filepath.Join(root, store.PresearchDir)); err != nil {
		t.Fatalf("presearch should already be saved: %v", err)
	}
}

func TestRunSaveFailureIsReported(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	fs := &fakeScraper{results: []*models.ScrapeResult{listings(100)}}
	var out strings.Builder

	// Saving under a regular file fails for both namespaces.
	err := newTestController(t, blocker, fs, "phone\nn\n", &out).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Count(out.String(), "Не вдалося зберегти результати"); got != 2 {
		t.Fatalf("save failures reported = %d, want 2:\n%s", got, out.String())
	}
}

func TestRunFirstPageFailureWritesNothing(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)

	fetcher, err := scraper.NewCollyFetcher(cfg, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	search := scraper.SearchURL(cfg, "iPhone 12")
	transport.RegisterResponder("GET", scraper.PageURL(search, 1),
		httpmock.NewStringResponder(http.StatusServiceUnavailable, ""))
	fetcher.WithTransport(transport)

	var out strings.Builder
	c := NewController(cfg, scraper.NewPaginator(fetcher, cfg, nil, &out),
		store.NewResultStore(root, cfg.Currency, &out),
		strings.NewReader("iPhone 12\n"), &out,
	)
	c.now = func() time.Time { return fixedTime }

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Завантажую сторінку 1...", "Помилка завантаження сторінки: 503", "Нічого не знайдено."} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("transport calls = %d, want 1", got)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no output files, found %d entries", len(entries))
	}
}
