package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/go-olx-prices/config"
	"github.com/aluiziolira/go-olx-prices/scraper"
	"github.com/aluiziolira/go-olx-prices/store"
	"github.com/aluiziolira/go-olx-prices/survey"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (env OLX_CONFIG)")
	maxPages := flag.Int("pages", 0, "Maximum result pages per search (env OLX_PAGES)")
	outputDir := flag.String("output-dir", "", "Directory holding presearch/ and results/ (env OLX_OUTPUT_DIR)")
	cacheTTL := flag.Duration("cache-ttl", 0, "Reuse fetched pages for this long within a session (0 disables)")
	respectRobots := flag.Bool("respect-robots", false, "Respect robots.txt directives")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address, e.g. :9090 (env OLX_METRICS_ADDR)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Explicit flags win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pages":
			cfg.MaxPages = *maxPages
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "cache-ttl":
			cfg.PageCacheTTL = *cacheTTL
		case "respect-robots":
			cfg.RespectRobotsTxt = *respectRobots
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "v":
			cfg.Verbose = *verbose
		}
	})

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Debug("configuration loaded",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("pages", cfg.MaxPages),
		slog.String("output_dir", cfg.OutputDir),
		slog.Duration("cache_ttl", cfg.PageCacheTTL),
	)

	metrics := scraper.NewMetrics()
	fetcher, err := scraper.NewCollyFetcher(cfg, metrics)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// A second signal gets the default behaviour and kills the process.
		stop()
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	controller := survey.NewController(cfg,
		scraper.NewPaginator(fetcher, cfg, metrics, os.Stdout),
		store.NewResultStore(cfg.OutputDir, cfg.Currency, os.Stdout),
		os.Stdin, os.Stdout,
	)
	runErr := controller.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, survey.ErrInputClosed):
		slog.Info("input closed, ending session")
	case errors.Is(runErr, context.Canceled):
		slog.Info("interrupted")
		os.Exit(130)
	default:
		slog.Error("survey failed", slog.Any("error", runErr))
		os.Exit(1)
	}
}

// loadConfig layers the YAML file and OLX_* environment variables over the
// defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path, _ = config.EnvString("OLX_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if value, ok, err := config.EnvInt("OLX_PAGES"); err != nil {
		return nil, fmt.Errorf("invalid OLX_PAGES: %w", err)
	} else if ok {
		cfg.MaxPages = value
	}
	if value, ok := config.EnvString("OLX_OUTPUT_DIR"); ok {
		cfg.OutputDir = value
	}
	if value, ok := config.EnvString("OLX_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	return cfg, nil
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	// The console dialogue owns stdout.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
