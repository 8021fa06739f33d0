// jw2epub downloads an issue of Jungle World and repackages it as an EPUB.
//
// Usage: jw2epub [flags] [issue-no]
//
// Without an issue number the current issue is resolved from the live index.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"jw2epub/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath  string
		server      string
		indexPath   string
		siteName    string
		cacheDir    string
		outputDir   string
		pdfPath     string
		metricsAddr string
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	flag.StringVar(&server, "server", "", "Site base URL")
	flag.StringVar(&indexPath, "index", "", "Issue index path relative to the server")
	flag.StringVar(&siteName, "site", "", "Site markup version: current or legacy")
	flag.StringVar(&cacheDir, "cache.dir", "", "Cache directory path")
	flag.StringVar(&outputDir, "out.dir", "", "Directory the package file is written to")
	flag.StringVar(&pdfPath, "pdf", "", "Optional path for an additional PDF rendition")
	flag.StringVar(&metricsAddr, "metrics.addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := app.DefaultConfig()
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config file")
		}
		fc.Apply(&cfg)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.ServerURL = server
		case "index":
			cfg.IndexPath = indexPath
		case "site":
			cfg.Site = siteName
		case "cache.dir":
			cfg.CacheDir = cacheDir
		case "out.dir":
			cfg.OutputDir = outputDir
		case "pdf":
			cfg.PDFPath = pdfPath
		case "metrics.addr":
			cfg.MetricsAddr = metricsAddr
		case "v":
			cfg.Verbose = verbose
		}
	})
	if v := os.Getenv("JW2EPUB_USER"); v != "" && cfg.Username == "" {
		cfg.Username = v
	}
	if v := os.Getenv("JW2EPUB_PASSWORD"); v != "" && cfg.Password == "" {
		cfg.Password = v
	}
	if flag.NArg() > 0 {
		cfg.IssueNo = flag.Arg(0)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Str("version", app.Version).Msg("jw2epub starting")

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(a.Metrics().Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server enabled")
	}

	runErr := a.Run(context.Background())

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		cancel()
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("run failed")
		os.Exit(1)
	}
}
