package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"jw2epub/internal/book"
	"jw2epub/internal/cache"
	"jw2epub/internal/collect"
	"jw2epub/internal/fetch"
	"jw2epub/internal/metrics"
	"jw2epub/internal/normalize"
	"jw2epub/internal/resolve"
	"jw2epub/internal/site"
)

// App wires the pipeline together: resolve the issue, collect its article
// links, fetch/filter/normalize each article, and assemble the package.
// Everything runs sequentially; a hard failure aborts the run and no partial
// package is written.
type App struct {
	cfg     Config
	adapter *site.Adapter
	client  *fetch.Client
	metrics *metrics.Metrics
}

func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	adapter, err := site.ForName(cfg.Site)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	client := &fetch.Client{
		BaseURL:   cfg.ServerURL,
		UserAgent: cfg.UserAgent,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Cache:     &cache.Dir{Root: cfg.CacheDir},
		Metrics:   m,
	}
	return &App{cfg: cfg, adapter: adapter, client: client, metrics: m}, nil
}

// Metrics exposes the run's collector registry.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

func (a *App) Run(ctx context.Context) error {
	issueNo := a.cfg.IssueNo
	if issueNo == "" {
		no, err := a.findCurrentIssueNo(ctx)
		if err != nil {
			return fmt.Errorf("find current issue: %w", err)
		}
		issueNo = no
	}

	indexURI := strings.TrimSuffix(a.cfg.IndexPath, "/") + "/" + issueNo
	indexHTML, err := a.client.FetchIndex(ctx, indexURI)
	if err != nil {
		return fmt.Errorf("fetch index: %w", err)
	}

	issue, err := resolve.Resolve(indexHTML, a.adapter, time.Now())
	if err != nil {
		return fmt.Errorf("resolve issue: %w", err)
	}
	log.Info().
		Str("issue", issue.No).
		Str("title", issue.Title).
		Str("cover", issue.CoverURI).
		Msg("resolved issue")

	if err := a.client.Cache.PromoteIndex(issue.No); err != nil {
		log.Warn().Err(err).Msg("promote cached index failed")
	}

	links := collect.Links(indexHTML, a.adapter, issue.No)
	log.Info().Int("count", len(links)).Msg("collected article links")

	articles, err := a.fetchArticles(ctx, links, issue.No)
	if err != nil {
		return err
	}

	log.Info().Msg("download cover image")
	coverName, coverData, err := a.client.FetchBinary(ctx, issue.CoverURI, issue.No)
	if err != nil {
		return fmt.Errorf("download cover: %w", err)
	}

	b := book.Assemble(issue, book.Cover{Filename: coverName, Data: coverData}, articles)
	outPath := filepath.Join(a.cfg.OutputDir, b.Filename())
	if err := b.Write(outPath); err != nil {
		return err
	}
	a.metrics.AddPackaged(len(articles))
	log.Info().Str("out", outPath).Int("articles", len(articles)).Msg("wrote book")

	if a.cfg.PDFPath != "" {
		if err := b.WritePDF(a.cfg.PDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.PDFPath).Msg("wrote pdf rendition")
	}
	return nil
}

// fetchArticles walks the collected links in order. Transport failures and
// content-policy skips omit the article; a structural mismatch in a page
// that should be an article aborts the run.
func (a *App) fetchArticles(ctx context.Context, links []string, issueNo string) ([]normalize.Article, error) {
	var articles []normalize.Article
	for _, uri := range links {
		raw, err := a.client.FetchArticle(ctx, uri, issueNo)
		if err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("fetch failed, skipping")
			a.metrics.IncSkipped()
			continue
		}
		if normalize.ShouldSkip(raw, a.adapter) {
			log.Warn().Str("uri", uri).Msg("not published in digital form, skipping")
			a.metrics.IncSkipped()
			continue
		}
		art, err := normalize.Normalize(raw, uri, issueNo, a.adapter)
		if err != nil {
			return nil, fmt.Errorf("normalize article: %w", err)
		}
		if art == nil {
			continue
		}
		log.Info().Str("title", art.Title).Msg("add story")
		articles = append(articles, *art)
	}
	return articles, nil
}

// findCurrentIssueNo fetches the site's front page live and derives the
// current issue identifier from its teaser region.
func (a *App) findCurrentIssueNo(ctx context.Context) (string, error) {
	log.Info().Str("url", a.cfg.ServerURL).Msg("find current issue no")
	body, err := a.client.FetchIndex(ctx, "/")
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse front page: %w", err)
	}
	return a.adapter.CurrentIssue(doc, time.Now())
}
