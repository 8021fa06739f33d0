// Package fetch resolves site URIs to page text, backed by a per-issue disk
// cache. Fetching is sequential and blocking; a failed fetch is reported to
// the caller and never retried.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"jw2epub/internal/cache"
	"jw2epub/internal/metrics"
)

// ErrUnsupportedScheme is returned for non-HTTP(S) target URLs.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// memoSize bounds the in-run memoization of fetched pages.
const memoSize = 128

// Client fetches pages from the site, serving repeated article requests from
// the on-disk cache. Username and Password, when set, are attached to every
// outbound request as basic auth credentials.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	Username   string
	Password   string
	Cache      *cache.Dir
	Metrics    *metrics.Metrics

	memo     *lru.Cache[string, string]
	memoOnce sync.Once
}

// FetchIndex retrieves the index page. The index is always fetched live and
// the response is written to the cache root for later promotion into the
// issue directory.
func (c *Client) FetchIndex(ctx context.Context, uri string) (string, error) {
	body, err := c.get(ctx, uri)
	if err != nil {
		return "", err
	}
	if c.Cache != nil {
		if err := c.Cache.SaveIndex(body); err != nil {
			log.Warn().Err(err).Msg("cache index write failed")
		}
	}
	return body, nil
}

// FetchArticle retrieves an article page, preferring the issue's disk cache.
// A fresh response is written back to the cache. Repeated URIs within one
// run are served from an in-process memo without touching cache or network.
func (c *Client) FetchArticle(ctx context.Context, uri, issue string) (string, error) {
	c.memoOnce.Do(func() {
		c.memo, _ = lru.New[string, string](memoSize)
	})
	if c.memo != nil {
		if body, ok := c.memo.Get(uri); ok {
			c.Metrics.IncFetch("memo")
			return body, nil
		}
	}

	if c.Cache != nil {
		if body, ok := c.Cache.LoadPage(issue, uri); ok {
			log.Info().Str("file", c.Cache.PagePath(issue, uri)).Msg("fetch from file")
			c.Metrics.IncFetch("cache")
			c.remember(uri, body)
			return body, nil
		}
	}

	body, err := c.get(ctx, uri)
	if err != nil {
		return "", err
	}
	if c.Cache != nil {
		if err := c.Cache.SavePage(issue, uri, body); err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("cache write failed")
		}
	}
	c.remember(uri, body)
	return body, nil
}

// FetchBinary retrieves a binary resource such as the cover image, stores it
// in the issue's cache directory, and returns its derived filename and bytes.
func (c *Client) FetchBinary(ctx context.Context, uri, issue string) (string, []byte, error) {
	name := path.Base(strings.SplitN(uri, "?", 2)[0])
	data, _, err := c.do(ctx, uri)
	if err != nil {
		c.Metrics.IncFetchError()
		return "", nil, err
	}
	c.Metrics.IncFetch("network")
	if c.Cache != nil {
		if err := c.Cache.SaveBinary(issue, name, data); err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("cache write failed")
		}
	}
	return name, data, nil
}

// get performs a live fetch and decodes the body to UTF-8 according to the
// response charset.
func (c *Client) get(ctx context.Context, uri string) (string, error) {
	body, contentType, err := c.do(ctx, uri)
	if err != nil {
		c.Metrics.IncFetchError()
		return "", err
	}
	c.Metrics.IncFetch("network")

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", uri, err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", uri, err)
	}
	return string(decoded), nil
}

func (c *Client) do(ctx context.Context, uri string) ([]byte, string, error) {
	target := c.absURL(uri)
	log.Info().Str("url", target).Msg("fetch from url")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, target)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Username != "" && c.Password != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("get %s: unexpected status %d", target, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return b, resp.Header.Get("Content-Type"), nil
}

func (c *Client) remember(uri, body string) {
	if c.memo != nil {
		c.memo.Add(uri, body)
	}
}

// absURL resolves site-relative URIs against the configured base URL.
func (c *Client) absURL(uri string) string {
	if strings.Contains(uri, "://") {
		return uri
	}
	base := strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	return base + uri
}

func isHTTPScheme(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
