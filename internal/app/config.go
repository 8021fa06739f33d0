package app

import (
	"fmt"
	"net/url"

	"jw2epub/internal/site"
)

// Config holds runtime configuration for one run. All fields are optional;
// DefaultConfig supplies the documented defaults.
type Config struct {
	// ServerURL is the site's base URL.
	ServerURL string
	// IndexPath is the path of the issue index page, relative to ServerURL.
	// The issue identifier is appended as a trailing path segment.
	IndexPath string
	// IssueNo requests an explicit issue. Empty means: resolve the current
	// issue from the live front page.
	IssueNo string
	// Site selects the markup version adapter ("current" or "legacy").
	Site string

	CacheDir  string
	OutputDir string
	// PDFPath, when set, additionally writes a plain PDF rendition there.
	PDFPath string

	// Username and Password, when both set, are attached to outbound
	// requests as basic auth credentials.
	Username string
	Password string

	UserAgent string
	Verbose   bool
	// MetricsAddr, when set, exposes Prometheus metrics on that address
	// for the duration of the run.
	MetricsAddr string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ServerURL: "https://jungle.world",
		IndexPath: "/inhalt",
		Site:      "current",
		CacheDir:  "cache",
		OutputDir: ".",
		UserAgent: "jw2epub/" + Version,
	}
}

// Validate ensures the configuration is coherent.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL must include a host")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache dir cannot be empty")
	}
	if _, err := site.ForName(c.Site); err != nil {
		return err
	}
	return nil
}
