// Package cache persists fetched pages on disk, one subdirectory per issue
// identifier. Filenames stay human readable so the cache doubles as a raw
// archive of the issue: <root>/<issue>/<basename>.html plus the downloaded
// cover image. The cache is owned by a single process; concurrent runs
// against the same root are not supported.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Dir is an on-disk page cache rooted at a single directory.
type Dir struct {
	Root string
}

// indexName is the filename the index page is cached under.
const indexName = "index.html"

// PagePath returns the cache file for an article URI within an issue.
func (d *Dir) PagePath(issue, uri string) string {
	return filepath.Join(d.Root, issue, basename(uri)+".html")
}

// LoadPage returns the cached page for uri, if present.
func (d *Dir) LoadPage(issue, uri string) (string, bool) {
	b, err := os.ReadFile(d.PagePath(issue, uri))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// SavePage stores a fetched page. The write is atomic: content lands in a
// temp file first and is renamed into place.
func (d *Dir) SavePage(issue, uri, content string) error {
	return d.writeFile(d.PagePath(issue, uri), []byte(content))
}

// SaveIndex stores the freshly fetched index page at the cache root. The
// issue identifier is not known yet at fetch time; PromoteIndex moves it
// into the issue directory once resolved.
func (d *Dir) SaveIndex(content string) error {
	return d.writeFile(filepath.Join(d.Root, indexName), []byte(content))
}

// PromoteIndex moves the cached index page into the issue directory.
func (d *Dir) PromoteIndex(issue string) error {
	dst := filepath.Join(d.Root, issue, indexName)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(d.Root, indexName), dst)
}

// SaveBinary stores a binary resource, such as the cover image, under its
// own filename in the issue directory.
func (d *Dir) SaveBinary(issue, name string, data []byte) error {
	return d.writeFile(filepath.Join(d.Root, issue, name), data)
}

func (d *Dir) writeFile(dst string, data []byte) error {
	if d == nil || d.Root == "" {
		return errors.New("cache root not configured")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return os.Rename(tmp, dst)
}

// basename is the final path segment of a URI, with any query stripped.
func basename(uri string) string {
	p, _, _ := strings.Cut(uri, "?")
	return path.Base(p)
}
