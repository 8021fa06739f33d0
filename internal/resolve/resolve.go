package resolve

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jw2epub/internal/site"
)

// Issue describes one resolved issue of the periodical. It is created once
// per run and immutable afterwards.
type Issue struct {
	// No is the canonical issue identifier. Its shape varies by site
	// version: a verbatim site token such as "2024/35", or a derived
	// "YY.NN" composite such as "12.31".
	No string
	// Title is the issue's display title.
	Title string
	// CoverURI references the full-resolution cover image.
	CoverURI string
}

// ErrNoCover is returned when the index page carries no cover image.
var ErrNoCover = errors.New("index cover image not found")

// Resolve derives the canonical issue identifier, display title, and cover
// image URI from the index page. A missing teaser region or cover image is a
// structural mismatch and fails the run.
func Resolve(indexHTML string, ad *site.Adapter, now time.Time) (Issue, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(indexHTML))
	if err != nil {
		return Issue{}, fmt.Errorf("parse index: %w", err)
	}

	no, title, err := ad.ParseIssue(doc, now)
	if err != nil {
		return Issue{}, err
	}

	img := doc.Find(ad.CoverSelector).First()
	src, ok := img.Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return Issue{}, ErrNoCover
	}

	return Issue{No: no, Title: title, CoverURI: ad.CleanCoverURI(src)}, nil
}
