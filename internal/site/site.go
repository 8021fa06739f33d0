package site

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTeaser is returned when the index page lacks the cover/teaser region
// that carries the issue title and issue marker.
var ErrNoTeaser = errors.New("index teaser region not found")

// ErrUnknownSite is returned by ForName for an unrecognized adapter name.
var ErrUnknownSite = errors.New("unknown site version")

// unpublishedMarker is the site's sentinel phrase on article pages that exist
// in print but have not been released in digital form yet. Must match exactly.
const unpublishedMarker = "Dieser Artikel ist bislang nicht in digitaler Form erschienen."

// Adapter carries the selectors, URI patterns, and parsing rules for one
// historical markup version of the site. The pipeline itself is version
// agnostic; everything site specific lives here.
type Adapter struct {
	Name string

	// Index page.
	CoverSelector string
	LinkSelector  string

	// CurrentIssue derives the current issue identifier from the site's
	// front page when no explicit issue was requested.
	CurrentIssue func(doc *goquery.Document, now time.Time) (string, error)

	// ParseIssue derives the canonical issue identifier and display title
	// from the index page. now supplies the calendar year used to re-derive
	// the century for two-digit year suffixes.
	ParseIssue func(doc *goquery.Document, now time.Time) (no, title string, err error)

	// CleanCoverURI strips thumbnail markers from a raw cover image source.
	CleanCoverURI func(raw string) string

	// LinkFilter rejects links that do not belong to the given issue.
	// A nil filter accepts every link.
	LinkFilter func(href, issueNo string) bool

	// Article page.
	StorySelector   string
	DateSelector    string
	HeadingSelector string
	LeadSelector    string
	BylineSelector  string
	BodySelector    string
	// RemoveSelectors match share/print UI fragments embedded in the story
	// container. Absence of a match is not an error.
	RemoveSelectors []string
	// ArticleSuffix, when non-empty, is the path suffix an article URI must
	// end in; pages without it are silently ignored.
	ArticleSuffix string

	// TitleFromHeading reads the article's display title out of the tagged
	// heading. A nil func uses the heading's inner text.
	TitleFromHeading func(heading *goquery.Selection) string

	// UnpublishedMarker is the sentinel phrase for articles withheld from
	// the digital edition.
	UnpublishedMarker string
}

// ForName selects the adapter for a configured site version.
func ForName(name string) (*Adapter, error) {
	switch name {
	case "", "current":
		return Current(), nil
	case "legacy":
		return Legacy(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSite, name)
}

// Current describes the Drupal-era markup of jungle.world.
func Current() *Adapter {
	return &Adapter{
		Name:          "current",
		CoverSelector: "div.field-name-field-ref-bilder img",
		LinkSelector:  "h4.public a",
		CurrentIssue: func(doc *goquery.Document, _ time.Time) (string, error) {
			t := doc.Find(".view-mode-teaser time").First()
			if t.Length() == 0 {
				return "", ErrNoTeaser
			}
			return strings.TrimSpace(t.Text()), nil
		},
		ParseIssue: func(doc *goquery.Document, _ time.Time) (string, string, error) {
			t := doc.Find("ul.breadcrumb time").First()
			if t.Length() == 0 {
				return "", "", ErrNoTeaser
			}
			no := strings.TrimSpace(t.Text())
			title := strings.TrimSpace(doc.Find("title").First().Text())
			// The page title carries the site name before a dash.
			if _, after, found := strings.Cut(title, "-"); found {
				title = strings.TrimSpace(after)
			}
			return no, title, nil
		},
		CleanCoverURI: func(raw string) string {
			// The index embeds the cover with a session token query.
			uri, _, _ := strings.Cut(raw, "?")
			return uri
		},
		StorySelector:     ".view-mode-full",
		DateSelector:      "#ausgabe-wrapper span",
		HeadingSelector:   ".page-title",
		LeadSelector:      ".lead",
		BylineSelector:    ".autor-wrapper",
		BodySelector:      ".field-name-body",
		RemoveSelectors:   []string{".share-wrapper", ".print-link"},
		UnpublishedMarker: unpublishedMarker,
	}
}

// legacyTeaserRe matches the free-text teaser shape
// "<title> Nr. <issue>/<yy>, <date>" of the pre-relaunch site.
var legacyTeaserRe = regexp.MustCompile(`^(.*?)(\d{1,2})/(\d{2})\s*,\s*(.+)$`)

// Legacy describes the pre-relaunch markup, where the issue identifier has
// to be parsed out of irregular teaser text.
func Legacy() *Adapter {
	parse := func(doc *goquery.Document, now time.Time) (string, string, error) {
		teaser := doc.Find("div.teaser").First()
		if teaser.Length() == 0 {
			return "", "", ErrNoTeaser
		}
		text := strings.TrimSpace(teaser.Text())
		m := legacyTeaserRe.FindStringSubmatch(text)
		if m == nil {
			return "", "", fmt.Errorf("teaser text %q: %w", text, ErrNoTeaser)
		}
		no, err := legacyIssueNo(m[2], m[3], now)
		if err != nil {
			return "", "", err
		}
		title := strings.TrimSpace(m[1])
		title = strings.TrimSpace(strings.TrimSuffix(title, "Nr."))
		title = strings.TrimSuffix(title, ".")
		return no, title, nil
	}
	return &Adapter{
		Name:          "legacy",
		CoverSelector: "div.teaser img",
		LinkSelector:  `a[href*="/artikel/"]`,
		CurrentIssue: func(doc *goquery.Document, now time.Time) (string, error) {
			no, _, err := parse(doc, now)
			return no, err
		},
		ParseIssue: parse,
		CleanCoverURI: func(raw string) string {
			// Thumbnails carry a "thumb_" marker in the file name.
			return strings.ReplaceAll(raw, "thumb_", "")
		},
		LinkFilter: func(href, issueNo string) bool {
			yy, nn, found := strings.Cut(issueNo, ".")
			if !found {
				return true
			}
			return strings.Contains(href, yy+"/"+nn)
		},
		StorySelector:   "div.story",
		HeadingSelector: "h1",
		LeadSelector:    ".lead",
		BylineSelector:  ".author",
		BodySelector:    "div.text",
		RemoveSelectors: []string{"div.share-tools", "a.print-version"},
		ArticleSuffix:   ".html",
		TitleFromHeading: func(heading *goquery.Selection) string {
			if span := heading.Find("span").First(); span.Length() > 0 {
				return strings.TrimSpace(span.Text())
			}
			return strings.TrimSpace(heading.Text())
		},
		UnpublishedMarker: unpublishedMarker,
	}
}

// legacyIssueNo combines a two-digit year suffix and an issue number into the
// composite "YY.NN" identifier. The century is re-derived from the current
// calendar year; suffixes close to a century boundary are taken as-is.
func legacyIssueNo(issue, yearSuffix string, now time.Time) (string, error) {
	yy, err := strconv.Atoi(yearSuffix)
	if err != nil {
		return "", fmt.Errorf("year suffix %q: %w", yearSuffix, err)
	}
	century := now.Year() / 100
	year := century*100 + yy
	return fmt.Sprintf("%02d.%s", year%100, issue), nil
}
