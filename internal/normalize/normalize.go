package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jw2epub/internal/site"
)

// Article is one normalized piece of editorial content: a minimal standalone
// HTML fragment plus its display title, keyed by the source URI.
type Article struct {
	URI   string
	Title string
	HTML  string
}

// ErrNoStory is returned when an article page lacks the mandatory content
// container.
var ErrNoStory = errors.New("story container not found")

// ErrNoHeading is returned when the content container lacks the primary
// heading the table of contents is generated from.
var ErrNoHeading = errors.New("story heading not found")

// margin is the inline spacing applied to each surviving piece of a story.
const margin = "margin-top: 0.5em;"

// ShouldSkip reports whether fetched content must not contribute an article.
// Absent or empty content is skipped, as is any page carrying the site's
// "not yet published in digital form" sentinel phrase.
func ShouldSkip(rawHTML string, ad *site.Adapter) bool {
	if strings.TrimSpace(rawHTML) == "" {
		return true
	}
	return ad.UnpublishedMarker != "" && strings.Contains(rawHTML, ad.UnpublishedMarker)
}

// Normalize reduces a raw article page to a minimal standalone fragment. The
// heading is tagged with the "chapter" class so packaging tools can generate
// table of contents entries, the lead gains bold emphasis, and share/print
// UI fragments are dropped.
//
// It returns (nil, nil) when the page falls outside the current issue: URI
// without the expected article suffix, or failing the issue-path guard. The
// input markup is parsed into a private tree; the function never mutates
// state shared with its caller.
func Normalize(rawHTML, uri, issueNo string, ad *site.Adapter) (*Article, error) {
	if ad.ArticleSuffix != "" {
		p, _, _ := strings.Cut(uri, "?")
		if !strings.HasSuffix(p, ad.ArticleSuffix) {
			return nil, nil
		}
	}
	if ad.LinkFilter != nil && !ad.LinkFilter(uri, issueNo) {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}
	story := doc.Find(ad.StorySelector).First()
	if story.Length() == 0 {
		return nil, fmt.Errorf("%q: %w", uri, ErrNoStory)
	}
	for _, sel := range ad.RemoveSelectors {
		story.Find(sel).Remove()
	}

	heading := story.Find(ad.HeadingSelector).First()
	if heading.Length() == 0 {
		return nil, fmt.Errorf("%q: %w", uri, ErrNoHeading)
	}

	var b strings.Builder
	b.WriteString("<html><body>")

	if ad.DateSelector != "" {
		if date := story.Find(ad.DateSelector).First(); date.Length() > 0 {
			h, err := goquery.OuterHtml(date)
			if err == nil {
				// The issue date is an inline span; re-tag it as a block.
				b.WriteString(strings.ReplaceAll(h, "span", "div"))
			}
		}
	}

	heading.AddClass("chapter")
	heading.SetAttr("style", margin)
	appendOuter(&b, heading)

	if lead := story.Find(ad.LeadSelector).First(); lead.Length() > 0 {
		lead.SetAttr("style", margin+"font-weight: bold;")
		appendOuter(&b, lead)
	}
	if byline := story.Find(ad.BylineSelector).First(); byline.Length() > 0 {
		byline.SetAttr("style", margin)
		appendOuter(&b, byline)
	}
	if body := story.Find(ad.BodySelector).First(); body.Length() > 0 {
		body.SetAttr("style", margin)
		appendOuter(&b, body)
	}

	b.WriteString("</body></html>")

	title := strings.TrimSpace(heading.Text())
	if ad.TitleFromHeading != nil {
		title = ad.TitleFromHeading(heading)
	}

	return &Article{URI: uri, Title: title, HTML: b.String()}, nil
}

func appendOuter(b *strings.Builder, s *goquery.Selection) {
	h, err := goquery.OuterHtml(s)
	if err != nil {
		return
	}
	b.WriteString(h)
}
