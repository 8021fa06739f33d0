package collect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jw2epub/internal/site"
)

// Links enumerates the distinct article links of the given issue from the
// index page, preserving first-seen order. The very first anchor matching
// the article pattern is a masthead self-link and is always dropped. An
// unparseable or empty index yields an empty result; collection never fails.
func Links(indexHTML string, ad *site.Adapter, issueNo string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(indexHTML))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})
	doc.Find(ad.LinkSelector).Each(func(i int, s *goquery.Selection) {
		if i == 0 {
			// masthead decoy
			return
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		if ad.LinkFilter != nil && !ad.LinkFilter(href, issueNo) {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links
}
