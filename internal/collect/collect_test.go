package collect

import (
	"reflect"
	"strings"
	"testing"

	"jw2epub/internal/site"
)

func legacyIndex(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range hrefs {
		b.WriteString(`<a href="` + h + `">story</a>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestLinksDedupPreservesOrder(t *testing.T) {
	a := "/artikel/2012/31/a.html"
	bb := "/artikel/2012/31/b.html"
	index := legacyIndex("/artikel/2012/31/index.html", a, a, bb, a)

	got := Links(index, site.Legacy(), "12.31")
	want := []string{a, bb}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Links = %v, want %v", got, want)
	}
}

func TestLinksSkipsMastheadUnconditionally(t *testing.T) {
	real := "/artikel/2012/31/real.html"
	// The first match is dropped even when it looks like a regular article.
	index := legacyIndex(real, real)
	got := Links(index, site.Legacy(), "12.31")
	if len(got) != 1 || got[0] != real {
		t.Fatalf("Links = %v, want [%s]", got, real)
	}
}

func TestLinksIssueGuard(t *testing.T) {
	index := legacyIndex(
		"/artikel/2012/31/index.html",
		"/artikel/2012/31/in-issue.html",
		"/artikel/2012/30/last-week.html",
	)
	got := Links(index, site.Legacy(), "12.31")
	want := []string{"/artikel/2012/31/in-issue.html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Links = %v, want %v", got, want)
	}
}

func TestLinksEmptyIndex(t *testing.T) {
	if got := Links("<html><body></body></html>", site.Legacy(), "12.31"); len(got) != 0 {
		t.Fatalf("Links on empty index = %v, want none", got)
	}
	if got := Links("", site.Current(), "2024/35"); len(got) != 0 {
		t.Fatalf("Links on empty input = %v, want none", got)
	}
}

func TestLinksCurrentMarkup(t *testing.T) {
	index := `<html><body>
	<h4 class="public"><a href="/artikel/2024/35/selbstlink">Jungle World</a></h4>
	<h4 class="public"><a href="/artikel/2024/35/erster">Erster</a></h4>
	<h4 class="public"><a href="/artikel/2024/35/zweiter">Zweiter</a></h4>
	<h4><a href="/artikel/2024/35/unlisted">not public</a></h4>
	</body></html>`
	got := Links(index, site.Current(), "2024/35")
	want := []string{"/artikel/2024/35/erster", "/artikel/2024/35/zweiter"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Links = %v, want %v", got, want)
	}
}
