package book

import (
	"fmt"
	"path"
	"strings"

	"jw2epub/internal/epub"
	"jw2epub/internal/normalize"
	"jw2epub/internal/resolve"
)

const (
	siteName    = "Jungle World"
	filePrefix  = "JW"
	language    = "de"
	creator     = "Redaktion Jungle World"
	publisher   = "Jungle World Verlags GmbH"
	contributor = "jw2epub"

	// coverName is the fixed internal filename for the cover resource,
	// regardless of the downloaded image's original format.
	coverName = "cover.png"
)

// Cover is the downloaded cover image of an issue.
type Cover struct {
	Filename string
	Data     []byte
}

// Book aggregates issue metadata, the cover image, and the ordered articles
// of one issue. Spine and table of contents keep the article discovery
// order; nothing is reordered.
type Book struct {
	Issue    resolve.Issue
	Cover    Cover
	Articles []normalize.Article
}

// Assemble builds the Book aggregate. Articles are taken in the order given.
func Assemble(issue resolve.Issue, cover Cover, articles []normalize.Article) *Book {
	return &Book{Issue: issue, Cover: cover, Articles: articles}
}

// Title is the package display title, "<site name> <issue identifier>".
func (b *Book) Title() string {
	return siteName + " " + b.Issue.No
}

// Filename derives the output file name from the site name and the issue
// identifier, with path separators normalized to dots.
func (b *Book) Filename() string {
	no := strings.ReplaceAll(b.Issue.No, "/", ".")
	return fmt.Sprintf("%s-%s.epub", filePrefix, no)
}

// Write serializes the book to path as an EPUB package.
func (b *Book) Write(path string) error {
	w := epub.New()
	w.Metadata = []epub.MetaEntry{
		{Name: "title", Value: b.Title()},
		{Name: "identifier", Value: b.Title()},
		{Name: "language", Value: language},
		{Name: "creator", Value: creator},
		{Name: "publisher", Value: publisher},
		{Name: "contributor", Value: contributor},
	}

	w.AddFile(coverName, b.Cover.Data)
	w.SetCover(coverName)

	for _, a := range b.Articles {
		page := PageName(a.URI)
		w.AddFile(page, []byte(a.HTML))
		w.Spine = append(w.Spine, page)
		w.TOC = append(w.TOC, epub.Section{Title: a.Title, File: page})
	}

	if err := w.WriteFile(path); err != nil {
		return fmt.Errorf("serialize book: %w", err)
	}
	return nil
}

// PageName derives the internal page filename from the final path segment of
// an article's source URI.
func PageName(uri string) string {
	p, _, _ := strings.Cut(uri, "?")
	base := path.Base(p)
	if !strings.HasSuffix(base, ".html") {
		base += ".html"
	}
	return base
}
