package book

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/net/html"
)

// WritePDF renders a plain text-layout rendition of the issue: one heading
// per article followed by its extracted paragraph text. Layout is
// intentionally simple; the EPUB package remains the primary artifact.
func (b *Book) WritePDF(outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.AddPage()
	pdf.CellFormat(0, 10, tr(b.Title()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, tr(b.Issue.Title), "", 1, "L", false, 0, "")

	for _, a := range b.Articles {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(0, 7, tr(a.Title), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		for _, para := range paragraphs(a.HTML) {
			pdf.Ln(3)
			pdf.MultiCell(0, 5, tr(para), "", "L", false)
		}
	}
	return pdf.OutputFileAndClose(outPath)
}

// paragraphs extracts block-level text runs from a normalized fragment.
func paragraphs(fragment string) []string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil || node == nil {
		return nil
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style", "noscript":
				return
			case "p", "div", "h1", "h2", "h3", "h4", "br":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	var out []string
	for _, line := range strings.Split(b.String(), "\n") {
		if s := strings.Join(strings.Fields(line), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}
