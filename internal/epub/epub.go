// Package epub assembles EPUB 3 packages: ordered Dublin Core metadata,
// binary resources under internal filenames, a linear spine, and a table of
// contents rendered as the EPUB navigation document.
package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"
)

// mimetype is the required content of the "mimetype" entry. It must be the
// first entry of the archive and stored without compression.
const mimetype = "application/epub+zip"

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// MetaEntry is one Dublin Core element of the package document, e.g.
// {"title", "Jungle World 24.05"}. Entries are emitted in insertion order.
type MetaEntry struct {
	Name  string
	Value string
}

// Section is one table of contents entry pointing at an internal file.
type Section struct {
	Title string
	File  string
}

type resource struct {
	name string
	data []byte
}

// Writer accumulates the parts of a package and serializes them to a single
// EPUB file. The zero value is not usable; call New.
type Writer struct {
	// Metadata entries in the order they should appear in the package
	// document. An "identifier" entry becomes the unique identifier.
	Metadata []MetaEntry
	// Spine is the linear reading order, by internal filename.
	Spine []string
	// TOC is the table of contents, in reading order.
	TOC []Section

	files []resource
	index map[string]int
	cover string
}

var (
	// ErrUnknownFile is returned when the spine, TOC, or cover reference a
	// filename that was never added.
	ErrUnknownFile = errors.New("reference to unknown internal file")
	// ErrNoIdentifier is returned when serializing without an "identifier"
	// metadata entry.
	ErrNoIdentifier = errors.New("package has no identifier")
)

// timeNow is stubbed in tests to make dcterms:modified deterministic.
var timeNow = time.Now

func New() *Writer {
	return &Writer{index: make(map[string]int)}
}

// AddFile registers a binary resource under an internal filename. Adding the
// same name twice replaces the content and keeps the original position.
func (w *Writer) AddFile(name string, data []byte) {
	if i, ok := w.index[name]; ok {
		w.files[i].data = data
		return
	}
	w.index[name] = len(w.files)
	w.files = append(w.files, resource{name: name, data: data})
}

// SetCover marks a previously added image as the package cover.
func (w *Writer) SetCover(name string) {
	w.cover = name
}

// WriteFile serializes the package to path. The dcterms:modified timestamp
// is taken from the wall clock in UTC at this point.
func (w *Writer) WriteFile(path string) error {
	if err := w.validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create package: %w", err)
	}
	if err := w.write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) write(out io.Writer) error {
	zw := zip.NewWriter(out)
	// mimetype first, stored uncompressed.
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("create mimetype entry: %w", err)
	}
	if _, err := mw.Write([]byte(mimetype)); err != nil {
		return fmt.Errorf("write mimetype: %w", err)
	}

	modified := timeNow().UTC().Format("2006-01-02T15:04:05Z")
	entries := []resource{
		{name: "META-INF/container.xml", data: []byte(containerXML)},
		{name: "OEBPS/content.opf", data: []byte(w.buildOPF(modified))},
		{name: "OEBPS/nav.xhtml", data: []byte(w.buildNav())},
	}
	for _, r := range w.files {
		entries = append(entries, resource{name: "OEBPS/" + r.name, data: r.data})
	}
	for _, e := range entries {
		ew, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := ew.Write(e.data); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	return zw.Close()
}

func (w *Writer) validate() error {
	hasID := false
	for _, m := range w.Metadata {
		if m.Name == "identifier" {
			hasID = true
		}
	}
	if !hasID {
		return ErrNoIdentifier
	}
	for _, name := range w.Spine {
		if _, ok := w.index[name]; !ok {
			return fmt.Errorf("spine %q: %w", name, ErrUnknownFile)
		}
	}
	for _, s := range w.TOC {
		if _, ok := w.index[s.File]; !ok {
			return fmt.Errorf("toc %q: %w", s.File, ErrUnknownFile)
		}
	}
	if w.cover != "" {
		if _, ok := w.index[w.cover]; !ok {
			return fmt.Errorf("cover %q: %w", w.cover, ErrUnknownFile)
		}
	}
	return nil
}

func (w *Writer) buildOPF(modified string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">` + "\n")
	b.WriteString(`  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">` + "\n")
	for _, m := range w.Metadata {
		if m.Name == "identifier" {
			fmt.Fprintf(&b, "    <dc:identifier id=\"pub-id\">%s</dc:identifier>\n", esc(m.Value))
			continue
		}
		fmt.Fprintf(&b, "    <dc:%s>%s</dc:%s>\n", m.Name, esc(m.Value), m.Name)
	}
	fmt.Fprintf(&b, "    <meta property=\"dcterms:modified\">%s</meta>\n", modified)
	b.WriteString("  </metadata>\n  <manifest>\n")
	b.WriteString(`    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>` + "\n")
	for i, r := range w.files {
		props := ""
		if r.name == w.cover {
			props = ` properties="cover-image"`
		}
		fmt.Fprintf(&b, "    <item id=\"item-%d\" href=\"%s\" media-type=\"%s\"%s/>\n",
			i, esc(r.name), mediaType(r.name), props)
	}
	b.WriteString("  </manifest>\n  <spine>\n")
	for _, name := range w.Spine {
		fmt.Fprintf(&b, "    <itemref idref=\"item-%d\"/>\n", w.index[name])
	}
	b.WriteString("  </spine>\n</package>\n")
	return b.String()
}

func (w *Writer) buildNav() string {
	title := "Contents"
	for _, m := range w.Metadata {
		if m.Name == "title" {
			title = m.Value
			break
		}
	}
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">` + "\n")
	fmt.Fprintf(&b, "<head><title>%s</title></head>\n", esc(title))
	b.WriteString("<body>\n  <nav epub:type=\"toc\">\n    <ol>\n")
	for _, s := range w.TOC {
		fmt.Fprintf(&b, "      <li><a href=\"%s\">%s</a></li>\n", esc(s.File), esc(s.Title))
	}
	b.WriteString("    </ol>\n  </nav>\n</body>\n</html>\n")
	return b.String()
}

func mediaType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".xhtml", ".htm":
		return "application/xhtml+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".css":
		return "text/css"
	default:
		return "application/octet-stream"
	}
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
