package epub

import (
	"archive/zip"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testWriter() *Writer {
	w := New()
	w.Metadata = []MetaEntry{
		{Name: "title", Value: "Jungle World 12.31"},
		{Name: "identifier", Value: "Jungle World 12.31"},
		{Name: "language", Value: "de"},
		{Name: "creator", Value: "Redaktion Jungle World"},
	}
	w.AddFile("cover.png", []byte{0x89, 'P', 'N', 'G'})
	w.SetCover("cover.png")
	w.AddFile("a.html", []byte("<html><body><h1>A &amp; B</h1></body></html>"))
	w.AddFile("b.html", []byte("<html><body><h1>B</h1></body></html>"))
	w.Spine = []string{"a.html", "b.html"}
	w.TOC = []Section{{Title: "A & B", File: "a.html"}, {Title: "B", File: "b.html"}}
	return w
}

func writeAndReopen(t *testing.T, w *Writer) *zip.ReadCloser {
	t.Helper()
	out := filepath.Join(t.TempDir(), "test.epub")
	if err := w.WriteFile(out); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("reopen package: %v", err)
	}
	t.Cleanup(func() { zr.Close() })
	return zr
}

func readEntry(t *testing.T, zr *zip.ReadCloser, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open %s: %v", name, err)
			}
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return string(b)
		}
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func TestWriteFileLayout(t *testing.T) {
	zr := writeAndReopen(t, testWriter())

	// mimetype must be the first entry and stored uncompressed.
	first := zr.File[0]
	if first.Name != "mimetype" {
		t.Fatalf("first entry = %s, want mimetype", first.Name)
	}
	if first.Method != zip.Store {
		t.Fatalf("mimetype method = %d, want Store", first.Method)
	}
	if got := readEntry(t, zr, "mimetype"); got != "application/epub+zip" {
		t.Fatalf("mimetype content = %q", got)
	}

	container := readEntry(t, zr, "META-INF/container.xml")
	if !strings.Contains(container, `full-path="OEBPS/content.opf"`) {
		t.Fatalf("container.xml does not point at the OPF:\n%s", container)
	}
	for _, name := range []string{"OEBPS/nav.xhtml", "OEBPS/cover.png", "OEBPS/a.html", "OEBPS/b.html"} {
		readEntry(t, zr, name)
	}
}

func TestOPFContent(t *testing.T) {
	restore := timeNow
	timeNow = func() time.Time { return time.Date(2012, time.August, 2, 15, 4, 5, 0, time.UTC) }
	defer func() { timeNow = restore }()

	zr := writeAndReopen(t, testWriter())
	opf := readEntry(t, zr, "OEBPS/content.opf")

	for _, want := range []string{
		`<dc:identifier id="pub-id">Jungle World 12.31</dc:identifier>`,
		`<dc:title>Jungle World 12.31</dc:title>`,
		`<dc:language>de</dc:language>`,
		`<meta property="dcterms:modified">2012-08-02T15:04:05Z</meta>`,
		`properties="cover-image"`,
		`properties="nav"`,
		`media-type="application/xhtml+xml"`,
		`media-type="image/png"`,
	} {
		if !strings.Contains(opf, want) {
			t.Errorf("OPF missing %q:\n%s", want, opf)
		}
	}

	// Spine order equals insertion order.
	a := strings.Index(opf, `<itemref idref="item-1"/>`)
	b := strings.Index(opf, `<itemref idref="item-2"/>`)
	if a < 0 || b < 0 || a > b {
		t.Fatalf("spine order wrong (a=%d b=%d):\n%s", a, b, opf)
	}
}

func TestNavOrderAndEscaping(t *testing.T) {
	zr := writeAndReopen(t, testWriter())
	nav := readEntry(t, zr, "OEBPS/nav.xhtml")

	a := strings.Index(nav, `<li><a href="a.html">A &amp; B</a></li>`)
	b := strings.Index(nav, `<li><a href="b.html">B</a></li>`)
	if a < 0 {
		t.Fatalf("nav entry with escaping missing:\n%s", nav)
	}
	if b < 0 || a > b {
		t.Fatalf("nav order wrong (a=%d b=%d):\n%s", a, b, nav)
	}
}

func TestValidation(t *testing.T) {
	w := New()
	w.AddFile("a.html", []byte("x"))
	w.Spine = []string{"a.html"}
	out := filepath.Join(t.TempDir(), "bad.epub")

	if err := w.WriteFile(out); !errors.Is(err, ErrNoIdentifier) {
		t.Fatalf("missing identifier: err = %v", err)
	}

	w.Metadata = []MetaEntry{{Name: "identifier", Value: "x"}}
	w.Spine = append(w.Spine, "phantom.html")
	if err := w.WriteFile(out); !errors.Is(err, ErrUnknownFile) {
		t.Fatalf("unknown spine file: err = %v", err)
	}
}

func TestAddFileReplaceKeepsPosition(t *testing.T) {
	w := New()
	w.AddFile("a.html", []byte("old"))
	w.AddFile("b.html", []byte("b"))
	w.AddFile("a.html", []byte("new"))
	if len(w.files) != 2 {
		t.Fatalf("files = %d, want 2", len(w.files))
	}
	if string(w.files[0].data) != "new" || w.files[0].name != "a.html" {
		t.Fatalf("replacement moved or lost content: %+v", w.files[0])
	}
}
