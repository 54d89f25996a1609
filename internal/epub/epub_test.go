package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

type fixtureFile struct {
	name   string
	data   string
	stored bool
}

// buildArchive assembles an in-memory zip from the given files.
func buildArchive(t *testing.T, files []fixtureFile) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		method := zip.Deflate
		if f.stored {
			method = zip.Store
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.name, Method: method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", f.name, err)
		}
		if _, err := fw.Write([]byte(f.data)); err != nil {
			t.Fatalf("failed to write %s: %v", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}

const containerXMLData = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func chapterXHTML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter</title></head>
<body><p>` + body + `</p></body>
</html>`
}

// standardFiles returns the boilerplate of a valid EPUB around the given
// OPF document.
func standardFiles(opf string, extra ...fixtureFile) []fixtureFile {
	files := []fixtureFile{
		{name: "mimetype", data: "application/epub+zip", stored: true},
		{name: "META-INF/container.xml", data: containerXMLData},
		{name: "OEBPS/content.opf", data: opf},
	}
	return append(files, extra...)
}

const twoChapterOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
  </metadata>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

func TestParse_Valid(t *testing.T) {
	data := buildArchive(t, standardFiles(twoChapterOPF,
		fixtureFile{name: "OEBPS/ch1.xhtml", data: chapterXHTML("First chapter.")},
		fixtureFile{name: "OEBPS/ch2.xhtml", data: chapterXHTML("Second chapter.")},
	))

	book, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	if len(book.Sections) != 2 {
		t.Fatalf("Parse() returned %d sections, want 2", len(book.Sections))
	}
	if book.Sections[0].ID != "ch1" || book.Sections[1].ID != "ch2" {
		t.Errorf("section IDs = %q, %q; want ch1, ch2", book.Sections[0].ID, book.Sections[1].ID)
	}
	if !bytes.Contains(book.Sections[0].Markup, []byte("First chapter.")) {
		t.Error("section 0 markup does not contain the chapter text")
	}
	if book.Cover != nil {
		t.Error("Parse() resolved a cover from a coverless book")
	}
}

func TestParse_NotAnArchive(t *testing.T) {
	if _, err := Parse([]byte("this is not a zip file")); err == nil {
		t.Fatal("Parse() should fail for non-zip input")
	}
}

func TestParse_MissingContainer(t *testing.T) {
	data := buildArchive(t, []fixtureFile{
		{name: "mimetype", data: "application/epub+zip", stored: true},
	})

	_, err := Parse(data)
	if !errors.Is(err, ErrContainerNotFound) {
		t.Fatalf("Parse() error = %v, want ErrContainerNotFound", err)
	}
}

func TestParse_WrongMimetype(t *testing.T) {
	data := buildArchive(t, []fixtureFile{
		{name: "mimetype", data: "text/plain", stored: true},
		{name: "META-INF/container.xml", data: containerXMLData},
		{name: "OEBPS/content.opf", data: twoChapterOPF},
		{name: "OEBPS/ch1.xhtml", data: chapterXHTML("x")},
		{name: "OEBPS/ch2.xhtml", data: chapterXHTML("y")},
	})

	_, err := Parse(data)
	if !errors.Is(err, ErrInvalidMimetype) {
		t.Fatalf("Parse() error = %v, want ErrInvalidMimetype", err)
	}
}

// A missing mimetype file is tolerated; only wrong content is rejected.
func TestParse_MissingMimetype(t *testing.T) {
	data := buildArchive(t, []fixtureFile{
		{name: "META-INF/container.xml", data: containerXMLData},
		{name: "OEBPS/content.opf", data: twoChapterOPF},
		{name: "OEBPS/ch1.xhtml", data: chapterXHTML("x")},
		{name: "OEBPS/ch2.xhtml", data: chapterXHTML("y")},
	})

	if _, err := Parse(data); err != nil {
		t.Fatalf("Parse() failed for EPUB without mimetype file: %v", err)
	}
}

func TestParse_MissingOPF(t *testing.T) {
	data := buildArchive(t, []fixtureFile{
		{name: "mimetype", data: "application/epub+zip", stored: true},
		{name: "META-INF/container.xml", data: containerXMLData},
	})

	_, err := Parse(data)
	if !errors.Is(err, ErrOPFNotFound) {
		t.Fatalf("Parse() error = %v, want ErrOPFNotFound", err)
	}
}

func TestParse_EmptySpine(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata/>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine/>
</package>`
	data := buildArchive(t, standardFiles(opf,
		fixtureFile{name: "OEBPS/ch1.xhtml", data: chapterXHTML("x")},
	))

	_, err := Parse(data)
	if !errors.Is(err, ErrEmptySpine) {
		t.Fatalf("Parse() error = %v, want ErrEmptySpine", err)
	}
}

// Spine order defines reading order even when it disagrees with the
// manifest's document order.
func TestParse_SpineOrderWins(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata/>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch2"/>
    <itemref idref="ch1"/>
  </spine>
</package>`
	data := buildArchive(t, standardFiles(opf,
		fixtureFile{name: "OEBPS/ch1.xhtml", data: chapterXHTML("one")},
		fixtureFile{name: "OEBPS/ch2.xhtml", data: chapterXHTML("two")},
	))

	book, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if book.Sections[0].ID != "ch2" || book.Sections[1].ID != "ch1" {
		t.Errorf("section order = %q, %q; want ch2, ch1",
			book.Sections[0].ID, book.Sections[1].ID)
	}
}

// Spine idrefs that resolve to nothing readable are skipped, not fatal.
func TestParse_UnresolvedIdrefSkipped(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata/>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="missing" href="gone.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ghost"/>
    <itemref idref="missing"/>
    <itemref idref="ch1"/>
  </spine>
</package>`
	data := buildArchive(t, standardFiles(opf,
		fixtureFile{name: "OEBPS/ch1.xhtml", data: chapterXHTML("still here")},
	))

	book, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(book.Sections) != 1 || book.Sections[0].ID != "ch1" {
		t.Fatalf("Parse() sections = %+v, want just ch1", book.Sections)
	}
}
