package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrInvalidMimetype   = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound   = errors.New("OPF path not found in container.xml")
	ErrOPFNotFound       = errors.New("OPF document not found in archive")
	ErrEmptySpine        = errors.New("spine declares no readable content")
)

// archive provides access to the files inside an EPUB container.
type archive struct {
	files map[string]*zip.File
}

// container.xml structure
type containerXML struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// Parse reads an EPUB container from raw archive bytes and returns its
// content sections in spine order plus the cover image, if any.
// The transformation is pure: no files are opened and nothing is cached.
func Parse(data []byte) (*Book, error) {
	a, err := openArchive(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB archive: %w", err)
	}

	if err := a.validateMimetype(); err != nil {
		return nil, err
	}

	opfPath, err := a.opfPath()
	if err != nil {
		return nil, err
	}

	opfData, err := a.readFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOPFNotFound, opfPath)
	}

	opf, err := ParseOPF(opfData, path.Dir(opfPath))
	if err != nil {
		return nil, err
	}

	sections := a.collectSections(opf)
	if len(sections) == 0 {
		return nil, ErrEmptySpine
	}

	return &Book{
		Sections: sections,
		Cover:    a.findCover(opf),
	}, nil
}

func openArchive(data []byte) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	a := &archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[normalizePath(f.Name)] = f
	}
	return a, nil
}

// readFile reads the contents of a file from the archive.
func (a *archive) readFile(p string) ([]byte, error) {
	f, ok := a.files[normalizePath(p)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", p)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", p, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// validateMimetype rejects a mimetype file with wrong content. A missing
// mimetype file is tolerated: plenty of real-world EPUBs omit it, and the
// container is still readable without it.
func (a *archive) validateMimetype() error {
	if _, ok := a.files["mimetype"]; !ok {
		return nil
	}

	content, err := a.readFile("mimetype")
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}

	if strings.TrimSpace(string(content)) != "application/epub+zip" {
		return ErrInvalidMimetype
	}
	return nil
}

// opfPath parses META-INF/container.xml and returns the OPF path.
func (a *archive) opfPath() (string, error) {
	content, err := a.readFile("META-INF/container.xml")
	if err != nil {
		return "", ErrContainerNotFound
	}

	var c containerXML
	if err := xml.Unmarshal(content, &c); err != nil {
		return "", fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			return normalizePath(rf.FullPath), nil
		}
	}

	// If no media-type match, use the first one
	if len(c.Rootfiles.Rootfile) > 0 {
		return normalizePath(c.Rootfiles.Rootfile[0].FullPath), nil
	}

	return "", ErrOPFPathNotFound
}

// collectSections resolves the spine into readable sections, preserving
// the declared reading order. Idrefs that do not resolve to a readable
// manifest item are skipped rather than failing the whole book.
func (a *archive) collectSections(opf *OPF) []Section {
	sections := make([]Section, 0, len(opf.Spine))
	for _, idref := range opf.Spine {
		item, ok := opf.Manifest[idref]
		if !ok {
			continue
		}
		markup, err := a.readFile(item.Href)
		if err != nil {
			continue
		}
		sections = append(sections, Section{ID: item.ID, Markup: markup})
	}
	return sections
}

// normalizePath normalizes archive paths (removes ./ prefix).
func normalizePath(p string) string {
	return strings.TrimPrefix(p, "./")
}
