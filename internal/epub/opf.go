package epub

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// opfPackage represents the OPF XML structure, reduced to the elements
// a reading session needs: manifest, spine and the EPUB 2.0 cover meta.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Meta []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// ParseOPF parses an OPF document and returns the reduced OPF structure.
// opfDir is the directory containing the OPF file (e.g., "OEBPS"); all
// manifest hrefs are resolved relative to it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Manifest:      make(map[string]ManifestItem, len(pkg.Manifest.Items)),
		ManifestOrder: make([]string, 0, len(pkg.Manifest.Items)),
	}

	for _, item := range pkg.Manifest.Items {
		mi := ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}
		if item.Properties != "" {
			mi.Properties = strings.Fields(item.Properties)
		}
		opf.Manifest[item.ID] = mi
		opf.ManifestOrder = append(opf.ManifestOrder, item.ID)
	}

	for _, itemRef := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, itemRef.IDRef)
	}

	// EPUB 2.0 cover designation
	for _, m := range pkg.Metadata.Meta {
		if m.Name == "cover" && m.Content != "" {
			opf.CoverID = m.Content
			break
		}
	}

	return opf, nil
}

// joinPath joins the OPF directory with a manifest href. Archive paths
// always use forward slashes.
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return rel
	}
	return path.Join(base, rel)
}

