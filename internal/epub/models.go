package epub

// Section is one spine document in reading order: its manifest ID and
// the raw XHTML markup.
type Section struct {
	ID     string
	Markup []byte
}

// Book is the parsed container: the ordered content sections plus the
// cover image, when one was resolved.
type Book struct {
	Sections []Section
	Cover    []byte // nil when no cover was resolved
}

// OPF is the parsed package document, reduced to what reading needs.
type OPF struct {
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []string                // idrefs in reading order
	CoverID       string                  // EPUB 2.0 meta name="cover" manifest ID
}

// ManifestItem represents an item in the manifest.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}
