package epub

import (
	"bytes"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	maxCoverDimension = 1600
	coverJPEGQuality  = 90
)

// findCover resolves the cover image bytes, or nil when no cover exists.
// Resolution order:
//  1. an item explicitly flagged as the cover: EPUB 3.0
//     properties="cover-image", then EPUB 2.0 meta name="cover";
//  2. the first image item whose identifier (or filename) contains
//     "cover", case-insensitive;
//  3. none.
func (a *archive) findCover(opf *OPF) []byte {
	item, ok := opf.findCoverItem()
	if !ok {
		return nil
	}
	data, err := a.readFile(item.Href)
	if err != nil {
		return nil
	}
	return data
}

func (opf *OPF) findCoverItem() (ManifestItem, bool) {
	// EPUB 3.0: properties="cover-image"
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		for _, prop := range item.Properties {
			if strings.EqualFold(prop, "cover-image") {
				return item, true
			}
		}
	}

	// EPUB 2.0: meta name="cover" pointing at an image item
	if opf.CoverID != "" {
		if item, ok := opf.Manifest[opf.CoverID]; ok && isImageMediaType(item.MediaType) {
			return item, true
		}
	}

	// Identifier pattern: first image item named "cover"-something
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(item.ID), "cover") ||
			strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
			return item, true
		}
	}

	return ManifestItem{}, false
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

// NormalizeCover bounds oversized cover images for display. Images whose
// width or height exceeds maxCoverDimension are downscaled to fit and
// re-encoded as JPEG; anything else, including data that fails to decode,
// is returned unchanged.
func NormalizeCover(data []byte) []byte {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	bounds := src.Bounds()
	if bounds.Dx() <= maxCoverDimension && bounds.Dy() <= maxCoverDimension {
		return data
	}

	fitted := imaging.Fit(src, maxCoverDimension, maxCoverDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(coverJPEGQuality)); err != nil {
		return data
	}
	return buf.Bytes()
}
