// Package paginate splits chapter text into fixed-size pages.
//
// Chunking is deterministic and pure: the same text and size always
// produce the same pages, and concatenating the pages in order
// reproduces the text exactly.
package paginate

// DefaultPageSize is the fixed page length in characters.
const DefaultPageSize = 2000

// Split chunks text into pages of at most size characters. The last page
// holds the remainder (1..size characters); empty text yields no pages.
// Pages are sliced on rune boundaries so multibyte characters are never
// split across pages.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultPageSize
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	pages := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pages = append(pages, string(runes[start:end]))
	}
	return pages
}

// Count returns the number of pages Split would produce:
// ceil(len/size) for non-empty text, 0 for empty text.
func Count(text string, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if text == "" {
		return 0
	}
	n := len([]rune(text))
	return (n + size - 1) / size
}
