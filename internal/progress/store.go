// Package progress persists the last-read position per book.
package progress

// Position is the last-read location within a book.
type Position struct {
	Chapter int `json:"chapter"`
	Page    int `json:"page"`
}

// Store keeps one Position per book path with upsert semantics.
// Get on an unknown path returns the zero Position and no error; errors
// indicate storage-layer failure only.
type Store interface {
	Get(bookPath string) (Position, error)
	Put(bookPath string, pos Position) error
	Close() error
}
