// Package session implements the reader state machine behind any
// presentation layer: it owns the open book's chapters, the active
// chapter/page indices, and write-through progress persistence.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/okabe/epubreader/internal/epub"
	"github.com/okabe/epubreader/internal/extract"
	"github.com/okabe/epubreader/internal/paginate"
	"github.com/okabe/epubreader/internal/progress"
)

// State identifies what the session currently displays.
type State int

const (
	NoBook State = iota
	CoverShown
	PageShown
)

func (s State) String() string {
	switch s {
	case NoBook:
		return "no-book"
	case CoverShown:
		return "cover"
	case PageShown:
		return "page"
	}
	return "unknown"
}

// ErrNoReadableContent means extraction produced zero non-empty chapters
// and no cover was resolved.
var ErrNoReadableContent = errors.New("book has no readable content")

// coverSentinel is the content of the synthetic cover chapter. The cover
// chapter is addressed by index 0, never by this value; the sentinel only
// keeps the chapter slice dense.
const coverSentinel = "__COVER__"

// Session is the navigation state machine. All operations run to
// completion synchronously; every successful index change is persisted
// write-through so the displayed and persisted positions never diverge.
type Session struct {
	store    progress.Store
	logger   *zap.Logger
	pageSize int

	state    State
	bookPath string
	chapters []string
	cover    []byte
	current  int      // active chapter index
	pages    []string // pages of the active chapter, nil on the cover
	page     int      // active page index
}

// New creates a session backed by store. A nil logger disables logging;
// pageSize <= 0 selects the default.
func New(store progress.Store, logger *zap.Logger, pageSize int) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = paginate.DefaultPageSize
	}
	return &Session{
		store:    store,
		logger:   logger,
		pageSize: pageSize,
		state:    NoBook,
	}
}

// Open loads the book at path, fully replacing any currently open book.
// It extracts all sections, drops the empty ones, inserts the synthetic
// cover chapter at index 0 when a cover resolved, restores the persisted
// position (clamped into range) and transitions to CoverShown or
// PageShown. On failure the session is left with no book loaded.
func (s *Session) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.reset()
		return fmt.Errorf("failed to read book file: %w", err)
	}

	book, err := epub.Parse(data)
	if err != nil {
		s.reset()
		return err
	}

	// Drop empty sections before any index is assigned so chapter
	// indices stay dense and contiguous.
	chapters := make([]string, 0, len(book.Sections))
	for _, sec := range book.Sections {
		text, err := extract.Text(sec.Markup)
		if err != nil {
			s.logger.Warn("skipping unparsable section",
				zap.String("section", sec.ID),
				zap.Error(err),
			)
			continue
		}
		if text == "" {
			continue
		}
		chapters = append(chapters, text)
	}

	var cover []byte
	if len(book.Cover) > 0 {
		cover = epub.NormalizeCover(book.Cover)
		chapters = append([]string{coverSentinel}, chapters...)
	}

	if len(chapters) == 0 {
		s.reset()
		return ErrNoReadableContent
	}

	s.bookPath = abs
	s.chapters = chapters
	s.cover = cover

	pos := s.loadProgress()
	chapter := clampIndex(pos.Chapter, len(chapters))
	s.activate(chapter, pos.Page)
	s.persist()

	s.logger.Info("book opened",
		zap.String("book", abs),
		zap.Int("chapters", len(chapters)),
		zap.Bool("cover", cover != nil),
		zap.Int("chapter", s.current),
		zap.Int("page", s.page),
	)
	return nil
}

// GotoChapter activates the chapter at index. An out-of-range index is a
// silent no-op: the session state is left unchanged.
func (s *Session) GotoChapter(index int) {
	if s.state == NoBook {
		return
	}
	if index < 0 || index >= len(s.chapters) {
		s.logger.Debug("ignoring out-of-range chapter",
			zap.Int("index", index),
			zap.Int("chapters", len(s.chapters)),
		)
		return
	}

	s.activate(index, 0)
	s.persist()
}

// NextPage advances one page. Valid only while a page is displayed; at
// the last page it is a silent no-op so reading flow is never
// interrupted.
func (s *Session) NextPage() {
	if s.state != PageShown {
		return
	}
	if s.page >= len(s.pages)-1 {
		return
	}
	s.page++
	s.persist()
}

// PrevPage retreats one page. Valid only while a page is displayed; at
// the first page it is a silent no-op.
func (s *Session) PrevPage() {
	if s.state != PageShown {
		return
	}
	if s.page <= 0 {
		return
	}
	s.page--
	s.persist()
}

// View is the display state handed to the presentation layer.
type View struct {
	State     State
	Chapter   int
	Page      int
	PageCount int
	Text      string // current page text, PageShown only
	Label     string // "page N / total", PageShown only
	Cover     []byte // cover image bytes, CoverShown only
}

// View returns what the presentation layer should currently render.
func (s *Session) View() View {
	v := View{
		State:     s.state,
		Chapter:   s.current,
		Page:      s.page,
		PageCount: len(s.pages),
	}
	switch s.state {
	case CoverShown:
		v.Cover = s.cover
	case PageShown:
		v.Text = s.pages[s.page]
		v.Label = fmt.Sprintf("page %d / %d", s.page+1, len(s.pages))
	}
	return v
}

// ChapterLabels returns one label per chapter for a chapter picker.
func (s *Session) ChapterLabels() []string {
	labels := make([]string, 0, len(s.chapters))
	for i := range s.chapters {
		if s.isCover(i) {
			labels = append(labels, "Cover Page")
			continue
		}
		n := i + 1
		if s.cover != nil {
			n = i
		}
		labels = append(labels, fmt.Sprintf("Chapter %d", n))
	}
	return labels
}

// ChapterCount returns the number of chapters, including the synthetic
// cover chapter when present.
func (s *Session) ChapterCount() int {
	return len(s.chapters)
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// BookPath returns the absolute path of the open book, or "" when no
// book is loaded.
func (s *Session) BookPath() string {
	if s.state == NoBook {
		return ""
	}
	return s.bookPath
}

// activate makes chapter the current chapter and clamps page into the
// chapter's recomputed page range. The cover chapter has no pages.
func (s *Session) activate(chapter, page int) {
	s.current = chapter

	if s.isCover(chapter) {
		s.pages = nil
		s.page = 0
		s.state = CoverShown
		return
	}

	s.pages = paginate.Split(s.chapters[chapter], s.pageSize)
	s.page = clampIndex(page, len(s.pages))
	s.state = PageShown
}

// isCover reports whether index addresses the synthetic cover chapter.
// A resolved cover is always chapter 0.
func (s *Session) isCover(index int) bool {
	return s.cover != nil && index == 0
}

func (s *Session) loadProgress() progress.Position {
	pos, err := s.store.Get(s.bookPath)
	if err != nil {
		s.logger.Warn("failed to load progress, starting from the beginning",
			zap.String("book", s.bookPath),
			zap.Error(err),
		)
		return progress.Position{}
	}
	return pos
}

// persist writes the current position through to the store. A write
// failure is logged and swallowed: the in-memory state stands and
// reading continues uninterrupted.
func (s *Session) persist() {
	pos := progress.Position{Chapter: s.current, Page: s.page}
	if err := s.store.Put(s.bookPath, pos); err != nil {
		s.logger.Warn("failed to save progress",
			zap.String("book", s.bookPath),
			zap.Int("chapter", pos.Chapter),
			zap.Int("page", pos.Page),
			zap.Error(err),
		)
	}
}

func (s *Session) reset() {
	s.state = NoBook
	s.bookPath = ""
	s.chapters = nil
	s.cover = nil
	s.current = 0
	s.pages = nil
	s.page = 0
}

// clampIndex clamps i into [0, n); n must be positive for a meaningful
// result, zero yields 0.
func clampIndex(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
