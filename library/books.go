package library

import (
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"library-client/api"
	"library-client/pagination"
	"library-client/session"
)

// PlaceholderCoverPath is the web client's default cover image.
const PlaceholderCoverPath = "/images/default-book-cover.jpg"

//go:embed placeholder.svg
var placeholderCover []byte

// BookDetail is everything the book detail screen shows.
type BookDetail struct {
	Book  Book
	Stats *BookStatistics
	// Current is the viewer's unreturned loan of this book. When set, the
	// borrow button is replaced by the loan's renew control.
	Current *BorrowRecord
	Borrow  Control
}

// CurrentControls are the buttons of the current loan section.
func (d BookDetail) CurrentControls() []Control {
	if d.Current == nil {
		return nil
	}
	return RecordActions(*d.Current)
}

// LoadAll pages through the catalog without a keyword filter.
func (lm *LibraryManager) LoadAll(ctx context.Context, page, size int) (pagination.PageResult[Book], error) {
	books, err := fetchPage(ctx, lm, "/books", wireBook.toBook, api.WithPage(page, size))
	if err != nil {
		return books, fmt.Errorf("load books: %w", err)
	}
	return books, nil
}

// GetBook fetches one book.
func (lm *LibraryManager) GetBook(ctx context.Context, id int64) (Book, error) {
	var resp struct {
		envelope
		Book *wireBook `json:"book"`
	}
	if err := lm.api.Get(ctx, "/books/"+itoa(id), &resp); err != nil {
		return Book{}, fmt.Errorf("load book %d: %w", id, err)
	}
	if resp.failed() || resp.Book == nil {
		return Book{}, resp.err("book not found")
	}
	return resp.Book.toBook(), nil
}

// BookDetail loads a book with the viewer's loan state and borrow statistics.
// The secondary lookups never fail the screen.
func (lm *LibraryManager) BookDetail(ctx context.Context, id int64) (*BookDetail, error) {
	s, err := lm.Require("")
	if err != nil {
		return nil, err
	}
	book, err := lm.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &BookDetail{Book: book, Borrow: BorrowControl(book, s)}
	if !s.IsAdmin() {
		if !s.HasUserID() {
			if _, err := lm.ResolveUserID(ctx, s); err == nil {
				s, _ = lm.CurrentSession()
			}
		}
		d.Current = lm.BorrowStatus(ctx, id, s)
	}
	if stats, err := lm.Statistics(ctx, id); err == nil {
		d.Stats = stats
	} else if errors.Is(err, api.ErrUnauthorized) {
		return nil, err
	}
	return d, nil
}

// Statistics returns the borrow count of a book.
func (lm *LibraryManager) Statistics(ctx context.Context, id int64) (*BookStatistics, error) {
	var resp struct {
		BorrowCount *flexInt `json:"borrowCount"`
	}
	if err := lm.api.Get(ctx, "/books/"+itoa(id)+"/statistics", &resp); err != nil {
		return nil, err
	}
	if resp.BorrowCount == nil {
		return nil, fmt.Errorf("no statistics for book %d", id)
	}
	return &BookStatistics{BorrowCount: int64(*resp.BorrowCount)}, nil
}

// Related lists books the service recommends next to id. Failures yield an
// empty list.
func (lm *LibraryManager) Related(ctx context.Context, id int64) []Book {
	var wire []wireBook
	if err := lm.api.Get(ctx, "/books/"+itoa(id)+"/related", &wire); err != nil {
		lm.logger.Debug("related books", zap.Int64("book_id", id), zap.Error(err))
		return []Book{}
	}
	books := make([]Book, 0, len(wire))
	for _, w := range wire {
		books = append(books, w.toBook())
	}
	return books
}

// ------------------ Covers ------------------

// CoverSource says which of the three cover sources was used.
type CoverSource int

const (
	CoverInline CoverSource = iota
	CoverObject
	CoverPlaceholder
)

func (s CoverSource) String() string {
	switch s {
	case CoverInline:
		return "inline"
	case CoverObject:
		return "object"
	default:
		return "placeholder"
	}
}

// CoverImage is a resolved cover reference.
type CoverImage struct {
	Source CoverSource
	// URL is a data URL, an image endpoint path or the placeholder path.
	URL string
}

// ResolveCover picks the cover source in fixed order: inline data, then the
// object id, then the placeholder.
func ResolveCover(ref CoverRef) CoverImage {
	if inline := strings.TrimSpace(ref.Inline); inline != "" {
		return CoverImage{Source: CoverInline, URL: DataURL(inline)}
	}
	if ref.ObjectID > 0 {
		return CoverImage{Source: CoverObject, URL: "/images/oid/" + itoa(ref.ObjectID)}
	}
	return CoverImage{Source: CoverPlaceholder, URL: PlaceholderCoverPath}
}

// DataURL adds the PNG data URL prefix to bare base64 payloads.
func DataURL(b64 string) string {
	if strings.HasPrefix(b64, "data:") {
		return b64
	}
	return "data:image/png;base64," + b64
}

// decodeDataURL splits a data URL into its media type and decoded bytes.
func decodeDataURL(u string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data url")
	}
	mediaType := strings.TrimSuffix(meta, ";base64")
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("decode cover: %w", err)
	}
	return raw, mediaType, nil
}

// CoverBytes downloads a cover following ResolveCover's order, moving on to
// the next source whenever one fails. It always returns an image.
func (lm *LibraryManager) CoverBytes(ctx context.Context, ref CoverRef) ([]byte, string, CoverSource) {
	if inline := strings.TrimSpace(ref.Inline); inline != "" {
		if raw, mediaType, err := decodeDataURL(DataURL(inline)); err == nil {
			return raw, mediaType, CoverInline
		}
	}
	if ref.ObjectID > 0 {
		raw, mediaType, err := lm.api.Fetch(ctx, "/images/oid/"+itoa(ref.ObjectID))
		if err == nil && len(raw) > 0 {
			return raw, mediaType, CoverObject
		}
		lm.logger.Debug("cover fetch", zap.Int64("oid", ref.ObjectID), zap.Error(err))
	}
	return placeholderCover, "image/svg+xml", CoverPlaceholder
}

// BookCover loads a book and downloads its cover.
func (lm *LibraryManager) BookCover(ctx context.Context, id int64) ([]byte, string, CoverSource, error) {
	if _, err := lm.Require(""); err != nil {
		return nil, "", CoverPlaceholder, err
	}
	book, err := lm.GetBook(ctx, id)
	if err != nil {
		return nil, "", CoverPlaceholder, err
	}
	raw, mediaType, src := lm.CoverBytes(ctx, book.Cover)
	return raw, mediaType, src, nil
}

// viewerOf is the session used for header decoration on public screens.
func (lm *LibraryManager) viewerOf() session.Session {
	s, _ := lm.CurrentSession()
	return s
}
