package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"library-client/api"
)

// authorBooksSize bounds the catalog search used to list an author's books.
const authorBooksSize = 50

// AuthorProfile is the author screen: the record (or a placeholder) and the
// catalog books credited to the author.
type AuthorProfile struct {
	Author Author
	Books  []Book
}

// FindAuthor looks an author up by name. A missing record is not an error:
// the placeholder carries just the name so the screen can still render.
func (lm *LibraryManager) FindAuthor(ctx context.Context, name string) (Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Author{}, fmt.Errorf("author information unavailable")
	}
	var resp struct {
		envelope
		Exists bool        `json:"exists"`
		Author *wireAuthor `json:"author"`
	}
	if err := lm.api.Get(ctx, "/authors/search/name", &resp, api.WithQuery("name", name)); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return Author{}, err
		}
		lm.logger.Debug("author lookup", zap.String("name", name), zap.Error(err))
		return Author{Name: name}, nil
	}
	if resp.failed() {
		return Author{}, resp.err("author lookup failed")
	}
	if !resp.Exists || resp.Author == nil || resp.Author.ID <= 0 {
		return Author{Name: name}, nil
	}
	return resp.Author.toAuthor(), nil
}

// LoadAuthor loads the author and the books whose author field contains the name.
func (lm *LibraryManager) LoadAuthor(ctx context.Context, name string) (*AuthorProfile, error) {
	if _, err := lm.Require(""); err != nil {
		return nil, err
	}
	author, err := lm.FindAuthor(ctx, name)
	if err != nil {
		return nil, err
	}
	p := &AuthorProfile{Author: author, Books: []Book{}}

	page, err := lm.searchBooks(ctx, author.Name, 0, authorBooksSize)
	if err != nil {
		lm.logger.Debug("author books", zap.String("name", author.Name), zap.Error(err))
		return p, nil
	}
	for _, b := range page.Content {
		if strings.Contains(b.Author, author.Name) {
			p.Books = append(p.Books, b)
		}
	}
	return p, nil
}
