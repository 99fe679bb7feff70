package pagination

import (
	"encoding/json"
	"fmt"
)

// PageResult is one page of a list endpoint. Number is 0-based.
type PageResult[T any] struct {
	Content    []T
	TotalPages int
	TotalItems int64
	Number     int
	First      bool
	Last       bool

	// placed is set when the service said which page this is.
	placed bool
}

// wirePage covers every page shape the service returns: Spring-style
// {content, number, first, last}, the catalog's {content, currentPage,
// totalItems} and the submission lists' {submissions, currentPage}.
type wirePage[T any] struct {
	Content       []T   `json:"content"`
	Submissions   []T   `json:"submissions"`
	Number        *int  `json:"number"`
	CurrentPage   *int  `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalItems    int64 `json:"totalItems"`
	TotalElements int64 `json:"totalElements"`
	First         *bool `json:"first"`
	Last          *bool `json:"last"`
}

func (p *PageResult[T]) UnmarshalJSON(data []byte) error {
	var w wirePage[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode page: %w", err)
	}
	*p = normalize(w)
	return nil
}

func normalize[T any](w wirePage[T]) PageResult[T] {
	p := PageResult[T]{
		Content:    w.Content,
		TotalPages: w.TotalPages,
		TotalItems: w.TotalItems,
	}
	if p.Content == nil {
		p.Content = w.Submissions
	}
	if p.Content == nil {
		p.Content = []T{}
	}
	if p.TotalItems == 0 {
		p.TotalItems = w.TotalElements
	}
	switch {
	case w.Number != nil:
		p.Number, p.placed = *w.Number, true
	case w.CurrentPage != nil:
		p.Number, p.placed = *w.CurrentPage, true
	}
	if p.Number < 0 {
		p.Number = 0
	}

	if w.First != nil {
		p.First = *w.First
	} else {
		p.First = p.Number == 0
	}
	if w.Last != nil {
		p.Last = *w.Last
	} else {
		p.Last = p.TotalPages == 0 || p.Number >= p.TotalPages-1
	}
	return p
}

// Map converts the content of a page, keeping its position fields.
func Map[T, U any](p PageResult[T], f func(T) U) PageResult[U] {
	out := PageResult[U]{
		Content:    make([]U, 0, len(p.Content)),
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
		Number:     p.Number,
		First:      p.First,
		Last:       p.Last,
		placed:     p.placed,
	}
	for _, item := range p.Content {
		out.Content = append(out.Content, f(item))
	}
	return out
}

// Single wraps a complete list as a one-page result.
func Single[T any](items []T) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	total := 0
	if len(items) > 0 {
		total = 1
	}
	return PageResult[T]{Content: items, TotalPages: total, TotalItems: int64(len(items)), First: true, Last: true, placed: true}
}

// at places an unnumbered page at n, the page that was asked for.
func (p PageResult[T]) at(n int) PageResult[T] {
	if p.placed {
		return p
	}
	p.Number, p.placed = n, true
	p.First = n == 0
	p.Last = p.TotalPages == 0 || n >= p.TotalPages-1
	return p
}
