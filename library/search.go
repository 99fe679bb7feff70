package library

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"library-client/api"
	"library-client/pagination"
	"library-client/session"
)

// HistoryLimit is how many history entries the dashboard shows.
const HistoryLimit = 20

// SearchBooks runs a keyword search. The viewer's id goes along so the
// service can record history; without one the search still runs.
func (lm *LibraryManager) SearchBooks(ctx context.Context, keyword string, page, size int) (pagination.PageResult[Book], error) {
	return lm.searchBooks(ctx, keyword, page, size, userIDOption(lm.viewerOf()))
}

// searchBooks is the bare catalog search; lookups that are not the reader's
// own searches call it without an id so nothing lands in their history.
func (lm *LibraryManager) searchBooks(ctx context.Context, keyword string, page, size int, opts ...api.Option) (pagination.PageResult[Book], error) {
	opts = append([]api.Option{api.WithQuery("keyword", keyword), api.WithPage(page, size)}, opts...)
	books, err := fetchPage(ctx, lm, "/books/search", wireBook.toBook, opts...)
	if err != nil {
		return books, fmt.Errorf("search %q: %w", keyword, err)
	}
	return books, nil
}

// HotKeywords fetches the top n search terms in server order.
func (lm *LibraryManager) HotKeywords(ctx context.Context, n int) ([]HotKeyword, error) {
	var resp struct {
		envelope
		HotKeywords []struct {
			Keyword string  `json:"keyword"`
			Count   float64 `json:"count"`
		} `json:"hotKeywords"`
	}
	if err := lm.api.Get(ctx, "/search/hot", &resp, api.WithQuery("topN", strconv.Itoa(n))); err != nil {
		return nil, fmt.Errorf("load hot keywords: %w", err)
	}
	if resp.failed() {
		return nil, resp.err("failed to load hot keywords")
	}
	out := make([]HotKeyword, 0, len(resp.HotKeywords))
	for _, k := range resp.HotKeywords {
		out = append(out, HotKeyword{Keyword: k.Keyword, Count: k.Count})
	}
	return out, nil
}

// SearchScreen is the state of the book search screen: the search field, the
// hot keyword panel and the paged result list.
type SearchScreen struct {
	lm   *LibraryManager
	Term string
	Hot  []HotKeyword
	list *pagination.Controller[Book]
}

func (lm *LibraryManager) NewSearchScreen() *SearchScreen {
	s := &SearchScreen{lm: lm}
	s.list = pagination.NewController(lm.searchSize, s.fetch)
	return s
}

func (s *SearchScreen) fetch(ctx context.Context, q pagination.Query) (pagination.PageResult[Book], error) {
	if q.Filter == "" {
		return s.lm.LoadAll(ctx, q.Page, q.Size)
	}
	return s.lm.SearchBooks(ctx, q.Filter, q.Page, q.Size)
}

// Search runs term; a new term starts from the first page. A blank term lists
// the whole catalog.
func (s *SearchScreen) Search(ctx context.Context, term string) (pagination.PageResult[Book], error) {
	term = strings.TrimSpace(term)
	res, err := s.list.SetFilter(ctx, term)
	if err != nil {
		return res, err
	}
	s.Term = term
	return res, nil
}

// LoadAll lists the catalog with no keyword.
func (s *SearchScreen) LoadAll(ctx context.Context) (pagination.PageResult[Book], error) {
	return s.Search(ctx, "")
}

// SearchHot behaves exactly like typing keyword into the search field and
// pressing search.
func (s *SearchScreen) SearchHot(ctx context.Context, keyword string) (pagination.PageResult[Book], error) {
	return s.Search(ctx, keyword)
}

// RefreshHot reloads the hot keyword panel.
func (s *SearchScreen) RefreshHot(ctx context.Context) ([]HotKeyword, error) {
	hot, err := s.lm.HotKeywords(ctx, s.lm.hotTopN)
	if err != nil {
		return s.Hot, err
	}
	s.Hot = hot
	return hot, nil
}

// HotAt returns the keyword shown at 1-based rank.
func (s *SearchScreen) HotAt(rank int) (string, bool) {
	if rank < 1 || rank > len(s.Hot) {
		return "", false
	}
	return s.Hot[rank-1].Keyword, true
}

func (s *SearchScreen) ChangePage(ctx context.Context, n int) (pagination.PageResult[Book], error) {
	return s.list.ChangePage(ctx, n)
}

func (s *SearchScreen) Results() pagination.PageResult[Book] { return s.list.Current() }
func (s *SearchScreen) Strip() []pagination.Button           { return s.list.Strip() }

// ------------------ Search history ------------------

// SearchHistory lists the reader's recent searches, newest first.
func (lm *LibraryManager) SearchHistory(ctx context.Context) ([]SearchHistoryItem, error) {
	userID, err := lm.requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	var resp struct {
		envelope
		History []struct {
			ID         flexInt   `json:"id"`
			Keyword    string    `json:"keyword"`
			SearchTime timestamp `json:"searchTime"`
			Timestamp  timestamp `json:"timestamp"`
		} `json:"history"`
	}
	err = lm.api.Get(ctx, "/search/history/withtime", &resp,
		api.WithQuery("userId", itoa(userID)),
		api.WithQuery("limit", strconv.Itoa(HistoryLimit)),
	)
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	if resp.failed() {
		return nil, resp.err("failed to load search history")
	}
	items := make([]SearchHistoryItem, 0, len(resp.History))
	for _, h := range resp.History {
		at := h.SearchTime.Time
		if at.IsZero() {
			at = h.Timestamp.Time
		}
		items = append(items, SearchHistoryItem{ID: int64(h.ID), Keyword: h.Keyword, SearchedAt: at})
	}
	return items, nil
}

// DeleteHistoryItem removes one keyword from the reader's history.
func (lm *LibraryManager) DeleteHistoryItem(ctx context.Context, keyword string) error {
	userID, err := lm.requireUserID(ctx)
	if err != nil {
		return err
	}
	var env envelope
	err = lm.api.Delete(ctx, "/search/history/item", &env,
		api.WithQuery("userId", itoa(userID)),
		api.WithQuery("keyword", keyword),
	)
	if err != nil {
		return fmt.Errorf("delete history %q: %w", keyword, err)
	}
	if env.failed() {
		return env.err("delete failed")
	}
	return nil
}

// ClearHistory removes the reader's whole search history.
func (lm *LibraryManager) ClearHistory(ctx context.Context) error {
	userID, err := lm.requireUserID(ctx)
	if err != nil {
		return err
	}
	var env envelope
	if err := lm.api.Delete(ctx, "/search/history", &env, api.WithQuery("userId", itoa(userID))); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if env.failed() {
		return env.err("clear failed")
	}
	return nil
}

func (lm *LibraryManager) requireUserID(ctx context.Context) (int64, error) {
	s, err := lm.Require(session.RoleUser)
	if err != nil {
		return 0, err
	}
	return lm.ResolveUserID(ctx, s)
}
