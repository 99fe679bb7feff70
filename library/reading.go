package library

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"library-client/api"
)

// charsPerPage is the page length the service uses for text content; used
// to derive a page count when only the character total is reported.
const charsPerPage = 2000

var (
	ErrNoReadPermission   = errors.New("you do not have permission to read this content")
	ErrDownloadNotAllowed = errors.New("download is not allowed for this book")
)

// ReadPage fetches one 1-based page of a book's online content.
func (lm *LibraryManager) ReadPage(ctx context.Context, bookID int64, page int) (ReadingPage, error) {
	s, err := lm.Require("")
	if err != nil {
		return ReadingPage{}, err
	}
	if page < 1 {
		page = 1
	}
	if !s.IsAdmin() {
		if _, err := lm.ResolveUserID(ctx, s); err == nil {
			s, _ = lm.CurrentSession()
		}
	}

	var resp struct {
		envelope
		BookTitle       string  `json:"bookTitle"`
		ContentType     string  `json:"contentType"`
		Content         string  `json:"content"`
		CurrentPage     flexInt `json:"currentPage"`
		TotalPages      flexInt `json:"totalPages"`
		HasNext         bool    `json:"hasNext"`
		TotalCharacters flexInt `json:"totalCharacters"`
		AllowDownload   bool    `json:"allowDownload"`
	}
	err = lm.api.Get(ctx, "/books/content/"+itoa(bookID)+"/read", &resp,
		api.WithQuery("page", strconv.Itoa(page)), userIDOption(s))
	if api.StatusOf(err) == http.StatusForbidden {
		return ReadingPage{}, ErrNoReadPermission
	}
	if err != nil {
		return ReadingPage{}, fmt.Errorf("load content: %w", err)
	}
	if resp.failed() {
		return ReadingPage{}, resp.err("failed to load content")
	}

	rp := ReadingPage{
		BookID:          bookID,
		BookTitle:       resp.BookTitle,
		ContentType:     ContentType(strings.ToUpper(resp.ContentType)),
		Content:         resp.Content,
		CurrentPage:     int(resp.CurrentPage),
		TotalPages:      int(resp.TotalPages),
		HasNext:         resp.HasNext,
		TotalCharacters: int64(resp.TotalCharacters),
		AllowDownload:   resp.AllowDownload,
	}
	if rp.BookTitle == "" {
		rp.BookTitle = "book content"
	}
	if rp.CurrentPage < 1 {
		rp.CurrentPage = page
	}
	if rp.TotalPages <= 0 && rp.TotalCharacters > 0 {
		rp.TotalPages = int((rp.TotalCharacters + charsPerPage - 1) / charsPerPage)
	}
	if rp.TotalPages < rp.CurrentPage {
		rp.TotalPages = rp.CurrentPage
	}
	return rp, nil
}

// SearchContent finds keyword inside a book's online content.
func (lm *LibraryManager) SearchContent(ctx context.Context, bookID int64, keyword string) ([]ContentMatch, error) {
	s, err := lm.Require("")
	if err != nil {
		return nil, err
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, &ValidationError{Field: "keyword", Message: "please enter a search keyword"}
	}
	var resp struct {
		envelope
		Results []struct {
			Page     flexInt `json:"page"`
			Context  string  `json:"context"`
			Position flexInt `json:"position"`
		} `json:"results"`
	}
	err = lm.api.Get(ctx, "/books/content/"+itoa(bookID)+"/search", &resp,
		api.WithQuery("keyword", keyword), userIDOption(s))
	if api.StatusOf(err) == http.StatusForbidden {
		return nil, ErrNoReadPermission
	}
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}
	if resp.failed() {
		return nil, resp.err("search failed")
	}
	out := make([]ContentMatch, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, ContentMatch{Page: int(r.Page), Context: r.Context, Position: int(r.Position)})
	}
	return out, nil
}

// Download fetches the original content file. The filename comes from the
// Content-Disposition header when present.
func (lm *LibraryManager) Download(ctx context.Context, bookID int64) ([]byte, string, error) {
	s, err := lm.Require("")
	if err != nil {
		return nil, "", err
	}
	resp, err := lm.api.Request(ctx, http.MethodGet, "/books/content/"+itoa(bookID)+"/download", nil, userIDOption(s))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("network request failed: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, "", ErrDownloadNotAllowed
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", &api.RequestError{Status: resp.StatusCode, Message: api.MessageFrom(resp.StatusCode, raw)}
	}

	name := "book-" + itoa(bookID)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return raw, name, nil
}

// ------------------ Interactive reader ------------------

// Reader is the paged reading loop of the read command.
type Reader struct {
	lm     *LibraryManager
	bookID int64
	in     *bufio.Scanner
	out    io.Writer
	// Clear wipes the terminal between pages.
	Clear bool
}

func (lm *LibraryManager) NewReader(bookID int64, in io.Reader, out io.Writer) *Reader {
	return &Reader{lm: lm, bookID: bookID, in: bufio.NewScanner(in), out: out}
}

const rule = "═══════════════════════════════════════════════════════════════════════════════"

func (r *Reader) clear() {
	if r.Clear {
		fmt.Fprint(r.out, "\033[2J\033[H") // Clear screen and move cursor to top
	}
}

func (r *Reader) pause() {
	fmt.Fprintln(r.out, "Press Enter to continue...")
	r.in.Scan()
	r.clear()
}

func (r *Reader) show(p ReadingPage) {
	fmt.Fprintf(r.out, "%s\n", rule)
	fmt.Fprintf(r.out, "📖 %s\n", p.BookTitle)
	fmt.Fprintf(r.out, "Format: %s | Page %d of %d\n", p.ContentType, p.CurrentPage, p.TotalPages)
	fmt.Fprintf(r.out, "%s\n\n", rule)

	if p.ContentType == ContentPDF {
		fmt.Fprintln(r.out, "PDF content cannot be shown in the terminal.")
		if p.AllowDownload {
			fmt.Fprintf(r.out, "Use 'read %d --download <file>' to save it.\n", p.BookID)
		}
	} else {
		fmt.Fprintln(r.out, p.Content)
	}

	fmt.Fprintf(r.out, "\n%s\n", rule)
	fmt.Fprintf(r.out, "Navigation: [n]ext | [p]revious | [g]oto page | [s]earch | [q]uit\n")
	if p.CurrentPage > 1 {
		fmt.Fprintf(r.out, "← Previous")
	}
	if p.HasNext || p.CurrentPage < p.TotalPages {
		if p.CurrentPage > 1 {
			fmt.Fprintf(r.out, " | ")
		}
		fmt.Fprintf(r.out, "Next →")
	}
	fmt.Fprintf(r.out, "\n> ")
}

// Run shows startPage and follows the user's navigation until quit or EOF.
func (r *Reader) Run(ctx context.Context, startPage int) error {
	page, err := r.lm.ReadPage(ctx, r.bookID, startPage)
	if err != nil {
		return err
	}
	r.clear()

	for {
		r.show(page)
		if !r.in.Scan() {
			return r.in.Err()
		}
		input := strings.TrimSpace(r.in.Text())
		cmd, arg, _ := strings.Cut(input, " ")
		cmd = strings.ToLower(cmd)
		r.clear()

		target := 0
		switch cmd {
		case "n", "next":
			if page.HasNext || page.CurrentPage < page.TotalPages {
				target = page.CurrentPage + 1
			} else {
				fmt.Fprintln(r.out, "📖 You're already on the last page!")
				r.pause()
			}
		case "p", "prev", "previous":
			if page.CurrentPage > 1 {
				target = page.CurrentPage - 1
			} else {
				fmt.Fprintln(r.out, "📖 You're already on the first page!")
				r.pause()
			}
		case "g", "goto":
			if strings.TrimSpace(arg) == "" {
				fmt.Fprintf(r.out, "Enter page number (1-%d): ", page.TotalPages)
				if r.in.Scan() {
					arg = r.in.Text()
				}
			}
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil || n < 1 || n > page.TotalPages {
				fmt.Fprintln(r.out, "Invalid page number!")
				r.pause()
			} else if n != page.CurrentPage {
				target = n
			}
		case "s", "search":
			if strings.TrimSpace(arg) == "" {
				fmt.Fprint(r.out, "Search for: ")
				if r.in.Scan() {
					arg = r.in.Text()
				}
			}
			target = r.search(ctx, arg)
		case "q", "quit", "exit":
			fmt.Fprintf(r.out, "📖 Finished reading '%s'.\n", page.BookTitle)
			return nil
		case "":
			// Just refresh the display
			continue
		default:
			fmt.Fprintf(r.out, "Unknown command: %s\n", input)
			fmt.Fprintln(r.out, "Use: [n]ext, [p]revious, [g]oto, [s]earch or [q]uit")
			r.pause()
		}

		if target > 0 {
			next, err := r.lm.ReadPage(ctx, r.bookID, target)
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, ErrNoReadPermission) {
					return err
				}
				fmt.Fprintf(r.out, "Failed to load page %d: %v\n", target, err)
				r.pause()
				continue
			}
			page = next
		}
	}
}

// search prints the matches of keyword and returns the page to jump to, or 0.
func (r *Reader) search(ctx context.Context, keyword string) int {
	matches, err := r.lm.SearchContent(ctx, r.bookID, keyword)
	if err != nil {
		fmt.Fprintf(r.out, "Search failed: %v\n", err)
		r.pause()
		return 0
	}
	if len(matches) == 0 {
		fmt.Fprintln(r.out, "No matches.")
		r.pause()
		return 0
	}
	for i, m := range matches {
		fmt.Fprintf(r.out, "%2d. page %-4d %s\n", i+1, m.Page, strings.TrimSpace(m.Context))
	}
	fmt.Fprint(r.out, "Jump to match # (Enter to stay): ")
	if !r.in.Scan() {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(r.in.Text()))
	r.clear()
	if err != nil || n < 1 || n > len(matches) {
		return 0
	}
	return matches[n-1].Page
}
