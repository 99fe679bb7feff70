// Package render prints screens either as fixed-width terminal tables or as
// HTML fragments. HTML output goes through html/template, so every value the
// service sends is escaped.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"library-client/library"
	"library-client/pagination"
)

// Format selects the output flavour.
type Format string

const (
	Text Format = "text"
	HTML Format = "html"
)

// ParseFormat accepts "text" or "html".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, HTML:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or html)", s)
	}
}

// Renderer writes screens to w.
type Renderer struct {
	w      io.Writer
	format Format
	now    func() time.Time
}

func New(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format, now: time.Now}
}

// WithClock fixes the time used for overdue highlighting.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

func (r *Renderer) Format() Format { return r.format }

// Message prints a one-line notice.
func (r *Renderer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if r.format == HTML {
		return r.html("message", msg)
	}
	_, err := fmt.Fprintln(r.w, msg)
	return err
}

// Books renders a page of catalog entries with its page strip.
func (r *Renderer) Books(title string, page pagination.PageResult[library.Book], strip []pagination.Button) error {
	if r.format == HTML {
		return r.html("books", booksView{Title: title, Page: page, Strip: strip})
	}
	r.textBooks(title, page)
	r.textStrip(strip)
	return nil
}

// BookDetail renders one book with the viewer's loan and borrow control.
func (r *Renderer) BookDetail(d *library.BookDetail) error {
	if r.format == HTML {
		return r.html("detail", detailView{D: d, Cover: library.ResolveCover(d.Book.Cover), Now: r.now()})
	}
	r.textDetail(d)
	return nil
}

// Borrows renders the reader's current loans.
func (r *Renderer) Borrows(records []library.BorrowRecord) error {
	if r.format == HTML {
		return r.html("borrows", borrowsView{Records: records, Now: r.now()})
	}
	r.textBorrows(records)
	return nil
}

// AdminBorrows renders the admin loan list.
func (r *Renderer) AdminBorrows(page pagination.PageResult[library.BorrowRecord], strip []pagination.Button) error {
	if r.format == HTML {
		return r.html("adminBorrows", adminBorrowsView{Page: page, Strip: strip, Now: r.now()})
	}
	r.textAdminBorrows(page)
	r.textStrip(strip)
	return nil
}

// Submissions renders a submission list as seen by viewer.
func (r *Renderer) Submissions(page pagination.PageResult[library.Submission], strip []pagination.Button, viewer library.Viewer) error {
	if r.format == HTML {
		return r.html("submissions", submissionsView{Page: page, Strip: strip, Viewer: viewer})
	}
	r.textSubmissions(page, viewer)
	r.textStrip(strip)
	return nil
}

// HotKeywords renders the ranked keyword panel in server order.
func (r *Renderer) HotKeywords(hot []library.HotKeyword) error {
	if r.format == HTML {
		return r.html("hot", hot)
	}
	if len(hot) == 0 {
		fmt.Fprintln(r.w, "No hot keywords yet.")
		return nil
	}
	fmt.Fprintf(r.w, "%-6s %-30s %s\n", "Rank", "Keyword", "Searches")
	fmt.Fprintln(r.w, strings.Repeat("-", 48))
	for i, k := range hot {
		fmt.Fprintf(r.w, "%-6d %-30s %s\n", i+1, truncate(k.Keyword, 30), countText(k.Count))
	}
	return nil
}

// History renders the search history.
func (r *Renderer) History(items []library.SearchHistoryItem) error {
	if r.format == HTML {
		return r.html("history", items)
	}
	if len(items) == 0 {
		fmt.Fprintln(r.w, "No search history.")
		return nil
	}
	fmt.Fprintf(r.w, "%-30s %s\n", "Keyword", "Searched")
	fmt.Fprintln(r.w, strings.Repeat("-", 50))
	for _, h := range items {
		fmt.Fprintf(r.w, "%-30s %s\n", truncate(h.Keyword, 30), dateTime(h.SearchedAt))
	}
	return nil
}

// Users renders the admin user list.
func (r *Renderer) Users(page pagination.PageResult[library.User], strip []pagination.Button) error {
	if r.format == HTML {
		return r.html("users", usersView{Page: page, Strip: strip})
	}
	fmt.Fprintf(r.w, "%-6s %-20s %-30s %-20s %s\n", "ID", "Username", "Email", "Full name", "Joined")
	fmt.Fprintln(r.w, strings.Repeat("-", 92))
	for _, u := range page.Content {
		fmt.Fprintf(r.w, "%-6d %-20s %-30s %-20s %s\n",
			u.ID, truncate(u.Username, 20), truncate(orDash(u.Email), 30), truncate(orDash(u.FullName), 20), date(u.CreatedAt))
	}
	r.textStrip(strip)
	return nil
}

// Profile renders the account screen.
func (r *Renderer) Profile(u library.User) error {
	if r.format == HTML {
		return r.html("profile", u)
	}
	fmt.Fprintf(r.w, "Username: %s\n", u.Username)
	fmt.Fprintf(r.w, "Email:    %s\n", orDash(u.Email))
	if u.FullName != "" {
		fmt.Fprintf(r.w, "Name:     %s\n", u.FullName)
	}
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(r.w, "Joined:   %s\n", date(u.CreatedAt))
	}
	return nil
}

// Settings renders the reader's preferences.
func (r *Renderer) Settings(st library.Settings) error {
	if r.format == HTML {
		return r.html("settings", st)
	}
	notify := "off"
	if st.EmailNotifications {
		notify = "on"
	}
	fmt.Fprintf(r.w, "Email notifications: %s\n", notify)
	fmt.Fprintf(r.w, "Theme:               %s\n", st.Theme)
	fmt.Fprintf(r.w, "Language:            %s\n", st.Language)
	return nil
}

// Author renders an author with their books.
func (r *Renderer) Author(p *library.AuthorProfile) error {
	if r.format == HTML {
		return r.html("author", p)
	}
	a := p.Author
	fmt.Fprintf(r.w, "%s\n", a.Name)
	if !a.Known {
		fmt.Fprintln(r.w, "No detailed information about this author yet.")
	} else {
		if a.Nationality != "" {
			fmt.Fprintf(r.w, "Nationality: %s\n", a.Nationality)
		}
		if !a.BirthDate.IsZero() {
			fmt.Fprintf(r.w, "Born:        %s\n", date(a.BirthDate))
		}
		if a.Biography != "" {
			fmt.Fprintf(r.w, "\n%s\n", a.Biography)
		}
	}
	fmt.Fprintf(r.w, "\nBooks (%d):\n", len(p.Books))
	for _, b := range p.Books {
		fmt.Fprintf(r.w, "  %-6d %s\n", b.ID, b.Title)
	}
	return nil
}

// Overview renders the admin dashboard counters.
func (r *Renderer) Overview(ov library.AdminOverview) error {
	if r.format == HTML {
		return r.html("overview", ov)
	}
	fmt.Fprintf(r.w, "Signed in as %s (admin)\n", ov.Username)
	fmt.Fprintf(r.w, "Books:               %d\n", ov.Books)
	fmt.Fprintf(r.w, "Registered users:    %d\n", ov.Users)
	fmt.Fprintf(r.w, "Borrows:             %d\n", ov.Borrows)
	fmt.Fprintf(r.w, "Overdue:             %d\n", ov.Overdue)
	fmt.Fprintf(r.w, "Pending submissions: %d\n", ov.PendingCount)
	return nil
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func dateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// countText drops the fraction of whole counts; scores come as floats.
func countText(c float64) string {
	if c == float64(int64(c)) {
		return fmt.Sprintf("%d", int64(c))
	}
	return fmt.Sprintf("%.1f", c)
}
