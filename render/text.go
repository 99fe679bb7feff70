package render

import (
	"fmt"
	"strings"

	"library-client/library"
	"library-client/pagination"
)

func (r *Renderer) textBooks(title string, page pagination.PageResult[library.Book]) {
	if title != "" {
		fmt.Fprintf(r.w, "%s (%d found)\n\n", title, page.TotalItems)
	}
	if len(page.Content) == 0 {
		fmt.Fprintln(r.w, "No books found.")
		return
	}
	fmt.Fprintf(r.w, "%-6s %-30s %-25s %-15s %s\n", "ID", "Title", "Author", "Category", "Available")
	fmt.Fprintln(r.w, strings.Repeat("-", 90))
	for _, b := range page.Content {
		fmt.Fprintf(r.w, "%-6d %-30s %-25s %-15s %s\n",
			b.ID, truncate(b.Title, 30), truncate(b.Author, 25), truncate(orDash(b.Category), 15), stock(b))
	}
}

func stock(b library.Book) string {
	if !b.Borrowable() {
		return fmt.Sprintf("out of stock (0/%d)", b.Total)
	}
	return fmt.Sprintf("%d/%d", b.AvailableCount, b.Total)
}

func (r *Renderer) textDetail(d *library.BookDetail) {
	b := d.Book
	fmt.Fprintf(r.w, "%s\n", b.Title)
	fmt.Fprintln(r.w, strings.Repeat("=", 60))
	fmt.Fprintf(r.w, "Author:    %s\n", orDash(b.Author))
	fmt.Fprintf(r.w, "Category:  %s\n", orDash(b.Category))
	fmt.Fprintf(r.w, "Location:  %s\n", orDash(b.Location))
	fmt.Fprintf(r.w, "Available: %s\n", stock(b))
	if !b.PublishTime.IsZero() {
		fmt.Fprintf(r.w, "Published: %s\n", date(b.PublishTime))
	}
	if d.Stats != nil {
		fmt.Fprintf(r.w, "Borrowed:  %d times\n", d.Stats.BorrowCount)
	}
	cover := library.ResolveCover(b.Cover)
	if cover.Source == library.CoverInline {
		fmt.Fprintln(r.w, "Cover:     inline image")
	} else {
		fmt.Fprintf(r.w, "Cover:     %s\n", cover.URL)
	}
	if b.HasOnlineContent {
		fmt.Fprintf(r.w, "Online:    yes, use 'read %d'\n", b.ID)
	}
	if b.Introduction != "" {
		fmt.Fprintf(r.w, "\n%s\n", b.Introduction)
	}

	fmt.Fprintln(r.w)
	if d.Current != nil {
		state := library.Classify(*d.Current, r.now())
		fmt.Fprintf(r.w, "You borrowed this book. Due %s [%s]\n", date(d.Current.DueDate), state)
		r.textControls(d.CurrentControls())
		return
	}
	r.textControls([]library.Control{d.Borrow})
}

func (r *Renderer) textControls(controls []library.Control) {
	if len(controls) == 0 {
		return
	}
	parts := make([]string, 0, len(controls))
	for _, c := range controls {
		if c.Enabled {
			parts = append(parts, "["+c.Label+"]")
		} else {
			parts = append(parts, "("+c.Label+")")
		}
	}
	fmt.Fprintf(r.w, "Actions: %s\n", strings.Join(parts, " "))
}

func (r *Renderer) textBorrows(records []library.BorrowRecord) {
	if len(records) == 0 {
		fmt.Fprintln(r.w, "You have no borrowed books.")
		return
	}
	now := r.now()
	fmt.Fprintf(r.w, "%-6s %-30s %-20s %-12s %-12s %-9s %s\n", "ID", "Title", "Author", "Borrowed", "Due", "State", "Actions")
	fmt.Fprintln(r.w, strings.Repeat("-", 110))
	for _, rec := range records {
		fmt.Fprintf(r.w, "%-6d %-30s %-20s %-12s %-12s %-9s %s\n",
			rec.ID, truncate(rec.BookTitle, 30), truncate(rec.BookAuthor, 20),
			date(rec.BorrowDate), date(rec.DueDate), library.Classify(rec, now), controlText(library.RecordActions(rec)))
	}
}

func controlText(controls []library.Control) string {
	parts := make([]string, 0, len(controls))
	for _, c := range controls {
		if c.Enabled {
			parts = append(parts, c.Label)
		} else {
			parts = append(parts, "("+c.Label+")")
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func (r *Renderer) textAdminBorrows(page pagination.PageResult[library.BorrowRecord]) {
	if len(page.Content) == 0 {
		fmt.Fprintln(r.w, "No borrow records.")
		return
	}
	now := r.now()
	fmt.Fprintf(r.w, "%-6s %-16s %-30s %-12s %-12s %-12s %s\n", "ID", "User", "Title", "Borrowed", "Due", "Returned", "State")
	fmt.Fprintln(r.w, strings.Repeat("-", 104))
	for _, rec := range page.Content {
		returned := "-"
		if rec.ReturnDate != nil {
			returned = date(*rec.ReturnDate)
		}
		fmt.Fprintf(r.w, "%-6d %-16s %-30s %-12s %-12s %-12s %s\n",
			rec.ID, truncate(orDash(rec.Username), 16), truncate(rec.BookTitle, 30),
			date(rec.BorrowDate), date(rec.DueDate), returned, library.Classify(rec, now))
	}
}

func (r *Renderer) textSubmissions(page pagination.PageResult[library.Submission], viewer library.Viewer) {
	if len(page.Content) == 0 {
		fmt.Fprintln(r.w, "No submissions.")
		return
	}
	fmt.Fprintf(r.w, "%-6s %-28s %-20s %-14s %-16s %-16s %s\n", "ID", "Title", "Author", "Submitter", "Status", "Submitted", "Actions")
	fmt.Fprintln(r.w, strings.Repeat("-", 112))
	for _, s := range page.Content {
		v := viewer
		if v != library.ViewerAdmin && s.SubmitUser == "" {
			v = library.ViewerOther
		}
		fmt.Fprintf(r.w, "%-6d %-28s %-20s %-14s %-16s %-16s %s\n",
			s.ID, truncate(s.Title, 28), truncate(s.Author, 20), truncate(orDash(s.SubmitUser), 14),
			s.Status.Text(), dateTime(s.SubmitTime), controlText(library.SubmissionActions(s, v)))
		if s.ReviewComment != "" {
			fmt.Fprintf(r.w, "       review: %s\n", s.ReviewComment)
		}
	}
}

// textStrip prints the page strip; the active page is bracketed and disabled
// buttons are parenthesised.
func (r *Renderer) textStrip(strip []pagination.Button) {
	if len(strip) == 0 {
		return
	}
	parts := make([]string, 0, len(strip))
	for _, b := range strip {
		label := b.Label()
		switch {
		case b.Kind == pagination.Ellipsis:
		case b.Active:
			label = "[" + label + "]"
		case b.Disabled:
			label = "(" + label + ")"
		}
		parts = append(parts, label)
	}
	fmt.Fprintf(r.w, "\n%s\n", strings.Join(parts, " "))
}
