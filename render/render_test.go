package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"library-client/library"
	"library-client/pagination"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func bookPage(books ...library.Book) pagination.PageResult[library.Book] {
	return pagination.PageResult[library.Book]{Content: books, TotalPages: 3, TotalItems: int64(len(books)), First: true}
}

func TestHTMLEscapesServiceText(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, HTML)
	evil := library.Book{ID: 1, Title: `<script>alert("x")</script>`, Author: `Bob & "Co"`, AvailableCount: 1, Total: 1}

	if err := r.Books(`<b>results</b>`, bookPage(evil), pagination.Strip(3, 0)); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>results") {
		t.Fatalf("markup from the service was not escaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") || !strings.Contains(out, "Bob &amp; &#34;Co&#34;") {
		t.Fatalf("escaped text missing:\n%s", out)
	}
}

func TestHTMLCoverSources(t *testing.T) {
	cases := []struct {
		name string
		ref  library.CoverRef
		want string
	}{
		{"inline", library.CoverRef{Inline: "iVBORw0KGgo="}, `src="data:image/png;base64,iVBORw0KGgo="`},
		{"object", library.CoverRef{ObjectID: 9}, `src="/images/oid/9"`},
		{"placeholder", library.CoverRef{}, `src="` + library.PlaceholderCoverPath + `"`},
		{"hostile inline", library.CoverRef{Inline: `data:text/html,<script>x</script>`}, `src="` + library.PlaceholderCoverPath + `"`},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		book := library.Book{ID: 1, Title: "Dune", Cover: c.ref}
		if err := New(&buf, HTML).Books("", bookPage(book), nil); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !strings.Contains(buf.String(), c.want) {
			t.Errorf("%s: want %s in\n%s", c.name, c.want, buf.String())
		}
	}
}

func TestTextStrip(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Text)
	r.textStrip(pagination.Strip(10, 5))
	got := strings.TrimSpace(buf.String())
	if got != "prev 1 ... 4 5 [6] 7 8 ... 10 next" {
		t.Fatalf("strip = %q", got)
	}

	buf.Reset()
	r.textStrip(pagination.Strip(3, 0))
	if got := strings.TrimSpace(buf.String()); got != "(prev) [1] 2 3 next" {
		t.Fatalf("strip = %q", got)
	}
}

func TestTextBorrows(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Text).WithClock(func() time.Time { return now })
	records := []library.BorrowRecord{
		{ID: 1, BookTitle: "Dune", BookAuthor: "Herbert", DueDate: now.Add(-24 * time.Hour)},
		{ID: 2, BookTitle: "Emma", BookAuthor: "Austen", DueDate: now.Add(24 * time.Hour), Renewed: true},
	}
	if err := r.Borrows(records); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[2], "OVERDUE") || !strings.HasSuffix(lines[2], "return, renew") {
		t.Fatalf("overdue row = %q", lines[2])
	}
	if !strings.Contains(lines[3], "ACTIVE") || !strings.HasSuffix(lines[3], "return, (already renewed)") {
		t.Fatalf("renewed row = %q", lines[3])
	}
}

func TestTextSubmissionActionsFollowViewer(t *testing.T) {
	page := pagination.PageResult[library.Submission]{Content: []library.Submission{
		{ID: 1, Title: "Dune", Author: "Herbert", Status: library.StatusPending, SubmitUser: "alice"},
		{ID: 2, Title: "Emma", Author: "Austen", Status: library.StatusRejected, SubmitUser: "alice", ReviewComment: "duplicate"},
	}}

	var buf bytes.Buffer
	if err := New(&buf, Text).Submissions(page, nil, library.ViewerAdmin); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "approve, reject") || !strings.Contains(out, "review: duplicate") {
		t.Fatalf("admin view:\n%s", out)
	}
	if strings.Count(out, "approve") != 1 {
		t.Fatalf("only the pending submission can be reviewed:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"short", "short"},
		{"a title that is too long", "a title..."},
		{"héllo wörld, überall", "héllo w..."},
	}
	for _, c := range cases {
		if got := truncate(c.in, 10); got != c.want {
			t.Errorf("truncate(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" HTML "); err != nil || f != HTML {
		t.Fatalf("html: %v %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != Text {
		t.Fatalf("default: %v %v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatalf("pdf accepted")
	}
}

func TestOverviewAndSettings(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Text)
	ov := library.AdminOverview{Username: "root", Books: 120, Users: 35, Borrows: 17, Overdue: 2, PendingCount: 4}
	if err := r.Overview(ov); err != nil {
		t.Fatalf("overview: %v", err)
	}
	for _, want := range []string{"Books:               120", "Overdue:             2", "Pending submissions: 4"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	h := New(&buf, HTML)
	if err := h.Settings(library.Settings{Theme: `<i>dark</i>`, Language: "en-US"}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if out := buf.String(); strings.Contains(out, "<i>") || !strings.Contains(out, "<dd>off</dd>") {
		t.Fatalf("settings html:\n%s", out)
	}
}
