package render

import (
	"html/template"
	"regexp"
	"time"

	"library-client/library"
	"library-client/pagination"
)

type booksView struct {
	Title string
	Page  pagination.PageResult[library.Book]
	Strip []pagination.Button
}

type detailView struct {
	D     *library.BookDetail
	Cover library.CoverImage
	Now   time.Time
}

type borrowsView struct {
	Records []library.BorrowRecord
	Now     time.Time
}

type adminBorrowsView struct {
	Page  pagination.PageResult[library.BorrowRecord]
	Strip []pagination.Button
	Now   time.Time
}

type submissionsView struct {
	Page   pagination.PageResult[library.Submission]
	Strip  []pagination.Button
	Viewer library.Viewer
}

type usersView struct {
	Page  pagination.PageResult[library.User]
	Strip []pagination.Button
}

var inlineImage = regexp.MustCompile(`^data:image/[a-z0-9.+-]+;base64,[A-Za-z0-9+/=\s]+$`)

// coverSrc marks inline covers as safe only when they really are base64
// images; anything else falls back to the placeholder.
func coverSrc(c library.CoverImage) template.URL {
	if c.Source == library.CoverInline {
		if inlineImage.MatchString(c.URL) {
			return template.URL(c.URL)
		}
		return template.URL(library.PlaceholderCoverPath)
	}
	return template.URL(c.URL)
}

var funcs = template.FuncMap{
	"date":     date,
	"dateTime": dateTime,
	"stock":    stock,
	"count":    countText,
	"cover":    func(ref library.CoverRef) template.URL { return coverSrc(library.ResolveCover(ref)) },
	"coverSrc": coverSrc,
	"state": func(r library.BorrowRecord, now time.Time) string {
		return library.Classify(r, now).String()
	},
	"recordActions": library.RecordActions,
	"submissionActions": func(s library.Submission, v library.Viewer) []library.Control {
		return library.SubmissionActions(s, v)
	},
	"one":      func(c library.Control) []library.Control { return []library.Control{c} },
	"ellipsis": func(b pagination.Button) bool { return b.Kind == pagination.Ellipsis },
}

var templates = template.Must(template.New("render").Funcs(funcs).Parse(`
{{define "message"}}<p class="message">{{.}}</p>
{{end}}

{{define "controls"}}{{range .}}<button data-action="{{.Action}}"{{if not .Enabled}} disabled{{end}}>{{.Label}}</button>{{end}}{{end}}

{{define "strip"}}{{if .}}<nav class="pagination">{{range .}}{{if ellipsis .}}<span class="ellipsis">{{.Label}}</span>{{else if .Active}}<span class="active">{{.Label}}</span>{{else if .Disabled}}<span class="disabled">{{.Label}}</span>{{else}}<a href="?page={{.Page}}" data-page="{{.Page}}">{{.Label}}</a>{{end}}{{end}}</nav>
{{end}}{{end}}

{{define "books"}}<section class="books">
{{if .Title}}<h2>{{.Title}} <small>({{.Page.TotalItems}} found)</small></h2>
{{end}}{{if not .Page.Content}}<p class="empty">No books found.</p>
{{else}}<ul>
{{range .Page.Content}}<li data-id="{{.ID}}"><img src="{{cover .Cover}}" alt="{{.Title}}"><a href="/books/{{.ID}}">{{.Title}}</a> <span class="author">{{.Author}}</span> <span class="stock">{{stock .}}</span></li>
{{end}}</ul>
{{end}}{{template "strip" .Strip}}</section>
{{end}}

{{define "detail"}}{{with .D.Book}}<article class="book" data-id="{{.ID}}">
<img src="{{coverSrc $.Cover}}" alt="{{.Title}}">
<h1>{{.Title}}</h1>
<dl><dt>Author</dt><dd>{{.Author}}</dd><dt>Category</dt><dd>{{.Category}}</dd><dt>Location</dt><dd>{{.Location}}</dd><dt>Available</dt><dd>{{stock .}}</dd>{{if $.D.Stats}}<dt>Borrowed</dt><dd>{{$.D.Stats.BorrowCount}}</dd>{{end}}</dl>
{{if .Introduction}}<p class="introduction">{{.Introduction}}</p>
{{end}}{{end}}{{if .D.Current}}<p class="loan">Due {{date .D.Current.DueDate}} <span class="state">{{state .D.Current .Now}}</span></p>
{{template "controls" .D.CurrentControls}}{{else}}{{template "controls" (one .D.Borrow)}}{{end}}
</article>
{{end}}

{{define "borrows"}}<table class="borrows">
<tr><th>Title</th><th>Author</th><th>Borrowed</th><th>Due</th><th>State</th><th></th></tr>
{{range .Records}}<tr data-id="{{.ID}}"><td>{{.BookTitle}}</td><td>{{.BookAuthor}}</td><td>{{date .BorrowDate}}</td><td>{{date .DueDate}}</td><td>{{state . $.Now}}</td><td>{{template "controls" (recordActions .)}}</td></tr>
{{else}}<tr><td colspan="6">You have no borrowed books.</td></tr>
{{end}}</table>
{{end}}

{{define "adminBorrows"}}<table class="admin-borrows">
<tr><th>User</th><th>Title</th><th>Borrowed</th><th>Due</th><th>State</th></tr>
{{range .Page.Content}}<tr data-id="{{.ID}}"><td>{{.Username}}</td><td>{{.BookTitle}}</td><td>{{date .BorrowDate}}</td><td>{{date .DueDate}}</td><td>{{state . $.Now}}</td></tr>
{{end}}</table>
{{template "strip" .Strip}}{{end}}

{{define "submissions"}}<table class="submissions">
<tr><th>Title</th><th>Author</th><th>Submitter</th><th>Status</th><th>Submitted</th><th></th></tr>
{{range .Page.Content}}<tr data-id="{{.ID}}" class="{{.Status}}"><td>{{.Title}}</td><td>{{.Author}}</td><td>{{.SubmitUser}}</td><td>{{.Status.Text}}</td><td>{{dateTime .SubmitTime}}</td><td>{{template "controls" (submissionActions . $.Viewer)}}</td></tr>
{{if .ReviewComment}}<tr class="comment"><td colspan="6">{{.ReviewComment}}</td></tr>
{{end}}{{end}}</table>
{{template "strip" .Strip}}{{end}}

{{define "hot"}}<ol class="hot">
{{range .}}<li><a href="/search?keyword={{.Keyword}}">{{.Keyword}}</a> <span class="count">{{count .Count}}</span></li>
{{end}}</ol>
{{end}}

{{define "history"}}<ul class="history">
{{range .}}<li>{{.Keyword}} <time>{{dateTime .SearchedAt}}</time></li>
{{end}}</ul>
{{end}}

{{define "users"}}<table class="users">
<tr><th>ID</th><th>Username</th><th>Email</th><th>Joined</th></tr>
{{range .Page.Content}}<tr><td>{{.ID}}</td><td>{{.Username}}</td><td>{{.Email}}</td><td>{{date .CreatedAt}}</td></tr>
{{end}}</table>
{{template "strip" .Strip}}{{end}}

{{define "profile"}}<dl class="profile"><dt>Username</dt><dd>{{.Username}}</dd><dt>Email</dt><dd>{{.Email}}</dd></dl>
{{end}}

{{define "settings"}}<dl class="settings"><dt>Email notifications</dt><dd>{{if .EmailNotifications}}on{{else}}off{{end}}</dd><dt>Theme</dt><dd>{{.Theme}}</dd><dt>Language</dt><dd>{{.Language}}</dd></dl>
{{end}}

{{define "author"}}<section class="author"><h1>{{.Author.Name}}</h1>
{{if .Author.Known}}<p>{{.Author.Biography}}</p>{{else}}<p>No detailed information about this author yet.</p>{{end}}
<ul>{{range .Books}}<li><a href="/books/{{.ID}}">{{.Title}}</a></li>{{end}}</ul></section>
{{end}}

{{define "overview"}}<dl class="overview"><dt>Books</dt><dd>{{.Books}}</dd><dt>Users</dt><dd>{{.Users}}</dd><dt>Borrows</dt><dd>{{.Borrows}}</dd><dt>Overdue</dt><dd>{{.Overdue}}</dd><dt>Pending submissions</dt><dd>{{.PendingCount}}</dd></dl>
{{end}}
`))

func (r *Renderer) html(name string, data any) error {
	return templates.ExecuteTemplate(r.w, name, data)
}
