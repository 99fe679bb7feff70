package library

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"library-client/api"
	"library-client/pagination"
)

// Everything the service sends is decoded into the wire* types below and
// converted once into the domain types in models.go.

// timestamp accepts the date encodings the service mixes: epoch milliseconds,
// ISO-8601 strings with or without zone, plain dates and Jackson's
// [y,m,d,h,mi,s] arrays. Anything else decodes to the zero time.
type timestamp struct{ time.Time }

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	t.Time = time.Time{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		t.Time = parseTime(s)
	case '[':
		var parts []int
		if err := json.Unmarshal(data, &parts); err != nil || len(parts) < 3 {
			return nil
		}
		for len(parts) < 7 {
			parts = append(parts, 0)
		}
		t.Time = time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], time.Local)
	default:
		if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			t.Time = time.UnixMilli(ms)
		}
	}
	return nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	for _, layout := range timeLayouts {
		if tm, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return tm
		}
	}
	return time.Time{}
}

// flexInt decodes numbers that may arrive as strings.
type flexInt int64

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	*n = 0
	if s == "" || s == "null" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = flexInt(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = flexInt(f)
	}
	return nil
}

type wireBook struct {
	ID               flexInt   `json:"id"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	Total            flexInt   `json:"total"`
	AvailableCount   flexInt   `json:"availableCount"`
	Introduction     string    `json:"introduction"`
	CoverBase64      string    `json:"coverBase64"`
	CoverImageOid    flexInt   `json:"coverImageOid"`
	ImageStoreID     flexInt   `json:"imageStoreId"`
	HasOnlineContent bool      `json:"hasOnlineContent"`
	PublishTime      timestamp `json:"publishTime"`
	IncludeTime      timestamp `json:"includeTime"`
}

func (w wireBook) toBook() Book {
	oid := int64(w.CoverImageOid)
	if oid <= 0 {
		oid = int64(w.ImageStoreID)
	}
	return Book{
		ID:               int64(w.ID),
		Title:            w.Title,
		Author:           w.Author,
		Category:         w.Category,
		Location:         w.Location,
		Total:            int(w.Total),
		AvailableCount:   int(w.AvailableCount),
		Introduction:     w.Introduction,
		Cover:            CoverRef{Inline: strings.TrimSpace(w.CoverBase64), ObjectID: oid},
		HasOnlineContent: w.HasOnlineContent,
		PublishTime:      w.PublishTime.Time,
		IncludeTime:      w.IncludeTime.Time,
	}
}

type wireUserRef struct {
	ID       flexInt `json:"id"`
	Username string  `json:"username"`
}

type wireBorrowRecord struct {
	ID           flexInt      `json:"id"`
	Book         *wireBook    `json:"book"`
	User         *wireUserRef `json:"user"`
	BorrowDate   timestamp    `json:"borrowDate"`
	DatelineDate *timestamp   `json:"datelineDate"`
	DateLineDate *timestamp   `json:"dateLineDate"`
	Dateline     *timestamp   `json:"dateline"`
	DueDate      *timestamp   `json:"dueDate"`
	ReturnDate   *timestamp   `json:"returnDate"`
	Renewed      bool         `json:"renewed"`
}

// dueDate picks the first present field in the order
// datelineDate, dateLineDate, dateline, dueDate.
func (w wireBorrowRecord) dueDate() time.Time {
	for _, candidate := range []*timestamp{w.DatelineDate, w.DateLineDate, w.Dateline, w.DueDate} {
		if candidate != nil && !candidate.IsZero() {
			return candidate.Time
		}
	}
	return time.Time{}
}

func (w wireBorrowRecord) toRecord() BorrowRecord {
	r := BorrowRecord{
		ID:         int64(w.ID),
		BorrowDate: w.BorrowDate.Time,
		DueDate:    w.dueDate(),
		Renewed:    w.Renewed,
		BookTitle:  "unknown book",
		BookAuthor: "unknown",
	}
	if w.Book != nil {
		r.BookID = int64(w.Book.ID)
		if w.Book.Title != "" {
			r.BookTitle = w.Book.Title
		}
		if w.Book.Author != "" {
			r.BookAuthor = w.Book.Author
		}
	}
	if w.User != nil {
		r.Username = w.User.Username
	}
	if w.ReturnDate != nil && !w.ReturnDate.IsZero() {
		returned := w.ReturnDate.Time
		r.ReturnDate = &returned
	}
	return r
}

type wireSubmission struct {
	ID            flexInt      `json:"id"`
	Title         string       `json:"title"`
	Author        string       `json:"author"`
	ISBN          string       `json:"isbn"`
	Category      string       `json:"category"`
	Publisher     string       `json:"publisher"`
	PublishYear   flexInt      `json:"publishYear"`
	Description   string       `json:"description"`
	Introduction  string       `json:"introduction"`
	Status        string       `json:"status"`
	ReviewComment string       `json:"reviewComment"`
	ReviewTime    timestamp    `json:"reviewTime"`
	SubmitUser    *wireUserRef `json:"submitUser"`
	SubmitTime    timestamp    `json:"submitTime"`
	CoverBase64   string       `json:"coverBase64"`
	CreatedBookID flexInt      `json:"createdBookId"`
}

func (w wireSubmission) toSubmission() Submission {
	s := Submission{
		ID:            int64(w.ID),
		Title:         w.Title,
		Author:        w.Author,
		ISBN:          w.ISBN,
		Category:      w.Category,
		Publisher:     w.Publisher,
		PublishYear:   int(w.PublishYear),
		Description:   w.Description,
		Status:        SubmissionStatus(strings.ToUpper(strings.TrimSpace(w.Status))),
		ReviewComment: w.ReviewComment,
		ReviewTime:    w.ReviewTime.Time,
		SubmitTime:    w.SubmitTime.Time,
		Cover:         CoverRef{Inline: strings.TrimSpace(w.CoverBase64)},
		CreatedBookID: int64(w.CreatedBookID),
	}
	if s.Description == "" {
		s.Description = w.Introduction
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	if w.SubmitUser != nil {
		s.SubmitUser = w.SubmitUser.Username
	}
	return s
}

type wireUser struct {
	ID        flexInt   `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt timestamp `json:"createdAt"`
}

func (w wireUser) toUser() User {
	return User{
		ID:        int64(w.ID),
		Username:  w.Username,
		Email:     w.Email,
		FullName:  w.FullName,
		CreatedAt: w.CreatedAt.Time,
	}
}

type wireAuthor struct {
	ID              flexInt   `json:"id"`
	Name            string    `json:"name"`
	Nationality     string    `json:"nationality"`
	Biography       string    `json:"biography"`
	BookCount       flexInt   `json:"bookCount"`
	PopularityScore float64   `json:"popularityScore"`
	BirthDate       timestamp `json:"birthDate"`
	DeathDate       timestamp `json:"deathDate"`
}

func (w wireAuthor) toAuthor() Author {
	return Author{
		ID:              int64(w.ID),
		Name:            w.Name,
		Nationality:     w.Nationality,
		Biography:       w.Biography,
		BookCount:       int(w.BookCount),
		PopularityScore: w.PopularityScore,
		BirthDate:       w.BirthDate.Time,
		DeathDate:       w.DeathDate.Time,
		Known:           w.ID > 0,
	}
}

// envelope is the {success, message} wrapper mutating endpoints answer with.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// ok reports an explicit success=true.
func (e envelope) ok() bool { return e.Success != nil && *e.Success }

// failed reports an explicit success=false.
func (e envelope) failed() bool { return e.Success != nil && !*e.Success }

func (e envelope) err(fallback string) error {
	msg := e.Message
	if msg == "" {
		msg = fallback
	}
	return &OperationError{Message: msg}
}

// OperationError is a 2xx response that reported success=false.
type OperationError struct {
	Message string
}

func (e *OperationError) Error() string { return e.Message }

// fetchPage loads a list endpoint, honours an explicit success=false and
// converts the page content.
func fetchPage[W, T any](ctx context.Context, lm *LibraryManager, path string, conv func(W) T, opts ...api.Option) (pagination.PageResult[T], error) {
	raw, err := lm.api.Expect(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return pagination.PageResult[T]{}, err
	}
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.failed() {
		return pagination.PageResult[T]{}, env.err("request failed")
	}
	var page pagination.PageResult[W]
	if err := json.Unmarshal(raw, &page); err != nil {
		return pagination.PageResult[T]{}, err
	}
	return pagination.Map(page, conv), nil
}
