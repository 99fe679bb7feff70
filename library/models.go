package library

import "time"

// CoverRef points at a cover image: inline base64 data, an object id on the
// image endpoint, or neither.
type CoverRef struct {
	Inline   string
	ObjectID int64
}

// Book is the catalog view of a book. AvailableCount never exceeds Total.
type Book struct {
	ID               int64
	Title            string
	Author           string
	Category         string
	Location         string
	Total            int
	AvailableCount   int
	Introduction     string
	Cover            CoverRef
	HasOnlineContent bool
	PublishTime      time.Time
	IncludeTime      time.Time
}

// Borrowable reports whether copies remain on the shelf.
func (b Book) Borrowable() bool { return b.AvailableCount > 0 }

// BorrowRecord is one loan of one book copy. ReturnDate is nil while the book is out.
type BorrowRecord struct {
	ID         int64
	BookID     int64
	BookTitle  string
	BookAuthor string
	Username   string
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Renewed    bool
}

// BorrowState is derived from a record, never stored.
type BorrowState int

const (
	Active BorrowState = iota
	Overdue
	Returned
)

func (s BorrowState) String() string {
	switch s {
	case Overdue:
		return "OVERDUE"
	case Returned:
		return "RETURNED"
	default:
		return "ACTIVE"
	}
}

type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "PENDING"
	StatusApproved  SubmissionStatus = "APPROVED"
	StatusRejected  SubmissionStatus = "REJECTED"
	StatusCancelled SubmissionStatus = "CANCELLED"
)

// Terminal reports whether no further mutation is possible.
func (s SubmissionStatus) Terminal() bool { return s != StatusPending }

// Text is the human label of a status.
func (s SubmissionStatus) Text() string {
	switch s {
	case StatusPending:
		return "pending review"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	default:
		return string(s)
	}
}

// Submission is a user-proposed book awaiting (or past) review.
type Submission struct {
	ID            int64
	Title         string
	Author        string
	ISBN          string
	Category      string
	Publisher     string
	PublishYear   int
	Description   string
	Status        SubmissionStatus
	ReviewComment string
	ReviewTime    time.Time
	SubmitUser    string
	SubmitTime    time.Time
	Cover         CoverRef
	CreatedBookID int64
}

// HotKeyword keeps the server's rank order; Count may be fractional
// because the server decays scores over time.
type HotKeyword struct {
	Keyword string
	Count   float64
}

type SearchHistoryItem struct {
	ID         int64
	Keyword    string
	SearchedAt time.Time
}

type User struct {
	ID        int64
	Username  string
	Email     string
	FullName  string
	CreatedAt time.Time
}

type Author struct {
	ID              int64
	Name            string
	Nationality     string
	Biography       string
	BookCount       int
	PopularityScore float64
	BirthDate       time.Time
	DeathDate       time.Time

	// Known is false for the placeholder shown when no author record exists.
	Known bool
}

type BookStatistics struct {
	BorrowCount int64
}

// ContentType of online book content.
type ContentType string

const (
	ContentText     ContentType = "TXT"
	ContentHTML     ContentType = "HTML"
	ContentMarkdown ContentType = "MARKDOWN"
	ContentPDF      ContentType = "PDF"
)

// ReadingPage is one page of a book's online content. CurrentPage is 1-based.
type ReadingPage struct {
	BookID          int64
	BookTitle       string
	ContentType     ContentType
	Content         string
	CurrentPage     int
	TotalPages      int
	HasNext         bool
	TotalCharacters int64
	AllowDownload   bool
}

type ContentMatch struct {
	Page     int
	Context  string
	Position int
}
