package library

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"library-client/api"
	"library-client/pagination"
	"library-client/session"
)

// RenewPeriod is how far a renewal pushes the due date.
const RenewPeriod = 30 * 24 * time.Hour

var (
	ErrAlreadyRenewed  = errors.New("already renewed")
	ErrAlreadyReturned = errors.New("already returned")
)

// Classify derives the state of a record at now. The due date only matters
// while the book is out.
func Classify(r BorrowRecord, now time.Time) BorrowState {
	if r.ReturnDate != nil {
		return Returned
	}
	if !r.DueDate.IsZero() && r.DueDate.Before(now) {
		return Overdue
	}
	return Active
}

// CurrentBorrows drops returned records; the dashboard never shows them.
func CurrentBorrows(records []BorrowRecord) []BorrowRecord {
	out := make([]BorrowRecord, 0, len(records))
	for _, r := range records {
		if r.ReturnDate == nil {
			out = append(out, r)
		}
	}
	return out
}

// RecordActions lists the controls of an unreturned record: return is always
// offered, renew only once. Returned records get none.
func RecordActions(r BorrowRecord) []Control {
	if r.ReturnDate != nil {
		return nil
	}
	renew := Control{Action: ActionRenew, Label: "renew", Enabled: true}
	if r.Renewed {
		renew = Control{Action: ActionRenew, Label: "already renewed", Enabled: false}
	}
	return []Control{
		{Action: ActionReturn, Label: "return", Enabled: true},
		renew,
	}
}

// BorrowControl is the borrow button of a book detail screen. Admins can never
// borrow, and nobody can borrow a book with no copies left.
func BorrowControl(b Book, s session.Session) Control {
	switch {
	case s.IsAdmin():
		return Control{Action: ActionBorrow, Label: "admin cannot borrow"}
	case !b.Borrowable():
		return Control{Action: ActionBorrow, Label: "out of stock"}
	default:
		return Control{Action: ActionBorrow, Label: "borrow", Enabled: true}
	}
}

// Renewed returns the optimistic copy of r after a successful renewal: the
// due date moves out by RenewPeriod until the list is fetched again.
func Renewed(r BorrowRecord, now time.Time) BorrowRecord {
	base := r.DueDate
	if base.IsZero() {
		base = now
	}
	r.DueDate = base.Add(RenewPeriod)
	r.Renewed = true
	return r
}

// ------------------ Dashboard ------------------

// MyBorrows loads the signed-in reader's unreturned loans.
func (lm *LibraryManager) MyBorrows(ctx context.Context) ([]BorrowRecord, error) {
	s, err := lm.Require(session.RoleUser)
	if err != nil {
		return nil, err
	}
	userID, err := lm.ResolveUserID(ctx, s)
	if err != nil {
		return nil, err
	}

	var wire []wireBorrowRecord
	if err := lm.api.Get(ctx, "/user/borrowrecords/"+itoa(userID), &wire); err != nil {
		return nil, fmt.Errorf("load borrow records: %w", err)
	}
	records := make([]BorrowRecord, 0, len(wire))
	for _, w := range wire {
		records = append(records, w.toRecord())
	}
	return CurrentBorrows(records), nil
}

// ReturnBook returns a loan of the signed-in reader.
func (lm *LibraryManager) ReturnBook(ctx context.Context, r BorrowRecord) error {
	if _, err := lm.Require(session.RoleUser); err != nil {
		return err
	}
	if r.ReturnDate != nil {
		return ErrAlreadyReturned
	}
	if _, err := lm.api.Expect(ctx, http.MethodPost, "/user/return/"+itoa(r.ID), nil); err != nil {
		return fmt.Errorf("return %q: %w", r.BookTitle, err)
	}
	return nil
}

// Renew extends a loan once. The returned record carries the optimistic due date.
func (lm *LibraryManager) Renew(ctx context.Context, r BorrowRecord) (BorrowRecord, error) {
	if _, err := lm.Require(session.RoleUser); err != nil {
		return r, err
	}
	if r.ReturnDate != nil {
		return r, ErrAlreadyReturned
	}
	if r.Renewed {
		return r, ErrAlreadyRenewed
	}
	if _, err := lm.api.Expect(ctx, http.MethodPost, "/user/renew/"+itoa(r.ID), nil); err != nil {
		return r, fmt.Errorf("renew %q: %w", r.BookTitle, err)
	}
	return Renewed(r, lm.now()), nil
}

// FindBorrow finds a current-borrows entry by record id.
func FindBorrow(records []BorrowRecord, id int64) (BorrowRecord, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return BorrowRecord{}, false
}

// ------------------ Book detail ------------------

// BorrowStatus returns the reader's unreturned loan of bookID, or nil. Lookup
// failures are treated as "not borrowed".
func (lm *LibraryManager) BorrowStatus(ctx context.Context, bookID int64, s session.Session) *BorrowRecord {
	if s.IsAdmin() || !s.HasUserID() {
		return nil
	}
	var w *wireBorrowRecord
	err := lm.api.Get(ctx, "/user/borrow/status/"+itoa(bookID), &w, api.WithQuery("userId", s.UserIDString()))
	if err != nil {
		if !errors.Is(err, api.ErrUnauthorized) {
			lm.logger.Debug("borrow status", zap.Int64("book_id", bookID), zap.Error(err))
		}
		return nil
	}
	if w == nil || w.ID <= 0 {
		return nil
	}
	r := w.toRecord()
	if r.ReturnDate != nil {
		return nil
	}
	return &r
}

// Borrow borrows the book behind trigger. The trigger is disabled before the
// request goes out and restored only if it fails; on success the detail is
// loaded again and replaces the old screen. The borrow rules are checked
// against the book and session here, whatever state trigger is in.
func (lm *LibraryManager) Borrow(ctx context.Context, book Book, trigger *Trigger) (*BookDetail, error) {
	s, err := lm.Require("")
	if err != nil {
		return nil, err
	}
	if s.Username == "" {
		lm.nav.Alert("Username missing, cannot borrow. Please log in again.")
		return nil, session.ErrNotLoggedIn
	}
	if c := BorrowControl(book, s); !c.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrControlDisabled, c.Label)
	}
	if trigger == nil || trigger.Action() != ActionBorrow {
		return nil, ErrControlDisabled
	}
	if !trigger.begin("borrowing...") {
		return nil, ErrControlDisabled
	}

	path := "/user/borrow/" + itoa(book.ID) + "/" + url.PathEscape(s.Username)
	if _, err := lm.api.Expect(ctx, http.MethodPost, path, nil); err != nil {
		trigger.fail()
		return nil, fmt.Errorf("borrow %q: %w", book.Title, err)
	}
	return lm.BookDetail(ctx, book.ID)
}

// RenewForBook renews the reader's current loan of a book from its detail screen.
func (lm *LibraryManager) RenewForBook(ctx context.Context, bookID int64) (BorrowRecord, error) {
	s, err := lm.Require(session.RoleUser)
	if err != nil {
		return BorrowRecord{}, err
	}
	if _, err := lm.ResolveUserID(ctx, s); err != nil {
		return BorrowRecord{}, err
	}
	s, _ = lm.CurrentSession()
	current := lm.BorrowStatus(ctx, bookID, s)
	if current == nil {
		return BorrowRecord{}, fmt.Errorf("no current loan of book %d", bookID)
	}
	return lm.Renew(ctx, *current)
}

// ------------------ Admin ------------------

// BorrowFilter values of the admin borrow list.
const (
	BorrowFilterAll      = ""
	BorrowFilterActive   = "active"
	BorrowFilterReturned = "returned"
)

// AdminBorrows pages through every loan, optionally filtered by status.
func (lm *LibraryManager) AdminBorrows(ctx context.Context, q pagination.Query) (pagination.PageResult[BorrowRecord], error) {
	if _, err := lm.Require(session.RoleAdmin); err != nil {
		return pagination.PageResult[BorrowRecord]{}, err
	}
	opts := []api.Option{api.WithPage(q.Page, q.Size)}
	if q.Filter != BorrowFilterAll {
		opts = append(opts, api.WithQuery("status", q.Filter))
	}
	records, err := fetchPage(ctx, lm, "/admin/borrows", wireBorrowRecord.toRecord, opts...)
	if err != nil {
		return records, fmt.Errorf("load borrows: %w", err)
	}
	return records, nil
}

// ForceReturn marks a loan returned on the reader's behalf.
func (lm *LibraryManager) ForceReturn(ctx context.Context, recordID int64) error {
	if _, err := lm.Require(session.RoleAdmin); err != nil {
		return err
	}
	var env envelope
	if err := lm.api.Post(ctx, "/admin/borrows/return/"+itoa(recordID), nil, &env); err != nil {
		return fmt.Errorf("return record %d: %w", recordID, err)
	}
	if env.failed() {
		return env.err("return failed")
	}
	return nil
}
