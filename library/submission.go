package library

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"library-client/api"
	"library-client/pagination"
	"library-client/session"
)

var (
	// ErrSubmissionClosed is returned when editing, cancelling or reviewing a
	// submission that has left PENDING.
	ErrSubmissionClosed = errors.New("submission is no longer pending")

	// ErrNoAdminIdentity blocks a review when no admin id or admin name is stored.
	ErrNoAdminIdentity = errors.New("no administrator identity")

	// ErrSubmissionNotFound is returned when an id is on no page of a list.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// Viewer is who is looking at a submission.
type Viewer int

const (
	ViewerOther Viewer = iota
	ViewerSubmitter
	ViewerAdmin
)

// ViewerOf classifies s relative to a submission.
func ViewerOf(sub Submission, s session.Session) Viewer {
	switch {
	case s.IsAdmin():
		return ViewerAdmin
	case s.Username != "" && sub.SubmitUser == s.Username:
		return ViewerSubmitter
	default:
		return ViewerOther
	}
}

// SubmissionActions depends only on the status and the viewer: pending
// submissions can be edited or deleted by their submitter and approved or
// rejected by an admin. Nothing else is offered.
func SubmissionActions(sub Submission, viewer Viewer) []Control {
	if sub.Status != StatusPending {
		return nil
	}
	switch viewer {
	case ViewerSubmitter:
		return []Control{
			{Action: ActionEdit, Label: "edit", Enabled: true},
			{Action: ActionDelete, Label: "delete", Enabled: true},
		}
	case ViewerAdmin:
		return []Control{
			{Action: ActionApprove, Label: "approve", Enabled: true},
			{Action: ActionReject, Label: "reject", Enabled: true},
		}
	}
	return nil
}

// SubmissionDraft is the form a reader fills to propose a book.
type SubmissionDraft struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PublishYear *int   `json:"publishYear"`
	Description string `json:"description,omitempty"`
	CoverBase64 string `json:"coverBase64,omitempty"`
}

// Validate checks the fields the form requires and normalizes the cover.
func (d *SubmissionDraft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	if d.Title == "" || d.Author == "" {
		return &ValidationError{Field: "title", Message: "title and author are required"}
	}
	if d.PublishYear != nil && (*d.PublishYear < 0 || *d.PublishYear > 9999) {
		return &ValidationError{Field: "publishYear", Message: "publish year is not a valid year"}
	}
	if c := strings.TrimSpace(d.CoverBase64); c != "" {
		d.CoverBase64 = DataURL(c)
	}
	return nil
}

type submissionResponse struct {
	envelope
	Submission *wireSubmission `json:"submission"`
}

// Submit proposes a new book for review.
func (lm *LibraryManager) Submit(ctx context.Context, draft SubmissionDraft) (*Submission, string, error) {
	s, err := lm.Require(session.RoleUser)
	if err != nil {
		return nil, "", err
	}
	if err := draft.Validate(); err != nil {
		return nil, "", err
	}
	if _, err := lm.ResolveUserID(ctx, s); err != nil {
		return nil, "", err
	}
	s, _ = lm.CurrentSession()

	var resp submissionResponse
	if err := lm.api.Post(ctx, "/submissions", draft, &resp, userIDOption(s)); err != nil {
		return nil, "", fmt.Errorf("submit %q: %w", draft.Title, err)
	}
	if resp.failed() {
		return nil, "", resp.err("submission failed")
	}
	var created *Submission
	if resp.Submission != nil {
		sub := resp.Submission.toSubmission()
		created = &sub
	}
	return created, resp.Message, nil
}

// MySubmissions pages through the reader's own submissions.
func (lm *LibraryManager) MySubmissions(ctx context.Context, q pagination.Query) (pagination.PageResult[Submission], error) {
	s, err := lm.Require(session.RoleUser)
	if err != nil {
		return pagination.PageResult[Submission]{}, err
	}
	if _, err := lm.ResolveUserID(ctx, s); err != nil {
		return pagination.PageResult[Submission]{}, err
	}
	s, _ = lm.CurrentSession()

	subs, err := fetchPage(ctx, lm, "/submissions/my", wireSubmission.toSubmission,
		api.WithPage(q.Page, q.Size), userIDOption(s))
	if err != nil {
		return subs, fmt.Errorf("load submissions: %w", err)
	}
	// The list is the viewer's own even when the service omits submitUser.
	for i := range subs.Content {
		if subs.Content[i].SubmitUser == "" {
			subs.Content[i].SubmitUser = s.Username
		}
	}
	return subs, nil
}

// EditSubmission replaces the fields of a pending submission.
func (lm *LibraryManager) EditSubmission(ctx context.Context, sub Submission, draft SubmissionDraft) error {
	s, err := lm.requireSubmitter(sub)
	if err != nil {
		return err
	}
	if err := draft.Validate(); err != nil {
		return err
	}
	var env envelope
	if err := lm.api.Put(ctx, "/submissions/"+itoa(sub.ID), draft, &env, userIDOption(s)); err != nil {
		return fmt.Errorf("edit submission %d: %w", sub.ID, err)
	}
	if env.failed() {
		return env.err("edit failed")
	}
	return nil
}

// CancelSubmission withdraws a pending submission; it becomes CANCELLED.
func (lm *LibraryManager) CancelSubmission(ctx context.Context, sub Submission) error {
	s, err := lm.requireSubmitter(sub)
	if err != nil {
		return err
	}
	var env envelope
	if err := lm.api.Delete(ctx, "/submissions/"+itoa(sub.ID), &env, userIDOption(s)); err != nil {
		return fmt.Errorf("cancel submission %d: %w", sub.ID, err)
	}
	if env.failed() {
		return env.err("cancel failed")
	}
	return nil
}

func (lm *LibraryManager) requireSubmitter(sub Submission) (session.Session, error) {
	s, err := lm.Require(session.RoleUser)
	if err != nil {
		return s, err
	}
	if sub.Status != StatusPending {
		return s, ErrSubmissionClosed
	}
	if ViewerOf(sub, s) != ViewerSubmitter {
		return s, fmt.Errorf("submission %d belongs to another user", sub.ID)
	}
	return s, nil
}

// FindSubmission looks up an entry of a loaded page.
func FindSubmission(page pagination.PageResult[Submission], id int64) (Submission, bool) {
	for _, sub := range page.Content {
		if sub.ID == id {
			return sub, true
		}
	}
	return Submission{}, false
}

// ------------------ Review ------------------

// AdminIdentity resolves what goes into X-Admin-Id: the stored numeric admin
// id, else the admin's username. ok is false when neither is available.
func AdminIdentity(s session.Session) (string, bool) {
	if id, err := strconv.ParseInt(strings.TrimSpace(s.AdminID), 10, 64); err == nil && id > 0 {
		return strconv.FormatInt(id, 10), true
	}
	if s.Role == session.RoleAdmin && s.Username != "" {
		return s.Username, true
	}
	return "", false
}

// AdminSubmissions pages through every submission, optionally by status.
func (lm *LibraryManager) AdminSubmissions(ctx context.Context, q pagination.Query) (pagination.PageResult[Submission], error) {
	if _, err := lm.Require(session.RoleAdmin); err != nil {
		return pagination.PageResult[Submission]{}, err
	}
	opts := []api.Option{api.WithPage(q.Page, q.Size)}
	if status := strings.ToUpper(strings.TrimSpace(q.Filter)); status != "" {
		opts = append(opts, api.WithQuery("status", status))
	}
	subs, err := fetchPage(ctx, lm, "/admin/submissions", wireSubmission.toSubmission, opts...)
	if err != nil {
		return subs, fmt.Errorf("load submissions: %w", err)
	}
	return subs, nil
}

// AdminSubmission finds one submission by paging through the admin list.
func (lm *LibraryManager) AdminSubmission(ctx context.Context, id int64) (Submission, error) {
	q := pagination.Query{Size: lm.pageSize}
	for {
		page, err := lm.AdminSubmissions(ctx, q)
		if err != nil {
			return Submission{}, err
		}
		if sub, ok := FindSubmission(page, id); ok {
			return sub, nil
		}
		if page.Last || len(page.Content) == 0 || q.Page+1 >= page.TotalPages {
			return Submission{}, fmt.Errorf("submission %d: %w", id, ErrSubmissionNotFound)
		}
		q.Page++
	}
}

// PendingCount is the number of submissions awaiting review.
func (lm *LibraryManager) PendingCount(ctx context.Context) (int64, error) {
	if _, err := lm.Require(session.RoleAdmin); err != nil {
		return 0, err
	}
	var resp struct {
		envelope
		PendingCount flexInt `json:"pendingCount"`
	}
	if err := lm.api.Get(ctx, "/admin/submissions/pending-count", &resp); err != nil {
		return 0, fmt.Errorf("load pending count: %w", err)
	}
	if resp.failed() {
		return 0, resp.err("failed to load pending count")
	}
	return int64(resp.PendingCount), nil
}

// Review approves or rejects a submission. Without an admin identity the
// user is sent to log in and nothing is sent. It returns the service message.
func (lm *LibraryManager) Review(ctx context.Context, submissionID int64, approved bool, comment string) (string, error) {
	s, err := lm.Require("")
	if err != nil {
		return "", err
	}
	adminID, ok := AdminIdentity(s)
	if !ok {
		lm.nav.Alert("Please log in with an administrator account first.")
		lm.nav.RedirectToLogin()
		return "", ErrNoAdminIdentity
	}

	opts := []api.Option{
		api.WithQuery("approved", strconv.FormatBool(approved)),
		api.WithHeader(api.HeaderAdminID, adminID),
	}
	if c := strings.TrimSpace(comment); c != "" {
		opts = append(opts, api.WithQuery("comment", c))
	}
	var env envelope
	if err := lm.api.Do(ctx, http.MethodPut, "/admin/submissions/"+itoa(submissionID)+"/review", nil, &env, opts...); err != nil {
		return "", fmt.Errorf("review submission %d: %w", submissionID, err)
	}
	if env.failed() {
		return "", env.err("review failed")
	}
	return env.Message, nil
}

// ReviewScreen is the admin submission list. A review never patches the
// loaded page; it reloads it so server-computed fields stay authoritative.
type ReviewScreen struct {
	lm      *LibraryManager
	list    *pagination.Controller[Submission]
	Pending int64
}

func (lm *LibraryManager) NewReviewScreen() *ReviewScreen {
	return &ReviewScreen{
		lm:   lm,
		list: pagination.NewController(lm.pageSize, lm.AdminSubmissions),
	}
}

// Load fetches the list with a status filter ("" for all) and the pending count.
func (r *ReviewScreen) Load(ctx context.Context, status string) (pagination.PageResult[Submission], error) {
	page, err := r.list.SetFilter(ctx, strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return page, err
	}
	if n, err := r.lm.PendingCount(ctx); err == nil {
		r.Pending = n
	}
	return page, nil
}

func (r *ReviewScreen) ChangePage(ctx context.Context, n int) (pagination.PageResult[Submission], error) {
	return r.list.ChangePage(ctx, n)
}

// Review approves or rejects a submission and reloads the current page. Only
// PENDING submissions are sent; one that is not on the loaded page is looked
// up first.
func (r *ReviewScreen) Review(ctx context.Context, submissionID int64, approved bool, comment string) (string, error) {
	sub, ok := FindSubmission(r.list.Current(), submissionID)
	if !ok {
		// Without an identity lm.Review refuses before any request.
		s, _ := r.lm.CurrentSession()
		if _, has := AdminIdentity(s); has {
			found, err := r.lm.AdminSubmission(ctx, submissionID)
			if err != nil {
				return "", err
			}
			sub, ok = found, true
		}
	}
	if ok && len(SubmissionActions(sub, ViewerAdmin)) == 0 {
		return "", ErrSubmissionClosed
	}
	msg, err := r.lm.Review(ctx, submissionID, approved, comment)
	if err != nil {
		return "", err
	}
	if _, err := r.list.Reload(ctx); err != nil {
		return msg, err
	}
	if n, err := r.lm.PendingCount(ctx); err == nil {
		r.Pending = n
	}
	return msg, nil
}

func (r *ReviewScreen) Current() pagination.PageResult[Submission] { return r.list.Current() }
func (r *ReviewScreen) Strip() []pagination.Button                 { return r.list.Strip() }
