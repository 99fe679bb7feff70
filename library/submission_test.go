package library

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"library-client/api"
	"library-client/pagination"
	"library-client/session"
)

func TestSubmissionActions(t *testing.T) {
	statuses := []SubmissionStatus{StatusPending, StatusApproved, StatusRejected, StatusCancelled}
	viewers := []Viewer{ViewerOther, ViewerSubmitter, ViewerAdmin}

	for _, st := range statuses {
		for _, v := range viewers {
			acts := SubmissionActions(Submission{Status: st}, v)
			if st != StatusPending || v == ViewerOther {
				if len(acts) != 0 {
					t.Fatalf("%s/%d: want no actions, got %+v", st, v, acts)
				}
				continue
			}
			if len(acts) != 2 {
				t.Fatalf("%s/%d: want two actions, got %+v", st, v, acts)
			}
			want := []Action{ActionEdit, ActionDelete}
			if v == ViewerAdmin {
				want = []Action{ActionApprove, ActionReject}
			}
			for i, a := range acts {
				if a.Action != want[i] || !a.Enabled {
					t.Fatalf("%s/%d: action %d = %+v", st, v, i, a)
				}
			}
		}
	}
}

func TestApprovedSubmissionOffersNothing(t *testing.T) {
	sub := Submission{ID: 4, Status: StatusApproved, SubmitUser: "alice", CreatedBookID: 99}
	if v := ViewerOf(sub, reader); v != ViewerSubmitter {
		t.Fatalf("viewer = %d", v)
	}
	if acts := SubmissionActions(sub, ViewerOf(sub, reader)); len(acts) != 0 {
		t.Fatalf("submitter actions = %+v", acts)
	}
	if acts := SubmissionActions(sub, ViewerOf(sub, admin)); len(acts) != 0 {
		t.Fatalf("admin actions = %+v", acts)
	}
	if !sub.Status.Terminal() {
		t.Fatalf("approved must be terminal")
	}
}

func TestAdminIdentity(t *testing.T) {
	cases := []struct {
		name string
		s    session.Session
		want string
		ok   bool
	}{
		{"numeric id", session.Session{Username: "root", Role: session.RoleAdmin, AdminID: "3"}, "3", true},
		{"legacy name in admin id", session.Session{Username: "root", Role: session.RoleAdmin, AdminID: "root"}, "root", true},
		{"username fallback", session.Session{Username: "root", Role: session.RoleAdmin}, "root", true},
		{"reader", session.Session{Username: "alice", Role: session.RoleUser}, "", false},
		{"empty", session.Session{Role: session.RoleAdmin}, "", false},
	}
	for _, c := range cases {
		got, ok := AdminIdentity(c.s)
		if got != c.want || ok != c.ok {
			t.Errorf("%s: got %q %v want %q %v", c.name, got, ok, c.want, c.ok)
		}
	}
}

func TestReviewWithoutIdentitySendsNothing(t *testing.T) {
	e := newManager(t, func(r chi.Router) {
		r.Put("/admin/submissions/{id}/review", func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("review must not be sent")
		})
	})
	e.login(t, session.Session{Username: "", Role: session.RoleAdmin, UserType: "admin"})

	_, err := e.lm.Review(context.Background(), 5, true, "")
	if !errors.Is(err, ErrNoAdminIdentity) {
		t.Fatalf("want ErrNoAdminIdentity, got %v", err)
	}
	if e.hits.total() != 0 {
		t.Fatalf("requests sent: %d", e.hits.total())
	}
	if e.nav.logins != 1 || len(e.nav.alerts) != 1 {
		t.Fatalf("want one alert and a login redirect, got %v / %d", e.nav.alerts, e.nav.logins)
	}
}

func TestReviewSendsAdminHeader(t *testing.T) {
	var mu sync.Mutex
	var got []string
	var query string
	e := newManager(t, func(r chi.Router) {
		r.Put("/admin/submissions/{id}/review", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			got = append(got, r.Header.Get(api.HeaderAdminID))
			query = r.URL.RawQuery
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "approved"})
		})
	})
	ctx := context.Background()

	e.login(t, admin)
	msg, err := e.lm.Review(ctx, 5, true, "nice one")
	if err != nil || msg != "approved" {
		t.Fatalf("review: %q %v", msg, err)
	}
	if query != "approved=true&comment=nice+one" {
		t.Fatalf("query = %q", query)
	}

	e.login(t, session.Session{Username: "root", Role: session.RoleAdmin, UserType: "admin"})
	if _, err := e.lm.Review(ctx, 5, false, "  "); err != nil {
		t.Fatalf("review by name: %v", err)
	}
	if query != "approved=false" {
		t.Fatalf("blank comment should be omitted, query = %q", query)
	}

	if len(got) != 2 || got[0] != "1" || got[1] != "root" {
		t.Fatalf("X-Admin-Id values = %v", got)
	}
}

func TestReviewFailureReportsServerMessage(t *testing.T) {
	e := newManager(t, func(r chi.Router) {
		r.Put("/admin/submissions/{id}/review", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "already reviewed"})
		})
	})
	e.login(t, admin)

	_, err := e.lm.Review(context.Background(), 5, true, "")
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Message != "already reviewed" {
		t.Fatalf("want OperationError, got %v", err)
	}
}

func TestReviewScreenReloadsAfterReview(t *testing.T) {
	var mu sync.Mutex
	status := "PENDING"
	e := newManager(t, func(r chi.Router) {
		r.Get("/admin/submissions", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			st := status
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{
				"success":     true,
				"submissions": []map[string]any{{"id": 5, "title": "Dune", "author": "Herbert", "status": st, "submitUser": map[string]any{"username": "alice"}}},
				"totalPages":  1,
				"totalItems":  1,
				"currentPage": 0,
			})
		})
		r.Get("/admin/submissions/pending-count", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			n := 0
			if status == "PENDING" {
				n = 1
			}
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "pendingCount": n})
		})
		r.Put("/admin/submissions/{id}/review", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			status = "APPROVED"
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "approved"})
		})
	})
	e.login(t, admin)
	ctx := context.Background()

	screen := e.lm.NewReviewScreen()
	page, err := screen.Load(ctx, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].SubmitUser != "alice" || screen.Pending != 1 {
		t.Fatalf("page = %+v pending = %d", page, screen.Pending)
	}

	if _, err := screen.Review(ctx, 5, true, ""); err != nil {
		t.Fatalf("review: %v", err)
	}
	cur := screen.Current()
	if cur.Content[0].Status != StatusApproved || screen.Pending != 0 {
		t.Fatalf("page not reloaded: %+v pending %d", cur.Content[0], screen.Pending)
	}
	if e.hits.count("GET /api/admin/submissions") != 2 {
		t.Fatalf("list fetched %d times", e.hits.count("GET /api/admin/submissions"))
	}

	if _, err := screen.Review(ctx, 5, false, ""); !errors.Is(err, ErrSubmissionClosed) {
		t.Fatalf("reviewing a closed submission: %v", err)
	}
	if e.hits.count("PUT /api/admin/submissions/5/review") != 1 {
		t.Fatalf("closed submission was sent for review")
	}
}

func TestReviewLooksUpSubmissionsOffThePage(t *testing.T) {
	pages := [][]map[string]any{
		{{"id": 5, "title": "Dune", "author": "Herbert", "status": "PENDING"}},
		{
			{"id": 99, "title": "Emma", "author": "Austen", "status": "APPROVED"},
			{"id": 77, "title": "Ulysses", "author": "Joyce", "status": "PENDING"},
		},
	}
	e := newManager(t, func(r chi.Router) {
		r.Get("/admin/submissions", func(w http.ResponseWriter, r *http.Request) {
			n, _ := strconv.Atoi(r.URL.Query().Get("page"))
			writeJSON(w, http.StatusOK, map[string]any{
				"success":     true,
				"submissions": pages[n],
				"totalPages":  len(pages),
				"currentPage": n,
			})
		})
		r.Get("/admin/submissions/pending-count", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "pendingCount": 2})
		})
		r.Put("/admin/submissions/{id}/review", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "approved"})
		})
	})
	e.login(t, admin)
	ctx := context.Background()

	screen := e.lm.NewReviewScreen()
	if _, err := screen.Load(ctx, ""); err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := screen.Review(ctx, 99, true, ""); !errors.Is(err, ErrSubmissionClosed) {
		t.Fatalf("approved submission on page 2: want ErrSubmissionClosed, got %v", err)
	}
	if _, err := screen.Review(ctx, 42, true, ""); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("unknown submission: want ErrSubmissionNotFound, got %v", err)
	}
	if n := e.hits.count("PUT /api/admin/submissions/99/review") + e.hits.count("PUT /api/admin/submissions/42/review"); n != 0 {
		t.Fatalf("%d reviews sent for closed or unknown submissions", n)
	}

	if _, err := screen.Review(ctx, 77, false, "duplicate"); err != nil {
		t.Fatalf("pending submission on page 2: %v", err)
	}
	if e.hits.count("PUT /api/admin/submissions/77/review") != 1 {
		t.Fatalf("pending submission was not reviewed")
	}
	if screen.Current().Number != 0 {
		t.Fatalf("lookup moved the loaded page to %d", screen.Current().Number)
	}
}

func TestSubmissionDraftValidate(t *testing.T) {
	year := 10000
	cases := []struct {
		name  string
		draft SubmissionDraft
		ok    bool
	}{
		{"complete", SubmissionDraft{Title: "Dune", Author: "Herbert"}, true},
		{"blank title", SubmissionDraft{Title: "  ", Author: "Herbert"}, false},
		{"missing author", SubmissionDraft{Title: "Dune"}, false},
		{"bad year", SubmissionDraft{Title: "Dune", Author: "Herbert", PublishYear: &year}, false},
	}
	for _, c := range cases {
		err := c.draft.Validate()
		if (err == nil) != c.ok {
			t.Errorf("%s: err = %v", c.name, err)
		}
	}

	d := SubmissionDraft{Title: "Dune", Author: "Herbert", CoverBase64: "iVBORw0KGgo="}
	if err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if d.CoverBase64 != "data:image/png;base64,iVBORw0KGgo=" {
		t.Fatalf("cover = %q", d.CoverBase64)
	}
}

func TestSubmitInvalidDraftSendsNothing(t *testing.T) {
	e := newManager(t, nil)
	e.login(t, reader)
	if _, _, err := e.lm.Submit(context.Background(), SubmissionDraft{Title: "Dune"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if e.hits.total() != 0 {
		t.Fatalf("invalid draft reached the service")
	}
}

func TestSubmitAndListOwnSubmissions(t *testing.T) {
	e := newManager(t, func(r chi.Router) {
		r.Post("/submissions", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(api.HeaderUserID) != "7" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success":    true,
				"message":    "submitted",
				"submission": map[string]any{"id": 8, "title": "Dune", "author": "Herbert"},
			})
		})
		r.Get("/submissions/my", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"content":       []map[string]any{{"id": 8, "title": "Dune", "introduction": "sand", "status": "pending"}},
				"totalPages":    1,
				"totalElements": 1,
				"number":        0,
			})
		})
	})
	e.login(t, reader)
	ctx := context.Background()

	sub, msg, err := e.lm.Submit(ctx, SubmissionDraft{Title: "Dune", Author: "Herbert"})
	if err != nil || msg != "submitted" || sub == nil || sub.Status != StatusPending {
		t.Fatalf("submit: %+v %q %v", sub, msg, err)
	}

	page, err := e.lm.MySubmissions(ctx, pagination.Query{Page: 0, Size: 10})
	if err != nil {
		t.Fatalf("my submissions: %v", err)
	}
	got := page.Content[0]
	if got.SubmitUser != "alice" || got.Description != "sand" || got.Status != StatusPending {
		t.Fatalf("submission = %+v", got)
	}
	if acts := SubmissionActions(got, ViewerOf(got, reader)); len(acts) != 2 {
		t.Fatalf("own pending submission should be editable: %+v", acts)
	}
}

func TestCancelClosedSubmissionRefused(t *testing.T) {
	e := newManager(t, nil)
	e.login(t, reader)
	sub := Submission{ID: 3, Status: StatusRejected, SubmitUser: "alice"}
	if err := e.lm.CancelSubmission(context.Background(), sub); !errors.Is(err, ErrSubmissionClosed) {
		t.Fatalf("want ErrSubmissionClosed, got %v", err)
	}
	if e.hits.total() != 0 {
		t.Fatalf("request sent for a closed submission")
	}
}
