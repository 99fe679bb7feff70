package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"books --page 2", []string{"books", "--page", "2"}, false},
		{`search "the lord of the rings"`, []string{"search", "the lord of the rings"}, false},
		{`approve 5 -m 'looks good'`, []string{"approve", "5", "-m", "looks good"}, false},
		{`author O\'Brien`, []string{"author", "O'Brien"}, false},
		{`submit --title ""`, []string{"submit", "--title", ""}, false},
		{"   ", nil, false},
		{`search "open`, nil, true},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.line)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: err = %v", tt.line, err)
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: got %q want %q", tt.line, got, tt.want)
		}
	}
}

func TestTerminalNav(t *testing.T) {
	var buf bytes.Buffer
	nav := newTerminalNav(&buf)
	nav.Alert("Please log in first.")
	nav.RedirectToLogin()
	nav.RedirectHome("admin")

	want := "! Please log in first.\nRun 'login' to sign in.\nBack to your admin dashboard: run 'admin'.\n"
	if buf.String() != want {
		t.Fatalf("got %q", buf.String())
	}
}

type fakeService struct {
	mu    sync.Mutex
	pages []string
}

func (f *fakeService) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var c struct{ Name, Password string }
			json.NewDecoder(r.Body).Decode(&c)
			if c.Password != "pw" {
				writeJSON(w, map[string]any{"success": false, "message": "wrong password"})
				return
			}
			writeJSON(w, map[string]any{"success": true, "role": "user", "name": c.Name, "userId": 7, "token": "tok"})
		})
		r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.pages = append(f.pages, r.URL.Query().Get("page"))
			f.mu.Unlock()
			writeJSON(w, map[string]any{
				"content":    []map[string]any{{"id": 1, "title": "Dune", "author": "Herbert", "availableCount": 2, "total": 3}},
				"totalPages": 2,
				"totalItems": 11,
			})
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type harness struct {
	a      *app
	out    *bytes.Buffer
	errOut *bytes.Buffer
	svc    *fakeService
	base   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := &fakeService{}
	srv := httptest.NewServer(svc.routes())
	t.Cleanup(srv.Close)

	h := &harness{svc: svc, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	h.base = []string{"--api", srv.URL + "/api", "--session-db", filepath.Join(t.TempDir(), "session.db")}
	return h
}

// run executes one command line with input as stdin, on a fresh app sharing
// the session file.
func (h *harness) run(t *testing.T, input string, args ...string) error {
	t.Helper()
	h.a = newApp(nil, h.out, h.errOut)
	h.a.in = bufio.NewScanner(strings.NewReader(input))
	defer h.a.Close()

	root := newRootCmd(h.a)
	root.SetArgs(append(append([]string{}, h.base...), args...))
	err := root.ExecuteContext(context.Background())
	if err != nil {
		h.a.report(err)
	}
	return err
}

func TestLoginThenListBooks(t *testing.T) {
	h := newHarness(t)

	if err := h.run(t, "", "books"); err != nil {
		t.Fatalf("books is public: %v", err)
	}
	if !strings.Contains(h.out.String(), "Dune") {
		t.Fatalf("output:\n%s", h.out.String())
	}

	if err := h.run(t, "pw\n", "login", "alice"); err != nil {
		t.Fatalf("login: %v\n%s", err, h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "Welcome, alice (user)") {
		t.Fatalf("output:\n%s", h.out.String())
	}

	h.out.Reset()
	if err := h.run(t, "", "whoami"); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if got := strings.TrimSpace(h.out.String()); got != "alice (user), user id 7" {
		t.Fatalf("whoami = %q", got)
	}
}

func TestFailedLoginReportsServerMessage(t *testing.T) {
	h := newHarness(t)
	if err := h.run(t, "nope\n", "login", "alice"); err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(h.errOut.String(), "Error: wrong password") {
		t.Fatalf("stderr = %q", h.errOut.String())
	}
}

func TestProtectedCommandWithoutSession(t *testing.T) {
	h := newHarness(t)
	if err := h.run(t, "", "borrows"); err == nil {
		t.Fatalf("expected failure")
	}
	got := h.errOut.String()
	if !strings.Contains(got, "Run 'login' to sign in.") || strings.Contains(got, "Error:") {
		t.Fatalf("stderr = %q", got)
	}
}

func TestShellPagesThroughLastList(t *testing.T) {
	h := newHarness(t)
	if err := h.run(t, "books\nnext\nnext\npage 1\nexit\n", "shell"); err != nil {
		t.Fatalf("shell: %v", err)
	}
	h.svc.mu.Lock()
	pages := h.svc.pages
	h.svc.mu.Unlock()
	if !reflect.DeepEqual(pages, []string{"0", "1", "0"}) {
		t.Fatalf("pages requested = %v", pages)
	}
	if !strings.Contains(h.errOut.String(), "Error: page out of range") {
		t.Fatalf("stderr = %q", h.errOut.String())
	}
	if !strings.Contains(h.out.String(), "Goodbye!") {
		t.Fatalf("shell did not exit cleanly")
	}
}
