package library

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Mock reader to simulate user input during testing
type mockReader struct {
	inputs []string
	index  int
}

func (m *mockReader) Read(p []byte) (n int, err error) {
	if m.index >= len(m.inputs) {
		return 0, io.EOF
	}
	input := m.inputs[m.index] + "\n"
	m.index++
	n = copy(p, input)
	return n, nil
}

// contentRoutes serves a three page TXT book whose pages read "text of page N".
func contentRoutes(r chi.Router) {
	r.Get("/books/content/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 || page > 3 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "page out of range"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"bookTitle":   "Dune",
			"contentType": "txt",
			"content":     "text of page " + strconv.Itoa(page),
			"currentPage": page,
			"totalPages":  3,
			"hasNext":     page < 3,
		})
	})
	r.Get("/books/content/{id}/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"results": []map[string]any{{"page": 3, "context": "...the spice must flow...", "position": 120}},
		})
	})
}

func TestReaderNavigation(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []string
		start    int
		wantLast string
		want     []string
	}{
		{
			name:     "next and previous",
			inputs:   []string{"n", "n", "p", "q"},
			start:    1,
			wantLast: "text of page 2",
			want:     []string{"Page 1 of 3", "Page 3 of 3", "Finished reading 'Dune'"},
		},
		{
			name:     "boundaries",
			inputs:   []string{"p", "", "g 3", "n", "", "q"},
			start:    1,
			wantLast: "text of page 3",
			want:     []string{"already on the first page", "already on the last page"},
		},
		{
			name:     "invalid goto",
			inputs:   []string{"g 9", "", "g", "2", "q"},
			start:    1,
			wantLast: "text of page 2",
			want:     []string{"Invalid page number!", "Enter page number (1-3)"},
		},
		{
			name:     "content search jumps to match",
			inputs:   []string{"s spice", "1", "q"},
			start:    1,
			wantLast: "text of page 3",
			want:     []string{"page 3    ...the spice must flow..."},
		},
		{
			name:     "unknown command",
			inputs:   []string{"x", "", "q"},
			start:    2,
			wantLast: "text of page 2",
			want:     []string{"Unknown command: x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newManager(t, contentRoutes)
			e.login(t, reader)

			var out bytes.Buffer
			rd := e.lm.NewReader(4, &mockReader{inputs: tt.inputs}, &out)
			if err := rd.Run(context.Background(), tt.start); err != nil {
				t.Fatalf("run: %v", err)
			}

			output := out.String()
			for _, w := range tt.want {
				if !strings.Contains(output, w) {
					t.Errorf("output missing %q:\n%s", w, output)
				}
			}
			shown := strings.LastIndex(output, "text of page ")
			if shown < 0 || !strings.HasPrefix(output[shown:], tt.wantLast) {
				t.Errorf("last page shown is not %q", tt.wantLast)
			}
			if strings.Contains(output, "\033[2J") {
				t.Errorf("screen cleared although Clear is off")
			}
		})
	}
}

func TestReaderStopsAtEOF(t *testing.T) {
	e := newManager(t, contentRoutes)
	e.login(t, reader)

	var out bytes.Buffer
	rd := e.lm.NewReader(4, &mockReader{inputs: []string{"n"}}, &out)
	if err := rd.Run(context.Background(), 1); err != nil {
		t.Fatalf("run: %v", err)
	}
	if e.hits.count("GET /api/books/content/4/read") != 2 {
		t.Fatalf("pages fetched: %d", e.hits.count("GET /api/books/content/4/read"))
	}
}

func TestReadPageForbidden(t *testing.T) {
	e := newManager(t, func(r chi.Router) {
		r.Get("/books/content/{id}/read", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "borrow first"})
		})
	})
	e.login(t, reader)

	var out bytes.Buffer
	err := e.lm.NewReader(4, &mockReader{}, &out).Run(context.Background(), 1)
	if !errors.Is(err, ErrNoReadPermission) {
		t.Fatalf("want ErrNoReadPermission, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be rendered: %q", out.String())
	}
}

func TestReadPageDerivesTotalPages(t *testing.T) {
	e := newManager(t, func(r chi.Router) {
		r.Get("/books/content/{id}/read", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-User-Id") != "7" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"contentType":     "markdown",
				"content":         "# Dune",
				"totalCharacters": 4001,
			})
		})
	})
	e.login(t, reader)

	p, err := e.lm.ReadPage(context.Background(), 4, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if p.CurrentPage != 1 || p.TotalPages != 3 || p.ContentType != ContentMarkdown || p.BookTitle != "book content" {
		t.Fatalf("page = %+v", p)
	}
}

func TestDownload(t *testing.T) {
	e := newManager(t, func(r chi.Router) {
		r.Get("/books/content/{id}/download", func(w http.ResponseWriter, r *http.Request) {
			switch chi.URLParam(r, "id") {
			case "4":
				w.Header().Set("Content-Disposition", `attachment; filename="dune.pdf"`)
				w.Write([]byte("%PDF-1.4"))
			case "5":
				w.Write([]byte("plain"))
			default:
				w.WriteHeader(http.StatusForbidden)
			}
		})
	})
	e.login(t, reader)
	ctx := context.Background()

	raw, name, err := e.lm.Download(ctx, 4)
	if err != nil || name != "dune.pdf" || string(raw) != "%PDF-1.4" {
		t.Fatalf("download: %q %q %v", raw, name, err)
	}
	if _, name, _ := e.lm.Download(ctx, 5); name != "book-5" {
		t.Fatalf("default name = %q", name)
	}
	if _, _, err := e.lm.Download(ctx, 6); !errors.Is(err, ErrDownloadNotAllowed) {
		t.Fatalf("want ErrDownloadNotAllowed, got %v", err)
	}
}
