package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"library-client/session"
)

func TestSettingsRoundTrip(t *testing.T) {
	stored := map[string]any{"emailNotifications": true, "appTheme": "dark"}
	var saved map[string]any
	e := newManager(t, func(r chi.Router) {
		r.Get("/user/{id}/settings", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, stored)
		})
		r.Put("/user/{id}/settings", func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&saved)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		})
	})
	e.login(t, reader)
	ctx := context.Background()

	st, err := e.lm.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if want := (Settings{EmailNotifications: true, Theme: "dark", Language: "zh-CN"}); st != want {
		t.Fatalf("settings = %+v", st)
	}
	if e.hits.count("GET /api/user/7/settings") != 1 {
		t.Fatalf("settings not loaded by user id")
	}

	st.Theme, st.Language = " Auto ", "en-US"
	if err := e.lm.SaveSettings(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved["appTheme"] != "auto" || saved["appLanguage"] != "en-US" || saved["emailNotifications"] != true {
		t.Fatalf("saved body = %v", saved)
	}
	if _, ok := saved["updatedAt"].(string); !ok {
		t.Fatalf("updatedAt missing: %v", saved)
	}
}

func TestSettingsDefaultsWhenLoadFails(t *testing.T) {
	e := newManager(t, func(r chi.Router) {
		r.Get("/user/{id}/settings", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	})
	e.login(t, reader)

	st, err := e.lm.Settings(context.Background())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if st != DefaultSettings() {
		t.Fatalf("settings = %+v", st)
	}
}

func TestInvalidSettingsSendNothing(t *testing.T) {
	e := newManager(t, nil)
	e.login(t, reader)

	err := e.lm.SaveSettings(context.Background(), Settings{Theme: "neon", Language: "en-US"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "theme" {
		t.Fatalf("want theme validation error, got %v", err)
	}
	if e.hits.total() != 0 {
		t.Fatalf("requests sent: %d", e.hits.total())
	}
}

func TestSettingsAreForReaders(t *testing.T) {
	e := newManager(t, nil)
	e.login(t, admin)

	if _, err := e.lm.Settings(context.Background()); err != session.ErrForbidden {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if len(e.nav.homes) != 1 || e.nav.homes[0] != session.RoleAdmin {
		t.Fatalf("admin should be sent home, got %v", e.nav.homes)
	}
}
