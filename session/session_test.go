package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeNav struct {
	alerts    []string
	logins    int
	homeRoles []string
}

func (f *fakeNav) Alert(msg string) {
	f.alerts = append(f.alerts, msg)
}

func (f *fakeNav) RedirectToLogin() {
	f.logins++
}

func (f *fakeNav) RedirectHome(role string) {
	f.homeRoles = append(f.homeRoles, role)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestGuardRedirectsWhenAbsent(t *testing.T) {
	st := tempStore(t, "")
	nav := &fakeNav{}
	g := NewGuard(st, nav)

	if _, err := g.Require(""); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("want ErrNotLoggedIn, got %v", err)
	}
	if nav.logins != 1 || len(nav.alerts) != 1 {
		t.Fatalf("want one alert and redirect, got %+v", nav)
	}
}

func TestGuardRoleMismatchGoesHome(t *testing.T) {
	st := tempStore(t, "")
	_ = st.Set(Session{Username: "bob", Role: RoleUser, UserID: 2})
	nav := &fakeNav{}
	g := NewGuard(st, nav)

	if _, err := g.Require(RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if len(nav.homeRoles) != 1 || nav.homeRoles[0] != RoleUser || nav.logins != 0 {
		t.Fatalf("want redirect to user home, got %+v", nav)
	}

	s, err := g.Require(RoleUser)
	if err != nil || s.Username != "bob" {
		t.Fatalf("require user: %v %+v", err, s)
	}
}

func TestGuardExpiredTokenClearsSession(t *testing.T) {
	st := tempStore(t, "")
	_ = st.Set(Session{Username: "bob", Role: RoleUser, Token: signedToken(t, time.Now().Add(-time.Hour))})
	nav := &fakeNav{}
	g := NewGuard(st, nav)

	if _, err := g.Require(""); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("want ErrNotLoggedIn, got %v", err)
	}
	if _, ok, _ := st.Get(); ok {
		t.Fatalf("expired session should be cleared")
	}
	if nav.logins != 1 {
		t.Fatalf("want redirect to login")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", false},
		{"opaque", "abc123", false},
		{"future", signedToken(t, now.Add(time.Hour)), false},
		{"past", signedToken(t, now.Add(-time.Minute)), true},
	}
	for _, c := range cases {
		if got := (Session{Token: c.token}).TokenExpired(now); got != c.want {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestHomeFor(t *testing.T) {
	if HomeFor(RoleAdmin) != "admin dashboard" || HomeFor(RoleUser) != "dashboard" {
		t.Fatalf("unexpected homes")
	}
}
