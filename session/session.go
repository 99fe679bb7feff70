// Package session persists the signed-in identity between commands and gates
// commands that need one.
package session

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrNotLoggedIn is returned by Guard.Require when no usable session exists.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrForbidden is returned when the session role does not match the command.
	ErrForbidden = errors.New("insufficient role")
)

// Session is the client-held identity.
type Session struct {
	Username string
	Role     string
	UserID   int64 // 0 when the server did not return one
	Token    string
	UserType string
	// AdminID mirrors UserID for admins. It is kept as text because older
	// logins stored the admin name here.
	AdminID string
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// HasUserID reports whether requests can carry an X-User-Id header.
func (s Session) HasUserID() bool { return s.UserID > 0 }

// UserIDString is the header form of UserID, empty when absent.
func (s Session) UserIDString() string {
	if s.UserID <= 0 {
		return ""
	}
	return strconv.FormatInt(s.UserID, 10)
}

// TokenExpired decodes the token's exp claim without verifying the signature.
// Opaque or malformed tokens are left for the server to judge.
func (s Session) TokenExpired(now time.Time) bool {
	if strings.TrimSpace(s.Token) == "" {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// HomeFor names the landing screen of a role.
func HomeFor(role string) string {
	if role == RoleAdmin {
		return "admin dashboard"
	}
	return "dashboard"
}

// Navigator receives the user-facing side effects of session checks: the
// alerts and the redirects of the web client.
type Navigator interface {
	Alert(message string)
	RedirectToLogin()
	RedirectHome(role string)
}

// Reader is the part of Store the guard needs.
type Reader interface {
	Get() (Session, bool, error)
	Clear() error
}

// Guard runs the checks every protected command performs before rendering or fetching.
type Guard struct {
	store Reader
	nav   Navigator
	now   func() time.Time
}

func NewGuard(store Reader, nav Navigator) *Guard {
	return &Guard{store: store, nav: nav, now: time.Now}
}

// Require returns the active session. An empty role accepts any signed-in user.
// A wrong role sends the user to their own home instead of failing silently.
func (g *Guard) Require(role string) (Session, error) {
	s, ok, err := g.store.Get()
	if err != nil {
		return Session{}, err
	}
	if !ok {
		g.nav.Alert("Please log in first.")
		g.nav.RedirectToLogin()
		return Session{}, ErrNotLoggedIn
	}
	if s.TokenExpired(g.now()) {
		if err := g.store.Clear(); err != nil {
			return Session{}, err
		}
		g.nav.Alert("Your login has expired, please log in again.")
		g.nav.RedirectToLogin()
		return Session{}, ErrNotLoggedIn
	}
	if role != "" && s.Role != role {
		if role == RoleAdmin {
			g.nav.Alert("This command requires an administrator account.")
		} else {
			g.nav.Alert("This command requires a reader account.")
		}
		g.nav.RedirectHome(s.Role)
		return Session{}, ErrForbidden
	}
	return s, nil
}
