package library

import (
	"regexp"
	"strings"
)

// ValidationError blocks a request before it is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MinPasswordLength applies to new passwords.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail uses the same loose shape check as the registration form.
func ValidEmail(email string) bool { return emailPattern.MatchString(email) }

// Registration is the sign-up form.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	UserType string `json:"userType"`
}

func (r *Registration) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if r.UserType == "" {
		r.UserType = "user"
	}
	if r.Username == "" || r.Password == "" || r.Email == "" {
		return &ValidationError{Field: "username", Message: "username, password and email are required"}
	}
	if !ValidEmail(r.Email) {
		return &ValidationError{Field: "email", Message: "please enter a valid email address"}
	}
	return nil
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	Old     string
	New     string
	Confirm string
}

func (p PasswordChange) Validate() error {
	switch {
	case p.New != p.Confirm:
		return &ValidationError{Field: "confirm", Message: "new password and confirmation do not match"}
	case len(p.New) < MinPasswordLength:
		return &ValidationError{Field: "new", Message: "new password must be at least 6 characters"}
	case p.Old == p.New:
		return &ValidationError{Field: "new", Message: "new password must differ from the current one"}
	}
	return nil
}
