package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"library-client/api"
	"library-client/session"
)

// Credentials is the login form.
type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

type loginResponse struct {
	envelope
	Role   string  `json:"role"`
	Name   string  `json:"name"`
	UserID flexInt `json:"userId"`
	Token  string  `json:"token"`
}

// Login authenticates and persists the session the service hands back.
func (lm *LibraryManager) Login(ctx context.Context, c Credentials) (session.Session, string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" || c.Password == "" {
		return session.Session{}, "", &ValidationError{Field: "name", Message: "please enter username and password"}
	}
	if c.UserType == "" {
		c.UserType = session.RoleUser
	}

	var resp loginResponse
	if err := lm.api.Post(ctx, "/auth/login", c, &resp); err != nil {
		return session.Session{}, "", fmt.Errorf("login: %w", err)
	}
	if !resp.ok() {
		return session.Session{}, "", resp.err("login failed")
	}

	s := session.Session{
		Username: resp.Name,
		Role:     resp.Role,
		UserID:   int64(resp.UserID),
		Token:    resp.Token,
		UserType: c.UserType,
	}
	if s.Username == "" {
		s.Username = c.Name
	}
	if s.Role == "" {
		s.Role = session.RoleUser
	}
	if err := lm.store.Set(s); err != nil {
		return session.Session{}, "", fmt.Errorf("save session: %w", err)
	}
	lm.api.Reset()
	lm.logger.Info("logged in", zap.String("user", s.Username), zap.String("role", s.Role))
	return s, resp.Message, nil
}

// Logout wipes every stored key.
func (lm *LibraryManager) Logout() error {
	return lm.store.Clear()
}

// Register signs up a new account. Admin registrations are only requests
// the service has to approve; the message says which it was.
func (lm *LibraryManager) Register(ctx context.Context, r Registration) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	var env envelope
	if err := lm.api.Post(ctx, "/auth/register", r, &env); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if !env.ok() {
		return "", env.err("registration failed")
	}
	return env.Message, nil
}

// Profile loads the signed-in user's profile, by id when known, else by name.
// If neither lookup works the stored username is shown alone.
func (lm *LibraryManager) Profile(ctx context.Context) (User, error) {
	s, err := lm.Require("")
	if err != nil {
		return User{}, err
	}
	var w wireUser
	if s.HasUserID() {
		err = lm.api.Get(ctx, "/user/"+itoa(s.UserID)+"/profile", &w)
	}
	if !s.HasUserID() || err != nil {
		err = lm.api.Get(ctx, "/user/profile", &w, api.WithQuery("username", s.Username))
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return User{}, err
		}
		lm.logger.Warn("load profile", zap.Error(err))
		return User{ID: s.UserID, Username: s.Username}, nil
	}

	u := w.toUser()
	if u.Username == "" {
		u.Username = s.Username
	}
	if u.ID > 0 && !s.HasUserID() {
		if err := lm.store.SetUserID(u.ID); err != nil {
			lm.logger.Warn("remember user id", zap.Error(err))
		}
	}
	return u, nil
}

// UpdateEmail saves a new email. An empty email is allowed and clears it.
func (lm *LibraryManager) UpdateEmail(ctx context.Context, email string) error {
	s, err := lm.Require("")
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email != "" && !ValidEmail(email) {
		return &ValidationError{Field: "email", Message: "please enter a valid email address"}
	}
	body := map[string]string{"email": email, "updatedAt": lm.now().UTC().Format("2006-01-02T15:04:05.000Z")}

	path, opts, err := accountPath(s, "profile")
	if err != nil {
		return err
	}
	if err := lm.api.Put(ctx, path, body, nil, opts...); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// ChangePassword validates the form locally before anything is sent.
func (lm *LibraryManager) ChangePassword(ctx context.Context, p PasswordChange) error {
	s, err := lm.Require("")
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	path, opts, err := accountPath(s, "password")
	if err != nil {
		return err
	}
	body := map[string]string{"oldPassword": p.Old, "newPassword": p.New}
	var env envelope
	if err := lm.api.Put(ctx, path, body, &env, opts...); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if env.failed() {
		return env.err("password change failed")
	}
	return nil
}

// accountPath addresses the user by id when known, else by username.
func accountPath(s session.Session, leaf string) (string, []api.Option, error) {
	if s.HasUserID() {
		return "/user/" + itoa(s.UserID) + "/" + leaf, nil, nil
	}
	if s.Username != "" {
		return "/user/" + leaf, []api.Option{api.WithQuery("username", s.Username)}, nil
	}
	return "", nil, fmt.Errorf("user information incomplete")
}
