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

// Settings are a reader's preferences.
type Settings struct {
	EmailNotifications bool   `json:"emailNotifications"`
	Theme              string `json:"appTheme"`
	Language           string `json:"appLanguage"`
}

// Themes the service accepts.
var Themes = []string{"light", "dark", "auto"}

// DefaultSettings is what is shown when nothing could be loaded.
func DefaultSettings() Settings {
	return Settings{Theme: "light", Language: "zh-CN"}
}

func (st *Settings) Validate() error {
	st.Theme = strings.ToLower(strings.TrimSpace(st.Theme))
	st.Language = strings.TrimSpace(st.Language)
	valid := false
	for _, t := range Themes {
		if st.Theme == t {
			valid = true
		}
	}
	if !valid {
		return &ValidationError{Field: "theme", Message: "theme must be one of " + strings.Join(Themes, ", ")}
	}
	if st.Language == "" {
		return &ValidationError{Field: "language", Message: "language is required"}
	}
	return nil
}

// Settings loads the reader's preferences. A failed load shows the defaults.
func (lm *LibraryManager) Settings(ctx context.Context) (Settings, error) {
	userID, err := lm.settingsUser(ctx)
	if err != nil {
		return Settings{}, err
	}
	var w struct {
		EmailNotifications *bool  `json:"emailNotifications"`
		Theme              string `json:"appTheme"`
		Language           string `json:"appLanguage"`
	}
	if err := lm.api.Get(ctx, "/user/"+itoa(userID)+"/settings", &w); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return Settings{}, err
		}
		lm.logger.Warn("load settings", zap.Error(err))
		return DefaultSettings(), nil
	}

	st := DefaultSettings()
	if w.EmailNotifications != nil {
		st.EmailNotifications = *w.EmailNotifications
	}
	if w.Theme != "" {
		st.Theme = w.Theme
	}
	if w.Language != "" {
		st.Language = w.Language
	}
	return st, nil
}

// SaveSettings validates and stores the reader's preferences.
func (lm *LibraryManager) SaveSettings(ctx context.Context, st Settings) error {
	userID, err := lm.settingsUser(ctx)
	if err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}
	body := struct {
		Settings
		UpdatedAt string `json:"updatedAt"`
	}{st, lm.now().UTC().Format("2006-01-02T15:04:05.000Z")}

	var env envelope
	if err := lm.api.Put(ctx, "/user/"+itoa(userID)+"/settings", body, &env); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if env.failed() {
		return env.err("failed to save settings")
	}
	return nil
}

func (lm *LibraryManager) settingsUser(ctx context.Context) (int64, error) {
	s, err := lm.Require(session.RoleUser)
	if err != nil {
		return 0, err
	}
	return lm.ResolveUserID(ctx, s)
}
