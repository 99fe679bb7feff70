package library

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"library-client/api"
	"library-client/session"
)

// SessionStore is the persisted identity the manager reads and writes.
type SessionStore interface {
	Get() (session.Session, bool, error)
	Set(session.Session) error
	Clear() error
	SetUserID(id int64) error
}

// Options tunes list sizes. Zero values take the defaults.
type Options struct {
	PageSize   int
	SearchSize int
	HotTopN    int
	Logger     *zap.Logger
	Now        func() time.Time
}

// LibraryManager is a thin façade over the REST gateway, keeping CLI code simple.
// Each screen of the client maps to one or two methods here.
type LibraryManager struct {
	api    *api.Client
	store  SessionStore
	nav    session.Navigator
	guard  *session.Guard
	logger *zap.Logger
	now    func() time.Time

	pageSize   int
	searchSize int
	hotTopN    int
}

func NewLibraryManager(client *api.Client, store SessionStore, nav session.Navigator, opts Options) *LibraryManager {
	lm := &LibraryManager{
		api:        client,
		store:      store,
		nav:        nav,
		guard:      session.NewGuard(store, nav),
		logger:     opts.Logger,
		now:        opts.Now,
		pageSize:   opts.PageSize,
		searchSize: opts.SearchSize,
		hotTopN:    opts.HotTopN,
	}
	if lm.logger == nil {
		lm.logger = zap.NewNop()
	}
	if lm.now == nil {
		lm.now = time.Now
	}
	if lm.pageSize <= 0 {
		lm.pageSize = 10
	}
	if lm.searchSize <= 0 {
		lm.searchSize = 20
	}
	if lm.hotTopN <= 0 {
		lm.hotTopN = 10
	}
	return lm
}

func (lm *LibraryManager) PageSize() int   { return lm.pageSize }
func (lm *LibraryManager) SearchSize() int { return lm.searchSize }
func (lm *LibraryManager) HotTopN() int    { return lm.hotTopN }

// Now is the clock used for overdue checks.
func (lm *LibraryManager) Now() time.Time { return lm.now() }

// Require is the gate every protected screen passes first.
func (lm *LibraryManager) Require(role string) (session.Session, error) {
	return lm.guard.Require(role)
}

// CurrentSession returns the stored session without any redirect side effects.
func (lm *LibraryManager) CurrentSession() (session.Session, bool) {
	s, ok, err := lm.store.Get()
	if err != nil {
		lm.logger.Warn("read session", zap.Error(err))
		return session.Session{}, false
	}
	return s, ok
}

// ResolveUserID returns the numeric id of the session user, looking it up by
// username when the login response did not carry one and remembering it.
func (lm *LibraryManager) ResolveUserID(ctx context.Context, s session.Session) (int64, error) {
	if s.HasUserID() {
		return s.UserID, nil
	}
	if s.Username == "" {
		return 0, fmt.Errorf("user information incomplete")
	}

	var user wireUser
	if err := lm.api.Get(ctx, "/user/findbyusername", &user, api.WithQuery("username", s.Username)); err != nil {
		return 0, fmt.Errorf("look up user %q: %w", s.Username, err)
	}
	if user.ID <= 0 {
		return 0, fmt.Errorf("user %q not found", s.Username)
	}
	if err := lm.store.SetUserID(int64(user.ID)); err != nil {
		lm.logger.Warn("remember user id", zap.Error(err))
	}
	return int64(user.ID), nil
}

// userIDOption attaches X-User-Id when the session knows it.
func userIDOption(s session.Session) api.Option {
	return api.WithUserID(s.UserID)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
