package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"library-client/api"
	"library-client/config"
	"library-client/library"
	"library-client/logger"
	"library-client/pagination"
	"library-client/render"
	"library-client/session"
)

// app is what every command shares: configuration, the session store and
// the manager. The shell reuses one app for all the lines it runs.
type app struct {
	stdin  *os.File
	in     *bufio.Scanner
	out    io.Writer
	errOut io.Writer

	// flag overrides
	apiURL    string
	sessionDB string
	format    string

	cfg    config.Config
	logger *zap.Logger
	store  *session.Store
	client *api.Client
	lm     *library.LibraryManager
	nav    *terminalNav

	// list is the last paged list shown; the shell's next/prev/page act on it.
	list *listState
	// review is the submission list an admin last opened in the shell.
	review *library.ReviewScreen
}

type listState struct {
	change  func(ctx context.Context, page int) error
	current func() int
}

func newApp(stdin *os.File, out, errOut io.Writer) *app {
	var r io.Reader = stdin
	if stdin == nil {
		r = strings.NewReader("")
	}
	return &app{
		stdin:  stdin,
		in:     bufio.NewScanner(r),
		out:    out,
		errOut: errOut,
		format: string(render.Text),
	}
}

// open builds the manager on first use. Flags override the environment.
func (a *app) open() error {
	if a.lm != nil {
		return nil
	}
	cfg := config.LoadConfig()
	if a.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(a.apiURL, "/")
	}
	if a.sessionDB != "" {
		cfg.Session.DBPath = a.sessionDB
	}
	if _, err := render.ParseFormat(a.format); err != nil {
		return err
	}

	log, err := logger.New(cfg.Env, cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	store, err := session.NewStore(cfg.Session.DBPath, cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	a.cfg = cfg
	a.logger = log
	a.store = store
	a.nav = newTerminalNav(a.errOut)
	a.client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, store, a.nav, log)
	a.lm = library.NewLibraryManager(a.client, store, a.nav, library.Options{
		PageSize:   cfg.Paging.PageSize,
		SearchSize: cfg.Paging.SearchSize,
		HotTopN:    cfg.Paging.HotTopN,
		Logger:     log,
	})
	log.Debug("client ready", zap.String("api", cfg.API.BaseURL), zap.String("session_db", cfg.Session.DBPath))
	return nil
}

func (a *app) Close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *app) renderer() *render.Renderer {
	f, err := render.ParseFormat(a.format)
	if err != nil {
		f = render.Text
	}
	return render.New(a.out, f).WithClock(a.lm.Now)
}

// report prints a command failure. Session problems were already shown by
// the navigator, so they are not repeated.
func (a *app) report(err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, session.ErrNotLoggedIn),
		errors.Is(err, session.ErrForbidden),
		errors.Is(err, library.ErrNoAdminIdentity):
		return
	}
	fmt.Fprintf(a.errOut, "Error: %v\n", err)
}

// showList renders page (1-based) of ctl under filter and makes it the list
// the shell pages through.
func showList[T any](ctx context.Context, a *app, ctl *pagination.Controller[T], page int, filter string,
	show func(pagination.PageResult[T], []pagination.Button) error) error {
	res, err := ctl.SetFilter(ctx, filter)
	if err != nil {
		return err
	}
	if page > 1 {
		if res, err = ctl.ChangePage(ctx, page-1); err != nil {
			return err
		}
	}
	a.list = &listState{
		change: func(ctx context.Context, n int) error {
			res, err := ctl.ChangePage(ctx, n)
			if err != nil {
				return err
			}
			return show(res, ctl.Strip())
		},
		current: func() int { return ctl.Query().Page },
	}
	return show(res, ctl.Strip())
}
