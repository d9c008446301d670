package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"stickycheck/internal/api"
	"stickycheck/internal/config"
	"stickycheck/internal/logger"
	"stickycheck/internal/mcp"
	"stickycheck/internal/middleware"
	"stickycheck/internal/shell"
	"stickycheck/internal/store/sqlstore"
	"stickycheck/internal/view"
)

// App owns the store and the HTTP server for one process lifetime.
type App struct {
	cfg   config.Config
	log   *slog.Logger
	store *sqlstore.SQLStore
	srv   *http.Server

	ln      net.Listener
	url     string
	serveCh chan error
}

// New prepares the data directory, opens the store and builds the server.
// A store failure wraps store.ErrStorageInit.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	const op = "app.New"

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st, err := sqlstore.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("database ready", slog.String("driver", cfg.DB.Driver))

	views, err := view.New()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := api.NewHandlers(st, log, views).Routes()
	if cfg.MCP.Enabled {
		router.Mount("/mcp", mcp.NewMCPServer(st).Handler())
		log.Info("mcp endpoint enabled", slog.String("path", "/mcp"))
	}

	// Logging -> LocalOnly -> routes
	handler := middleware.Logging(log)(middleware.LocalOnly(router))

	return &App{
		cfg:   cfg,
		log:   log,
		store: st,
		srv: &http.Server{
			Handler:      handler,
			ReadTimeout:  cfg.HTTPServer.Timeout,
			WriteTimeout: cfg.HTTPServer.Timeout,
			IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		},
	}, nil
}

// Start binds the configured address and serves in the background. It
// returns the base URL the window should open.
func (a *App) Start() (string, error) {
	const op = "app.Start"

	ln, err := net.Listen("tcp", a.cfg.HTTPServer.Address)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	a.ln = ln
	a.url = "http://" + ln.Addr().String() + "/"
	a.serveCh = make(chan error, 1)

	go func() {
		err := a.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.serveCh <- err
	}()

	a.log.Info("server started", slog.String("url", a.url))
	return a.url, nil
}

// URL is the base URL once Start has succeeded.
func (a *App) URL() string {
	return a.url
}

// WaitReady blocks until the server answers its home page.
func (a *App) WaitReady(ctx context.Context) error {
	if a.url == "" {
		return errors.New("app: not started")
	}
	if err := shell.WaitReady(ctx, a.url, a.cfg.HTTPServer.ReadyTimeout); err != nil {
		return err
	}
	a.log.Info("server accepting requests")
	return nil
}

// Done reports the serve loop's exit; nil after a clean Shutdown.
func (a *App) Done() <-chan error {
	return a.serveCh
}

// Shutdown stops the server and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.ln != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	err := errors.Join(errs...)
	if err != nil {
		a.log.Error("shutdown failed", logger.Err(err))
	} else {
		a.log.Info("stopped")
	}
	return err
}
