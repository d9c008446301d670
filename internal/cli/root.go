package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stickycheck/internal/app"
	"stickycheck/internal/config"
	"stickycheck/internal/logger"
	"stickycheck/internal/shell"

	"github.com/spf13/cobra"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	addr       string
	dbDriver   string
	db         string
	env        string
}

func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "stickycheck",
		Short: "Sticky-note checklists in a small desktop window",
		Long: strings.TrimSpace(`
Start the local notes server and open it in a native window.

Builds without the webview tag have no window; they keep serving headless
and print the address to open in a browser instead.
`),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, true)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: <data dir>/config.yaml)")
	pf.StringVar(&opts.addr, "addr", "", "Listen address (default 127.0.0.1:5000)")
	pf.StringVar(&opts.dbDriver, "db-driver", "", "Database driver: sqlite3|sqlite|postgres")
	pf.StringVar(&opts.db, "db", "", "Database DSN or SQLite file path")
	pf.StringVar(&opts.env, "env", "", "Logging environment: local|dev|prod")

	cmd.AddCommand(newServeCmd(opts), newVersionCmd())
	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the notes UI without opening a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, false)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "stickycheck", version)
		},
	}
}

func (o *options) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.addr != "" {
		cfg.HTTPServer.Address = o.addr
	}
	if o.dbDriver != "" && o.dbDriver != cfg.DB.Driver {
		// The configured DSN belongs to the other driver.
		cfg.DB.Driver = o.dbDriver
		cfg.DB.DSN = ""
	}
	if o.db != "" {
		cfg.DB.DSN = o.db
	}
	if o.env != "" {
		cfg.Env = o.env
	}
	cfg.Resolve()
	return cfg, cfg.Validate()
}

// run follows the startup contract: storage first, then the server, then a
// readiness check, and only then the window.
func run(cmd *cobra.Command, opts *options, window bool) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env, cmd.ErrOrStderr())
	log.Info("starting stickycheck", slog.String("env", cfg.Env), slog.String("version", version))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to init storage", logger.Err(err))
		return err
	}
	shutdown := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(ctx)
	}

	url, err := a.Start()
	if err != nil {
		log.Error("failed to start server", logger.Err(err))
		_ = shutdown()
		return err
	}
	if err := a.WaitReady(ctx); err != nil {
		log.Error("server failed readiness check", logger.Err(err))
		_ = shutdown()
		return err
	}

	if window {
		// A signal closes the window, which ends the run like a user close.
		err := shell.OpenWindow(ctx, url, shell.WindowOptions{
			Title:  cfg.Window.Title,
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Debug:  cfg.Window.Debug,
		})
		if err == nil {
			if ctx.Err() != nil {
				log.Info("signal received, window closed")
			}
			return shutdown()
		}
		if !errors.Is(err, shell.ErrWindowUnsupported) {
			log.Error("window failed", logger.Err(err))
			_ = shutdown()
			return err
		}
		log.Warn("no native window, serving headless", logger.Err(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "StickyCheck running at %s\n", url)

	select {
	case <-ctx.Done():
	case err := <-a.Done():
		if err != nil {
			log.Error("server stopped", logger.Err(err))
			_ = shutdown()
			return err
		}
	}
	return shutdown()
}
