package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	AppDirName     = "StickyCheck"
	DBFileName     = "sticky.db"
	ConfigFileName = "config.yaml"
)

type Config struct {
	Env        string     `yaml:"env"`
	DataDir    string     `yaml:"data_dir"`
	DB         DB         `yaml:"db"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Window     Window     `yaml:"window"`
	MCP        MCP        `yaml:"mcp"`
}

type DB struct {
	Driver string `yaml:"driver"`
	// DSN defaults to <data_dir>/sticky.db for the SQLite drivers.
	DSN string `yaml:"dsn"`
}

type HTTPServer struct {
	Address      string        `yaml:"address"`
	Timeout      time.Duration `yaml:"timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Debug  bool   `yaml:"debug"`
}

type MCP struct {
	Enabled bool `yaml:"enabled"`
}

func Default() Config {
	return Config{
		Env:     "local",
		DataDir: DefaultDataDir(),
		DB: DB{
			Driver: "sqlite3",
		},
		HTTPServer: HTTPServer{
			Address:      "127.0.0.1:5000",
			Timeout:      4 * time.Second,
			IdleTimeout:  60 * time.Second,
			ReadyTimeout: 5 * time.Second,
		},
		Window: Window{
			Title:  "Sticky Notes",
			Width:  400,
			Height: 500,
		},
	}
}

// DefaultDataDir is the per-user application data directory.
func DefaultDataDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, AppDirName)
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Local", AppDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", AppDirName)
}

// Load layers the defaults, the YAML file and the environment. An empty path
// means <data dir>/config.yaml, which may be absent; an explicit path must
// exist. The result is not validated: callers apply their own overrides,
// then Resolve and Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if dir := os.Getenv("STICKYCHECK_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.DataDir, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.Resolve()

	return cfg, nil
}

// applyEnv overrides fields from the environment. Empty variables count as
// unset.
func (c *Config) applyEnv() error {
	if v := os.Getenv("STICKYCHECK_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.DB.Driver = v
	}
	if v := os.Getenv("DB_CONN"); v != "" {
		c.DB.DSN = v
	}
	if v := os.Getenv("STICKYCHECK_ADDR"); v != "" {
		c.HTTPServer.Address = v
	}
	if v := os.Getenv("STICKYCHECK_MCP"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: STICKYCHECK_MCP: %w", err)
		}
		c.MCP.Enabled = enabled
	}
	return nil
}

// Resolve fills values derived from others. Call it again after overriding
// fields, e.g. from command-line flags.
func (c *Config) Resolve() {
	if c.DB.DSN == "" && (c.DB.Driver == "sqlite3" || c.DB.Driver == "sqlite") {
		c.DB.DSN = filepath.Join(c.DataDir, DBFileName)
	}
}

func (c Config) Validate() error {
	switch {
	case c.DB.Driver == "":
		return errors.New("config: db.driver is empty")
	case c.DB.DSN == "":
		return errors.New("config: db.dsn is empty")
	case c.HTTPServer.Address == "":
		return errors.New("config: http_server.address is empty")
	case c.HTTPServer.ReadyTimeout <= 0:
		return errors.New("config: http_server.ready_timeout must be positive")
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return errors.New("config: window size must be positive")
	}
	return nil
}

// EnsureDataDir creates the data directory if it does not exist yet.
func (c Config) EnsureDataDir() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir is empty")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("config: create data dir: %w", err)
	}
	return nil
}
