package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STICKYCHECK_ENV", "DB_DRIVER", "DB_CONN", "STICKYCHECK_ADDR", "STICKYCHECK_MCP"} {
		t.Setenv(k, "")
	}
	t.Setenv("STICKYCHECK_DATA_DIR", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "sqlite3", cfg.DB.Driver)
	assert.Equal(t, filepath.Join(cfg.DataDir, DBFileName), cfg.DB.DSN)
	assert.Equal(t, "127.0.0.1:5000", cfg.HTTPServer.Address)
	assert.Equal(t, "Sticky Notes", cfg.Window.Title)
	assert.Equal(t, 400, cfg.Window.Width)
	assert.Equal(t, 500, cfg.Window.Height)
	assert.False(t, cfg.MCP.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
http_server:
  address: 127.0.0.1:6001
  ready_timeout: 2s
window:
  width: 640
mcp:
  enabled: true
`), 0o644))

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_CONN", "postgres://localhost/sticky")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "127.0.0.1:6001", cfg.HTTPServer.Address)
	assert.Equal(t, 2*time.Second, cfg.HTTPServer.ReadyTimeout)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 500, cfg.Window.Height)
	assert.True(t, cfg.MCP.Enabled)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://localhost/sticky", cfg.DB.DSN)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadMCPFlag(t *testing.T) {
	clearEnv(t)
	t.Setenv("STICKYCHECK_MCP", "maybe")

	_, err := Load("")
	assert.Error(t, err)
}

func TestPostgresNeedsDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Empty(t, cfg.DB.DSN)
	assert.Error(t, cfg.Validate())
}

func TestEnsureDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, cfg.EnsureDataDir())
	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
