package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SUPERVISOR_CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "supervisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  path: /var/lib/supervisor.db
sweep:
  interval: 1m
  workers: 2
`), 0o600))

	t.Setenv("SUPERVISOR_SERVER_PORT", "9191")
	t.Setenv("SUPERVISOR_AUTH_ENABLED", "false")
	t.Setenv("SUPERVISOR_TRANSPORT_MODE", "stdio")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "/var/lib/supervisor.db", cfg.DB.Path)
	require.Equal(t, time.Minute, cfg.Sweep.Interval)
	require.Equal(t, 2, cfg.Sweep.Workers)
	require.False(t, cfg.Auth.Enabled)
	require.Equal(t, TransportStdio, cfg.Transport.Mode)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SUPERVISOR_DB_PATH=from-dotenv.db\n"), 0o600))
	t.Setenv("SUPERVISOR_DB_PATH", "")
	// godotenv does not override variables that are already set, even empty.
	require.NoError(t, os.Unsetenv("SUPERVISOR_DB_PATH"))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from-dotenv.db", cfg.DB.Path)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SUPERVISOR_SERVER_PORT", "not-a-port")
	_, err := Load("")
	require.ErrorContains(t, err, "SUPERVISOR_SERVER_PORT")

	t.Setenv("SUPERVISOR_SERVER_PORT", "")
	t.Setenv("SUPERVISOR_SWEEP_INTERVAL", "soon")
	_, err = Load("")
	require.ErrorContains(t, err, "SUPERVISOR_SWEEP_INTERVAL")

	t.Setenv("SUPERVISOR_SWEEP_INTERVAL", "")
	t.Setenv("SUPERVISOR_TRANSPORT_MODE", "carrier-pigeon")
	_, err = Load("")
	require.ErrorContains(t, err, "invalid transport mode")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")
}
