package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unset(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	unset(t, "STORE", "HTTP_ADDR", "TEARDOWN_DELAY", "SWEEP_INTERVAL", "DISCORD_TOKEN")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 10*time.Second, cfg.TeardownDelay)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.False(t, cfg.DiscordEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/race.db")
	t.Setenv("TEARDOWN_DELAY", "3s")
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/race.db", cfg.SQLitePath)
	assert.Equal(t, 3*time.Second, cfg.TeardownDelay)
	assert.True(t, cfg.DiscordEnabled())
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9999\n"), 0o600))
	unset(t, "HTTP_ADDR")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "redis", cfg: Config{Store: StoreRedis, RedisAddr: "localhost:6379", TeardownDelay: time.Second}},
		{name: "sqlite", cfg: Config{Store: StoreSQLite, SQLitePath: "x.db", TeardownDelay: time.Second}},
		{name: "unknown store", cfg: Config{Store: "mongo", TeardownDelay: time.Second}, wantErr: true},
		{name: "redis without address", cfg: Config{Store: StoreRedis, TeardownDelay: time.Second}, wantErr: true},
		{name: "no teardown delay", cfg: Config{Store: StoreRedis, RedisAddr: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
