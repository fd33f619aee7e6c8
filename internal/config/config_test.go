package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DatabaseDriverMongo, cfg.Database.Driver)
	assert.Equal(t, "fitcoach", cfg.Database.Name)
	assert.Equal(t, "s3cr3t", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 2500*time.Millisecond, cfg.Gate.SessionTimeout)
	assert.Equal(t, 2*time.Second, cfg.Gate.RoleTimeout)
	assert.Equal(t, 30, cfg.Search.PageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 15*time.Second, cfg.Settings.NameTimeout)
	assert.Equal(t, 20*time.Second, cfg.Settings.EmailTimeout)
	assert.Equal(t, 15*time.Second, cfg.Settings.PhoneTimeout)
	assert.Equal(t, 30*time.Second, cfg.Settings.PasswordTimeout)
	assert.Equal(t, RealtimeSourceNotifier, cfg.Realtime.Source)
	assert.Equal(t, 2*time.Hour, cfg.Drafts.TTL)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
jwt:
  secret: from-file
  expiration: 30m
search:
  page_size: 10
realtime:
  source: changestream
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("SERVER_ADDRESS", ":7070")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 10, cfg.Search.PageSize)
	assert.Equal(t, RealtimeSourceChangeStream, cfg.Realtime.Source)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "jwt.secret")

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("REALTIME_SOURCE", "kafka")
	_, err = LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "realtime.source")
}

func TestLoadConfig_MemoryDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DATABASE_DRIVER", DatabaseDriverMemory)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DatabaseDriverMemory, cfg.Database.Driver)

	t.Setenv("REALTIME_SOURCE", RealtimeSourceChangeStream)
	_, err = LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "changestream needs database.driver mongo")
}
