package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: t.Parallel() is intentionally omitted in this package.
// These tests share process-global environment variables; t.Setenv
// would race with any concurrent reader.

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "mongo-init", cfg.Telemetry.ServiceName)
	assert.Equal(t, time.Minute, cfg.Bootstrap.Timeout)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "admin", cfg.Mongo.AuthSource)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_AppAccountDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "vivbliss", cfg.Mongo.Database)
	assert.Equal(t, "vivbliss_app", cfg.Mongo.AppUsername)
	assert.Equal(t, "vivbliss_secret", cfg.Mongo.AppPassword)
}

func TestLoad_AppAccountFromEnv(t *testing.T) {
	t.Setenv("MONGO_DB", "testdb")
	t.Setenv("MONGO_APP_USERNAME", "alice")
	t.Setenv("MONGO_APP_PASSWORD", "secret123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "testdb", cfg.Mongo.Database)
	assert.Equal(t, "alice", cfg.Mongo.AppUsername)
	assert.Equal(t, "secret123", cfg.Mongo.AppPassword)
}

func TestLoad_EachAccountValueResolvesIndependently(t *testing.T) {
	t.Setenv("MONGO_APP_USERNAME", "bob")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabase, cfg.Mongo.Database)
	assert.Equal(t, "bob", cfg.Mongo.AppUsername)
	assert.Equal(t, DefaultAppPassword, cfg.Mongo.AppPassword)
}

func TestLoad_EmptyEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("MONGO_DB", "")
	t.Setenv("MONGO_APP_USERNAME", "")
	t.Setenv("MONGO_APP_PASSWORD", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabase, cfg.Mongo.Database)
	assert.Equal(t, DefaultAppUsername, cfg.Mongo.AppUsername)
	assert.Equal(t, DefaultAppPassword, cfg.Mongo.AppPassword)
}

func TestLoad_AdminConnectionFromEnv(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("MONGO_INITDB_ROOT_USERNAME", "root")
	t.Setenv("MONGO_INITDB_ROOT_PASSWORD", "example")
	t.Setenv("REDIS_URL", "redis://redis:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
	assert.Equal(t, "root", cfg.Mongo.RootUsername)
	assert.Equal(t, "example", cfg.Mongo.RootPassword)
	assert.Equal(t, "redis://redis:6379/0", cfg.Redis.URL)
}

func TestLoad_PrefixedEnvOverride(t *testing.T) {
	t.Setenv("MONGO_INIT_SERVER_PORT", "9090")
	t.Setenv("MONGO_INIT_BOOTSTRAP_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Bootstrap.Timeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mongo-init.yaml")
	content := []byte("mongo:\n  database: fromfile\n  app_username: fileuser\nserver:\n  port: 9191\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fromfile", cfg.Mongo.Database)
	assert.Equal(t, "fileuser", cfg.Mongo.AppUsername)
	assert.Equal(t, DefaultAppPassword, cfg.Mongo.AppPassword)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mongo-init.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mongo:\n  database: fromfile\n"), 0o600))
	t.Setenv("MONGO_DB", "fromenv")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Mongo.Database)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvIsolation(t *testing.T) {
	require.Empty(t, os.Getenv("MONGO_DB"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabase, cfg.Mongo.Database)
}
