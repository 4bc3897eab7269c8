package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vivbliss/mongo-init/internal/config"
	"vivbliss/mongo-init/internal/orchestrator"
)

func TestSettingsFrom(t *testing.T) {
	s := settingsFrom(config.MongoConfig{
		URI:         "mongodb://db:27017",
		Database:    "testdb",
		AppUsername: "alice",
		AppPassword: "secret123",
	})

	assert.Equal(t, "testdb", s.Database)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "secret123", s.Password)
}

func TestWriteJSON_BootstrapResult(t *testing.T) {
	var buf bytes.Buffer
	writeJSON(&buf, &orchestrator.Result{
		Status:   orchestrator.StatusOK,
		Database: "vivbliss",
		User:     "vivbliss_app",
		Role:     "readWrite",
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "vivbliss_app", got["user"])
	assert.NotContains(t, buf.String(), "vivbliss_secret")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, orchestrator.StatusOK, statusOf(true))
	assert.Equal(t, orchestrator.StatusError, statusOf(false))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"bootstrap", "check", "server"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	f := serverCmd.Flags().Lookup("bootstrap")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}

func TestRequiresApp(t *testing.T) {
	rootCmd.InitDefaultHelpCmd()
	rootCmd.InitDefaultCompletionCmd()

	tests := map[string]bool{
		"bootstrap":  true,
		"check":      true,
		"server":     true,
		"help":       false,
		"completion": false,
	}
	for name, want := range tests {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, name, c.Name())
		assert.Equal(t, want, requiresApp(c), name)
	}
}

func TestPersistentPreRun_HelpOpensNoClient(t *testing.T) {
	rootCmd.InitDefaultHelpCmd()
	help, _, err := rootCmd.Find([]string{"help"})
	require.NoError(t, err)

	app = nil
	t.Setenv("MONGO_URI", "not-a-uri")

	require.NoError(t, rootCmd.PersistentPreRunE(help, nil))
	assert.Nil(t, app)
}
