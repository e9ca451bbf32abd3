package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const minimalConfig = `
[database]
dsn = "postgres://localhost/pipeline"

[vault]
backend = "envfile"
`

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.Equal(t, 4, cfg.Orchestrator.WorkerPoolSize)
	assert.Equal(t, 20, cfg.Orchestrator.CarryForwardToleranceChars)
	assert.Equal(t, "hybrid", cfg.Publish.DefaultProvider)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, minimalConfig+"\nnot_a_real_key = true\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMissingDSN(t *testing.T) {
	path := writeConfig(t, `
[vault]
backend = "envfile"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidVaultBackend(t *testing.T) {
	path := writeConfig(t, `
[database]
dsn = "postgres://localhost/pipeline"

[vault]
backend = "nope"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrideWinsOverFile(t *testing.T) {
	path := writeConfig(t, minimalConfig+"\n[server]\nlisten_addr = \":9090\"\n")

	t.Setenv("PIPELINE_SERVER_LISTEN_ADDR", ":7070")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.ListenAddr)
}

func TestLoad_InvalidDefaultProvider(t *testing.T) {
	path := writeConfig(t, minimalConfig+"\n[publish]\ndefault_provider = \"bogus\"\n")

	_, err := Load(path)
	assert.Error(t, err)
}
