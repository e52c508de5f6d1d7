package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"TADA_API_URL", "TADA_TOKEN", "TADA_THEME", "TADA_LOG_LEVEL", "TADA_CONFIG_DIR"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTheme, cfg.Theme)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, dir, cfg.Dir)
	assert.Empty(t, cfg.Token)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"api_url: https://todo.example.com/api/\ntheme: neon\nlog_level: info\n"), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://todo.example.com/api", cfg.APIURL, "trailing slash trimmed")
	assert.Equal(t, "neon", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)

	t.Setenv("TADA_API_URL", "http://127.0.0.1:9999")
	t.Setenv("TADA_TOKEN", "Bearer abc")
	t.Setenv("TADA_THEME", "mono")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.APIURL)
	assert.Equal(t, "Bearer abc", cfg.Token)
	assert.Equal(t, "mono", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ConfigDirFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("TADA_CONFIG_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_url: [oops"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "nested")
	require.NoError(t, Save(Config{Dir: dir, APIURL: "https://a.example", Theme: "mono", LogLevel: "debug", Token: "secret"}))

	b, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret", "token is never written")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", cfg.APIURL)
	assert.Equal(t, "mono", cfg.Theme)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Config{APIURL: "https://x.io"}.Validate())
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{APIURL: "ftp://x.io"}.Validate())
}

func TestMerge(t *testing.T) {
	cfg := Config{APIURL: "http://a", Theme: "classic"}
	cfg.Merge(Config{Theme: "neon"})
	assert.Equal(t, "http://a", cfg.APIURL)
	assert.Equal(t, "neon", cfg.Theme)
}
