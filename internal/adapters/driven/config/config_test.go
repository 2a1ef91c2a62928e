package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Empty(t, cfg.Peer.URL)
	assert.Equal(t, DefaultPeerTimeout, cfg.Peer.Timeout())
	assert.Equal(t, int64(DefaultMaxUploadMB)<<20, cfg.Uploads.MaxUploadBytes())
	assert.Equal(t, DefaultOllamaURL, cfg.Ollama.URL)
	assert.Equal(t, DefaultLogMode, cfg.Logging.Mode)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
listen_addr = ":9000"

[peer]
url = "http://team-host:8000"
timeout_seconds = 5

[uploads]
max_upload_mb = 10

[logging]
mode = "prod"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, "http://team-host:8000", cfg.Peer.URL)
	assert.Equal(t, 5*time.Second, cfg.Peer.Timeout())
	assert.Equal(t, int64(10)<<20, cfg.Uploads.MaxUploadBytes())
	assert.Equal(t, "prod", cfg.Logging.Mode)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[peer]\nurl = \"http://from-file:8000\"\n"), 0o600))

	t.Setenv("RAGBROKER_PEER_URL", "http://from-env:8000")
	t.Setenv("RAGBROKER_PEER_TIMEOUT", "7")
	t.Setenv("RAGBROKER_MAX_UPLOAD_MB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8000", cfg.Peer.URL)
	assert.Equal(t, 7*time.Second, cfg.Peer.Timeout())
	assert.Equal(t, int64(3)<<20, cfg.Uploads.MaxUploadBytes())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad peer url", content: "[peer]\nurl = \"team-host:8000\"\n"},
		{name: "negative timeout", content: "[peer]\ntimeout_seconds = -1\n"},
		{name: "bad log mode", content: "[logging]\nmode = \"quiet\"\n"},
		{name: "malformed toml", content: "[[[\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
