// Package config loads broker configuration from a TOML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultListenAddr  = ":8000"
	DefaultPeerTimeout = 30 * time.Second
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultEmbedModel  = "nomic-embed-text"
	DefaultLLMModel    = "llama3.2"
	DefaultMaxUploadMB = 50
	DefaultLogMode     = "dev"
)

// Config is the full broker configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Peer    PeerConfig    `toml:"peer"`
	Storage StorageConfig `toml:"storage"`
	Uploads UploadsConfig `toml:"uploads"`
	Ollama  OllamaConfig  `toml:"ollama"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// ListenAddr is the bind address, e.g. ":8000".
	ListenAddr string `toml:"listen_addr"`
}

// PeerConfig points at the team-shared node. An empty URL means shared scope
// is configured but unreachable until set.
type PeerConfig struct {
	// URL is the peer base address, e.g. http://team-host:8000.
	URL string `toml:"url"`

	// TimeoutSeconds is the per-request timeout (default: 30).
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the peer timeout as a duration.
func (p PeerConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultPeerTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// StorageConfig controls on-disk locations.
type StorageConfig struct {
	// DataDir holds the sqlite database and uploaded files
	// (default: ~/.ragbroker/data).
	DataDir string `toml:"data_dir"`

	// DropDir, when set, is watched for files to auto-ingest into local
	// scope.
	DropDir string `toml:"drop_dir"`
}

// UploadsConfig bounds what the upload endpoints accept.
type UploadsConfig struct {
	// MaxUploadMB is the per-file size cap in megabytes (default: 50).
	MaxUploadMB int `toml:"max_upload_mb"`
}

// MaxUploadBytes returns the cap in bytes.
func (u UploadsConfig) MaxUploadBytes() int64 {
	mb := u.MaxUploadMB
	if mb <= 0 {
		mb = DefaultMaxUploadMB
	}
	return int64(mb) << 20
}

// OllamaConfig points at the model server.
type OllamaConfig struct {
	// URL is the Ollama base address (default: http://localhost:11434).
	URL string `toml:"url"`

	// EmbedModel is the embedding model (default: nomic-embed-text).
	EmbedModel string `toml:"embed_model"`

	// LLMModel is the generation model (default: llama3.2).
	LLMModel string `toml:"llm_model"`
}

// LoggingConfig selects the logger mode.
type LoggingConfig struct {
	// Mode is "dev" or "prod" (default: dev).
	Mode string `toml:"mode"`
}

// DefaultPath returns the default config file location,
// ~/.ragbroker/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".ragbroker", "config.toml")
}

// Load reads configuration in three layers: defaults, then the TOML file at
// path (missing file is not an error), then RAGBROKER_* environment
// variables. A .env file in the working directory is loaded first when
// present.
func Load(path string) (*Config, error) {
	// Best effort; absence of .env is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		Server:  ServerConfig{ListenAddr: DefaultListenAddr},
		Peer:    PeerConfig{TimeoutSeconds: int(DefaultPeerTimeout / time.Second)},
		Uploads: UploadsConfig{MaxUploadMB: DefaultMaxUploadMB},
		Ollama: OllamaConfig{
			URL:        DefaultOllamaURL,
			EmbedModel: DefaultEmbedModel,
			LLMModel:   DefaultLLMModel,
		},
		Logging: LoggingConfig{Mode: DefaultLogMode},
	}

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from RAGBROKER_* variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RAGBROKER_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("RAGBROKER_PEER_URL"); v != "" {
		cfg.Peer.URL = v
	}
	if v := os.Getenv("RAGBROKER_PEER_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.Peer.TimeoutSeconds = seconds
		}
	}
	if v := os.Getenv("RAGBROKER_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("RAGBROKER_DROP_DIR"); v != "" {
		cfg.Storage.DropDir = v
	}
	if v := os.Getenv("RAGBROKER_MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.Atoi(v); err == nil {
			cfg.Uploads.MaxUploadMB = mb
		}
	}
	if v := os.Getenv("RAGBROKER_OLLAMA_URL"); v != "" {
		cfg.Ollama.URL = v
	}
	if v := os.Getenv("RAGBROKER_EMBED_MODEL"); v != "" {
		cfg.Ollama.EmbedModel = v
	}
	if v := os.Getenv("RAGBROKER_LLM_MODEL"); v != "" {
		cfg.Ollama.LLMModel = v
	}
	if v := os.Getenv("RAGBROKER_LOG_MODE"); v != "" {
		cfg.Logging.Mode = v
	}
}

// validate rejects values that cannot be worked with.
func (c *Config) validate() error {
	if c.Peer.URL != "" && !strings.HasPrefix(c.Peer.URL, "http://") && !strings.HasPrefix(c.Peer.URL, "https://") {
		return fmt.Errorf("peer url %q must start with http:// or https://", c.Peer.URL)
	}
	if c.Peer.TimeoutSeconds < 0 {
		return fmt.Errorf("peer timeout_seconds must not be negative")
	}
	if c.Uploads.MaxUploadMB < 0 {
		return fmt.Errorf("max_upload_mb must not be negative")
	}
	switch c.Logging.Mode {
	case "dev", "prod":
	default:
		return fmt.Errorf("logging mode %q must be dev or prod", c.Logging.Mode)
	}
	return nil
}
