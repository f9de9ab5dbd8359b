package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultAddr             = ":8080"
	DefaultModelsDir        = "~/.cutoutd/models"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultDownloadTimeout  = 30 * 60 // seconds
	DefaultProgressInterval = 200     // milliseconds
)

// DefaultMaxBodyBytes bounds POST /process bodies; base64 images are large.
const DefaultMaxBodyBytes int64 = 32 << 20

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr               string   `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir          string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ModelsFile         string   `json:"models_file" yaml:"models_file" toml:"models_file"`
	DefaultModel       string   `json:"default_model" yaml:"default_model" toml:"default_model"`
	DownloadBaseURL    string   `json:"download_base_url" yaml:"download_base_url" toml:"download_base_url"`
	HFToken            string   `json:"hf_token" yaml:"hf_token" toml:"hf_token"`
	DownloadTimeoutSec int      `json:"download_timeout_sec" yaml:"download_timeout_sec" toml:"download_timeout_sec"`
	ProgressIntervalMS int      `json:"progress_interval_ms" yaml:"progress_interval_ms" toml:"progress_interval_ms"`
	LogLevel           string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat          string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	MaxBodyBytes       int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults fills unspecified fields.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.DownloadTimeoutSec <= 0 {
		c.DownloadTimeoutSec = DefaultDownloadTimeout
	}
	if c.ProgressIntervalMS <= 0 {
		c.ProgressIntervalMS = DefaultProgressInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}

// DownloadTimeout returns the per-download deadline.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSec) * time.Second
}

// ProgressInterval returns the minimum delay between download progress reports.
func (c Config) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMS) * time.Millisecond
}

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "CUTOUTD_"

// ApplyEnv overrides fields from CUTOUTD_* variables read through getenv.
// HF_TOKEN is honored as a fallback for the download token.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Addr)
	str("MODELS_DIR", &c.ModelsDir)
	str("MODELS_FILE", &c.ModelsFile)
	str("DEFAULT_MODEL", &c.DefaultModel)
	str("DOWNLOAD_BASE_URL", &c.DownloadBaseURL)
	str("HF_TOKEN", &c.HFToken)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	if c.HFToken == "" {
		c.HFToken = getenv("HF_TOKEN")
	}

	ints := []struct {
		name string
		set  func(int64)
	}{
		{"DOWNLOAD_TIMEOUT_SEC", func(n int64) { c.DownloadTimeoutSec = int(n) }},
		{"PROGRESS_INTERVAL_MS", func(n int64) { c.ProgressIntervalMS = int(n) }},
		{"MAX_BODY_BYTES", func(n int64) { c.MaxBodyBytes = n }},
	}
	for _, it := range ints {
		v := getenv(EnvPrefix + it.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("%s%s: %w", EnvPrefix, it.name, err)
		}
		it.set(n)
	}

	if v := getenv(EnvPrefix + "CORS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("%sCORS_ENABLED: %w", EnvPrefix, err)
		}
		c.CORSEnabled = b
	}
	if v := getenv(EnvPrefix + "CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = SplitCSV(v)
	}
	return c, nil
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
