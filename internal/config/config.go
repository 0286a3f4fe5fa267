// Package config loads client configuration.
//
// Values are layered: built-in defaults, then an optional YAML file (with
// ${VAR} expansion), then ECOTOUR_* environment variables, then flags.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// EnvPrefix prefixes every environment override, e.g. ECOTOUR_API_URL.
const EnvPrefix = "ECOTOUR_"

// Config is the complete client configuration.
type Config struct {
	APIURL         string          `yaml:"api_url"`
	StateDir       string          `yaml:"state_dir"`
	Storage        string          `yaml:"storage"`
	DSN            string          `yaml:"dsn"`
	Profile        string          `yaml:"profile"`
	Seal           bool            `yaml:"seal"`
	SealPassphrase string          `yaml:"seal_passphrase"`
	LogLevel       string          `yaml:"log_level"`
	LogFormat      string          `yaml:"log_format"`
	Assistant      AssistantConfig `yaml:"assistant"`

	Timeout       time.Duration `yaml:"-"`
	LogoutTimeout time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TimeoutRaw       string `yaml:"timeout"`
	LogoutTimeoutRaw string `yaml:"logout_timeout"`
}

// AssistantConfig controls what the chat forwarder sends.
type AssistantConfig struct {
	SendHistory  bool `yaml:"send_history"`
	HistoryLimit int  `yaml:"history_limit"`
}

// DefaultStateDir is $XDG_CONFIG_HOME/ecotour or ~/.config/ecotour.
func DefaultStateDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "ecotour")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ecotour")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:        "http://localhost:5000",
		StateDir:      DefaultStateDir(),
		Storage:       StorageFile,
		Profile:       "default",
		LogLevel:      "warn",
		LogFormat:     "console",
		Timeout:       30 * time.Second,
		LogoutTimeout: 5 * time.Second,
		Assistant:     AssistantConfig{HistoryLimit: 10},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if any)
// and the environment. It does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if err := parseDurations(cfg); err != nil {
			return nil, fmt.Errorf("parsing durations: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarRe.FindStringSubmatch(match)[1])
	})
}

func parseDurations(cfg *Config) error {
	var err error
	if cfg.TimeoutRaw != "" {
		if cfg.Timeout, err = time.ParseDuration(cfg.TimeoutRaw); err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.TimeoutRaw, err)
		}
	}
	if cfg.LogoutTimeoutRaw != "" {
		if cfg.LogoutTimeout, err = time.ParseDuration(cfg.LogoutTimeoutRaw); err != nil {
			return fmt.Errorf("parsing logout_timeout %q: %w", cfg.LogoutTimeoutRaw, err)
		}
	}
	return nil
}

// keys lists every overridable setting by its YAML name.
var keys = []string{
	"api_url", "timeout", "logout_timeout", "state_dir", "storage", "dsn",
	"profile", "seal", "seal_passphrase", "log_level", "log_format",
	"send_history", "history_limit",
}

func (c *Config) set(key, v string) error {
	var err error
	switch key {
	case "api_url":
		c.APIURL = v
	case "timeout":
		c.Timeout, err = time.ParseDuration(v)
	case "logout_timeout":
		c.LogoutTimeout, err = time.ParseDuration(v)
	case "state_dir":
		c.StateDir = v
	case "storage":
		c.Storage = v
	case "dsn":
		c.DSN = v
	case "profile":
		c.Profile = v
	case "seal":
		c.Seal, err = strconv.ParseBool(v)
	case "seal_passphrase":
		c.SealPassphrase = v
	case "log_level":
		c.LogLevel = v
	case "log_format":
		c.LogFormat = v
	case "send_history":
		c.Assistant.SendHistory, err = strconv.ParseBool(v)
	case "history_limit":
		c.Assistant.HistoryLimit, err = strconv.Atoi(v)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// ApplyEnv overrides settings from non-empty ECOTOUR_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for _, k := range keys {
		if v := getenv(EnvPrefix + strings.ToUpper(k)); v != "" {
			if err := c.set(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

// RegisterFlags declares one flag per setting on fs, e.g. -api-url.
// Only flags that are explicitly set are applied by ApplyFlags.
func RegisterFlags(fs *flag.FlagSet) {
	for _, k := range keys {
		switch k {
		case "seal", "send_history":
			fs.Bool(flagName(k), false, "override "+k)
		default:
			fs.String(flagName(k), "", "override "+k)
		}
	}
}

// ApplyFlags overrides settings from the flags set on fs.
func (c *Config) ApplyFlags(fs *flag.FlagSet) error {
	byFlag := make(map[string]string, len(keys))
	for _, k := range keys {
		byFlag[flagName(k)] = k
	}
	var err error
	fs.Visit(func(f *flag.Flag) {
		k, ok := byFlag[f.Name]
		if !ok || err != nil {
			return
		}
		err = c.set(k, f.Value.String())
	})
	return err
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q: want an absolute http(s) URL", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.LogoutTimeout <= 0 {
		return fmt.Errorf("logout_timeout must be positive")
	}
	switch c.Storage {
	case StorageMemory:
	case StorageFile:
		if c.StateDir == "" {
			return fmt.Errorf("state_dir is required for file storage")
		}
	case StoragePostgres:
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for postgres storage")
		}
	default:
		return fmt.Errorf("storage %q: want file, memory or postgres", c.Storage)
	}
	if c.Seal && c.StateDir == "" {
		return fmt.Errorf("state_dir is required to keep the seal key")
	}
	if c.Assistant.HistoryLimit < 0 {
		return fmt.Errorf("assistant.history_limit must not be negative")
	}
	return nil
}
