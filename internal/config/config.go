// Package config loads the service configuration from YAML, expanding
// ${VAR} references from the environment so secrets stay out of files.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Generation GenerationConfig `yaml:"generation"`
	Cache      CacheConfig      `yaml:"cache"`
	Store      StoreConfig      `yaml:"store"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

type GeminiConfig struct {
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"`
	Preferences     []string `yaml:"preferences"`
	Temperature     float64  `yaml:"temperature"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
}

type GenerationConfig struct {
	MaxAttempts       int    `yaml:"max_attempts"`
	InitialBackoff    string `yaml:"initial_backoff"`
	MaxBackoff        string `yaml:"max_backoff"`
	StepFilterTimeout string `yaml:"step_filter_timeout"`
	DisableFallback   bool   `yaml:"disable_fallback"`
}

type CacheConfig struct {
	RedisAddr       string `yaml:"redis_addr"`
	TTL             string `yaml:"ttl"`
	RefreshSchedule string `yaml:"refresh_schedule"`
}

type StoreConfig struct {
	Driver  string `yaml:"driver"` // "sqlite" or "postgres"
	DataDir string `yaml:"data_dir"`
	DSN     string `yaml:"dsn"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func expandSecrets(cfg *Config) {
	cfg.Server.AuthToken = expandEnv(cfg.Server.AuthToken)
	cfg.Gemini.APIKey = expandEnv(cfg.Gemini.APIKey)
	cfg.Cache.RedisAddr = expandEnv(cfg.Cache.RedisAddr)
	cfg.Store.DSN = expandEnv(cfg.Store.DSN)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Server.AuthToken == "" {
		cfg.Server.AuthToken = os.Getenv("PATHWISE_AUTH_TOKEN")
	}
	if cfg.Generation.MaxAttempts == 0 {
		cfg.Generation.MaxAttempts = 5
	}
	if cfg.Generation.InitialBackoff == "" {
		cfg.Generation.InitialBackoff = "1s"
	}
	if cfg.Generation.MaxBackoff == "" {
		cfg.Generation.MaxBackoff = "16s"
	}
	if cfg.Generation.StepFilterTimeout == "" {
		cfg.Generation.StepFilterTimeout = "15s"
	}
	if cfg.Gemini.Temperature == 0 {
		cfg.Gemini.Temperature = 0.7
	}
	if cfg.Gemini.MaxOutputTokens == 0 {
		cfg.Gemini.MaxOutputTokens = 8192
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "30m"
	}
	if cfg.Cache.RefreshSchedule == "" {
		cfg.Cache.RefreshSchedule = "@every 30m"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "data"
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("config: gemini.api_key is required")
	}
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return fmt.Errorf("config: store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("config: store.dsn is required for the postgres driver")
	}
	for _, d := range []struct{ name, value string }{
		{"generation.initial_backoff", c.Generation.InitialBackoff},
		{"generation.max_backoff", c.Generation.MaxBackoff},
		{"generation.step_filter_timeout", c.Generation.StepFilterTimeout},
		{"cache.ttl", c.Cache.TTL},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	return nil
}

// Duration parses a duration field that already passed Validate.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	expandSecrets(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}
