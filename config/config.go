package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Index     IndexConfig     `mapstructure:"index"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// ServerConfig contains HTTP server and flash-session settings
type ServerConfig struct {
	Address       string        `mapstructure:"address"`
	SessionSecret string        `mapstructure:"session_secret"`
	FlashTTL      time.Duration `mapstructure:"flash_ttl"`
}

// SearchConfig selects the web search provider
type SearchConfig struct {
	Provider string        `mapstructure:"provider"` // serpapi, serper, brave
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// FetchConfig controls outbound page fetches
type FetchConfig struct {
	UserAgent string            `mapstructure:"user_agent"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	MaxBytes  int64             `mapstructure:"max_bytes"`
	Policy    CrawlPolicyConfig `mapstructure:"policy"`
}

// LLMConfig contains the summarizer model settings
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"` // empty uses the provider default
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LimitsConfig bounds how much of the web ends up in a prompt.
type LimitsConfig struct {
	MaxResults    int `mapstructure:"max_results"`
	MaxSources    int `mapstructure:"max_sources"`
	PromptSources int `mapstructure:"prompt_sources"`
	ExcerptChars  int `mapstructure:"excerpt_chars"`
}

// Normalize applies defaults for unset limits. An unset max_sources never
// exceeds max_results.
func (l LimitsConfig) Normalize() LimitsConfig {
	if l.MaxResults <= 0 {
		l.MaxResults = 5
	}
	if l.MaxSources <= 0 {
		l.MaxSources = min(3, l.MaxResults)
	}
	if l.PromptSources <= 0 {
		l.PromptSources = 3
	}
	if l.ExcerptChars <= 0 {
		l.ExcerptChars = 3000
	}
	return l
}

func (l LimitsConfig) Validate() error {
	if l.MaxSources > l.MaxResults {
		return fmt.Errorf("limits.max_sources (%d) cannot exceed limits.max_results (%d)", l.MaxSources, l.MaxResults)
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

func (s StorageConfig) Validate() error {
	switch s.Driver {
	case "sqlite":
		if strings.TrimSpace(s.SQLite.Path) == "" {
			return fmt.Errorf("storage.sqlite.path required")
		}
	case "postgres":
		return s.Postgres.Validate()
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", s.Driver)
	}
	return nil
}

// SQLiteConfig contains the local database file location
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// RedisConfig contains Redis connection settings. An empty host disables redis.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a redis host was configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// IndexConfig controls the full-text report index
type IndexConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty keeps the index in memory
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// ErrMissingLLMKey is returned by RequireLLM when no Gemini key is configured.
var ErrMissingLLMKey = errors.New("GEMINI_API_KEY not found in environment")

// RequireLLM fails when the summarizer cannot be constructed.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingLLMKey
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_file", "")
	v.SetDefault("server.address", ":5000")
	v.SetDefault("server.session_secret", "dev_secret")
	v.SetDefault("server.flash_ttl", time.Minute)
	v.SetDefault("search.provider", "serpapi")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.endpoint", "")
	v.SetDefault("search.timeout", 10*time.Second)
	v.SetDefault("fetch.user_agent", "ai-agent-intern/1.0")
	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.max_bytes", 20<<20)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("limits.max_results", 5)
	v.SetDefault("limits.prompt_sources", 3)
	v.SetDefault("limits.excerpt_chars", 3000)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "reports.db")
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.postgres.host", "")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.user", "")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.dbname", "")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.timeout", 5*time.Second)
	v.SetDefault("storage.redis.host", "")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", 3*time.Second)
	v.SetDefault("index.enabled", true)
	v.SetDefault("index.path", "")
	v.SetDefault("telemetry.metrics_enabled", true)
}

// bindLegacyEnv maps the plain environment names the service has always honoured.
func bindLegacyEnv(v *viper.Viper) error {
	binds := map[string][]string{
		"search.api_key":        {"RESEARCHER_SEARCH_API_KEY", "SERPAPI_KEY"},
		"llm.api_key":           {"RESEARCHER_LLM_API_KEY", "GEMINI_API_KEY"},
		"server.session_secret": {"RESEARCHER_SERVER_SESSION_SECRET", "SESSION_SECRET"},
		"general.debug":         {"RESEARCHER_GENERAL_DEBUG", "DEBUG"},
		"storage.postgres.url":  {"RESEARCHER_STORAGE_POSTGRES_URL", "DATABASE_URL"},
	}
	for key, envs := range binds {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	// no default: Normalize derives it from max_results
	if err := v.BindEnv("limits.max_sources"); err != nil {
		return fmt.Errorf("bind limits.max_sources: %w", err)
	}
	return nil
}

// Load reads configuration from an optional JSON file and the environment.
// When path is empty a missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(exe))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("RESEARCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Limits = cfg.Limits.Normalize()
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Fetch.Policy = cfg.Fetch.Policy.Normalize()

	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Fetch.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Redis.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads config and panics on failure
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}
