package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/katalog/internal/domain/rules"
)

// Supported LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Supported database drivers.
const (
	DriverMemory = "memory"
	DriverValkey = "valkey"
	DriverRedis  = "redis"
)

// Config holds the katalog API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Rules    RulesConfig    `yaml:"rules"`
	Market   MarketConfig   `yaml:"market"`
	Sessions SessionsConfig `yaml:"sessions"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, valkey, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	MaxKeys          int      `yaml:"max_keys"` // memory driver only
}

// LLMConfig selects the active provider and the request defaults.
type LLMConfig struct {
	Provider    string                    `yaml:"provider"` // anthropic, openai, gemini; empty disables AI
	Model       string                    `yaml:"model"`
	MaxTokens   int                       `yaml:"max_tokens"`
	Temperature float64                   `yaml:"temperature"`
	TimeoutSec  int                       `yaml:"timeout_sec"`
	CacheTTLSec int                       `yaml:"cache_ttl_sec"` // 0 disables the response cache
	CacheSize   int                       `yaml:"cache_size"`    // answers kept in memory
	Providers   map[string]ProviderConfig `yaml:"providers"`
}

// Active returns the settings of the selected provider. ok is false when AI is disabled.
func (c LLMConfig) Active() (name string, p ProviderConfig, ok bool) {
	if c.Provider == "" {
		return "", ProviderConfig{}, false
	}
	return c.Provider, c.Providers[c.Provider], true
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit      int64   `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit    int64   `yaml:"monthly_token_limit"` // 0 = unlimited
	CostPerMillionTokens float64 `yaml:"cost_per_million_tokens"`
	Action               string  `yaml:"action"` // "reject" | "warn" (default)
}

// ProviderConfig holds LLM provider settings.
type ProviderConfig struct {
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Model   string       `yaml:"model"` // overrides llm.model for this provider
	Budget  BudgetConfig `yaml:"budget"`
}

// RulesConfig tunes the search-term rule engine.
type RulesConfig struct {
	MaxTerms         int      `yaml:"max_terms"`
	PreselectLimit   int      `yaml:"preselect_limit"`
	ModelPattern     string   `yaml:"model_pattern"`
	ExtraBrands      []string `yaml:"extra_brands"`
	ExtraObjectTypes []string `yaml:"extra_object_types"`
	ExtraMaterials   []string `yaml:"extra_materials"`
	ExtraModelNames  []string `yaml:"extra_model_names"`
}

// Build applies the limits and dictionary extras to the built-in rule table.
func (r RulesConfig) Build() (rules.Config, error) {
	cfg := rules.DefaultConfig().WithExtras(r.ExtraBrands, r.ExtraObjectTypes, r.ExtraMaterials, r.ExtraModelNames)
	if r.MaxTerms > 0 {
		cfg.MaxTerms = r.MaxTerms
	}
	if r.PreselectLimit > 0 {
		cfg.PreselectLimit = r.PreselectLimit
	}
	if r.ModelPattern != "" {
		var err error
		if cfg, err = cfg.WithModelPattern(r.ModelPattern); err != nil {
			return rules.Config{}, fmt.Errorf("rules.model_pattern: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return rules.Config{}, fmt.Errorf("rules: %w", err)
	}
	return cfg, nil
}

// MarketConfig holds Auctionet and analysis settings.
type MarketConfig struct {
	BaseURL           string  `yaml:"base_url"`
	PublicURL         string  `yaml:"public_url"`
	PerPage           int     `yaml:"per_page"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	CacheSize         int     `yaml:"cache_size"`
	CacheTTLSec       int     `yaml:"cache_ttl_sec"`
	ExceptionalFactor float64 `yaml:"exceptional_factor"`
	TrendWindowDays   int     `yaml:"trend_window_days"`
}

// SessionsConfig holds search session settings.
type SessionsConfig struct {
	TTLSec    int `yaml:"ttl_sec"`
	CacheSize int `yaml:"cache_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates the configuration at path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.LLM.CacheSize <= 0 {
		c.LLM.CacheSize = 256
	}
	if c.Rules.MaxTerms <= 0 {
		c.Rules.MaxTerms = 12
	}
	if c.Rules.PreselectLimit <= 0 {
		c.Rules.PreselectLimit = 4
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "https://auctionet.com"
	}
	if c.Market.PublicURL == "" {
		c.Market.PublicURL = "https://auctionet.com/sv"
	}
	if c.Market.PerPage <= 0 {
		c.Market.PerPage = 200
	}
	if c.Market.TimeoutSec <= 0 {
		c.Market.TimeoutSec = 10
	}
	if c.Market.CacheSize <= 0 {
		c.Market.CacheSize = 256
	}
	if c.Market.CacheTTLSec <= 0 {
		c.Market.CacheTTLSec = 30 * 60
	}
	if c.Market.ExceptionalFactor <= 0 {
		c.Market.ExceptionalFactor = 1.5
	}
	if c.Market.TrendWindowDays <= 0 {
		c.Market.TrendWindowDays = 365
	}
	if c.Sessions.TTLSec <= 0 {
		c.Sessions.TTLSec = 24 * 60 * 60
	}
	if c.Sessions.CacheSize <= 0 {
		c.Sessions.CacheSize = 1024
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be memory, valkey or redis, got %q", c.Database.Driver)
	}
	switch c.LLM.Provider {
	case "", ProviderAnthropic, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider must be anthropic, openai or gemini, got %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	for name, p := range c.LLM.Providers {
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"llm.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}
	if c.Rules.PreselectLimit > c.Rules.MaxTerms {
		return fmt.Errorf("rules.preselect_limit (%d) must not exceed rules.max_terms (%d)",
			c.Rules.PreselectLimit, c.Rules.MaxTerms)
	}
	if c.Rules.ModelPattern != "" {
		if _, err := regexp.Compile(c.Rules.ModelPattern); err != nil {
			return fmt.Errorf("rules.model_pattern: %w", err)
		}
	}
	if c.Market.ExceptionalFactor < 1 {
		return fmt.Errorf("market.exceptional_factor must be at least 1, got %g", c.Market.ExceptionalFactor)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
