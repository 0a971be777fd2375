// Package config loads the tour planner configuration from an optional config
// file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/hupe1980/tourmesh/logging"
	"github.com/hupe1980/tourmesh/tour"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration of the service and the chat client.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Search    SearchConfig    `mapstructure:"search"`
	Client    ClientConfig    `mapstructure:"client"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address            string `mapstructure:"address"`
	JournalFile        string `mapstructure:"journal_file"`
	MaxConcurrentPlans int    `mapstructure:"max_concurrent_plans"`
}

// ModelConfig selects the model shared by all agents.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Name        string  `mapstructure:"name"`
	Temperature float64 `mapstructure:"temperature"`
	MaxCalls    int     `mapstructure:"max_calls"`
}

// OpenAIConfig holds OpenAI credentials.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic credentials.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// SearchConfig holds web search credentials.
type SearchConfig struct {
	TavilyAPIKey string `mapstructure:"tavily_api_key"`
}

// ClientConfig configures the chat client.
type ClientConfig struct {
	APIBase       string        `mapstructure:"api_base"`
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps config keys to the environment variables that set them,
// in order of precedence.
var envBindings = map[string][]string{
	"model.provider":              {"MODEL_PROVIDER"},
	"model.name":                  {"MODEL_NAME", "model"},
	"openai.api_key":              {"OPENAI_API_KEY"},
	"openai.base_url":             {"OPENAI_BASE_URL"},
	"anthropic.api_key":           {"ANTHROPIC_API_KEY"},
	"search.tavily_api_key":       {"TAVILY_API_KEY"},
	"client.api_base":             {"API_BASE"},
	"server.address":              {"TOURMESH_SERVER_ADDRESS"},
	"server.journal_file":         {"TOURMESH_SERVER_JOURNAL_FILE"},
	"log.level":                   {"TOURMESH_LOG_LEVEL"},
	"log.format":                  {"TOURMESH_LOG_FORMAT"},
	"model.max_calls":             {"TOURMESH_MODEL_MAX_CALLS"},
	"model.temperature":           {"TOURMESH_MODEL_TEMPERATURE"},
	"client.health_timeout":       {"TOURMESH_CLIENT_HEALTH_TIMEOUT"},
	"server.max_concurrent_plans": {"TOURMESH_SERVER_MAX_CONCURRENT_PLANS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:8000")
	v.SetDefault("server.journal_file", logging.DefaultJournalFile)
	v.SetDefault("server.max_concurrent_plans", 10)
	v.SetDefault("model.provider", tour.ProviderOpenAI)
	v.SetDefault("model.name", "")
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.max_calls", 40)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("search.tavily_api_key", "")
	v.SetDefault("client.api_base", "http://localhost:8000")
	v.SetDefault("client.health_timeout", 1500*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	return nil
}

// Load reads configuration. An empty path searches tourmesh.{yaml,json,...}
// in the working directory and ./config; a missing file is not an error
// there. A non-empty path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path == "" {
		v.SetConfigName("tourmesh")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Model.Provider = strings.ToLower(strings.TrimSpace(cfg.Model.Provider))

	return &cfg, nil
}

// Validate reports missing model credentials for the selected provider and
// invalid limits.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case tour.ProviderOpenAI:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY not found in environment", tour.ErrMissingCredentials)
		}
	case tour.ProviderAnthropic:
		if strings.TrimSpace(c.Anthropic.APIKey) == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY not found in environment", tour.ErrMissingCredentials)
		}
	case tour.ProviderMock:
	default:
		return fmt.Errorf("model.provider: unknown provider %q", c.Model.Provider)
	}

	if c.Model.MaxCalls < 0 {
		return errors.New("model.max_calls cannot be negative")
	}

	if c.Server.MaxConcurrentPlans < 0 {
		return errors.New("server.max_concurrent_plans cannot be negative")
	}

	return nil
}

// TourOptions applies the model and search settings to a tour.Factory.
func (c *Config) TourOptions(logger logging.Logger) func(o *tour.Options) {
	return func(o *tour.Options) {
		o.Provider = c.Model.Provider
		o.ModelName = c.Model.Name
		o.Temperature = c.Model.Temperature
		o.OpenAIAPIKey = c.OpenAI.APIKey
		o.OpenAIBaseURL = c.OpenAI.BaseURL
		o.AnthropicAPIKey = c.Anthropic.APIKey
		o.TavilyAPIKey = c.Search.TavilyAPIKey
		o.Logger = logger
	}
}

// LoggerConfig returns the process logger configuration.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	if c.Log.Format != "" {
		cfg.Format = c.Log.Format
	}
	return cfg
}
