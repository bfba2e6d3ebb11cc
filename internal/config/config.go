// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults, merged in priority order.
// A .env file in the working directory is loaded first so local credentials work without exporting them.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultStreamingDomains is the allow-list the search provider is restricted to.
var DefaultStreamingDomains = []string{
	"netflix.com",
	"hulu.com",
	"amazon.com",
	"disneyplus.com",
	"hbo.com",
	"apple.com",
	"primevideo.com",
	"peacocktv.com",
}

// Search result bounds. The provider is always asked for between 5 and 10 results.
const (
	MinSearchResults = 5
	MaxSearchResults = 10
)

// Config is the root configuration struct. Nested structs organize related settings.
// `mapstructure` tags tell Viper how to map YAML/env keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Search    SearchConfig    `mapstructure:"search"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	StaticDir   string `mapstructure:"static_dir"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is believed.
	// Empty means the peer address is always the client IP.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type VisionConfig struct {
	// Provider selects the vision model used for identification: gemini, anthropic or openai.
	Provider string `mapstructure:"provider"`
	// MaxImageDimension bounds the longest edge of images sent to the model. 0 disables resizing.
	MaxImageDimension int             `mapstructure:"max_image_dimension"`
	Gemini            GeminiConfig    `mapstructure:"gemini"`
	Anthropic         AnthropicConfig `mapstructure:"anthropic"`
	OpenAI            OpenAIConfig    `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type SearchConfig struct {
	MaxResults     int          `mapstructure:"max_results"`
	SearchDepth    string       `mapstructure:"search_depth"`
	IncludeDomains []string     `mapstructure:"include_domains"`
	Tavily         TavilyConfig `mapstructure:"tavily"`
}

type TavilyConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type StorageConfig struct {
	// DatabasePath is the SQLite file for the identification call log. Empty disables it.
	DatabasePath string `mapstructure:"database_path"`
}

type AuthConfig struct {
	// APIKeys protect POST /api/identify when non-empty.
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// credentialAliases maps config keys to the bare environment variables people already have set.
var credentialAliases = map[string]string{
	"vision.gemini.api_key":    "GOOGLE_API_KEY",
	"vision.anthropic.api_key": "ANTHROPIC_API_KEY",
	"vision.openai.api_key":    "OPENAI_API_KEY",
	"search.tavily.api_key":    "TAVILY_API_KEY",
}

// Load reads configuration from a YAML file and environment variables.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine: defaults + real env are enough.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.static_dir", "./web/static")
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("vision.provider", "gemini")
	v.SetDefault("vision.max_image_dimension", 1568)
	v.SetDefault("vision.gemini.model", "gemini-2.5-flash")
	v.SetDefault("vision.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("vision.openai.model", "gpt-4o")
	v.SetDefault("search.max_results", MaxSearchResults)
	v.SetDefault("search.search_depth", "basic")
	v.SetDefault("search.include_domains", DefaultStreamingDomains)
	v.SetDefault("search.tavily.base_url", "https://api.tavily.com")
	v.SetDefault("storage.database_path", "./storage/scene-finder.db")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// SCENE_ prefix + nested keys: SCENE_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("SCENE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also resolve from their conventional names (GOOGLE_API_KEY, ...).
	// The prefixed variable wins when both are set.
	for key, alias := range credentialAliases {
		envKey := "SCENE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate normalizes values that would otherwise break the pipeline.
func (c *Config) Validate() error {
	c.Vision.Provider = strings.ToLower(strings.TrimSpace(c.Vision.Provider))
	switch c.Vision.Provider {
	case "gemini", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown vision provider: %q (want gemini, anthropic or openai)", c.Vision.Provider)
	}

	c.Search.MaxResults = ClampResults(c.Search.MaxResults)
	if len(c.Search.IncludeDomains) == 0 {
		c.Search.IncludeDomains = DefaultStreamingDomains
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 20
	}
	return nil
}

// ClampResults keeps a requested result count inside [MinSearchResults, MaxSearchResults].
func ClampResults(n int) int {
	if n < MinSearchResults {
		return MinSearchResults
	}
	if n > MaxSearchResults {
		return MaxSearchResults
	}
	return n
}

// Address returns the listen address string like "0.0.0.0:8000".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes is the request body limit for image uploads.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}
