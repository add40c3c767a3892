package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Agent    AgentConfig    `mapstructure:"agent"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Cashback CashbackConfig `mapstructure:"cashback"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AgentConfig holds shopping agent API configuration
type AgentConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// TrackerConfig holds price tracking configuration
type TrackerConfig struct {
	DBPath                 string `mapstructure:"db_path"`
	DefaultIntervalMinutes int    `mapstructure:"default_interval_minutes"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// CashbackConfig holds the cashback knowledge base configuration
type CashbackConfig struct {
	// KnowledgeBasePath overrides the embedded knowledge base when set.
	KnowledgeBasePath string `mapstructure:"knowledge_base_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. An empty
// path skips the file and relies on defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("SHOPPING_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Agent defaults
	v.SetDefault("agent.base_url", "http://localhost:8080")
	v.SetDefault("agent.timeout", "180s")
	v.SetDefault("agent.max_retries", 2)
	v.SetDefault("agent.retry_delay_base", "2s")
	v.SetDefault("agent.cache_ttl", "10m")

	// Tracker defaults
	v.SetDefault("tracker.db_path", "./data/price_history.db")
	v.SetDefault("tracker.default_interval_minutes", 60)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Agent config
	if c.Agent.BaseURL == "" {
		return fmt.Errorf("agent.base_url is required")
	}
	if c.Agent.Timeout < 1*time.Second {
		return fmt.Errorf("agent.timeout must be at least 1 second")
	}
	if c.Agent.MaxRetries < 0 || c.Agent.MaxRetries > 10 {
		return fmt.Errorf("agent.max_retries must be between 0 and 10")
	}
	if c.Agent.RetryDelayBase < 0 {
		return fmt.Errorf("agent.retry_delay_base must not be negative")
	}
	if c.Agent.CacheTTL < 0 {
		return fmt.Errorf("agent.cache_ttl must not be negative")
	}

	// Validate Tracker config
	if c.Tracker.DefaultIntervalMinutes < 1 {
		return fmt.Errorf("tracker.default_interval_minutes must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
