package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Database  DatabaseConfig  `envconfig:"DATABASE"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	AI        AIConfig        `envconfig:"AI"`
	Scheduler SchedulerConfig `envconfig:"SCHEDULER"`
	Scenario  ScenarioConfig  `envconfig:"SCENARIO"`
	Cache     CacheConfig     `envconfig:"CACHE"`
	Telegram  TelegramConfig  `envconfig:"TELEGRAM"`
	Logging   LoggingConfig   `envconfig:"LOGGING"`
}

// ServerConfig represents HTTP server parameters
type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"finsights"`
	User           string `envconfig:"DB_USER" required:"true"`
	Password       string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// RedisConfig represents Redis connection for the cross-pod job lock
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// AIConfig represents generation provider configuration
type AIConfig struct {
	APIKey      string        `envconfig:"AI_API_KEY" required:"true"`
	BaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.perplexity.ai/chat/completions"`
	Model       string        `envconfig:"AI_MODEL" default:"sonar-pro"`
	Timeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	MaxRetries  int           `envconfig:"AI_MAX_RETRIES" default:"2"`
	Temperature float64       `envconfig:"AI_TEMPERATURE" default:"0.2"`
}

// SchedulerConfig represents job scheduling parameters
type SchedulerConfig struct {
	Enabled      bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	Timezone     string        `envconfig:"SCHEDULER_TIMEZONE" default:"Asia/Kolkata"`
	DrainTimeout time.Duration `envconfig:"SCHEDULER_DRAIN_TIMEOUT" default:"2m"`
}

// ScenarioConfig represents scenario generation parameters
type ScenarioConfig struct {
	DefaultCount int           `envconfig:"SCENARIO_DEFAULT_COUNT" default:"3"`
	MaxCount     int           `envconfig:"SCENARIO_MAX_COUNT" default:"5"`
	WaitTimeout  time.Duration `envconfig:"SCENARIO_WAIT_TIMEOUT" default:"45s"`
}

// CacheConfig represents cache TTL overrides
type CacheConfig struct {
	SummaryTTL  time.Duration `envconfig:"CACHE_SUMMARY_TTL" default:"12h"`
	ScenarioTTL time.Duration `envconfig:"CACHE_SCENARIO_TTL" default:"720h"`
}

// TelegramConfig represents ops alert configuration
type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai max_retries must not be negative")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid scheduler timezone %q: %w", c.Scheduler.Timezone, err)
	}

	if c.Scenario.DefaultCount < 1 || c.Scenario.DefaultCount > c.Scenario.MaxCount {
		return fmt.Errorf("scenario default_count must be between 1 and max_count")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram chat_id is required when telegram is enabled")
		}
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Location returns the scheduler timezone. Validate guarantees it loads.
func (c *SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
