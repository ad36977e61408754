package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "POKERLEAGUE"

// Config holds the process-level settings. Tournament settings are not here:
// they live in the database and are edited through the admin API.
type Config struct {
	Port          int           `mapstructure:"port"`
	DB            string        `mapstructure:"db"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	AdminPassword string        `mapstructure:"admin_password"`
	BaseURL       string        `mapstructure:"base_url"`
	PollInterval  int           `mapstructure:"poll_interval"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8081)
	v.SetDefault("db", "pokerleague.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("admin_password", "")
	v.SetDefault("base_url", "")
	v.SetDefault("poll_interval", 0)
	v.SetDefault("tick_interval", time.Second)
}

// Load reads configuration from dir. A .env file there is loaded into the
// environment first; then pokerleague.yaml (optional), then POKERLEAGUE_*
// variables, each overriding the one before.
func Load(dir string) (*Config, error) {
	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("pokerleague")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DB == "" {
		return fmt.Errorf("db path is required")
	}
	if c.PollInterval < 0 || c.PollInterval > 60 {
		return fmt.Errorf("poll_interval must be between 0 and 60 seconds, got %d", c.PollInterval)
	}
	if c.TickInterval < 100*time.Millisecond {
		return fmt.Errorf("tick_interval must be at least 100ms, got %s", c.TickInterval)
	}
	return nil
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
