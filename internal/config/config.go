// Package config provides Viper-based hierarchical configuration management:
// defaults, an optional YAML config file and STMT_-prefixed environment
// variables, in increasing precedence. API keys always come from their
// conventional unprefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var loadEnvOnce sync.Once

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Profiles struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"profiles"`

	Analyzer struct {
		Provider        string  `mapstructure:"provider"`
		Model           string  `mapstructure:"model"`
		TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
		Retries         int     `mapstructure:"retries"`
		RetryBackoffSec float64 `mapstructure:"retry_backoff_sec"`
		SamplePages     int     `mapstructure:"sample_pages"`
		MinRows         int     `mapstructure:"min_rows"`
		MinDateRatio    float64 `mapstructure:"min_date_ratio"`
		MinBalanceRatio float64 `mapstructure:"min_balance_ratio"`
		GeminiAPIKey    string  `mapstructure:"gemini_api_key"`
		OpenAIAPIKey    string  `mapstructure:"openai_api_key"`
	} `mapstructure:"analyzer"`

	Fallback struct {
		MinCandidates int     `mapstructure:"min_candidates"`
		MaxRows       int     `mapstructure:"max_rows"`
		MinRatio      float64 `mapstructure:"min_ratio"`
	} `mapstructure:"fallback"`
}

// APIKey returns the key for the configured analyzer provider.
func (c *Config) APIKey() string {
	if c.Analyzer.Provider == "gemini" {
		return c.Analyzer.GeminiAPIKey
	}
	return c.Analyzer.OpenAIAPIKey
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.config/statement-core")
	v.AddConfigPath(".statement-core")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STMT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// API keys and the registry path keep their conventional variable names.
	for key, env := range map[string]string{
		"analyzer.gemini_api_key": "GEMINI_API_KEY",
		"analyzer.openai_api_key": "OPENAI_API_KEY",
		"analyzer.provider":       "AI_ANALYZER_PROVIDER",
		"analyzer.model":          "AI_ANALYZER_MODEL",
		"profiles.path":           "STATEMENT_PROFILES_PATH",
	} {
		if err := v.BindEnv(key, env); err != nil {
			fmt.Printf("Warning: failed to bind %s environment variable: %v\n", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("profiles.path", "")

	v.SetDefault("analyzer.provider", "openai")
	v.SetDefault("analyzer.model", "")
	v.SetDefault("analyzer.timeout_seconds", 20)
	v.SetDefault("analyzer.retries", 2)
	v.SetDefault("analyzer.retry_backoff_sec", 1.2)
	v.SetDefault("analyzer.sample_pages", 3)
	v.SetDefault("analyzer.min_rows", 3)
	v.SetDefault("analyzer.min_date_ratio", 0.8)
	v.SetDefault("analyzer.min_balance_ratio", 0.8)

	v.SetDefault("fallback.min_candidates", 20)
	v.SetDefault("fallback.max_rows", 5)
	v.SetDefault("fallback.min_ratio", 0.35)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}
	if config.Analyzer.Provider != "openai" && config.Analyzer.Provider != "gemini" {
		return fmt.Errorf("invalid analyzer provider: %s (must be 'openai' or 'gemini')", config.Analyzer.Provider)
	}
	if config.Analyzer.TimeoutSeconds < 1 || config.Analyzer.TimeoutSeconds > 300 {
		return fmt.Errorf("analyzer.timeout_seconds must be between 1 and 300, got: %d", config.Analyzer.TimeoutSeconds)
	}
	if config.Analyzer.MinDateRatio < 0.0 || config.Analyzer.MinDateRatio > 1.0 {
		return fmt.Errorf("analyzer.min_date_ratio must be between 0.0 and 1.0, got: %f", config.Analyzer.MinDateRatio)
	}
	if config.Analyzer.MinBalanceRatio < 0.0 || config.Analyzer.MinBalanceRatio > 1.0 {
		return fmt.Errorf("analyzer.min_balance_ratio must be between 0.0 and 1.0, got: %f", config.Analyzer.MinBalanceRatio)
	}
	if config.Fallback.MinRatio < 0.0 || config.Fallback.MinRatio > 1.0 {
		return fmt.Errorf("fallback.min_ratio must be between 0.0 and 1.0, got: %f", config.Fallback.MinRatio)
	}
	return nil
}

// LoadEnv loads environment variables from a .env file if one exists in the
// working directory or its parent.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		if err := godotenv.Load(envFile); err != nil {
			fmt.Printf("Warning: error loading .env file: %v\n", err)
		}
	})
}
