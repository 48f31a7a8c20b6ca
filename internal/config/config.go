// Package config loads application configuration from a YAML file,
// a .env file and environment variables. Configuration is returned as
// an explicit value; nothing in this package holds global state, so
// tests can build configs without touching the process environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Store      Store      `mapstructure:"store"`
	Fetch      Fetch      `mapstructure:"fetch"`
	Generation Generation `mapstructure:"generation"`
	Cache      Cache      `mapstructure:"cache"`
	Article    Article    `mapstructure:"article"`
}

// App holds general application configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// AI holds generative model configuration.
type AI struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// Store holds remote store configuration.
type Store struct {
	URL         string `mapstructure:"url"`
	AccessToken string `mapstructure:"access_token"`
	BlogID      int64  `mapstructure:"blog_id"`
}

// Fetch holds article fetch configuration.
type Fetch struct {
	PageSize        int    `mapstructure:"page_size"`
	RequestInterval string `mapstructure:"request_interval"`
}

// Generation holds content generation configuration.
type Generation struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	MinFeatures int    `mapstructure:"min_features"`
	MinSteps    int    `mapstructure:"min_steps"`
	Language    string `mapstructure:"language"`
	RetryDelay  string `mapstructure:"retry_delay"`
}

// Cache holds local cache configuration.
type Cache struct {
	Path string `mapstructure:"path"` // Directory holding the cache database
}

// Article holds defaults applied to published articles.
type Article struct {
	Author string `mapstructure:"author"`
	Tags   string `mapstructure:"tags"`
	CSS    string `mapstructure:"css"`
}

// Load reads configuration from the given file, falling back to
// .blogsmith.yaml in the working directory or home directory. A .env
// file in the working directory is loaded first so environment
// bindings can pick its values up.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".blogsmith")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")

	// AI defaults
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.temperature", 0.9)

	// Fetch defaults
	v.SetDefault("fetch.page_size", 250)
	v.SetDefault("fetch.request_interval", "400ms")

	// Generation defaults
	v.SetDefault("generation.max_attempts", 3)
	v.SetDefault("generation.min_features", 3)
	v.SetDefault("generation.min_steps", 3)
	v.SetDefault("generation.language", "English")
	v.SetDefault("generation.retry_delay", "0s")

	// Cache defaults
	v.SetDefault("cache.path", ".blogsmith-cache")

	// Article defaults
	v.SetDefault("article.author", "Store Team")
}

// bindEnvironmentVariables sets up flexible environment variable binding.
func bindEnvironmentVariables(v *viper.Viper) {
	bindEnvKeys(v, "ai.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "store.url", []string{
		"SHOPIFY_STORE_URL",
		"STORE_URL",
	})

	bindEnvKeys(v, "store.access_token", []string{
		"SHOPIFY_ACCESS_TOKEN",
		"STORE_ACCESS_TOKEN",
	})

	bindEnvKeys(v, "store.blog_id", []string{
		"SHOPIFY_BLOG_ID",
		"STORE_BLOG_ID",
	})

	bindEnvKeys(v, "app.debug", []string{
		"DEBUG",
		"BLOGSMITH_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key.
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// validateConfig checks values that would otherwise fail deep inside a
// command, so misconfiguration surfaces at startup.
func validateConfig(config *Config) error {
	durations := map[string]string{
		"fetch.request_interval": config.Fetch.RequestInterval,
		"generation.retry_delay": config.Generation.RetryDelay,
	}
	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	if config.Fetch.PageSize < 1 || config.Fetch.PageSize > 250 {
		return fmt.Errorf("fetch.page_size must be between 1 and 250, got %d", config.Fetch.PageSize)
	}
	if config.Generation.MaxAttempts < 1 {
		return fmt.Errorf("generation.max_attempts must be at least 1, got %d", config.Generation.MaxAttempts)
	}
	return nil
}

// Interval returns the parsed fetch request interval.
func (f Fetch) Interval() time.Duration {
	d, err := time.ParseDuration(f.RequestInterval)
	if err != nil {
		return 400 * time.Millisecond
	}
	return d
}

// Delay returns the parsed delay between generation retries.
func (g Generation) Delay() time.Duration {
	d, err := time.ParseDuration(g.RetryDelay)
	if err != nil {
		return 0
	}
	return d
}
