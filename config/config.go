package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Shopify   ShopifyConfig
	Merchant  MerchantConfig
	OpenAI    OpenAIConfig
	Optimizer OptimizerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port" validate:"required"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// CacheConfig holds the optimization run store configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP   int     `mapstructure:"per_ip" validate:"gte=0"` // requests per minute, 0 disables
	Shopify float64 `mapstructure:"shopify" validate:"gt=0"` // requests per second
}

// ShopifyConfig holds Shopify Admin API configuration
type ShopifyConfig struct {
	StoreURL    string `mapstructure:"store_url" validate:"omitempty,url"`
	AccessToken string `mapstructure:"access_token" validate:"required_with=StoreURL"`
	APIVersion  string `mapstructure:"api_version"`
	Currency    string `mapstructure:"currency"`
}

// MerchantConfig holds Google Merchant Center Content API configuration
type MerchantConfig struct {
	MerchantID      uint64 `mapstructure:"merchant_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
	BatchSize       int    `mapstructure:"batch_size" validate:"gt=0,lte=10000"`
	ContentLanguage string `mapstructure:"content_language" validate:"required"`
	FeedLabel       string `mapstructure:"feed_label" validate:"required"`
}

// Enabled reports whether a merchant account is configured
func (m MerchantConfig) Enabled() bool {
	return m.MerchantID != 0
}

// Enabled reports whether a Shopify store is configured
func (s ShopifyConfig) Enabled() bool {
	return s.StoreURL != ""
}

// Enabled reports whether AI title suggestions are configured
func (o OpenAIConfig) Enabled() bool {
	return o.APIKey != ""
}

// OpenAIConfig holds configuration for AI title suggestions
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	MaxSuggestions int    `mapstructure:"max_suggestions" validate:"gte=0"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/feedpilot/")

	// Environment variable settings
	v.SetEnvPrefix("FEEDPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyCategoryDefaults(&config.Optimizer.Category)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory when one exists.
// Variables already present in the environment are never overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "168h") // 7 days

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.shopify", 2.0)

	// Provider defaults
	v.SetDefault("shopify.store_url", "")
	v.SetDefault("shopify.access_token", "")
	v.SetDefault("shopify.api_version", "2024-01")
	v.SetDefault("shopify.currency", "EUR")
	v.SetDefault("merchant.merchant_id", 0)
	v.SetDefault("merchant.credentials_file", "")
	v.SetDefault("merchant.endpoint", "")
	v.SetDefault("merchant.batch_size", 500)
	v.SetDefault("merchant.content_language", "fr")
	v.SetDefault("merchant.feed_label", "FR")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.max_suggestions", 20)

	// Optimizer defaults
	v.SetDefault("optimizer.validation.min_title_length", 10)
	v.SetDefault("optimizer.validation.max_title_length", 150)
	v.SetDefault("optimizer.validation.min_description_length", 50)
	v.SetDefault("optimizer.validation.max_description_length", 5000)
	v.SetDefault("optimizer.validation.price_min", 0.01)
	v.SetDefault("optimizer.validation.price_max", 999999.99)
	v.SetDefault("optimizer.weights.base_quality", 40)
	v.SetDefault("optimizer.weights.margin", 30)
	v.SetDefault("optimizer.weights.recruitment", 30)
	v.SetDefault("optimizer.tiers.high", 80)
	v.SetDefault("optimizer.tiers.medium", 60)
	v.SetDefault("optimizer.category.default_code", DefaultCategoryCode)
	v.SetDefault("optimizer.category.cache_size", 1024)
}

var structValidator = validator.New()

// validate validates the configuration
func validate(config *Config) error {
	if err := structValidator.Struct(config); err != nil {
		return err
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	return config.Optimizer.Validate()
}
