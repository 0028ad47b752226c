package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Vision     VisionConfig
	Extraction ExtractionConfig
	Store      StoreConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
}

// VisionConfig holds vision model API configuration
type VisionConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
}

// ExtractionConfig holds extraction pipeline configuration
type ExtractionConfig struct {
	ConfidenceThreshold int           `mapstructure:"confidence_threshold"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	TaxonomyPath        string        `mapstructure:"taxonomy_path"`
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stylelens/")

	v.SetEnvPrefix("STYLELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional - env vars and defaults are enough to run
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.log_level", "info")

	// Registering the key lets AutomaticEnv surface it through Unmarshal
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("vision.model", "qwen/qwen2.5-vl-72b-instruct")
	v.SetDefault("vision.requests_per_minute", 20)
	v.SetDefault("vision.call_timeout", "90s")

	v.SetDefault("extraction.confidence_threshold", 65)
	v.SetDefault("extraction.cache_ttl", "24h")
	v.SetDefault("extraction.taxonomy_path", "config/taxonomy.yaml")

	v.SetDefault("store.path", "stylelens.db")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Vision.APIKey == "" {
		return fmt.Errorf("vision API key is required (set STYLELENS_VISION_API_KEY)")
	}

	if t := config.Extraction.ConfidenceThreshold; t < 1 || t > 100 {
		return fmt.Errorf("extraction confidence threshold must be 1-100, got: %d", t)
	}

	if config.Extraction.TaxonomyPath == "" {
		return fmt.Errorf("taxonomy path is required")
	}

	if config.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	return nil
}
