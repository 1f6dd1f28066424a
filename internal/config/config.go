// Package config loads reelmatch settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable holding a config file path
const ConfigPathEnvVar = "RM_CONFIG_PATH"

var DefaultConfigPaths = []string{
	"reelmatch.yaml",
	"reelmatch.yml",
}

type Config struct {
	Data      DataConfig      `koanf:"data"`
	Features  FeaturesConfig  `koanf:"features"`
	Recommend RecommendConfig `koanf:"recommend"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	Cache     CacheConfig     `koanf:"cache"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DataConfig locates the raw tables and the built catalog
type DataConfig struct {
	MoviesPath  string `koanf:"movies_path" validate:"required"`
	CreditsPath string `koanf:"credits_path"`
	CatalogDir  string `koanf:"catalog_dir" validate:"required"`
}

// FeaturesConfig selects how descriptions are vectorized at build time
type FeaturesConfig struct {
	Vectorizer  string `koanf:"vectorizer" validate:"oneof=tfidf ollama openai gemini"`
	MaxFeatures int    `koanf:"max_features" validate:"gt=0"`
	Model       string `koanf:"model"`
	BatchSize   int    `koanf:"batch_size" validate:"gt=0"`
}

type RecommendConfig struct {
	TopK            int  `koanf:"top_k" validate:"gt=0,lte=100"`
	CaseInsensitive bool `koanf:"case_insensitive"`
	SearchLimit     int  `koanf:"search_limit" validate:"gt=0"`
	BrowseSize      int  `koanf:"browse_size" validate:"gt=0"`
	Concurrency     int  `koanf:"concurrency" validate:"gt=0,lte=64"`
}

type TMDbConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	ImageBaseURL      string        `koanf:"image_base_url" validate:"required,url"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int           `koanf:"burst" validate:"gte=0"`
	FailureThreshold  uint32        `koanf:"failure_threshold" validate:"gt=0"`
	OpenTimeout       time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

type CacheConfig struct {
	PosterCapacity int           `koanf:"poster_capacity" validate:"gt=0"`
	PosterTTL      time.Duration `koanf:"poster_ttl" validate:"gt=0"`
}

type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"gt=0,lte=65535"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Addr is the listen address of the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			MoviesPath:  "tmdb_5000_movies.csv",
			CreditsPath: "tmdb_5000_credits.csv",
			CatalogDir:  "artifacts",
		},
		Features: FeaturesConfig{
			Vectorizer:  "tfidf",
			MaxFeatures: 20000,
			BatchSize:   32,
		},
		Recommend: RecommendConfig{
			TopK:            5,
			CaseInsensitive: true,
			SearchLimit:     50,
			BrowseSize:      50,
			Concurrency:     8,
		},
		TMDb: TMDbConfig{
			BaseURL:          "https://api.themoviedb.org/3",
			ImageBaseURL:     "https://image.tmdb.org/t/p/w500",
			Timeout:          5 * time.Second,
			Burst:            1,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Cache: CacheConfig{
			PosterCapacity: 10000,
			PosterTTL:      6 * time.Hour,
		},
		Server: ServerConfig{
			Host:              "",
			Port:              8888,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. An explicit path must exist; otherwise
// RM_CONFIG_PATH and the default paths are tried and may all be absent.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"tmdb_api_key":        "tmdb.api_key",
	"tmdb_base_url":       "tmdb.base_url",
	"tmdb_timeout":        "tmdb.timeout",
	"rm_movies_path":      "data.movies_path",
	"rm_credits_path":     "data.credits_path",
	"rm_catalog_dir":      "data.catalog_dir",
	"rm_vectorizer":       "features.vectorizer",
	"rm_max_features":     "features.max_features",
	"embedding_model":     "features.model",
	"rm_top_k":            "recommend.top_k",
	"rm_case_insensitive": "recommend.case_insensitive",
	"rm_host":             "server.host",
	"rm_port":             "server.port",
	"log_level":           "logging.level",
	"log_format":          "logging.format",
}

// envTransformFunc maps environment variable names to config keys.
// Unmapped variables are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tag constraints and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param())
		}
		messages = append(messages, msg)
	}
	return errors.New(strings.Join(messages, "; "))
}
