// Package config resolves runtime configuration from defaults, an optional
// config file, a .env file and TRIPJOURNAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "TRIPJOURNAL"

	defaultHTTPAddress        = "0.0.0.0:8080"
	defaultLogLevel           = "info"
	defaultDatabaseDriver     = "sqlite"
	defaultDatabaseDSN        = "trip-journal.db"
	defaultStorageBackend     = "local"
	defaultStorageLocalRoot   = "media"
	defaultStoragePublic      = "/media"
	defaultGeneratorProvider  = "gemini"
	defaultGeminiModel        = "gemini-2.5-flash"
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultMaxDimension       = 512
	defaultJPEGQuality        = 50
	defaultWorkers            = 4
	defaultAnalysisTimeout    = 60 * time.Second
	defaultCompositionTimeout = 120 * time.Second
	defaultCaptionLength      = 20
	defaultMaxPhotos          = 50
	defaultMaxUploadBytes     = 200 << 20
)

// AppConfig captures runtime configuration for every binary.
type AppConfig struct {
	HTTPAddress string
	CORSOrigins []string
	LogLevel    string
	LogPretty   bool

	DatabaseDriver string
	DatabaseDSN    string

	StorageBackend      string
	StorageLocalRoot    string
	StoragePublicPrefix string
	StorageS3Bucket     string

	GeneratorProvider string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	GeminiSSMParam    string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string

	MaxDimension       int
	JPEGQuality        int
	Workers            int
	AnalysisTimeout    time.Duration
	CompositionTimeout time.Duration
	CaptionLength      int

	MaxPhotos      int
	MaxUploadBytes int64
}

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.cors_origins", []string{"*"})
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.pretty", false)

	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.dsn", defaultDatabaseDSN)

	configViper.SetDefault("storage.backend", defaultStorageBackend)
	configViper.SetDefault("storage.local_root", defaultStorageLocalRoot)
	configViper.SetDefault("storage.public_prefix", defaultStoragePublic)

	configViper.SetDefault("generator.provider", defaultGeneratorProvider)
	configViper.SetDefault("gemini.model", defaultGeminiModel)
	configViper.SetDefault("openai.model", defaultOpenAIModel)

	configViper.SetDefault("pipeline.max_dimension", defaultMaxDimension)
	configViper.SetDefault("pipeline.jpeg_quality", defaultJPEGQuality)
	configViper.SetDefault("pipeline.workers", defaultWorkers)
	configViper.SetDefault("pipeline.analysis_timeout", defaultAnalysisTimeout)
	configViper.SetDefault("pipeline.composition_timeout", defaultCompositionTimeout)
	configViper.SetDefault("pipeline.caption_length", defaultCaptionLength)

	configViper.SetDefault("upload.max_photos", defaultMaxPhotos)
	configViper.SetDefault("upload.max_bytes", defaultMaxUploadBytes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress: configViper.GetString("http.address"),
		CORSOrigins: configViper.GetStringSlice("http.cors_origins"),
		LogLevel:    configViper.GetString("log.level"),
		LogPretty:   configViper.GetBool("log.pretty"),

		DatabaseDriver: strings.ToLower(configViper.GetString("database.driver")),
		DatabaseDSN:    configViper.GetString("database.dsn"),

		StorageBackend:      strings.ToLower(configViper.GetString("storage.backend")),
		StorageLocalRoot:    configViper.GetString("storage.local_root"),
		StoragePublicPrefix: strings.TrimRight(configViper.GetString("storage.public_prefix"), "/"),
		StorageS3Bucket:     configViper.GetString("storage.s3_bucket"),

		GeneratorProvider: strings.ToLower(configViper.GetString("generator.provider")),
		GeminiAPIKey:      configViper.GetString("gemini.api_key"),
		GeminiModel:       configViper.GetString("gemini.model"),
		GeminiBaseURL:     configViper.GetString("gemini.base_url"),
		GeminiSSMParam:    configViper.GetString("gemini.ssm_param"),
		OpenAIAPIKey:      configViper.GetString("openai.api_key"),
		OpenAIModel:       configViper.GetString("openai.model"),
		OpenAIBaseURL:     configViper.GetString("openai.base_url"),

		MaxDimension:       configViper.GetInt("pipeline.max_dimension"),
		JPEGQuality:        configViper.GetInt("pipeline.jpeg_quality"),
		Workers:            configViper.GetInt("pipeline.workers"),
		AnalysisTimeout:    configViper.GetDuration("pipeline.analysis_timeout"),
		CompositionTimeout: configViper.GetDuration("pipeline.composition_timeout"),
		CaptionLength:      configViper.GetInt("pipeline.caption_length"),

		MaxPhotos:      configViper.GetInt("upload.max_photos"),
		MaxUploadBytes: configViper.GetInt64("upload.max_bytes"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.StorageBackend {
	case "local":
		if strings.TrimSpace(c.StorageLocalRoot) == "" {
			return fmt.Errorf("storage.local_root is required for the local backend")
		}
		if !strings.HasPrefix(c.StoragePublicPrefix, "/") {
			return fmt.Errorf("storage.public_prefix must start with /")
		}
	case "s3":
		if strings.TrimSpace(c.StorageS3Bucket) == "" {
			return fmt.Errorf("storage.s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.StorageBackend)
	}

	switch c.GeneratorProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("generator.provider must be gemini or openai, got %q", c.GeneratorProvider)
	}

	if c.MaxDimension <= 0 {
		return fmt.Errorf("pipeline.max_dimension must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("pipeline.jpeg_quality must be between 1 and 100")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive")
	}
	if c.AnalysisTimeout <= 0 || c.CompositionTimeout <= 0 {
		return fmt.Errorf("pipeline timeouts must be positive")
	}
	if c.CaptionLength <= 0 {
		return fmt.Errorf("pipeline.caption_length must be positive")
	}
	if c.MaxPhotos <= 0 || c.MaxUploadBytes <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	return nil
}
