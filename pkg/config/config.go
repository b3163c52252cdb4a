package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	Environment  string        `mapstructure:"environment" validate:"oneof=development staging production test"`

	// ExposeErrorDetails adds internal diagnostics to 500 responses.
	// Off unless explicitly enabled, and rejected in staging and production.
	ExposeErrorDetails bool `mapstructure:"expose_error_details"`
}

// ExtractionConfig bounds the resources a single document may consume
type ExtractionConfig struct {
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`
	MaxTextBytes   int           `mapstructure:"max_text_bytes" validate:"gt=0"`
	ParseTimeout   time.Duration `mapstructure:"parse_timeout" validate:"gt=0"`
	Workers        int           `mapstructure:"workers" validate:"min=1"`

	// MaxUnzipBytes caps the decompressed size of zip based formats such as xlsx
	MaxUnzipBytes int64 `mapstructure:"max_unzip_bytes" validate:"gt=0"`
}

// JobsConfig holds configuration for asynchronous extraction jobs
type JobsConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// CORSConfig holds the browser origins allowed to call the service
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RabbitMQConfig holds RabbitMQ connection configuration.
// An empty URL disables audit event publishing.
type RabbitMQConfig struct {
	URL            string        `mapstructure:"url" validate:"omitempty,url"`
	Exchange       string        `mapstructure:"exchange" validate:"required"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"min=0"`
}

// Enabled reports whether a broker is configured
func (c *RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

var validate = validator.New()

// Validate checks the loaded configuration against its struct constraints
// and the rules of the current environment.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Server.IsProductionLike() {
		if c.Server.ExposeErrorDetails {
			return errors.New("SEI_SERVER_EXPOSE_ERROR_DETAILS must not be enabled in " + c.Server.Environment)
		}
		if c.RabbitMQ.Enabled() && strings.Contains(c.RabbitMQ.URL, "localhost") {
			return errors.New("SEI_RABBITMQ_URL must be set to a non-localhost value in " + c.Server.Environment)
		}
	}

	return nil
}

// Load loads configuration from environment and config files.
// This function applies defaults and is suitable for local development.
// For production use, prefer LoadWithValidation which enforces the constraints.
func Load(serviceName string) (*Config, error) {
	return loadConfig(serviceName)
}

// LoadWithValidation loads configuration and validates it for the current environment.
// Use this function in service main() for fail-fast behavior.
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := loadConfig(serviceName)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfig is the internal configuration loader
func loadConfig(serviceName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("SEI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Container platforms hand the listen port over in PORT
	if err := v.BindEnv("server.port", "SEI_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind port: %w", err)
	}

	// Read from config file if exists
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/sei")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8001)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.expose_error_details", false)

	// Extraction defaults
	v.SetDefault("extraction.max_upload_bytes", 10<<20) // 10MB
	v.SetDefault("extraction.max_text_bytes", 10<<20)
	v.SetDefault("extraction.parse_timeout", 20*time.Second)
	v.SetDefault("extraction.workers", runtime.NumCPU())
	v.SetDefault("extraction.max_unzip_bytes", 100<<20)

	// Job defaults
	v.SetDefault("jobs.ttl", 10*time.Minute)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	// RabbitMQ defaults
	// Note: URL is intentionally empty - publishing is opt-in
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "document.events")
	v.SetDefault("rabbitmq.reconnect_delay", 5*time.Second)
	v.SetDefault("rabbitmq.max_retries", 5)
}
