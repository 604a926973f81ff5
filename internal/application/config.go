// Package application wires the reduction core, stores, and grading
// clients into the use cases the dashboard exposes.
package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chamikara/rachana/internal/analytics"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config is the full runtime configuration of the dashboard service.
type Config struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Database  DatabaseConfig  `yaml:"database"`
	Analytics AnalyticsConfig `yaml:"analytics" validate:"required"`
	Grader    GraderConfig    `yaml:"grader"`
	Logging   LoggingConfig   `yaml:"logging" validate:"required"`
}

// ServerConfig controls the HTTP listener and presentation defaults.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr" validate:"required"`

	// PageSize is the number of student summaries per dashboard page.
	PageSize int `yaml:"page_size" validate:"min=1,max=500"`
}

// DatabaseConfig holds MySQL connection parameters.
type DatabaseConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
}

// AnalyticsConfig composes the reduction-core policies.
type AnalyticsConfig struct {
	Aggregator analytics.AggregatorConfig `yaml:"aggregator" validate:"required"`
	Reducer    analytics.ReducerConfig    `yaml:"reducer" validate:"required"`
	Bias       analytics.BiasThresholds   `yaml:"bias" validate:"required"`

	// DefaultMode is the report view served when a request names none.
	DefaultMode analytics.ReportMode `yaml:"default_mode" validate:"required,oneof=latest history"`
}

// GraderConfig controls the remote grading client and its middleware
// chain.
type GraderConfig struct {
	// Provider selects the grading backend: openai, anthropic, or google.
	Provider string `yaml:"provider" validate:"omitempty,oneof=openai anthropic google"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the provider API
	// key. Keys never live in config files.
	APIKeyEnv string `yaml:"api_key_env"`

	// RequestsPerSecond and Burst shape the shared client-side rate limit.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`
	Burst             int     `yaml:"burst" validate:"min=0"`

	// Timeout bounds each grading request.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries, RetryBaseDelay, and RetryMaxDelay shape the backoff.
	MaxRetries     int           `yaml:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`

	// CircuitMaxFailures and CircuitCooldown shape the circuit breaker.
	CircuitMaxFailures int           `yaml:"circuit_max_failures" validate:"min=0"`
	CircuitCooldown    time.Duration `yaml:"circuit_cooldown"`
}

// APIKey resolves the provider API key from the configured environment
// variable.
func (g GraderConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`

	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file overrides
// it.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:     ":8080",
			PageSize: 20,
		},
		Database: DatabaseConfig{
			Host: "localhost",
			Port: "3306",
		},
		Analytics: AnalyticsConfig{
			Aggregator:  analytics.DefaultAggregatorConfig(),
			Reducer:     analytics.DefaultReducerConfig(),
			Bias:        analytics.DefaultBiasThresholds(),
			DefaultMode: analytics.ModeLatest,
		},
		Grader: GraderConfig{
			Provider:           "openai",
			APIKeyEnv:          "OPENAI_API_KEY",
			RequestsPerSecond:  5,
			Burst:              10,
			Timeout:            30 * time.Second,
			MaxRetries:         3,
			RetryBaseDelay:     200 * time.Millisecond,
			RetryMaxDelay:      5 * time.Second,
			CircuitMaxFailures: 5,
			CircuitCooldown:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML configuration file over the defaults.
// Unknown fields are rejected so typos fail loudly instead of being
// silently ignored.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("failed to decode config (check for typos): %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}
