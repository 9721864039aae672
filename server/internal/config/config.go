package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultGRPCPort       = 50051
	DefaultWindowFactor   = 4
	DefaultAdvisorTimeout = 8 * time.Second
	DefaultAdvisorModel   = "gemini-2.0-flash"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Calendar CalendarConfig `yaml:"calendar"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the listener and authentication settings.
type ServerConfig struct {
	// HTTPPort is the port of the REST API (default 8080).
	HTTPPort int `yaml:"http_port" env:"PRAZOS_HTTP_PORT"`

	// GRPCPort is the port of the gRPC health service (default 50051).
	// Zero disables the gRPC listener.
	GRPCPort int `yaml:"grpc_port" env:"PRAZOS_GRPC_PORT"`

	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls how callers are authenticated.
type AuthConfig struct {
	// Mode is one of: jwt | apikey | none.
	Mode string `yaml:"mode" env:"PRAZOS_AUTH_MODE"`

	// SecretEnv names the environment variable holding the HMAC secret that
	// signs session tokens. Used when Mode == "jwt".
	SecretEnv string `yaml:"secret_env"`

	// Issuer, when set, must match the iss claim of session tokens.
	Issuer string `yaml:"issuer"`

	// KeyEnv names the environment variable holding the expected API key.
	// Used when Mode == "apikey" and by the gRPC interceptor.
	KeyEnv string `yaml:"key_env"`

	// Header carries the API key. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Secret returns the session signing secret resolved from the environment.
func (a AuthConfig) Secret() []byte {
	if a.SecretEnv == "" {
		return nil
	}
	return []byte(os.Getenv(a.SecretEnv))
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// CalendarConfig selects where holidays and suspensions come from.
type CalendarConfig struct {
	// Source is one of: sql | file.
	Source string `yaml:"source" env:"PRAZOS_CALENDAR_SOURCE"`

	// File is the YAML calendar used when Source == "file".
	File string `yaml:"file" env:"PRAZOS_CALENDAR_FILE"`

	// WindowFactor multiplies the deadline length to size the calendar query
	// window (default 4).
	WindowFactor int `yaml:"window_factor"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig is the SQL calendar store connection.
type DatabaseConfig struct {
	// Driver is one of: postgres | sqlite.
	Driver string `yaml:"driver" env:"PRAZOS_DATABASE_DRIVER"`
	DSN    string `yaml:"dsn" env:"PRAZOS_DATABASE_DSN"`
}

// AdvisorConfig configures the AI narrative.
type AdvisorConfig struct {
	Enabled bool   `yaml:"enabled" env:"PRAZOS_ADVISOR_ENABLED"`
	Model   string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the Gemini API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// Timeout bounds each narrative request (default 8s).
	Timeout time.Duration `yaml:"timeout"`

	// RatePerMinute limits narrative requests; zero disables the limit.
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Burst         int     `yaml:"burst"`
}

// APIKey returns the Gemini API key resolved from the environment.
func (a AdvisorConfig) APIKey() string {
	if a.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(a.APIKeyEnv)
}

// LogConfig sets the slog level.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level" env:"PRAZOS_LOG_LEVEL"`
}

// SlogLevel converts Level to a slog.Level, defaulting to Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path, applies PRAZOS_*
// environment overrides and validates the result. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			GRPCPort: DefaultGRPCPort,
			Auth: AuthConfig{
				Mode:      "jwt",
				SecretEnv: "PRAZOS_JWT_SECRET",
			},
		},
		Calendar: CalendarConfig{
			Source:       "sql",
			WindowFactor: DefaultWindowFactor,
			Database: DatabaseConfig{
				Driver: "sqlite",
				DSN:    "prazos.db",
			},
		},
		Advisor: AdvisorConfig{
			Model:     DefaultAdvisorModel,
			APIKeyEnv: "GEMINI_API_KEY",
			Timeout:   DefaultAdvisorTimeout,
		},
		Log: LogConfig{Level: "info"},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	switch cfg.Server.Auth.Mode {
	case "jwt":
		if cfg.Server.Auth.SecretEnv == "" {
			return fmt.Errorf("server.auth.secret_env is required in jwt mode")
		}
	case "apikey":
		if cfg.Server.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required in apikey mode")
		}
	case "none":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want jwt|apikey|none", cfg.Server.Auth.Mode)
	}

	switch cfg.Calendar.Source {
	case "sql":
		switch cfg.Calendar.Database.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("calendar.database.driver %q unknown: want postgres|sqlite", cfg.Calendar.Database.Driver)
		}
		if cfg.Calendar.Database.DSN == "" {
			return fmt.Errorf("calendar.database.dsn is required when calendar.source is sql")
		}
	case "file":
		if cfg.Calendar.File == "" {
			return fmt.Errorf("calendar.file is required when calendar.source is file")
		}
	default:
		return fmt.Errorf("calendar.source %q unknown: want sql|file", cfg.Calendar.Source)
	}
	if cfg.Calendar.WindowFactor <= 0 {
		return fmt.Errorf("calendar.window_factor must be positive")
	}

	if cfg.Advisor.Timeout <= 0 {
		return fmt.Errorf("advisor.timeout must be positive")
	}
	if cfg.Advisor.RatePerMinute < 0 {
		return fmt.Errorf("advisor.rate_per_minute must not be negative")
	}
	return nil
}
