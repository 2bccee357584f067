// Package config provides configuration management for sigild.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for sigild.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`

	// Signals declares named signals materialized into the registry
	// at startup.
	Signals []SignalConfig `mapstructure:"signals" validate:"dive"`

	// Links declares named links over declared signals.
	Links []LinkConfig `mapstructure:"links" validate:"dive"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"env"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server tuning configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// RateLimit is the fire-endpoint rate limit configuration.
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`

	// WebSocket is the watch-endpoint configuration.
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// HTTPConfig holds HTTP server tuning.
type HTTPConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" validate:"min=0"`
}

// RateLimitConfig throttles fire endpoints.
type RateLimitConfig struct {
	// Enabled enables rate limiting on fire endpoints.
	Enabled bool `mapstructure:"enabled"`

	// RPS is the sustained fires-per-second allowance.
	RPS float64 `mapstructure:"rps" validate:"min=0"`

	// Burst is the burst allowance.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// WebSocketConfig holds watch-stream settings.
type WebSocketConfig struct {
	// AllowedOrigins restricts websocket upgrades; empty allows all.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// MaxClients caps concurrent watch clients.
	MaxClients int `mapstructure:"max_clients" validate:"min=0"`

	// SendBuffer is the per-client outbound buffer size.
	SendBuffer int `mapstructure:"send_buffer" validate:"min=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Exporter string            `mapstructure:"exporter"`
	Endpoint string            `mapstructure:"endpoint"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Headers  map[string]string `mapstructure:"headers"`

	// SampleRatio is the trace sampling ratio in [0, 1].
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"min=0,max=1"`
}

// SignalConfig declares a named signal.
type SignalConfig struct {
	// Name is the registry name for the signal.
	Name string `mapstructure:"name" validate:"required"`

	// Disabled creates the signal with its enabled gate off.
	Disabled bool `mapstructure:"disabled"`
}

// LinkConfig declares a named link over declared signals.
type LinkConfig struct {
	// Name identifies the link on the fire surface.
	Name string `mapstructure:"name" validate:"required"`

	// Members lists registry names of member signals.
	Members []string `mapstructure:"members"`
}

// Addr returns the server bind address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
