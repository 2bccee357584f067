package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "sigild",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:    30 * time.Second,
				WriteTimeout:   30 * time.Second,
				IdleTimeout:    120 * time.Second,
				MaxHeaderBytes: 1 << 20, // 1MB
			},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
			WebSocket: WebSocketConfig{
				MaxClients: 100,
				SendBuffer: 32,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9091,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "otlp",
			Endpoint:    "localhost:4317",
			Timeout:     10 * time.Second,
			SampleRatio: 1.0,
		},
	}
}

// defaultsMap flattens the default configuration into koanf keys so
// file, env and CLI layers merge on top of it per key.
func defaultsMap() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"app.name":                     d.App.Name,
		"app.environment":              d.App.Environment,
		"app.debug":                    d.App.Debug,
		"server.host":                  d.Server.Host,
		"server.port":                  d.Server.Port,
		"server.http.read_timeout":     d.Server.HTTP.ReadTimeout,
		"server.http.write_timeout":    d.Server.HTTP.WriteTimeout,
		"server.http.idle_timeout":     d.Server.HTTP.IdleTimeout,
		"server.http.max_header_bytes": d.Server.HTTP.MaxHeaderBytes,
		"server.ratelimit.enabled":     d.Server.RateLimit.Enabled,
		"server.ratelimit.rps":         d.Server.RateLimit.RPS,
		"server.ratelimit.burst":       d.Server.RateLimit.Burst,
		"server.websocket.max_clients": d.Server.WebSocket.MaxClients,
		"server.websocket.send_buffer": d.Server.WebSocket.SendBuffer,
		"log.level":                    d.Log.Level,
		"log.format":                   d.Log.Format,
		"log.output":                   d.Log.Output,
		"metrics.enabled":              d.Metrics.Enabled,
		"metrics.port":                 d.Metrics.Port,
		"metrics.path":                 d.Metrics.Path,
		"tracing.enabled":              d.Tracing.Enabled,
		"tracing.exporter":             d.Tracing.Exporter,
		"tracing.endpoint":             d.Tracing.Endpoint,
		"tracing.timeout":              d.Tracing.Timeout,
		"tracing.sample_ratio":         d.Tracing.SampleRatio,
	}
}
