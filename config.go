package exitpass

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/MrEthical07/exitpass/session"
)

// Config is the full client configuration. Build one with [DefaultConfig]
// or [LoadConfig] and hand it to [Builder.WithConfig].
type Config struct {
	App      AppConfig      `toml:"app"`
	Endpoint EndpointConfig `toml:"endpoint"`
	Session  SessionConfig  `toml:"session"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Audit    AuditConfig    `toml:"audit"`
	Logging  LoggingConfig  `toml:"logging"`
}

// AppConfig holds presentation settings.
type AppConfig struct {
	Name       string `toml:"name" env:"APP_NAME"`
	PassPrefix string `toml:"pass_prefix" env:"PASS_PREFIX"`
	// VerifyURL is the QR landing page; the pass id is appended as ?id=.
	VerifyURL string `toml:"verify_url" env:"VERIFY_URL"`
}

// EndpointConfig locates the backend.
type EndpointConfig struct {
	URL string `toml:"url" env:"API_URL"`
}

// Session storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// SessionConfig controls where and for how long the session is kept.
type SessionConfig struct {
	Key string `toml:"key" env:"SESSION_KEY"`
	// TimeoutMinutes of 0 disables expiry.
	TimeoutMinutes int    `toml:"timeout_minutes" env:"SESSION_TIMEOUT_MINS"`
	Backend        string `toml:"backend" env:"SESSION_BACKEND"`
	Dir            string `toml:"dir" env:"SESSION_DIR"`
	RedisURL       string `toml:"redis_url" env:"REDIS_URL"`
	RedisPrefix    string `toml:"redis_prefix" env:"REDIS_PREFIX"`
	SQLitePath     string `toml:"sqlite_path" env:"SQLITE_PATH"`
	// SigningKey, when set, seals the stored record with HS256.
	SigningKey string `toml:"signing_key" env:"SIGNING_KEY"`
}

// AuditConfig controls the asynchronous audit trail.
type AuditConfig struct {
	Enabled    bool `toml:"enabled" env:"AUDIT_ENABLED"`
	BufferSize int  `toml:"buffer_size" env:"AUDIT_BUFFER_SIZE"`
	DropIfFull bool `toml:"drop_if_full" env:"AUDIT_DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool `toml:"enabled" env:"METRICS_ENABLED"`
	EnableLatencyHistograms bool `toml:"latency_histograms" env:"METRICS_LATENCY"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"`
}

// DefaultConfig returns the settings used when nothing is configured. The
// endpoint URL has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		App: AppConfig{
			Name:       "Exit Pass",
			PassPrefix: "EP",
		},
		Session: SessionConfig{
			Key:            session.DefaultKey,
			TimeoutMinutes: 60,
			Backend:        BackendFile,
			RedisPrefix:    "exitpass",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first invalid setting, wrapped in [ErrInvalidConfig].
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	// Endpoint
	if strings.TrimSpace(c.Endpoint.URL) == "" {
		return invalid("endpoint url is required")
	}
	u, err := url.Parse(c.Endpoint.URL)
	if err != nil {
		return invalid("endpoint url: %v", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("endpoint url must be an absolute http(s) URL")
	}

	// Session
	if c.Session.TimeoutMinutes < 0 {
		return invalid("session timeout_minutes must be >= 0")
	}
	if strings.TrimSpace(c.Session.Key) == "" {
		return invalid("session key must not be empty")
	}
	switch c.Session.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendRedis:
		if c.Session.RedisURL == "" {
			return invalid("session backend redis requires redis_url")
		}
	default:
		return invalid("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.SigningKey != "" && len(c.Session.SigningKey) < 16 {
		return invalid("session signing_key must be at least 16 bytes")
	}

	// App
	if c.App.VerifyURL != "" {
		v, err := url.Parse(c.App.VerifyURL)
		if err != nil || v.Scheme == "" || v.Host == "" {
			return invalid("app verify_url must be an absolute URL")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("audit buffer_size must be > 0 when audit is enabled")
	}

	// Logging
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return invalid("%v", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return invalid("logging format must be text or json")
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level. Empty means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
