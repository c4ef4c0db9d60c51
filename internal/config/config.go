package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Session       SessionConfig
	ActiveOrg     ActiveOrgConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// UIDir, when set, is served as the web front-end.
	UIDir string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the connection used by the redis session store
type RedisConfig struct {
	URL string
}

// Session store backends
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// SessionConfig holds session management configuration
type SessionConfig struct {
	Store          string
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite string
	Lifetime       time.Duration
	IdleTimeout    time.Duration
}

// ActiveOrgConfig holds the signed active-organization cookie settings
type ActiveOrgConfig struct {
	CookieName string
	SigningKey string
	Lifetime   time.Duration
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
	AuditDecisions bool
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	Argon2Memory       uint32
	Argon2Iterations   uint32
	Argon2Parallelism  uint8
	Argon2SaltLength   uint32
	Argon2KeyLength    uint32
	LockoutMaxAttempts int
	LockoutDuration    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         envString("SERVER_HOST", "0.0.0.0"),
			Port:         envString("SERVER_PORT", "8080"),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			UIDir:        envString("UI_DIR", ""),
		},
		Database: DatabaseConfig{
			Host:            envString("DB_HOST", "localhost"),
			Port:            envString("DB_PORT", "5432"),
			User:            envString("DB_USER", "shopfloor"),
			Password:        envString("DB_PASSWORD", ""),
			Database:        envString("DB_NAME", "shopfloor"),
			SSLMode:         envString("DB_SSLMODE", "disable"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: envString("REDIS_URL", "redis://localhost:6379/0"),
		},
		Session: SessionConfig{
			Store:          envString("SESSION_STORE", SessionStorePostgres),
			CookieName:     envString("SESSION_COOKIE_NAME", "shopfloor_session"),
			CookieDomain:   envString("SESSION_COOKIE_DOMAIN", ""),
			CookiePath:     envString("SESSION_COOKIE_PATH", "/"),
			CookieSecure:   envBool("SESSION_COOKIE_SECURE", false),
			CookieHTTPOnly: envBool("SESSION_COOKIE_HTTP_ONLY", true),
			CookieSameSite: envString("SESSION_COOKIE_SAME_SITE", "Lax"),
			Lifetime:       envDuration("SESSION_LIFETIME", 24*time.Hour),
			IdleTimeout:    envDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
		ActiveOrg: ActiveOrgConfig{
			CookieName: envString("ACTIVE_ORG_COOKIE_NAME", "shopfloor_org"),
			SigningKey: envString("ACTIVE_ORG_SIGNING_KEY", ""),
			Lifetime:   envDuration("ACTIVE_ORG_LIFETIME", 720*time.Hour),
		},
		Observability: ObservabilityConfig{
			LogLevel:       envString("LOG_LEVEL", "info"),
			LogFormat:      envString("LOG_FORMAT", "json"),
			OTELEnabled:    envBool("OTEL_ENABLED", false),
			ServiceName:    envString("OTEL_SERVICE_NAME", "shopfloor"),
			ServiceVersion: envString("OTEL_SERVICE_VERSION", "0.1.0"),
			AuditDecisions: envBool("AUDIT_DECISIONS", false),
		},
		Security: SecurityConfig{
			Argon2Memory:       uint32(envInt("ARGON2_MEMORY", 65536)),
			Argon2Iterations:   uint32(envInt("ARGON2_ITERATIONS", 3)),
			Argon2Parallelism:  uint8(envInt("ARGON2_PARALLELISM", 4)),
			Argon2SaltLength:   uint32(envInt("ARGON2_SALT_LENGTH", 16)),
			Argon2KeyLength:    uint32(envInt("ARGON2_KEY_LENGTH", 32)),
			LockoutMaxAttempts: envInt("SECURITY_LOCKOUT_MAX_ATTEMPTS", 5),
			LockoutDuration:    envDuration("SECURITY_LOCKOUT_DURATION", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: float64(envInt("RATELIMIT_RPS", 10)),
			Burst:             envInt("RATELIMIT_BURST", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if len(c.ActiveOrg.SigningKey) < 32 {
		errs = append(errs, errors.New("ACTIVE_ORG_SIGNING_KEY must be at least 32 bytes"))
	}
	switch c.Session.Store {
	case SessionStorePostgres:
	case SessionStoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", c.Session.Store))
	}
	if c.Session.Lifetime <= 0 {
		errs = append(errs, errors.New("SESSION_LIFETIME must be positive"))
	}
	if c.ActiveOrg.Lifetime <= 0 {
		errs = append(errs, errors.New("ACTIVE_ORG_LIFETIME must be positive"))
	}
	return errors.Join(errs...)
}

// SameSiteMode maps SESSION_COOKIE_SAME_SITE to its http constant. Unknown
// values mean Lax.
func (c SessionConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

// envDuration falls back to the default on malformed input rather than
// failing startup.
func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
