// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, token verification, abuse protection and observability.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// GuardConfig tunes the per-address abuse guard.
type GuardConfig struct {
	PerSecond     int           // GUARD_PER_SECOND: hard block above this many requests in 1s
	PerMinute     int           // GUARD_PER_MINUTE: warning above this many requests in 60s
	BlockDuration time.Duration // GUARD_BLOCK_DURATION: base blacklist duration
	EscalateAfter int           // GUARD_ESCALATE_AFTER: warnings before an escalated block
	SweepInterval time.Duration // GUARD_SWEEP_INTERVAL
}

// RealtimeConfig tunes the WebSocket channel.
type RealtimeConfig struct {
	EventRPS        float64  // EVENT_RPS: inbound events per second per user
	EventBurst      int      // EVENT_BURST
	MaxContentRunes int      // MAX_CONTENT_RUNES
	AllowedOrigins  []string // WS_ALLOWED_ORIGINS; empty admits any origin
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-messenger-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath       string   // SQLite path
	JWTSecret    string   // HS256 secret for bearer tokens
	AdminSeedIPs []string // admins installed into an empty admin collection

	// Rate limiting of authenticated REST calls
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	Guard    GuardConfig
	Realtime RealtimeConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values and validates the result. Every validation problem is
// reported, joined into one error.
func Load() (Config, error) {
	cfg := fromEnv()
	cfg.normalize()
	return cfg, cfg.Validate()
}

func fromEnv() Config {
	return Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           getenv("GIN_MODE", "release"),

		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogRedact:      getbool("LOG_REDACT", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    getenv("API_BASE_PATH", "/api"),

		DBPath:       getenv("DB_PATH", "messenger.db"),
		JWTSecret:    getenv("JWT_SECRET", ""),
		AdminSeedIPs: splitCSV(getenv("ADMIN_SEED_IPS", "127.0.0.1")),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		Guard: GuardConfig{
			PerSecond:     getint("GUARD_PER_SECOND", 10),
			PerMinute:     getint("GUARD_PER_MINUTE", 60),
			BlockDuration: getdur("GUARD_BLOCK_DURATION", 15*time.Minute),
			EscalateAfter: getint("GUARD_ESCALATE_AFTER", 3),
			SweepInterval: getdur("GUARD_SWEEP_INTERVAL", 5*time.Minute),
		},
		Realtime: RealtimeConfig{
			EventRPS:        getfloat("EVENT_RPS", 10),
			EventBurst:      getint("EVENT_BURST", 20),
			MaxContentRunes: getint("MAX_CONTENT_RUNES", 5000),
			AllowedOrigins:  splitCSV(getenv("WS_ALLOWED_ORIGINS", "")),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-messenger-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
}

func (c *Config) normalize() {
	c.GinMode = strings.ToLower(c.GinMode)
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	c.APIBasePath = normalizeBasePath(c.APIBasePath)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	// server
	check(strings.TrimSpace(c.Port) == "", "PORT must not be empty")
	check(c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		check(true, "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}

	// storage and identity
	check(strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty")
	check(len(c.JWTSecret) < 16, "JWT_SECRET must be at least 16 bytes")
	for _, ip := range c.AdminSeedIPs {
		if _, err := netip.ParseAddr(ip); err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_SEED_IPS: %q is not an IP address", ip))
		}
	}

	// throttling
	check(c.RateRPS < 0, "RATE_RPS must be >= 0")
	check(c.RateBurst < 1, "RATE_BURST must be >= 1")
	check(c.Guard.PerSecond < 1 || c.Guard.PerMinute < 1 || c.Guard.EscalateAfter < 1,
		"GUARD_PER_SECOND, GUARD_PER_MINUTE and GUARD_ESCALATE_AFTER must be >= 1")
	check(c.Guard.BlockDuration <= 0 || c.Guard.SweepInterval <= 0,
		"GUARD_BLOCK_DURATION and GUARD_SWEEP_INTERVAL must be positive durations")
	check(c.Realtime.EventRPS <= 0 || c.Realtime.EventBurst < 1, "EVENT_RPS must be > 0 and EVENT_BURST >= 1")
	check(c.Realtime.MaxContentRunes < 1, "MAX_CONTENT_RUNES must be >= 1")

	// web + telemetry
	check(c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// lookup returns parse(value of k), or def when k is unset, empty or does
// not parse.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func getenv(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

var errNotBool = errors.New("not a boolean")

func getbool(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

// splitCSV splits a comma-separated list, dropping blank items. It returns
// nil for an empty list.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones; blank
// means root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
