// Package config loads all runtime settings from the environment, with
// defaults that run out of the box and fail-fast validation for anything a
// deployment overrides: server timeouts, logging and docs, the SQLite path,
// the extraction/synthesis upstream, upload bounds, flow lifetime, rate
// limits, CORS and HSTS posture, idempotency, and tracing.
package config

import (
	"errors"
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

// SommConfig defines settings for the extraction/synthesis upstream.
type SommConfig struct {
	BaseURL          string        // SOMM_BASE_URL (e.g. "https://sommlens-server.example.com")
	ChatPath         string        // SOMM_CHAT_PATH
	ImagePath        string        // SOMM_IMAGE_PATH
	APIKey           string        // SOMM_API_KEY (optional bearer token)
	Model            string        // SOMM_MODEL
	ImageDetail      string        // SOMM_IMAGE_DETAIL (low|high|auto)
	MaxTokens        int           // SOMM_MAX_TOKENS
	SynthesisTemp    float64       // SOMM_SYNTHESIS_TEMPERATURE in [0..2]
	ExtractTimeout   time.Duration // SOMM_EXTRACT_TIMEOUT
	SynthesisTimeout time.Duration // SOMM_SYNTHESIS_TIMEOUT
}

// UploadConfig bounds label-photo uploads and their re-encoding.
type UploadConfig struct {
	MaxBodyBytes int64 // UPLOAD_MAX_BODY_BYTES
	MaxImageEdge int   // UPLOAD_MAX_IMAGE_EDGE (px, longest edge)
	JPEGQuality  int   // UPLOAD_JPEG_QUALITY in [1..100]
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "somm-backend")
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
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath  string        // SQLite path
	Somm    SommConfig    // extraction/synthesis upstream
	Upload  UploadConfig  // image upload bounds
	FlowTTL time.Duration // how long an abandoned tasting flow stays alive

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

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

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "app.db"),
		Somm: SommConfig{
			BaseURL:          getenv("SOMM_BASE_URL", "https://sommlens-server-production.up.railway.app"),
			ChatPath:         getenv("SOMM_CHAT_PATH", "/api/chat"),
			ImagePath:        getenv("SOMM_IMAGE_PATH", "/api/chat/image"),
			APIKey:           getenv("SOMM_API_KEY", ""),
			Model:            getenv("SOMM_MODEL", "gpt-4o"),
			ImageDetail:      strings.ToLower(getenv("SOMM_IMAGE_DETAIL", "low")),
			MaxTokens:        getint("SOMM_MAX_TOKENS", 350),
			SynthesisTemp:    getfloat("SOMM_SYNTHESIS_TEMPERATURE", 0.3),
			ExtractTimeout:   getdur("SOMM_EXTRACT_TIMEOUT", 15*time.Second),
			SynthesisTimeout: getdur("SOMM_SYNTHESIS_TIMEOUT", 15*time.Second),
		},
		Upload: UploadConfig{
			MaxBodyBytes: int64(getint("UPLOAD_MAX_BODY_BYTES", 4<<20)),
			MaxImageEdge: getint("UPLOAD_MAX_IMAGE_EDGE", 576),
			JPEGQuality:  getint("UPLOAD_JPEG_QUALITY", 70),
		},
		FlowTTL: getdur("FLOW_TTL", 2*time.Hour),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "somm-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Somm.BaseURL) == "" {
		return cfg, errors.New("SOMM_BASE_URL must not be empty")
	}
	switch cfg.Somm.ImageDetail {
	case "low", "high", "auto":
	default:
		return cfg, errors.New("SOMM_IMAGE_DETAIL must be one of: low, high, auto")
	}
	if cfg.Somm.MaxTokens <= 0 {
		return cfg, errors.New("SOMM_MAX_TOKENS must be > 0")
	}
	if cfg.Somm.SynthesisTemp < 0 || cfg.Somm.SynthesisTemp > 2 {
		return cfg, errors.New("SOMM_SYNTHESIS_TEMPERATURE must be in [0,2]")
	}
	if cfg.Somm.ExtractTimeout <= 0 || cfg.Somm.SynthesisTimeout <= 0 {
		return cfg, errors.New("somm timeouts must be positive durations")
	}
	if cfg.Upload.MaxBodyBytes <= 0 {
		return cfg, errors.New("UPLOAD_MAX_BODY_BYTES must be > 0")
	}
	if cfg.Upload.MaxImageEdge <= 0 {
		return cfg, errors.New("UPLOAD_MAX_IMAGE_EDGE must be > 0")
	}
	if cfg.Upload.JPEGQuality < 1 || cfg.Upload.JPEGQuality > 100 {
		return cfg, errors.New("UPLOAD_JPEG_QUALITY must be in [1,100]")
	}
	if cfg.FlowTTL <= 0 {
		return cfg, errors.New("FLOW_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// Lookup helpers. Unset and empty variables fall back to the default;
// unparseable values do too, with validation catching anything a default
// cannot paper over.

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getfloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getbool understands the usual spellings on both sides, so ops can write
// "on"/"off" or "yes"/"no" as readily as "true"/"false".
func getbool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

// splitCSV turns a comma-separated variable into trimmed non-empty entries,
// nil when nothing usable remains.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath forces a leading slash and drops any trailing one, so
// "api/v1/" and "/api/v1" configure the same mount point. Empty means root.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
