package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode names the credential directory requested at startup.
type Mode string

const (
	ModeMock     Mode = "mock"
	ModeExternal Mode = "external"
	// ModeHybrid tries the external directory and falls back to the mock.
	ModeHybrid Mode = "hybrid"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// PhaseBuild marks a build-time run that must not reach external services.
	PhaseBuild = "build"
)

// Config centralises runtime configuration.
type Config struct {
	HTTPPort string
	AppURL   string
	Env      string
	Phase    string
	Mode     Mode

	DatabaseURL string

	MongoURI            string
	MongoDatabase       string
	MongoUsername       string
	MongoPassword       string
	MongoConnectTimeout time.Duration

	JWTSecret string
	JWTIssuer string
	JWTExpiry time.Duration

	AllowedOrigins  []string
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	TokenCleanupInterval time.Duration
	FixturePassword      string

	LogLevel string
	LogDev   bool
	LogFile  string
}

// devJWTSecret signs sessions outside production when no secret is configured.
const devJWTSecret = "dev-only-insecure-secret"

// Load reads configuration from environment variables providing sane defaults.
// A .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (Config, error) {
	httpPort := getEnv("HTTP_PORT", "")
	if httpPort == "" {
		httpPort = getEnv("PORT", "8080")
	}

	env := strings.ToLower(getEnv("APP_ENV", EnvDevelopment))
	mode, err := parseMode(getEnv("APP_MODE", string(ModeHybrid)))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort: httpPort,
		AppURL:   strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		Env:      env,
		Phase:    strings.ToLower(getEnv("APP_PHASE", "")),
		Mode:     mode,

		DatabaseURL: coerceDatabaseURL(getEnv("DATABASE_URL", "")),

		MongoURI:            getEnv("MONGO_URI", ""),
		MongoDatabase:       getEnv("MONGO_DATABASE", ""),
		MongoUsername:       getEnv("MONGO_USERNAME", ""),
		MongoPassword:       getEnv("MONGO_PASSWORD", ""),
		MongoConnectTimeout: getDurationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "auth-boilerplate"),
		JWTExpiry: getDurationEnv("JWT_EXPIRY", 12*time.Hour),

		AllowedOrigins:  splitCSV(getEnv("ALLOWED_ORIGINS", "*")),
		ReadTimeoutSec:  getIntEnv("HTTP_READ_TIMEOUT_SEC", 15),
		WriteTimeoutSec: getIntEnv("HTTP_WRITE_TIMEOUT_SEC", 15),
		IdleTimeoutSec:  getIntEnv("HTTP_IDLE_TIMEOUT_SEC", 60),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "noreply@example.com"),

		TokenCleanupInterval: getDurationEnv("TOKEN_CLEANUP_INTERVAL", time.Hour),
		FixturePassword:      getEnv("MOCK_FIXTURE_PASSWORD", ""),

		LogLevel: getEnv("LOG_LEVEL", ""),
		LogDev:   getBoolEnv("LOG_DEV", false),
		LogFile:  getEnv("LOG_FILE", ""),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.LogDev {
			cfg.LogLevel = "debug"
		}
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsBuildPhase reports whether the process runs as part of a build.
func (c Config) IsBuildPhase() bool {
	return c.Phase == PhaseBuild
}

func parseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeMock, ModeExternal, ModeHybrid:
		return m, nil
	case "":
		return ModeHybrid, nil
	default:
		return "", fmt.Errorf("APP_MODE %q: want mock, external or hybrid", raw)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	}
	if strings.HasPrefix(raw, "postgres://") {
		return raw
	}
	return ""
}
