package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer       string // Issuer claim for session tokens
	DatabaseFile string // Path to SQLite database file (default: ./authd.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)
	SigningKey   string // Path to Ed25519 PKCS8 PEM; generated on first boot if absent

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	// Authentication policy. Defaults preserve compatibility with the
	// deployed clients; change with care.
	LockoutThreshold  int           // Failed attempts before a lock (default: 5)
	LockoutWindow     time.Duration // Lock duration once triggered (default: 15m)
	ChallengeTTL      time.Duration // Challenge token lifetime (default: 10m)
	SessionTTL        time.Duration // Session token lifetime (default: 1h)
	RotationThreshold time.Duration // Remaining validity that triggers rotation (default: 5m)
	TOTPSkewSteps     int           // TOTP steps accepted either side of now (default: 1)
	CodeTTL           time.Duration // Email/reset code lifetime (default: 30m)
	TOTPIssuer        string        // Issuer label in authenticator apps (default: Micrositio)

	AdminEmail string // Recipient for admin alerts; empty disables alerting

	// AllowlistSeed holds comma-separated "matricula:email" pairs inserted
	// into the registration allowlist at startup. Existing entries are kept.
	AllowlistSeed string

	// SMTP settings. An empty host selects the log-only mail sender.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("AUTH_ISSUER", "micrositio-authd"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "authd.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		SigningKey:   getEnvOrDefault("AUTH_SIGNING_KEY_FILE", "signing.pem"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		LockoutThreshold:  getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", 5),
		LockoutWindow:     getEnvDurationOrDefault("AUTH_LOCKOUT_WINDOW", 15*time.Minute),
		ChallengeTTL:      getEnvDurationOrDefault("AUTH_CHALLENGE_TTL", 10*time.Minute),
		SessionTTL:        getEnvDurationOrDefault("AUTH_SESSION_TTL", 1*time.Hour),
		RotationThreshold: getEnvDurationOrDefault("AUTH_ROTATION_THRESHOLD", 5*time.Minute),
		TOTPSkewSteps:     getEnvIntOrDefault("AUTH_TOTP_SKEW_STEPS", 1),
		CodeTTL:           getEnvDurationOrDefault("AUTH_CODE_TTL", 30*time.Minute),
		TOTPIssuer:        getEnvOrDefault("AUTH_TOTP_ISSUER", "Micrositio"),

		AdminEmail: os.Getenv("AUTH_ADMIN_EMAIL"),

		AllowlistSeed: os.Getenv("AUTH_ALLOWLIST_SEED"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@micrositio.example"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
