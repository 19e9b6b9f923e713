package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr           string
	BackendURL         string
	BackendTimeout     time.Duration
	JWTPublicKey       string
	JWTSecret          string
	JWTIssuer          string
	SessionStore       string
	SessionLifetime    time.Duration
	SessionIdleTimeout time.Duration
	CookieSecure       bool
	RedisAddr          string
	RedisPassword      string
	DatabaseURL        string
	FormIdleTimeout    time.Duration
	CleanupInterval    time.Duration
	LogLevel           string
	LogFormat          string
}

func Load() Config {
	return Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":8090"),
		BackendURL:         strings.TrimRight(getenv("BACKEND_URL", "http://localhost:8080"), "/"),
		BackendTimeout:     getenvDuration("BACKEND_TIMEOUT", 0),
		JWTPublicKey:       getenvKey("JWT_PUBLIC_KEY", ""),
		JWTSecret:          getenv("JWT_SECRET", ""),
		JWTIssuer:          getenv("JWT_ISSUER", ""),
		SessionStore:       strings.ToLower(getenv("SESSION_STORE", "memory")),
		SessionLifetime:    getenvDuration("SESSION_LIFETIME", 24*time.Hour),
		SessionIdleTimeout: getenvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		CookieSecure:       getenvBool("COOKIE_SECURE", false),
		RedisAddr:          getenv("REDIS_ADDR", ""),
		RedisPassword:      getenv("REDIS_PASSWORD", ""),
		DatabaseURL:        getenv("DATABASE_URL", ""),
		FormIdleTimeout:    getenvDuration("FORM_IDLE_TIMEOUT", 30*time.Minute),
		CleanupInterval:    getenvDuration("CLEANUP_INTERVAL", 5*time.Minute),
		LogLevel:           strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getenv("LOG_FORMAT", "json")),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvKey(key, fallback string) string {
	if file := os.Getenv(key + "_FILE"); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			return normalizePEM(string(data))
		}
	}
	if val := os.Getenv(key); val != "" {
		return normalizePEM(val)
	}
	return fallback
}

func normalizePEM(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "\\n") && !strings.Contains(value, "\n") {
		value = strings.ReplaceAll(value, "\\n", "\n")
	}
	return value
}
