package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "BACKEND_URL", "SESSION_STORE", "SESSION_LIFETIME", "BACKEND_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.HTTPAddr != ":8090" {
		t.Fatalf("expected default HTTP_ADDR, got %s", cfg.HTTPAddr)
	}
	if cfg.BackendURL != "http://localhost:8080" {
		t.Fatalf("expected default BACKEND_URL, got %s", cfg.BackendURL)
	}
	if cfg.SessionStore != "memory" {
		t.Fatalf("expected memory session store, got %s", cfg.SessionStore)
	}
	if cfg.BackendTimeout != 0 {
		t.Fatalf("expected no backend timeout by default, got %s", cfg.BackendTimeout)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18090")
	t.Setenv("BACKEND_URL", "http://cms.internal:9000/")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_LIFETIME", "12h")
	t.Setenv("FORM_IDLE_TIMEOUT", "")
	t.Setenv("FORM_IDLE_TIMEOUT_SECONDS", "90")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("JWT_PUBLIC_KEY", "-----BEGIN PUBLIC KEY-----\\nabc\\n-----END PUBLIC KEY-----")

	cfg := Load()
	if cfg.HTTPAddr != ":18090" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.BackendURL != "http://cms.internal:9000" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.BackendURL)
	}
	if cfg.SessionStore != "redis" {
		t.Fatalf("expected lower-cased session store, got %s", cfg.SessionStore)
	}
	if cfg.SessionLifetime != 12*time.Hour {
		t.Fatalf("expected SESSION_LIFETIME 12h, got %s", cfg.SessionLifetime)
	}
	if cfg.FormIdleTimeout != 90*time.Second {
		t.Fatalf("expected FORM_IDLE_TIMEOUT 90s, got %s", cfg.FormIdleTimeout)
	}
	if !cfg.CookieSecure {
		t.Fatalf("expected COOKIE_SECURE override")
	}
	if strings.Count(cfg.JWTPublicKey, "\n") != 2 {
		t.Fatalf("expected PEM newlines normalized, got %q", cfg.JWTPublicKey)
	}
}

func TestLoadConfigKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte("  pem-from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	t.Setenv("JWT_PUBLIC_KEY_FILE", path)

	cfg := Load()
	if cfg.JWTPublicKey != "pem-from-file" {
		t.Fatalf("expected key from file, got %q", cfg.JWTPublicKey)
	}
}
