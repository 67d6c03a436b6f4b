package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-signing-secret-32bytes-long!")
	t.Setenv("DATABASE_PATH", "./db/database.db")
	t.Setenv("FRONTEND_URL", "http://localhost:5173")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.JWTSecret != "test-signing-secret-32bytes-long!" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "test-signing-secret-32bytes-long!")
	}
	if cfg.DatabasePath != "./db/database.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "./db/database.db")
	}
	if cfg.FrontendURL != "http://localhost:5173" {
		t.Errorf("FrontendURL = %q, want %q", cfg.FrontendURL, "http://localhost:5173")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Token defaults
	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want %v", cfg.AccessTTL, 15*time.Minute)
	}
	if cfg.RefreshTTL != 120*time.Hour {
		t.Errorf("RefreshTTL = %v, want %v", cfg.RefreshTTL, 120*time.Hour)
	}
	if cfg.ResetTTL != 5*time.Minute {
		t.Errorf("ResetTTL = %v, want %v", cfg.ResetTTL, 5*time.Minute)
	}

	// Rate limit defaults
	if cfg.RateLimitMax != 10 {
		t.Errorf("RateLimitMax = %d, want %d", cfg.RateLimitMax, 10)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want %v", cfg.RateLimitWindow, time.Minute)
	}

	// Server defaults
	if cfg.ServerPort != "8000" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8000")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:5173" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:5173")
	}
	if cfg.SMTPPort != 465 {
		t.Errorf("SMTPPort = %d, want %d", cfg.SMTPPort, 465)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should be false outside production")
	}
}

func TestLoad_MissingRequiredVars_ReturnsError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("FRONTEND_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required vars, got nil")
	}

	for _, name := range []string{"JWT_SECRET", "DATABASE_PATH", "FRONTEND_URL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should mention %s", err.Error(), name)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("RATE_LIMIT_MAX", "30")
	t.Setenv("RDT_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AccessTTL != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want %v", cfg.AccessTTL, 30*time.Minute)
	}
	if cfg.RateLimitMax != 30 {
		t.Errorf("RateLimitMax = %d, want %d", cfg.RateLimitMax, 30)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true in production")
	}
}

func TestLoad_InvalidOptionalValues_FallBackToDefaults(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_MAX", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want default %v", cfg.AccessTTL, 15*time.Minute)
	}
	if cfg.RateLimitMax != 10 {
		t.Errorf("RateLimitMax = %d, want default %d", cfg.RateLimitMax, 10)
	}
}
