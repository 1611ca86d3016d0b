package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("server:\n  port: 9090\njwt:\n  secret: testsecret\n  token_expiry: 2h\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.JWT.TokenExpiry != 2*time.Hour {
		t.Errorf("token expiry = %v, want 2h", cfg.JWT.TokenExpiry)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.MaxSizeMB != 100 {
		t.Errorf("max size = %d, want default 100", cfg.Logging.MaxSizeMB)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEDIRETURN_JWT_SECRET", "envsecret")
	t.Setenv("MEDIRETURN_PORT", "7070")
	t.Setenv("MEDIRETURN_DSN", "file:env.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.Secret != "envsecret" {
		t.Errorf("secret = %q, want envsecret", cfg.JWT.Secret)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.DSN != "file:env.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error when jwt secret is unset")
	}
}
