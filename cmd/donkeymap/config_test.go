package main

import (
	"os"
	"path/filepath"
	"testing"

	"donkeymap/pkg/types"
)

func TestProcessConfig(t *testing.T) {
	t.Setenv("TEST_DATABASE_URL", "postgres://app@localhost/donkeys")
	t.Setenv("TEST_POINTS_MAX", "80")

	cfg, err := processConfig("TEST")
	if err != nil {
		t.Fatalf("processConfig() error = %v", err)
	}

	if cfg.DatabaseURL != "postgres://app@localhost/donkeys" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.PointsMax != 80 || cfg.PointsBase != 50 {
		t.Fatalf("points = base %d max %d", cfg.PointsBase, cfg.PointsMax)
	}
	if cfg.ServerPort != 8080 || cfg.OTPCooldownSec != 60 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.AuthConfigured() || cfg.ServiceConfigured() {
		t.Fatalf("optional credentials should be unset")
	}
}

func TestProcessConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("EMPTY_DATABASE_URL", "")

	if _, err := processConfig("EMPTY"); err == nil {
		t.Fatal("processConfig() should fail without a database url")
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DOTENV_DATABASE_URL=postgres://from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_DATABASE_URL", "")
	os.Unsetenv("DOTENV_DATABASE_URL")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile() error = %v", err)
	}

	cfg, err := processConfig("DOTENV")
	if err != nil {
		t.Fatalf("processConfig() error = %v", err)
	}
	if cfg.DatabaseURL != "postgres://from-file" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestRedactConfig(t *testing.T) {
	cfg := &types.Config{
		DatabaseURL:     "postgres://secret",
		CookieHashKey:   "hash",
		CognitoClientID: "public-client",
	}

	out := redactConfig(cfg)
	if out.DatabaseURL != redacted || out.CookieHashKey != redacted {
		t.Fatalf("secrets not redacted: %+v", out)
	}
	if out.CookieBlockKey != "" {
		t.Fatalf("empty secret should stay empty")
	}
	if out.CognitoClientID != "public-client" {
		t.Fatalf("public values should be kept")
	}
	if cfg.DatabaseURL != "postgres://secret" {
		t.Fatalf("original config was modified")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger(&types.Config{LogLevel: "loud"}); err == nil {
		t.Fatal("newLogger() should reject an unknown level")
	}
}
