package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Prefetch != 256 {
		t.Errorf("expected default prefetch 256, got %d", s.Prefetch)
	}
	if s.StrictResourceSupply {
		t.Error("strict resource supply should default to off")
	}
	if s.Logging.Level != "warn" {
		t.Errorf("expected default log level warn, got %s", s.Logging.Level)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STREAMKIT_PREFETCH", "32")
	t.Setenv("STREAMKIT_STRICT_RESOURCE_SUPPLY", "true")
	t.Setenv("STREAMKIT_LOGGING_LEVEL", "debug")

	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Prefetch != 32 {
		t.Errorf("expected prefetch 32, got %d", s.Prefetch)
	}
	if !s.StrictResourceSupply {
		t.Error("expected strict resource supply enabled")
	}
	if s.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", s.Logging.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "prefetch: 64\nlogging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatal(err)
	}
	if s.Prefetch != 64 {
		t.Errorf("expected prefetch 64 from file, got %d", s.Prefetch)
	}
	if s.Logging.Level != "error" {
		t.Errorf("expected level error from file, got %s", s.Logging.Level)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STREAMKIT_PREFETCH=16\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(WithEnvFile(path))
	if err != nil {
		t.Fatal(err)
	}
	if s.Prefetch != 16 {
		t.Errorf("expected prefetch 16 from .env, got %d", s.Prefetch)
	}
	os.Unsetenv("STREAMKIT_PREFETCH")
}

func TestLoad_InvalidPrefetch(t *testing.T) {
	t.Setenv("STREAMKIT_PREFETCH", "-1")
	if _, err := Load(); err == nil {
		t.Error("expected validation error for negative prefetch")
	}
}

func TestSetDefaults(t *testing.T) {
	old := Defaults()
	defer SetDefaults(old)

	SetDefaults(&Settings{Prefetch: 8, StrictResourceSupply: true})
	if Defaults().Prefetch != 8 {
		t.Errorf("expected prefetch 8, got %d", Defaults().Prefetch)
	}
	if !Defaults().StrictResourceSupply {
		t.Error("expected strict mode set")
	}
}
