package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("CONFIG_FILE")
	os.Unsetenv("PORT")
	os.Unsetenv("QUERY_SERVICE_URL")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port: want=8080 got=%s", cfg.Port)
	}
	if cfg.QueryServiceURL != "http://localhost:8000" {
		t.Fatalf("query url: got=%s", cfg.QueryServiceURL)
	}
	if cfg.AccessTokenTTL.Seconds() != 3600 {
		t.Fatalf("access ttl: got=%v", cfg.AccessTokenTTL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "port: \"9001\"\nquery_service_url: \"http://file:8000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	os.Unsetenv("QUERY_SERVICE_URL")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9002")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9002" {
		t.Fatalf("env should win over file: got=%s", cfg.Port)
	}
	if cfg.QueryServiceURL != "http://file:8000" {
		t.Fatalf("file value should apply when env unset: got=%s", cfg.QueryServiceURL)
	}
}
