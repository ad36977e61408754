package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets the variables Load reads and restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DB", "LOG_LEVEL", "LOG_FORMAT", "ADMIN_PASSWORD", "BASE_URL", "POLL_INTERVAL", "TICK_INTERVAL"} {
		name := EnvPrefix + "_" + key
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Port)
	}
	if cfg.DB != "pokerleague.db" {
		t.Errorf("expected default db, got %q", cfg.DB)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("expected 1s tick interval, got %s", cfg.TickInterval)
	}
	if cfg.AdminPassword != "" {
		t.Error("expected no admin password by default")
	}
	if cfg.Addr() != ":8081" {
		t.Errorf("expected :8081, got %s", cfg.Addr())
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "pokerleague.yaml", `
port: 9090
db: /data/season.db
log_level: debug
poll_interval: 5
tick_interval: 500ms
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9090 || cfg.DB != "/data/season.db" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.PollInterval != 5 {
		t.Errorf("expected poll interval 5, got %d", cfg.PollInterval)
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms tick, got %s", cfg.TickInterval)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "pokerleague.yaml", "port: 9090\n")
	t.Setenv("POKERLEAGUE_PORT", "7000")
	t.Setenv("POKERLEAGUE_BASE_URL", "http://10.0.0.5:7000")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 7000 {
		t.Errorf("expected env port 7000, got %d", cfg.Port)
	}
	if cfg.BaseURL != "http://10.0.0.5:7000" {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".env", "POKERLEAGUE_ADMIN_PASSWORD=river-flop-ace\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AdminPassword != "river-flop-ace" {
		t.Errorf("expected password from .env, got %q", cfg.AdminPassword)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "pokerleague.yaml", "port: [not a number\n")

	if _, err := Load(dir); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Port: 8081, DB: "x.db", TickInterval: time.Second}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "port"},
		{"empty db", func(c *Config) { c.DB = "" }, "db"},
		{"poll interval", func(c *Config) { c.PollInterval = 61 }, "poll_interval"},
		{"tick interval", func(c *Config) { c.TickInterval = time.Millisecond }, "tick_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %s error, got %v", tt.want, err)
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
