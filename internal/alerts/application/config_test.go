package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ALERT_REPEAT_INTERVAL", "10m")
	t.Setenv("PUSHOVER_TOKEN", "tok")
	t.Setenv("PUSHOVER_USER", "usr")
	t.Setenv("ALERTS_CONFIG", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RepeatInterval != 10*time.Minute {
		t.Fatalf("repeat = %s, want 10m", cfg.RepeatInterval)
	}
	if cfg.Pushover.Token != "tok" || cfg.Pushover.User != "usr" {
		t.Fatalf("pushover = %+v", cfg.Pushover)
	}
}

func TestLoadConfigFileWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.yaml")
	data := []byte(`repeat_interval: 30m
pushover:
  token: file-token
  user: file-user
  device: tank-room
title_template: "{{.EventLabel}}"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ALERT_REPEAT_INTERVAL", "1m")
	t.Setenv("PUSHOVER_TOKEN", "env-token")
	t.Setenv("PUSHOVER_USER", "env-user")
	t.Setenv("ALERTS_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RepeatInterval != 30*time.Minute {
		t.Fatalf("repeat = %s, want 30m", cfg.RepeatInterval)
	}
	if cfg.Pushover.Token != "file-token" {
		t.Fatalf("token = %q, want file value", cfg.Pushover.Token)
	}
	if cfg.Pushover.Device != "tank-room" {
		t.Fatalf("device = %q", cfg.Pushover.Device)
	}
	if cfg.TitleTemplate != "{{.EventLabel}}" {
		t.Fatalf("title template = %q", cfg.TitleTemplate)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.yaml")
	if err := os.WriteFile(path, []byte("repeat_interval: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ALERTS_CONFIG", path)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unparseable repeat_interval")
	}
}
