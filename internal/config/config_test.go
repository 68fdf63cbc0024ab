package config

import (
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Autosave.Debounce != 500*time.Millisecond {
		t.Fatalf("debounce = %v", cfg.Autosave.Debounce)
	}
	if cfg.KV.Backend != "sqlite" {
		t.Fatalf("backend = %q", cfg.KV.Backend)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STUDYPLANNER_KV_BACKEND", "redis")
	t.Setenv("STUDYPLANNER_AUTOSAVE_DEBOUNCE", "2s")
	t.Setenv("STUDYPLANNER_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KV.Backend != "redis" {
		t.Fatalf("backend = %q", cfg.KV.Backend)
	}
	if cfg.Autosave.Debounce != 2*time.Second {
		t.Fatalf("debounce = %v", cfg.Autosave.Debounce)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Fatalf("chat id = %d", cfg.Telegram.ChatID)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":  func(c *Config) { c.KV.Backend = "leveldb" },
		"debounce": func(c *Config) { c.Autosave.Debounce = 0 },
		"notes":    func(c *Config) { c.Notes.MaxSizeBytes = 0 },
		"db path":  func(c *Config) { c.Database.Path = " " },
		"output":   func(c *Config) { c.Logger.Output = "syslog" },
		"log file": func(c *Config) { c.Logger.Output = "file" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
