package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Profile != "default" || cfg.Placement != "rejection" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected 30m session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.EventRetention != 10000 {
		t.Fatalf("expected retention 10000, got %d", cfg.EventRetention)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MINES_ADDR", ":9090")
	t.Setenv("MINES_PLACEMENT", "shuffle")
	t.Setenv("MINES_SESSION_TTL", "90s")
	t.Setenv("MINES_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.Placement != "shuffle" || cfg.SessionTTL != 90*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("MINES_EVENT_RETENTION", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("MINES_SESSION_TTL", "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
