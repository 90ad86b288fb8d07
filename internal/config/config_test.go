package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"STORE_DRIVER", "HTTP_TIMEOUT", "MEMBER_MAX_PAGES", "WEALTH_MAX_PAGES", "WEALTH_THRESHOLD", "RANK_WORKERS", "SEARCH_COOLDOWN", "ROBLOX_GROUPS_URL", "ROBLOX_INVENTORY_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("HTTP_TIMEOUT", "15s")
	t.Setenv("SEARCH_COOLDOWN", "0s")
	t.Setenv("ROBLOX_GROUPS_URL", "https://groups.roblox.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MemberMaxPages != 100 || cfg.WealthMaxPages != 50 {
		t.Errorf("unexpected page bounds %d/%d", cfg.MemberMaxPages, cfg.WealthMaxPages)
	}
	if cfg.WealthThreshold != 10000 {
		t.Errorf("unexpected threshold %d", cfg.WealthThreshold)
	}
	if cfg.RankWorkers != 1 {
		t.Errorf("expected sequential ranking by default, got %d workers", cfg.RankWorkers)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("unexpected timeout %v", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_TIMEOUT", "15s")
	t.Setenv("SEARCH_COOLDOWN", "0s")

	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown store driver")
	}

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RANK_WORKERS", "many")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric RANK_WORKERS")
	}

	t.Setenv("RANK_WORKERS", "4")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for redis store without REDIS_URL")
	}
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " http://a.test , ,http://b.test"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", got)
	}
	if got := (&Config{}).Origins(); len(got) != 1 || got[0] != "http://localhost:3000" {
		t.Errorf("unexpected default origins %v", got)
	}
}
