package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/streams")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.AdsInterval != DefaultAdsInterval {
		t.Errorf("expected default ads interval, got %d", cfg.AdsInterval)
	}
	if cfg.RecentlyPlayedMax != DefaultRecentlyPlayedMax {
		t.Errorf("expected default ledger cap, got %d", cfg.RecentlyPlayedMax)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("expected DATABASE_URL error, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ADDR", "0.0.0.0:9000")
	t.Setenv("ADS_INTERVAL", "10")
	t.Setenv("RECENTLY_PLAYED_MAX", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9000" {
		t.Errorf("addr override ignored: %q", cfg.Addr)
	}
	if cfg.AdsInterval != 10 {
		t.Errorf("ads interval override ignored: %d", cfg.AdsInterval)
	}
	if cfg.RecentlyPlayedMax != 50 {
		t.Errorf("ledger cap override ignored: %d", cfg.RecentlyPlayedMax)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setRequired(t)

	t.Setenv("ADS_INTERVAL", "lots")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric ADS_INTERVAL")
	}

	t.Setenv("ADS_INTERVAL", "-1")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative ADS_INTERVAL")
	}

	t.Setenv("ADS_INTERVAL", "5")
	t.Setenv("RECENTLY_PLAYED_MAX", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero RECENTLY_PLAYED_MAX")
	}
}
