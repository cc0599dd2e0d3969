package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PLATFORM", "TIKTOK_RELAY_URL", "AUTO_RECONNECT", "DEDUP_CACHE_SIZE",
		"LIKE_BUNDLE_SIZE", "HEALTH_INTERVAL", "BACKOFF_BASE", "BACKOFF_CAP",
		"RETRY_DELAY", "HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Platform != "tiktok" {
		t.Errorf("Platform = %q, want tiktok", cfg.Platform)
	}
	if cfg.TikTokRelayURL != "ws://localhost:8765/ws" {
		t.Errorf("TikTokRelayURL = %q", cfg.TikTokRelayURL)
	}
	if !cfg.AutoReconnect {
		t.Errorf("AutoReconnect default = false, want true")
	}
	if cfg.DedupCacheSize != 2000 || cfg.LikeBundleSize != 5 {
		t.Errorf("sizes = %d/%d, want 2000/5", cfg.DedupCacheSize, cfg.LikeBundleSize)
	}
	if cfg.BackoffBase != 5*time.Second || cfg.BackoffCap != 60*time.Second || cfg.RetryDelay != 15*time.Second {
		t.Errorf("delays = %v/%v/%v", cfg.BackoffBase, cfg.BackoffCap, cfg.RetryDelay)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PLATFORM", "Twitch")
	t.Setenv("AUTO_RECONNECT", "false")
	t.Setenv("DEDUP_CACHE_SIZE", "100")
	t.Setenv("BACKOFF_CAP", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Platform != "twitch" {
		t.Errorf("Platform = %q, want lowercased twitch", cfg.Platform)
	}
	if cfg.AutoReconnect {
		t.Errorf("AutoReconnect = true, want false")
	}
	if cfg.DedupCacheSize != 100 {
		t.Errorf("DedupCacheSize = %d, want 100", cfg.DedupCacheSize)
	}
	if cfg.BackoffCap != 2*time.Minute {
		t.Errorf("BackoffCap = %v, want 2m", cfg.BackoffCap)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("HEALTH_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Errorf("Load() accepted HEALTH_INTERVAL=soon")
	}
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"YOUR_API_KEY_HERE", false},
		{"your_token", false},
		{"abc123", true},
	}
	for _, tt := range tests {
		if got := IsConfigured(tt.in); got != tt.want {
			t.Errorf("IsConfigured(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateBridgeReady(t *testing.T) {
	cfg := &Config{Platform: "tiktok"}
	if err := cfg.ValidateBridgeReady(); err == nil {
		t.Errorf("tiktok with no unique id validated")
	}
	cfg.TikTokUniqueID = "somecreator"
	if err := cfg.ValidateBridgeReady(); err != nil {
		t.Errorf("tiktok validate error: %v", err)
	}

	cfg = &Config{Platform: "youtube", YouTubeAPIKey: "YOUR_API_KEY_HERE", YouTubeChannelID: "UCx"}
	if err := cfg.ValidateBridgeReady(); err == nil {
		t.Errorf("placeholder api key validated")
	}

	cfg = &Config{Platform: "mixer"}
	if err := cfg.ValidateBridgeReady(); err == nil {
		t.Errorf("unknown platform validated")
	}
}
