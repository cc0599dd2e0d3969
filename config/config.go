// Package config loads environment variables and provides a typed Config used
// across the service. It applies sensible defaults so the binary can run
// locally with minimal setup. For required platform credentials, use
// ValidateBridgeReady.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Platform selects the upstream adapter: tiktok, twitch, or youtube.
	Platform string

	// TikTok
	TikTokUniqueID string
	TikTokRelayURL string

	// Twitch
	TwitchChannel     string
	TwitchBotUsername string
	TwitchOAuthToken  string

	// YouTube
	YouTubeAPIKey    string
	YouTubeChannelID string

	// Bridge tuning
	AutoReconnect  bool
	DedupCacheSize int
	LikeBundleSize int
	HealthInterval time.Duration
	BackoffBase    time.Duration
	BackoffCap     time.Duration
	RetryDelay     time.Duration

	// HTTP
	HTTPAddr string

	// Database (empty disables the leaderboard store)
	DBDsn string
}

// Load reads environment variables and applies defaults. It doesn't fail when
// platform credentials are missing; use ValidateBridgeReady() when you require
// a live connection. Missing optional variables disable features (e.g., the
// leaderboard when DB_DSN is unset).
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Platform = strings.ToLower(os.Getenv("PLATFORM"))
	if cfg.Platform == "" {
		cfg.Platform = "tiktok"
	}

	cfg.TikTokUniqueID = os.Getenv("TIKTOK_UNIQUE_ID")
	cfg.TikTokRelayURL = os.Getenv("TIKTOK_RELAY_URL")
	if cfg.TikTokRelayURL == "" {
		cfg.TikTokRelayURL = "ws://localhost:8765/ws"
	}

	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")
	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")

	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	cfg.YouTubeChannelID = os.Getenv("YOUTUBE_CHANNEL_ID")

	cfg.AutoReconnect = true
	if v := os.Getenv("AUTO_RECONNECT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_RECONNECT: %w", err)
		}
		cfg.AutoReconnect = b
	}

	var err error
	if cfg.DedupCacheSize, err = intEnv("DEDUP_CACHE_SIZE", 2000); err != nil {
		return nil, err
	}
	if cfg.LikeBundleSize, err = intEnv("LIKE_BUNDLE_SIZE", 5); err != nil {
		return nil, err
	}
	if cfg.HealthInterval, err = durEnv("HEALTH_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.BackoffBase, err = durEnv("BACKOFF_BASE", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BackoffCap, err = durEnv("BACKOFF_CAP", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = durEnv("RETRY_DELAY", 15*time.Second); err != nil {
		return nil, err
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (duration): %w", key, err)
	}
	return d, nil
}

// IsConfigured reports whether v looks like a real value rather than an unset
// variable or a template placeholder left in the env file.
func IsConfigured(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.HasPrefix(strings.ToUpper(v), "YOUR_")
}

// ValidateBridgeReady checks the credentials the selected platform requires.
func (c *Config) ValidateBridgeReady() error {
	switch c.Platform {
	case "tiktok":
		if !IsConfigured(c.TikTokUniqueID) {
			return fmt.Errorf("missing tiktok env: require TIKTOK_UNIQUE_ID")
		}
	case "twitch":
		if !IsConfigured(c.TwitchChannel) || !IsConfigured(c.TwitchBotUsername) || !IsConfigured(c.TwitchOAuthToken) {
			return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN")
		}
	case "youtube":
		if !IsConfigured(c.YouTubeAPIKey) || !IsConfigured(c.YouTubeChannelID) {
			return fmt.Errorf("missing youtube env: require YOUTUBE_API_KEY, YOUTUBE_CHANNEL_ID")
		}
	default:
		return fmt.Errorf("unknown PLATFORM %q: want tiktok, twitch, or youtube", c.Platform)
	}
	return nil
}
