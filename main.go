// Command pickaxe-bridge connects a live-stream chat to the mining simulation.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects an upstream chat adapter (TikTok relay, Twitch IRC, or YouTube
//     live chat) and keeps the session alive across disconnects.
//   - Classifies comments, gifts, and likes into command requests the
//     simulation drains from per-kind queues.
//   - Optionally persists a contribution leaderboard to Postgres.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status,
//     /leaderboard, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM; queued commands survive shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/pickaxe-bridge/bridge"
	"github.com/onnwee/pickaxe-bridge/command"
	"github.com/onnwee/pickaxe-bridge/config"
	"github.com/onnwee/pickaxe-bridge/contrib"
	"github.com/onnwee/pickaxe-bridge/db"
	"github.com/onnwee/pickaxe-bridge/hud"
	"github.com/onnwee/pickaxe-bridge/server"
	"github.com/onnwee/pickaxe-bridge/telemetry"
	"github.com/onnwee/pickaxe-bridge/upstream"
	"github.com/onnwee/pickaxe-bridge/upstream/tiktokrelay"
	"github.com/onnwee/pickaxe-bridge/upstream/twitchchat"
	"github.com/onnwee/pickaxe-bridge/upstream/youtubelive"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdownTracing, err := telemetry.InitTracing("pickaxe-bridge", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Leaderboard store is optional; without DB_DSN the bridge runs in-memory only.
	var store *contrib.Store
	deps := server.Deps{}
	if cfg.DBDsn != "" {
		database, err := db.Connect()
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		if err := db.Migrate(ctx, database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
		store = contrib.NewStore(database, contrib.DefaultFlushInterval)
		store.Start(ctx)
		deps.DB = database
		deps.Contrib = store
		slog.Info("contribution leaderboard enabled")
	} else {
		slog.Info("DB_DSN not set; contribution leaderboard disabled")
	}

	flasher := hud.New(hud.DefaultFlashWindow)
	deps.Flasher = flasher

	// The bridge only starts when the selected platform has credentials; the
	// HTTP surface stays up either way so probes and metrics keep working.
	if err := cfg.ValidateBridgeReady(); err != nil {
		slog.Warn("bridge disabled", slog.Any("err", err))
	} else {
		bcfg := bridge.Config{
			AutoReconnect:  cfg.AutoReconnect,
			DedupCapacity:  cfg.DedupCacheSize,
			LikeBundleSize: cfg.LikeBundleSize,
			HealthInterval: cfg.HealthInterval,
			BackoffBase:    cfg.BackoffBase,
			BackoffCap:     cfg.BackoffCap,
			RetryDelay:     cfg.RetryDelay,
			Triggers:       flasher,
		}
		if store != nil {
			bcfg.Contributions = store
		}
		b := bridge.New(bcfg, platformFactory(cfg), command.NewQueues())
		b.Start(ctx)
		deps.Bridge = b
		slog.Info("bridge started", slog.String("platform", cfg.Platform))
	}

	go func() {
		if err := server.Start(ctx, deps, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	if deps.Bridge != nil {
		<-deps.Bridge.Done()
	}
}

// platformFactory returns an upstream factory building a fresh client per
// connection attempt for the configured platform.
func platformFactory(cfg *config.Config) upstream.Factory {
	switch cfg.Platform {
	case "twitch":
		return func() (upstream.Client, error) {
			return twitchchat.New(cfg.TwitchChannel, cfg.TwitchBotUsername, cfg.TwitchOAuthToken), nil
		}
	case "youtube":
		return func() (upstream.Client, error) {
			return youtubelive.New(cfg.YouTubeAPIKey, cfg.YouTubeChannelID), nil
		}
	default:
		return func() (upstream.Client, error) {
			return tiktokrelay.New(cfg.TikTokRelayURL, cfg.TikTokUniqueID), nil
		}
	}
}
