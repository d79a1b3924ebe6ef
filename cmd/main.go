package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/software-center/catalog/internal/config"
	"github.com/software-center/catalog/internal/loader"
	"github.com/software-center/catalog/internal/logging"
	"github.com/software-center/catalog/internal/queue"
)

func main() {
	logLevel := getEnv("LOG_LEVEL", "info")
	logPretty := getEnv("LOG_PRETTY", "true") == "true"
	logging.Initialize(logLevel, logPretty)
	log := logging.GetLogger("main")

	pluginDir := getEnv("CATALOG_PLUGIN_DIR", "./plugins")
	ramTotalMB := config.RAMTotalMB(getEnvInt("CATALOG_DEFAULT_RAM_TOTAL_MB", 4096))
	boundedPoolMax := config.BoundedPoolMax()
	queuePath := getEnv("CATALOG_INSTALL_QUEUE_PATH", queue.DefaultPath())
	overlayPath := getEnv("CATALOG_SETTINGS_PATH", "")

	settings, err := config.Load(overlayPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	log.Info().
		Str("plugin_dir", pluginDir).
		Int("ram_total_mb", ramTotalMB).
		Int("bounded_pool_max", boundedPoolMax).
		Bool("fail_hard", settings.FailHard).
		Msg("starting software catalog")

	discovery := &loader.Discovery{Dirs: []string{pluginDir}}
	plugins := discovery.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := loader.New(ctx, plugins, loader.Config{
		RAMTotalMB:     ramTotalMB,
		BoundedPoolMax: boundedPoolMax,
		FailHard:       settings.FailHard,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct loader")
	}

	q := queue.New(queuePath)
	if err := q.Load(); err != nil {
		log.Error().Err(err).Str("path", queuePath).Msg("failed to load pending-install queue")
	}
	// Network/metered state is owned by a plugin's network-monitor
	// (spec.md §3.6), an external collaborator; this process has none
	// wired up, so Install jobs never divert to the queue on their own.
	// An external monitor would call l.NetworkChanged(blocked) on every
	// transition to drive the auto-flush.
	networkBlocked := false
	l.SetQueue(q, func() bool { return networkBlocked })

	l.Setup(ctx)

	readyCtx, cancelReady := context.WithTimeout(ctx, 30*time.Second)
	defer cancelReady()
	if err := l.WaitReady(readyCtx); err != nil {
		log.Error().Err(err).Msg("plugins did not all finish setup before timeout")
	} else {
		log.Info().Msg("all plugins ready")
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	l.Shutdown(shutdownCtx)

	log.Info().Msg("software catalog stopped")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
