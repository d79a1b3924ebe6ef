// Package logging configures the process-wide structured logger and hands
// out component-scoped child loggers, the way the teacher's internal/logger
// package does for its HTTP service.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global logger instance, configured once via Initialize.
var Log zerolog.Logger

// Initialize sets up the global logger.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().
		Str("service", "software-catalog").
		Logger()

	Log.Info().
		Str("level", logLevel.String()).
		Bool("pretty", pretty).
		Msg("logger initialized")
}

// GetLogger returns the global logger instance, optionally scoped to a
// named component (e.g. "loader.discovery") the way the teacher's
// PluginLogger tags every line with its owning plugin.
func GetLogger(component ...string) *zerolog.Logger {
	if len(component) == 0 || component[0] == "" {
		return &Log
	}
	l := Log.With().Str("component", component[0]).Logger()
	return &l
}

// Loader returns a logger scoped to the plugin loader.
func Loader() *zerolog.Logger {
	l := Log.With().Str("component", "loader").Logger()
	return &l
}

// AppStream returns a logger scoped to the AppStream engine.
func AppStream() *zerolog.Logger {
	l := Log.With().Str("component", "appstream").Logger()
	return &l
}

// Queue returns a logger scoped to the pending-install queue.
func Queue() *zerolog.Logger {
	l := Log.With().Str("component", "queue").Logger()
	return &l
}

// Job returns a logger scoped to job execution.
func Job() *zerolog.Logger {
	l := Log.With().Str("component", "job").Logger()
	return &l
}

// Plugin returns a logger scoped to a single plugin, the way the teacher's
// PluginLogger prefixes every message with "[Plugin: name]".
func Plugin(name string) *zerolog.Logger {
	l := Log.With().Str("component", "plugin").Str("plugin", name).Logger()
	return &l
}

func init() {
	// Sane default so packages that log before main() calls Initialize
	// (e.g. in tests) don't panic on a zero-value logger.
	Log = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
