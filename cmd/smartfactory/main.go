package main

import (
	"context"
	"flag"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/smartfactory/smartfactory/internal/alerter"
	"github.com/smartfactory/smartfactory/internal/api"
	"github.com/smartfactory/smartfactory/internal/broadcast"
	"github.com/smartfactory/smartfactory/internal/config"
	"github.com/smartfactory/smartfactory/internal/factory"
	"github.com/smartfactory/smartfactory/internal/metrics"
	"github.com/smartfactory/smartfactory/internal/notifier"
	"github.com/smartfactory/smartfactory/internal/storage"
	"github.com/smartfactory/smartfactory/internal/version"
	"github.com/smartfactory/smartfactory/internal/webui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults only when empty)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	flag.Parse()

	// Create log buffer for web UI (captures last 1000 log entries)
	logBuffer := webui.NewLogBuffer(1000)
	logger := newLogger(io.MultiWriter(os.Stdout, logBuffer))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("config_path", *configPath).
			Msg("Failed to load configuration")
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	var rotator *lumberjack.Logger
	if cfg.Logging.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
		logger = newLogger(io.MultiWriter(os.Stdout, logBuffer, rotator))
	}

	logger.Info().
		Str("config_path", *configPath).
		Str("database", cfg.Database.Driver).
		Str("schedule", cfg.Generator.Schedule).
		Int("max_alerts", cfg.Generator.MaxAlerts).
		Msg("Starting Smart Factory")

	db, err := storage.Open(cfg.Database, logger.With().Str("component", "storage").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	hub := broadcast.NewHub(cfg.WebSocket.SendBuffer, logger, m)
	broadcasters := broadcast.Fanout{hub}

	var relay *broadcast.KafkaRelay
	if cfg.Kafka.Enabled {
		relay, err = broadcast.NewKafkaRelay(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Kafka relay")
		}
		broadcasters = append(broadcasters, relay)
	}

	var notify *notifier.Notifier
	if cfg.Notifier.Enabled {
		apiURL := os.Getenv(cfg.Notifier.APIURLEnv)
		if apiURL == "" {
			logger.Warn().
				Str("env", cfg.Notifier.APIURLEnv).
				Msg("Notifier enabled but Apprise API URL is not set, notifications disabled")
		} else {
			notify = notifier.NewNotifier(apiURL, cfg.Notifier.Targets, cfg.Notifier.Severities, logger)
			broadcasters = append(broadcasters, notify)
		}
	}

	alerts := storage.NewAlertStore(db)
	opts := []alerter.Option{alerter.WithMetrics(m)}
	if cfg.Generator.Seed != 0 {
		opts = append(opts, alerter.WithRand(rand.New(rand.NewSource(cfg.Generator.Seed))))
	}
	generator := alerter.NewGenerator(alerts, broadcasters, cfg.Generator.MaxAlerts, logger, opts...)

	scheduler, err := alerter.NewScheduler(cfg.Generator.Schedule, generator.Tick, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create generator schedule")
	}
	scheduler.Start()

	areas := storage.NewAreaStore(db)
	devices := storage.NewDeviceStore(db)
	connections := storage.NewConnectionStore(db)
	factorySvc := factory.NewService(areas, devices, connections, cfg.Factory.RestartDelay, logger)

	apiServer := api.NewServer(cfg, api.Deps{
		Alerts:      alerts,
		Areas:       areas,
		Devices:     devices,
		Connections: connections,
		Generator:   generator,
		Broadcaster: broadcasters,
		Factory:     factorySvc,
		Hub:         hub,
		Metrics:     m,
		Logs:        logBuffer,
	}, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	logger.Info().
		Str("port", cfg.Server.Port).
		Msg("Web UI available")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info().Msg("Smart Factory running, press Ctrl+C to stop")

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := scheduler.Stop(ctx); err != nil {
		logger.Warn().Err(err).Msg("Generator tick still running at shutdown")
	}
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down API server")
	}
	hub.Close()
	factorySvc.Close()
	if notify != nil {
		notify.Wait()
	}
	if relay != nil {
		if err := relay.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing Kafka relay")
		}
	}
	if err := storage.Close(db); err != nil {
		logger.Error().Err(err).Msg("Error closing database")
	}
	if rotator != nil {
		rotator.Close()
	}

	logger.Info().Msg("Smart Factory stopped")
}

func newLogger(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	info := version.Get()
	return zerolog.New(w).With().
		Timestamp().
		Str("version", info.Version).
		Str("commit", info.Commit).
		Logger()
}
