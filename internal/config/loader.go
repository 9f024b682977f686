package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/smartfactory/smartfactory/internal/types"
)

// DefaultSchedule fires a generator tick every 30 seconds
const DefaultSchedule = "*/30 * * * * *"

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "3000",
			CORSOrigin:   "http://localhost:5173",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			Host:            "localhost",
			Port:            3306,
			Username:        "root",
			Password:        "root",
			Database:        "smartfactory_db",
			Charset:         "utf8mb4",
			Loc:             "Local",
			Path:            "smartfactory.db",
			LogLevel:        "warn",
			SlowThreshold:   200 * time.Millisecond,
			MaxIdleConns:    5,
			MaxOpenConns:    20,
			ConnMaxLifetime: time.Hour,
			AutoMigrate:     true,
		},
		Generator: GeneratorConfig{
			Schedule:  DefaultSchedule,
			MaxAlerts: 10,
		},
		WebSocket: WebSocketConfig{
			Path:       "/ws/alerts",
			SendBuffer: 32,
		},
		Kafka: KafkaConfig{
			Topic: "factory-alerts",
		},
		Notifier: NotifierConfig{
			APIURLEnv:  "APPRISE_API_URL",
			Severities: []string{"error"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Factory: FactoryConfig{
			RestartDelay: time.Second,
		},
	}
}

// LoadConfig loads configuration from path on top of the defaults.
// An empty path returns the defaults with environment overrides applied.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	// Explicit zeros in the file fall back to defaults
	if cfg.Generator.Schedule == "" {
		cfg.Generator.Schedule = DefaultSchedule
	}
	if cfg.Generator.MaxAlerts == 0 {
		cfg.Generator.MaxAlerts = 10
	}
	if cfg.WebSocket.SendBuffer == 0 {
		cfg.WebSocket.SendBuffer = 32
	}
	if cfg.WebSocket.Path == "" {
		cfg.WebSocket.Path = "/ws/alerts"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Factory.RestartDelay == 0 {
		cfg.Factory.RestartDelay = time.Second
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadYAML loads a YAML file into a struct
func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// applyEnv overrides file values with the deployment environment
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &cfg.Server.Port)
	str("CORS_ORIGIN", &cfg.Server.CORSOrigin)
	str("DB_DRIVER", &cfg.Database.Driver)
	str("DB_HOST", &cfg.Database.Host)
	str("DB_USERNAME", &cfg.Database.Username)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_DATABASE", &cfg.Database.Database)
	str("DB_PATH", &cfg.Database.Path)

	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		brokers := strings.Split(v, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		cfg.Kafka.Brokers = brokers
		cfg.Kafka.Enabled = true
	}

	return nil
}

// ValidateConfig validates the configuration
func ValidateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	switch cfg.Database.Driver {
	case "mysql":
		if cfg.Database.Host == "" {
			return fmt.Errorf("database.host is required for mysql")
		}
		if cfg.Database.Database == "" {
			return fmt.Errorf("database.database is required for mysql")
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("database.driver must be 'mysql' or 'sqlite', got %q", cfg.Database.Driver)
	}

	switch cfg.Database.LogLevel {
	case "", "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("database.log_level must be one of silent, error, warn, info")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cfg.Generator.Schedule); err != nil {
		return fmt.Errorf("generator.schedule: %w", err)
	}
	if cfg.Generator.MaxAlerts < 1 {
		return fmt.Errorf("generator.max_alerts must be > 0")
	}

	if !strings.HasPrefix(cfg.WebSocket.Path, "/") {
		return fmt.Errorf("websocket.path must start with '/'")
	}
	if cfg.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("websocket.send_buffer must be > 0")
	}

	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if cfg.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}

	if cfg.Notifier.Enabled {
		if cfg.Notifier.APIURLEnv == "" {
			return fmt.Errorf("notifier.api_url_env is required when notifier is enabled")
		}
		if len(cfg.Notifier.Targets) == 0 {
			return fmt.Errorf("notifier.targets is required when notifier is enabled")
		}
		for _, sev := range cfg.Notifier.Severities {
			if _, err := types.ParseSeverity(strings.ToLower(sev)); err != nil {
				return fmt.Errorf("notifier.severities: %w", err)
			}
		}
	}

	return nil
}
