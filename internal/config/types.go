package config

import "time"

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Generator GeneratorConfig `yaml:"generator"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Factory   FactoryConfig   `yaml:"factory"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port         string        `yaml:"port"`
	CORSOrigin   string        `yaml:"cors_origin"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig selects and tunes the persistent store
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // "mysql" or "sqlite"
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	Charset         string        `yaml:"charset"`
	Loc             string        `yaml:"loc"`
	Path            string        `yaml:"path"` // sqlite only
	LogLevel        string        `yaml:"log_level"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	Seed            bool          `yaml:"seed"`
}

// GeneratorConfig controls synthetic alert generation
type GeneratorConfig struct {
	Schedule  string `yaml:"schedule"` // cron expression with seconds field
	MaxAlerts int    `yaml:"max_alerts"`
	Seed      int64  `yaml:"seed"`
}

// WebSocketConfig controls push delivery to dashboards
type WebSocketConfig struct {
	Path       string `yaml:"path"`
	SendBuffer int    `yaml:"send_buffer"`
}

// KafkaConfig enables relaying broadcast events to a topic
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// NotifierConfig routes selected alerts to an Apprise API
type NotifierConfig struct {
	Enabled    bool     `yaml:"enabled"`
	APIURLEnv  string   `yaml:"api_url_env"`
	Targets    []string `yaml:"targets"`
	Severities []string `yaml:"severities"`
}

// LoggingConfig defines log level and optional rotating file output
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig exposes Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// FactoryConfig tunes device control behaviour
type FactoryConfig struct {
	RestartDelay time.Duration `yaml:"restart_delay"`
}
