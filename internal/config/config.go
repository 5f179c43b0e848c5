// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the archival system.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Archiver ArchiverConfig
	Tracker  TrackerConfig
	Storage  StorageConfig
	Notify   NotifyConfig
	EventBus EventBusConfig
	Logging  LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// ArchiverConfig contains the archival worker pool configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ArchiverConfig struct {
	Workers int

	// LeaseTimeout protects a claimed scheduled archival from being
	// re-claimed while a worker processes it. Sized to cover worst-case
	// download duration.
	LeaseTimeout time.Duration

	// ErrorBackoff delays the retry of an archival whose metadata
	// resolution failed. Longer than the lease, sized around external
	// service outages.
	ErrorBackoff time.Duration

	IdleInterval time.Duration
	TempDir      string
	SkipDownload bool
}

// TrackerConfig contains the discovery worker pool configuration.
type TrackerConfig struct {
	Workers int

	// RecheckInterval doubles as the claim lease on a tracked collection:
	// a claimed collection becomes eligible again once it has elapsed.
	RecheckInterval time.Duration

	IdleInterval time.Duration
}

// StorageConfig selects and configures the blob store backend.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type StorageConfig struct {
	Backend     string // "disk" or "gcs"
	Location    string // disk: directory for stored files
	Bucket      string // gcs: bucket name
	URLTTL      time.Duration
	CacheMaxAge time.Duration
}

// NotifyConfig contains the change-feed fan-out configuration.
type NotifyConfig struct {
	PollInterval     time.Duration
	ReconnectBackoff time.Duration
	SubscriberBuffer int
}

// EventBusConfig configures the optional AMQP mirror of change events.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type EventBusConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	RoutingKey string
	Port       int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "videoarchive")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Archiver
	viper.SetDefault("archiver.workers", 4)
	viper.SetDefault("archiver.leasetimeout", 2*time.Hour)
	viper.SetDefault("archiver.errorbackoff", 10*time.Minute)
	viper.SetDefault("archiver.idleinterval", 5*time.Second)
	viper.SetDefault("archiver.tempdir", "/tmp/video-archive")
	viper.SetDefault("archiver.skipdownload", false)

	// Tracker
	viper.SetDefault("tracker.workers", 2)
	viper.SetDefault("tracker.recheckinterval", 10*time.Minute)
	viper.SetDefault("tracker.idleinterval", 5*time.Second)

	// Storage
	viper.SetDefault("storage.backend", "disk")
	viper.SetDefault("storage.location", "/var/lib/video-archive")
	viper.SetDefault("storage.bucket", "")
	viper.SetDefault("storage.urlttl", 7*24*time.Hour)
	viper.SetDefault("storage.cachemaxage", 7*24*time.Hour)

	// Notify
	viper.SetDefault("notify.pollinterval", 5*time.Second)
	viper.SetDefault("notify.reconnectbackoff", 5*time.Second)
	viper.SetDefault("notify.subscriberbuffer", 64)

	// EventBus
	viper.SetDefault("eventbus.enabled", false)
	viper.SetDefault("eventbus.host", "localhost")
	viper.SetDefault("eventbus.port", 5672)
	viper.SetDefault("eventbus.user", "guest")
	viper.SetDefault("eventbus.password", "guest")
	viper.SetDefault("eventbus.exchange", "archive.events")
	viper.SetDefault("eventbus.routingkey", "archive.changed")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
